package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/pkg/testset"
)

func runTestset(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("testset", flag.ExitOnError)
	out := fs.String("out", "testset.jsonl", "output JSONL path")
	docs := fs.Int("docs", 0, "documents to sample (0 = all)")
	questions := fs.Int("questions", 2, "questions per document")
	seed := fs.Int64("seed", 0, "sampling seed (0 = keep listing order)")
	answers := fs.Bool("answers", true, "generate reference answers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, closeStore, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	lister, ok := store.(testset.Lister)
	if !ok {
		return errors.Errorf("store backend %q cannot list documents", cfg.Store.Backend)
	}

	gen := testset.NewGenerator(lister, newGenerator(cfg, log), testset.Config{
		Documents:       *docs,
		QuestionsPerDoc: *questions,
		Seed:            *seed,
		Answers:         *answers,
	}, log)

	f, err := os.Create(*out)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", *out)
	}

	pipe, err := testset.NewPipeline(gen, f)
	if err != nil {
		f.Close()
		return err
	}

	outputs, err := pipe.Run(ctx, nil)
	if err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "unable to close %s", *out)
	}

	written, err := testset.Written(outputs)
	if err != nil {
		return err
	}

	fmt.Printf("wrote %d samples to %s\n", written, *out)

	return nil
}
