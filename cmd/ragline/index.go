package main

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/pipeline/measure"
	"github.com/ragline/ragline/pkg/rag"
)

func runIndex(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	path := fs.String("path", "", "file or directory to index")
	sentences := fs.Int("sentences", 0, "max sentences per chunk (0 = default)")
	measured := fs.Bool("measure", false, "print per-stage timings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("-path is required")
	}

	store, closeStore, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	embedder, err := newEmbedder(cfg, log)
	if err != nil {
		return err
	}

	var opts []pipeline.Option
	var m measure.Measure
	if *measured {
		m = measure.NewDefaultMeasure()
		opts = append(opts, pipeline.WithHooks(measure.PipelineMeasure(m)))
	}

	pipe, err := rag.NewIndexPipeline(
		rag.PathSourceStage(*path, log),
		rag.SentenceSplitter{MaxSentences: *sentences},
		embedder,
		store,
		opts...,
	)
	if err != nil {
		return err
	}

	outputs, err := pipe.Run(ctx, nil)
	if err != nil {
		return err
	}

	written, err := rag.Written(outputs)
	if err != nil {
		return err
	}

	fmt.Printf("indexed %d chunks from %s\n", written, *path)
	if m != nil {
		printMeasure(m)
	}

	return nil
}

func printMeasure(m measure.Measure) {
	all := m.AllMetrics()

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mt := all[name]
		fmt.Printf("  %-10s runs=%d total=%s avg=%s\n", name, mt.Runs(), mt.TotalDuration(), mt.AVGDuration())
	}
	fmt.Printf("  %-10s runs=%d total=%s\n", "pipeline", m.Runs(), m.TotalDuration())
}
