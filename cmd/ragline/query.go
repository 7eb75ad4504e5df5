package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/pkg/rag"
)

func runQuery(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	question := fs.String("q", "", "question to answer")
	showContext := fs.Bool("show-context", false, "print the retrieved documents")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *question == "" {
		return errors.New("-q is required")
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

	resultCache, closeCache, err := newCache(cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	builder, err := rag.NewPromptBuilder("")
	if err != nil {
		return err
	}

	pipe, err := rag.NewQueryPipeline(
		newRetriever(cfg, embedder, store, resultCache, log),
		searchOptions(cfg),
		builder,
		newGenerator(cfg, log),
	)
	if err != nil {
		return err
	}

	outputs, err := pipe.Run(ctx, rag.QueryInputs(*question))
	if err != nil {
		return err
	}

	if *showContext {
		docs, err := rag.Retrieved(outputs)
		if err != nil {
			return err
		}
		for i, doc := range docs {
			fmt.Printf("[%d] %.3f %s\n", i+1, doc.Score, doc.Content)
		}
		fmt.Println()
	}

	answer, err := rag.Answer(outputs)
	if err != nil {
		return err
	}

	fmt.Println(answer)

	return nil
}
