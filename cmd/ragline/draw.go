package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/pipeline/drawer"
	"github.com/ragline/ragline/pkg/pipeline/measure"
	"github.com/ragline/ragline/pkg/rag"
	"github.com/ragline/ragline/pkg/rag/store/memory"
)

// runDraw runs the chosen pipeline once over throwaway components so the
// drawer hook renders its graph.
func runDraw(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	out := fs.String("out", "pipeline.dot", "DOT file to write")
	name := fs.String("pipeline", "index", "pipeline to draw: index or query")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m := measure.NewDefaultMeasure()
	hooks := pipeline.WithHooks(
		measure.PipelineMeasure(m),
		drawer.PipelineDrawer(drawer.NewDOTDrawer(*out), m),
	)

	embedder := rag.NewHashEmbedder(64)
	store := memory.New()

	switch *name {
	case "index":
		doc := rag.NewDocument("A sample document so every stage has work to do.", "draw")

		pipe, err := rag.NewIndexPipeline(
			rag.DocumentsStage([]rag.Document{doc}),
			rag.SentenceSplitter{},
			embedder,
			store,
			hooks,
		)
		if err != nil {
			return err
		}

		if _, err := pipe.Run(ctx, nil); err != nil {
			return err
		}
	case "query":
		builder, err := rag.NewPromptBuilder("")
		if err != nil {
			return err
		}

		retriever := rag.NewEmbeddingRetriever(embedder, store, nil, log)
		generator := rag.StaticGenerator{Answer: "a sample answer"}

		pipe, err := rag.NewQueryPipeline(retriever, rag.DefaultSearchOptions(), builder, generator, hooks)
		if err != nil {
			return err
		}

		if _, err := pipe.Run(ctx, rag.QueryInputs("a sample question")); err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown pipeline %q", *name)
	}

	fmt.Printf("wrote %s\n", *out)

	return nil
}
