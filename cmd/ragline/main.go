// Command ragline drives the pipeline toolkit from the terminal: indexing
// and querying documents, generating synthetic test sets, aggregating a
// realtime order-book feed, serving the HTTP API and rendering pipeline
// graphs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/internal/config"
)

const usageText = `usage: ragline <command> [flags]

Commands:
  index      load, split, embed and store documents
  query      answer a question from the indexed documents
  testset    generate a synthetic question dataset from the store
  orderbook  stream a depth feed into an order-book pipeline
  serve      expose index and query over HTTP
  draw       render a pipeline graph as a DOT file

Run 'ragline <command> -h' for command flags.
`

func main() {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := config.Load()
	log := newLogger(cfg)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd := os.Args[1]; cmd {
	case "index":
		err = runIndex(ctx, cfg, log, os.Args[2:])
	case "query":
		err = runQuery(ctx, cfg, log, os.Args[2:])
	case "testset":
		err = runTestset(ctx, cfg, log, os.Args[2:])
	case "orderbook":
		err = runOrderbook(ctx, cfg, log, os.Args[2:])
	case "serve":
		err = runServe(ctx, cfg, log, os.Args[2:])
	case "draw":
		err = runDraw(ctx, cfg, log, os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usageText)
		os.Exit(2)
	}
	if err != nil {
		log.WithError(err).Fatal("command failed")
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log
}
