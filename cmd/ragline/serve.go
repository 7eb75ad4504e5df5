package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/pkg/assistant"
	"github.com/ragline/ragline/pkg/rag"
)

func runServe(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", cfg.Server.Addr(), "address to listen on")
	routes := fs.String("routes", "", "assistant routes YAML, mounts POST /assistant")
	if err := fs.Parse(args); err != nil {
		return err
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

	srv := &server{
		cfg:       cfg,
		store:     store,
		embedder:  embedder,
		retriever: newRetriever(cfg, embedder, store, resultCache, log),
		builder:   builder,
		generator: newGenerator(cfg, log),
		log:       log,
	}

	if *routes != "" {
		routeCfg, err := assistant.LoadConfig(*routes)
		if err != nil {
			return err
		}

		srv.assistant, err = assistant.New(routeCfg, srv.retriever, srv.generator, log)
		if err != nil {
			return err
		}
	}

	gin.SetMode(cfg.Server.Mode)

	httpServer := &http.Server{
		Addr:         *listen,
		Handler:      srv.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", *listen).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return errors.Wrap(err, "unable to start server")
	case <-ctx.Done():
	}

	log.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "unable to shut down server")
	}

	return nil
}
