package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/pkg/rag"
	"github.com/ragline/ragline/pkg/rag/cache"
	"github.com/ragline/ragline/pkg/rag/store/memory"
	"github.com/ragline/ragline/pkg/rag/store/qdrant"
	"github.com/ragline/ragline/pkg/rag/store/sqlite"
)

func noopClose() error { return nil }

// newStore builds the configured document store and returns it with its
// close function.
func newStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (rag.DocumentStore, func() error, error) {
	switch cfg.Store.Backend {
	case "memory":
		return memory.New(), noopClose, nil
	case "sqlite":
		store, err := sqlite.Open(cfg.Store.SQLitePath, log)
		if err != nil {
			return nil, nil, errors.Wrap(err, "unable to open sqlite store")
		}

		return store, store.Close, nil
	case "qdrant":
		qcfg := qdrant.DefaultConfig(cfg.Store.Qdrant.Collection, cfg.Embedding.Dimension)
		qcfg.BaseURL = cfg.Store.Qdrant.BaseURL
		qcfg.APIKey = cfg.Store.Qdrant.APIKey
		if cfg.Store.Qdrant.Timeout > 0 {
			qcfg.Timeout = cfg.Store.Qdrant.Timeout
		}

		store, err := qdrant.New(qcfg, log)
		if err != nil {
			return nil, nil, errors.Wrap(err, "unable to build qdrant store")
		}
		if err := store.EnsureCollection(ctx); err != nil {
			return nil, nil, err
		}

		return store, noopClose, nil
	default:
		return nil, nil, errors.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newEmbedder(cfg *config.Config, log *logrus.Logger) (rag.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "hash":
		return rag.NewHashEmbedder(cfg.Embedding.Dimension), nil
	case "openai":
		return rag.NewOpenAIEmbedder(rag.OpenAIEmbedderConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.Embedding.Model,
			Dimension:   cfg.Embedding.Dimension,
			BatchSize:   cfg.Embedding.BatchSize,
			MaxParallel: cfg.Embedding.MaxParallel,
		}, log), nil
	default:
		return nil, errors.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func newGenerator(cfg *config.Config, log *logrus.Logger) rag.Generator {
	if cfg.OpenAI.APIKey == "" {
		log.Warn("OPENAI_API_KEY is not set, answers will be canned")
		return rag.StaticGenerator{Answer: "Set OPENAI_API_KEY to generate real answers."}
	}

	return rag.NewOpenAIGenerator(rag.OpenAIGeneratorConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
	}, log)
}

// newCache builds the configured retrieval cache. The "none" backend returns
// a nil cache, which the retriever treats as disabled.
func newCache(cfg *config.Config, log *logrus.Logger) (rag.ResultCache, func() error, error) {
	switch cfg.Cache.Backend {
	case "none", "":
		return nil, noopClose, nil
	case "memory":
		return cache.NewMemory(cfg.Cache.TTL), noopClose, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})

		return cache.NewRedis(client, cfg.Cache.Prefix, cfg.Cache.TTL, log), client.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func newRetriever(cfg *config.Config, embedder rag.Embedder, store rag.DocumentStore, resultCache rag.ResultCache, log *logrus.Logger) rag.Retriever {
	dense := rag.NewEmbeddingRetriever(embedder, store, resultCache, log)
	if !cfg.Retrieval.Hybrid {
		return dense
	}

	return rag.NewHybridRetriever(dense, rag.NewKeywordRetriever(store), log)
}

func searchOptions(cfg *config.Config) rag.SearchOptions {
	opts := rag.DefaultSearchOptions()
	if cfg.Retrieval.TopK > 0 {
		opts.TopK = cfg.Retrieval.TopK
	}
	opts.MinScore = cfg.Retrieval.MinScore

	return opts
}
