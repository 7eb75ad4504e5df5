package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	// The loader treats empty values as unset, so this clears anything the
	// host environment may carry.
	for _, key := range []string{
		"LOG_LEVEL", "LOG_FORMAT", "SERVER_HOST", "PORT", "GIN_MODE",
		"READ_TIMEOUT", "STORE_BACKEND", "SQLITE_PATH", "QDRANT_BASE_URL",
		"QDRANT_COLLECTION", "EMBED_PROVIDER", "EMBED_DIMENSION",
		"RETRIEVAL_TOP_K", "RETRIEVAL_HYBRID", "CACHE_BACKEND", "CACHE_TTL",
		"FEED_SYMBOL", "FEED_DEPTH",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "ragline.db", cfg.Store.SQLitePath)
	assert.Equal(t, "http://localhost:6333", cfg.Store.Qdrant.BaseURL)
	assert.Equal(t, "ragline", cfg.Store.Qdrant.Collection)

	assert.Equal(t, "hash", cfg.Embedding.Provider)
	assert.Equal(t, 256, cfg.Embedding.Dimension)

	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.False(t, cfg.Retrieval.Hybrid)

	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)

	assert.Equal(t, "BTCUSDT", cfg.Feed.Symbol)
	assert.Equal(t, 5, cfg.Feed.Depth)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_HOST", "")
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/docs.db")
	t.Setenv("EMBED_DIMENSION", "512")
	t.Setenv("RETRIEVAL_MIN_SCORE", "0.25")
	t.Setenv("RETRIEVAL_HYBRID", "true")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("QDRANT_TIMEOUT", "5s")

	cfg := Load()

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/tmp/docs.db", cfg.Store.SQLitePath)
	assert.Equal(t, 512, cfg.Embedding.Dimension)
	assert.Equal(t, 0.25, cfg.Retrieval.MinScore)
	assert.True(t, cfg.Retrieval.Hybrid)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 5*time.Second, cfg.Store.Qdrant.Timeout)
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("EMBED_DIMENSION", "many")
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("RETRIEVAL_HYBRID", "sure")

	cfg := Load()

	assert.Equal(t, 256, cfg.Embedding.Dimension)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Retrieval.Hybrid)
}
