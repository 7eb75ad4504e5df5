// Package config loads the demo binary configuration from the environment.
// cmd/ragline reads a .env file first, so every field here can be set either
// way.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config gathers the settings of every component the demo binary can wire.
type Config struct {
	LogLevel  string
	LogFormat string

	Server    ServerConfig
	Store     StoreConfig
	OpenAI    OpenAIConfig
	Embedding EmbeddingConfig
	Chat      ChatConfig
	Retrieval RetrievalConfig
	Cache     CacheConfig
	Feed      FeedConfig
}

// ServerConfig configures the HTTP API of the serve command.
type ServerConfig struct {
	Host         string
	Port         string
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Backend    string // "memory", "sqlite" or "qdrant"
	SQLitePath string
	Qdrant     QdrantConfig
}

// QdrantConfig carries the connection settings for the qdrant backend.
type QdrantConfig struct {
	BaseURL    string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// OpenAIConfig carries the shared OpenAI credentials.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// EmbeddingConfig selects and configures the embedder.
type EmbeddingConfig struct {
	Provider    string // "hash" or "openai"
	Model       string
	Dimension   int
	BatchSize   int
	MaxParallel int
}

// ChatConfig configures the answer generator.
type ChatConfig struct {
	Model       string
	Temperature float64
}

// RetrievalConfig configures document search. Hybrid fuses embedding and
// keyword retrieval with reciprocal-rank fusion.
type RetrievalConfig struct {
	TopK     int
	MinScore float64
	Hybrid   bool
}

// CacheConfig selects and configures the retrieval result cache.
type CacheConfig struct {
	Backend  string // "none", "memory" or "redis"
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// FeedConfig configures the order-book demo feed.
type FeedConfig struct {
	URL    string
	Symbol string
	Depth  int
}

// Load builds the configuration from environment variables, falling back to
// defaults that work without any external service.
func Load() *Config {
	return &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("PORT", "8080"),
			Mode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:  getDurationEnv("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getDurationEnv("IDLE_TIMEOUT", 120*time.Second),
		},
		Store: StoreConfig{
			Backend:    getEnv("STORE_BACKEND", "memory"),
			SQLitePath: getEnv("SQLITE_PATH", "ragline.db"),
			Qdrant: QdrantConfig{
				BaseURL:    getEnv("QDRANT_BASE_URL", "http://localhost:6333"),
				APIKey:     getEnv("QDRANT_API_KEY", ""),
				Collection: getEnv("QDRANT_COLLECTION", "ragline"),
				Timeout:    getDurationEnv("QDRANT_TIMEOUT", 30*time.Second),
			},
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
		},
		Embedding: EmbeddingConfig{
			Provider:    getEnv("EMBED_PROVIDER", "hash"),
			Model:       getEnv("EMBED_MODEL", "text-embedding-3-small"),
			Dimension:   getIntEnv("EMBED_DIMENSION", 256),
			BatchSize:   getIntEnv("EMBED_BATCH_SIZE", 128),
			MaxParallel: getIntEnv("EMBED_MAX_PARALLEL", 4),
		},
		Chat: ChatConfig{
			Model:       getEnv("CHAT_MODEL", "gpt-4o-mini"),
			Temperature: getFloatEnv("CHAT_TEMPERATURE", 0.2),
		},
		Retrieval: RetrievalConfig{
			TopK:     getIntEnv("RETRIEVAL_TOP_K", 5),
			MinScore: getFloatEnv("RETRIEVAL_MIN_SCORE", 0),
			Hybrid:   getBoolEnv("RETRIEVAL_HYBRID", false),
		},
		Cache: CacheConfig{
			Backend:  getEnv("CACHE_BACKEND", "none"),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			Prefix:   getEnv("CACHE_PREFIX", "ragline"),
			TTL:      getDurationEnv("CACHE_TTL", 5*time.Minute),
		},
		Feed: FeedConfig{
			URL:    getEnv("FEED_URL", ""),
			Symbol: getEnv("FEED_SYMBOL", "BTCUSDT"),
			Depth:  getIntEnv("FEED_DEPTH", 5),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}

	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}

	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}

	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}

	return defaultValue
}
