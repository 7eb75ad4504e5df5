package qdrant

import (
	"time"

	"github.com/pkg/errors"
)

// Distance is a qdrant vector distance metric.
type Distance string

const (
	DistanceCosine Distance = "Cosine"
	DistanceDot    Distance = "Dot"
	DistanceEuclid Distance = "Euclid"
)

// Config configures the qdrant-backed document store.
type Config struct {
	BaseURL    string
	APIKey     string
	Collection string
	VectorSize int
	Distance   Distance
	Timeout    time.Duration

	// KeywordScanLimit caps how many points a keyword search scans. Keyword
	// scoring happens client-side, so collections larger than this need a
	// server-side text index instead.
	KeywordScanLimit int
}

// DefaultConfig returns the default store configuration for the collection.
func DefaultConfig(collection string, vectorSize int) Config {
	return Config{
		BaseURL:          "http://localhost:6333",
		Collection:       collection,
		VectorSize:       vectorSize,
		Distance:         DistanceCosine,
		Timeout:          30 * time.Second,
		KeywordScanLimit: 1024,
	}
}

// Validate reports the first invalid config field.
func (c Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base url is required")
	case c.Collection == "":
		return errors.New("collection is required")
	case c.VectorSize < 1:
		return errors.New("vector size must be at least 1")
	case c.Timeout <= 0:
		return errors.New("timeout must be positive")
	case c.KeywordScanLimit < 1:
		return errors.New("keyword scan limit must be at least 1")
	}

	switch c.Distance {
	case DistanceCosine, DistanceDot, DistanceEuclid:
	default:
		return errors.Errorf("invalid distance metric %q", c.Distance)
	}

	return nil
}
