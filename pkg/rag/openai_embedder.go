package rag

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// OpenAIEmbedderConfig configures the OpenAI embedding client.
type OpenAIEmbedderConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Dimension   int
	BatchSize   int
	MaxParallel int
}

// DefaultOpenAIEmbedderConfig returns the default embedder configuration.
func DefaultOpenAIEmbedderConfig() OpenAIEmbedderConfig {
	return OpenAIEmbedderConfig{
		Model:       "text-embedding-3-small",
		Dimension:   1536,
		BatchSize:   128,
		MaxParallel: 4,
	}
}

// OpenAIEmbedder generates embeddings through the OpenAI API. Large batches
// are split into chunks of BatchSize and embedded with at most MaxParallel
// requests in flight.
type OpenAIEmbedder struct {
	client openai.Client
	cfg    OpenAIEmbedderConfig
	log    *logrus.Logger
}

// NewOpenAIEmbedder returns an embedder backed by the OpenAI API. Zero config
// fields fall back to their defaults; a nil logger falls back to a fresh one.
func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig, log *logrus.Logger) *OpenAIEmbedder {
	defaults := DefaultOpenAIEmbedderConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = defaults.Dimension
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = defaults.MaxParallel
	}
	if log == nil {
		log = logrus.New()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(opts...),
		cfg:    cfg,
		log:    log,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}

	out := make([][]float32, len(texts))

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(e.cfg.MaxParallel)

	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		end := min(start+e.cfg.BatchSize, len(texts))

		grp.Go(func() error {
			vectors, err := e.embedBatch(gctx, texts[start:end])
			if err != nil {
				return errors.Wrapf(err, "unable to embed batch %d-%d", start, end)
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"texts": len(texts),
		"model": e.cfg.Model,
	}).Debug("embedded batch")

	return out, nil
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.embedBatch(ctx, []string{query})
	if err != nil {
		return nil, errors.Wrap(err, "unable to embed query")
	}

	return vectors[0], nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.cfg.Dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.cfg.Model
}

// embedBatch embeds one batch, returning vectors in input order.
func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.cfg.Model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		vectors[d.Index] = vec
	}

	return vectors, nil
}

var _ Embedder = (*OpenAIEmbedder)(nil)
