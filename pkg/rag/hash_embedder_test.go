package rag_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragline/ragline/pkg/rag"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	t.Parallel()

	embedder := rag.NewHashEmbedder(64)
	ctx := context.Background()

	first, err := embedder.EmbedQuery(ctx, "pipelines move documents")
	require.NoError(t, err)
	second, err := embedder.EmbedQuery(ctx, "pipelines move documents")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestHashEmbedderNormalised(t *testing.T) {
	t.Parallel()

	embedder := rag.NewHashEmbedder(32)

	vec, err := embedder.EmbedQuery(context.Background(), "one two three")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}

	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashEmbedderBatchMatchesQuery(t *testing.T) {
	t.Parallel()

	embedder := rag.NewHashEmbedder(0)
	ctx := context.Background()

	batch, err := embedder.Embed(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, batch, 2)

	single, err := embedder.EmbedQuery(ctx, "beta")
	require.NoError(t, err)

	assert.Equal(t, single, batch[1])
	assert.Equal(t, 256, embedder.Dimension())
	assert.Equal(t, "hash-256", embedder.ModelName())
}

func TestHashEmbedderEmptyBatch(t *testing.T) {
	t.Parallel()

	embedder := rag.NewHashEmbedder(16)

	_, err := embedder.Embed(context.Background(), nil)

	assert.ErrorIs(t, err, rag.ErrEmptyBatch)
}

func TestHashEmbedderEmptyText(t *testing.T) {
	t.Parallel()

	embedder := rag.NewHashEmbedder(16)

	vec, err := embedder.EmbedQuery(context.Background(), "")
	require.NoError(t, err)

	assert.Len(t, vec, 16)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}
