package rag_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragline/ragline/pkg/rag"
)

// newEmbeddingServer fakes the embeddings endpoint. Each input text embeds to
// a single-element vector holding its length, which makes input-to-output
// mapping checkable.
func newEmbeddingServer(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), "unexpected path %s", r.URL.Path)

		if requests != nil {
			requests.Add(1)
		}

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]interface{}, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(len(text))},
			}
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		}))
	}))
}

func TestOpenAIEmbedder(t *testing.T) {
	t.Parallel()

	server := newEmbeddingServer(t, nil)
	defer server.Close()

	embedder := rag.NewOpenAIEmbedder(rag.OpenAIEmbedderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)

	vectors, err := embedder.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1}, {2}, {3}}, vectors)
}

func TestOpenAIEmbedderBatches(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	server := newEmbeddingServer(t, &requests)
	defer server.Close()

	embedder := rag.NewOpenAIEmbedder(rag.OpenAIEmbedderConfig{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		BatchSize:   2,
		MaxParallel: 2,
	}, nil)

	vectors, err := embedder.Embed(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1}, {2}, {3}, {4}, {5}}, vectors)
	assert.EqualValues(t, 3, requests.Load())
}

func TestOpenAIEmbedderQuery(t *testing.T) {
	t.Parallel()

	server := newEmbeddingServer(t, nil)
	defer server.Close()

	embedder := rag.NewOpenAIEmbedder(rag.OpenAIEmbedderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)

	vector, err := embedder.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, []float32{5}, vector)
}

func TestOpenAIEmbedderServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	embedder := rag.NewOpenAIEmbedder(rag.OpenAIEmbedderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)

	_, err := embedder.Embed(context.Background(), []string{"a"})

	assert.Error(t, err)
}

func TestOpenAIEmbedderDefaults(t *testing.T) {
	t.Parallel()

	embedder := rag.NewOpenAIEmbedder(rag.OpenAIEmbedderConfig{}, nil)

	assert.Equal(t, 1536, embedder.Dimension())
	assert.Equal(t, "text-embedding-3-small", embedder.ModelName())
}
