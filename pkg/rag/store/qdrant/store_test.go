package qdrant_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragline/ragline/pkg/rag"
	"github.com/ragline/ragline/pkg/rag/store/qdrant"
)

func newStore(t *testing.T, handler http.HandlerFunc) (*qdrant.Store, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := qdrant.DefaultConfig("docs", 4)
	cfg.BaseURL = server.URL
	cfg.APIKey = "test-key"

	store, err := qdrant.New(cfg, nil)
	require.NoError(t, err)

	return store, server
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

	return body
}

func writeResult(t *testing.T, w http.ResponseWriter, result interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"result": result,
	}))
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := qdrant.New(qdrant.Config{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "base url is required")
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		modify  func(*qdrant.Config)
		wantErr string
	}{
		"valid": {
			modify: func(*qdrant.Config) {},
		},
		"missing collection": {
			modify:  func(c *qdrant.Config) { c.Collection = "" },
			wantErr: "collection is required",
		},
		"bad vector size": {
			modify:  func(c *qdrant.Config) { c.VectorSize = 0 },
			wantErr: "vector size must be at least 1",
		},
		"bad timeout": {
			modify:  func(c *qdrant.Config) { c.Timeout = 0 },
			wantErr: "timeout must be positive",
		},
		"bad distance": {
			modify:  func(c *qdrant.Config) { c.Distance = "taxicab" },
			wantErr: "invalid distance metric",
		},
		"bad scan limit": {
			modify:  func(c *qdrant.Config) { c.KeywordScanLimit = 0 },
			wantErr: "keyword scan limit must be at least 1",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := qdrant.DefaultConfig("docs", 4)
			test.modify(&cfg)

			err := cfg.Validate()
			if test.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.wantErr)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	var apiKey string
	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		writeResult(t, w, map[string]interface{}{"version": "1.9.0"})
	})

	require.NoError(t, store.HealthCheck(context.Background()))
	assert.Equal(t, "test-key", apiKey)
}

func TestHealthCheckDown(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := store.HealthCheck(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unhealthy")
}

func TestEnsureCollectionCreates(t *testing.T) {
	t.Parallel()

	var created map[string]interface{}
	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			http.Error(w, `{"status":{"error":"not found"}}`, http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
			created = decodeBody(t, r)
			writeResult(t, w, true)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	require.NoError(t, store.EnsureCollection(context.Background()))

	require.NotNil(t, created)
	vectors, ok := created["vectors"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(4), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestEnsureCollectionExists(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		writeResult(t, w, map[string]interface{}{"status": "green"})
	})

	require.NoError(t, store.EnsureCollection(context.Background()))
}

func TestWrite(t *testing.T) {
	t.Parallel()

	var (
		path string
		body map[string]interface{}
	)
	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		path = r.URL.Path + "?" + r.URL.RawQuery
		body = decodeBody(t, r)
		writeResult(t, w, map[string]interface{}{"operation_id": 1})
	})

	doc := rag.NewDocument("hello qdrant", "greet.txt")
	doc.Embedding = []float32{1, 2, 3, 4}
	doc.Metadata = map[string]interface{}{"lang": "en"}

	written, err := store.Write(context.Background(), []rag.Document{doc})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	assert.Equal(t, "/collections/docs/points?wait=true", path)

	points, ok := body["points"].([]interface{})
	require.True(t, ok)
	require.Len(t, points, 1)

	p, ok := points[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, doc.ID, p["id"])

	payload, ok := p["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hello qdrant", payload["content"])
	assert.Equal(t, "greet.txt", payload["source"])
}

func TestWriteEmpty(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	written, err := store.Write(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, written)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	var body map[string]interface{}
	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/docs/points/search", r.URL.Path)
		body = decodeBody(t, r)

		writeResult(t, w, []map[string]interface{}{
			{
				"id":    "p1",
				"score": 0.91,
				"payload": map[string]interface{}{
					"content":    "first match",
					"source":     "a.txt",
					"parent_id":  "parent",
					"index":      2,
					"metadata":   map[string]interface{}{"lang": "en"},
					"created_at": time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339Nano),
				},
			},
			{
				"id":      "p2",
				"score":   0.42,
				"payload": map[string]interface{}{"content": "second match"},
			},
		})
	})

	docs, err := store.Search(context.Background(), []float32{1, 0, 0, 0}, rag.SearchOptions{
		TopK:     2,
		MinScore: 0.25,
		Filter:   map[string]interface{}{"lang": "en"},
	})
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "p1", docs[0].ID)
	assert.Equal(t, "first match", docs[0].Content)
	assert.Equal(t, "a.txt", docs[0].Source)
	assert.Equal(t, "parent", docs[0].ParentID)
	assert.Equal(t, 2, docs[0].Index)
	assert.InDelta(t, 0.91, docs[0].Score, 1e-6)
	assert.Equal(t, map[string]interface{}{"lang": "en"}, docs[0].Metadata)
	assert.Equal(t, 2025, docs[0].CreatedAt.Year())

	assert.Equal(t, float64(2), body["limit"])
	assert.InDelta(t, 0.25, body["score_threshold"].(float64), 1e-9)

	filter, ok := body["filter"].(map[string]interface{})
	require.True(t, ok)
	must, ok := filter["must"].([]interface{})
	require.True(t, ok)
	require.Len(t, must, 1)
	clause, ok := must[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "metadata.lang", clause["key"])
}

func TestSearchDefaultsLimit(t *testing.T) {
	t.Parallel()

	var body map[string]interface{}
	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		body = decodeBody(t, r)
		writeResult(t, w, []map[string]interface{}{})
	})

	_, err := store.Search(context.Background(), []float32{1, 0, 0, 0}, rag.SearchOptions{})
	require.NoError(t, err)

	assert.Equal(t, float64(rag.DefaultSearchOptions().TopK), body["limit"])
	assert.NotContains(t, body, "score_threshold")
	assert.NotContains(t, body, "filter")
}

func TestSearchKeyword(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/docs/points/scroll", r.URL.Path)

		writeResult(t, w, map[string]interface{}{
			"points": []map[string]interface{}{
				{"id": "none", "payload": map[string]interface{}{"content": "unrelated text"}},
				{"id": "both", "payload": map[string]interface{}{"content": "pipelines move documents"}},
				{"id": "one", "payload": map[string]interface{}{"content": "documents at rest"}},
			},
			"next_page_offset": nil,
		})
	})

	docs, err := store.SearchKeyword(context.Background(), "pipelines documents", rag.SearchOptions{TopK: 2})
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "both", docs[0].ID)
	assert.Equal(t, 1.0, docs[0].Score)
	assert.Equal(t, "one", docs[1].ID)
	assert.Equal(t, 0.5, docs[1].Score)
}

func TestList(t *testing.T) {
	t.Parallel()

	var body map[string]interface{}
	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/docs/points/scroll", r.URL.Path)
		body = decodeBody(t, r)

		writeResult(t, w, map[string]interface{}{
			"points": []map[string]interface{}{
				{"id": "a", "payload": map[string]interface{}{"content": "first"}},
				{"id": "b", "payload": map[string]interface{}{"content": "second"}},
			},
			"next_page_offset": nil,
		})
	})

	docs, err := store.List(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, float64(2), body["limit"])
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "second", docs[1].Content)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	var body map[string]interface{}
	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/docs/points/delete", r.URL.Path)
		body = decodeBody(t, r)
		writeResult(t, w, map[string]interface{}{"operation_id": 2})
	})

	require.NoError(t, store.Delete(context.Background(), []string{"a", "b"}))

	assert.Equal(t, []interface{}{"a", "b"}, body["points"])
}

func TestCount(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/docs/points/count", r.URL.Path)
		writeResult(t, w, map[string]interface{}{"count": 7})
	})

	count, err := store.Count(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, count)
}

func TestServerErrorSurfaces(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"status":{"error":"wrong vector size"}}`, http.StatusBadRequest)
	})

	_, err := store.Search(context.Background(), []float32{1}, rag.SearchOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "wrong vector size")
}
