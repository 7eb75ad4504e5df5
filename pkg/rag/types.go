// Package rag provides the building blocks of retrieval-augmented generation
// dataflows: documents, splitters, embedders, document stores, retrievers,
// prompt building and generation, plus ready-made pipeline stages for each.
package rag

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Document is a unit of retrievable content. Documents produced by a splitter
// keep their lineage through ParentID and Index.
type Document struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Source    string                 `json:"source,omitempty"`
	ParentID  string                 `json:"parent_id,omitempty"`
	Index     int                    `json:"index,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Embedding []float32              `json:"embedding,omitempty"`
	Score     float64                `json:"score,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewDocument mints a document with a fresh id.
func NewDocument(content, source string) Document {
	return Document{
		ID:        uuid.NewString(),
		Content:   content,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// SearchOptions configures a store search.
type SearchOptions struct {
	TopK     int                    `json:"top_k"`
	MinScore float64                `json:"min_score"`
	Filter   map[string]interface{} `json:"filter,omitempty"`
}

// DefaultSearchOptions returns the default search options.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{TopK: 5}
}

// Embedder generates vector embeddings.
type Embedder interface {
	// Embed generates embeddings for a batch of texts, one vector per text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	// Dimension returns the embedding dimension.
	Dimension() int
	// ModelName returns the embedding model name.
	ModelName() string
}

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Splitter cuts a document into smaller child documents.
type Splitter interface {
	Split(doc Document) []Document
}

// DocumentStore persists embedded documents and serves searches over them.
type DocumentStore interface {
	// Write upserts documents and reports how many were written.
	Write(ctx context.Context, docs []Document) (int, error)
	// Search returns the documents closest to the vector, best first.
	Search(ctx context.Context, vector []float32, opts SearchOptions) ([]Document, error)
	// SearchKeyword returns the documents matching the query terms, best first.
	SearchKeyword(ctx context.Context, query string, opts SearchOptions) ([]Document, error)
	// Delete removes documents by id.
	Delete(ctx context.Context, ids []string) error
	// Count reports the number of stored documents.
	Count(ctx context.Context) (int, error)
}

// Retriever finds documents relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts SearchOptions) ([]Document, error)
}

// RetrieverFunc adapts a plain function to the Retriever interface.
type RetrieverFunc func(ctx context.Context, query string, opts SearchOptions) ([]Document, error)

func (f RetrieverFunc) Retrieve(ctx context.Context, query string, opts SearchOptions) ([]Document, error) {
	return f(ctx, query, opts)
}

// ResultCache caches retrieval results keyed by a query signature.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]Document, bool, error)
	Set(ctx context.Context, key string, docs []Document) error
	Invalidate(ctx context.Context) error
}
