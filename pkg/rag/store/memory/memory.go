// Package memory provides an in-memory document store. It serves tests,
// air-gapped runs and small corpora; nothing survives the process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ragline/ragline/pkg/rag"
)

// Store keeps documents in memory. Writes upsert by document id; searches
// order ties by insertion so results are deterministic.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]int
	docs  []rag.Document
	alive []bool
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{byID: make(map[string]int)}
}

func (s *Store) Write(_ context.Context, docs []rag.Document) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		if i, ok := s.byID[doc.ID]; ok {
			s.docs[i] = doc
			s.alive[i] = true
			continue
		}
		s.byID[doc.ID] = len(s.docs)
		s.docs = append(s.docs, doc)
		s.alive = append(s.alive, true)
	}

	return len(docs), nil
}

func (s *Store) Search(_ context.Context, vector []float32, opts rag.SearchOptions) ([]rag.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.search(opts, func(doc rag.Document) float64 {
		return rag.Cosine(vector, doc.Embedding)
	}), nil
}

func (s *Store) SearchKeyword(_ context.Context, query string, opts rag.SearchOptions) ([]rag.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := rag.Tokenize(query)

	return s.search(opts, func(doc rag.Document) float64 {
		return rag.KeywordScore(doc.Content, tokens)
	}), nil
}

// List returns live documents in insertion order, up to limit when
// limit is positive.
func (s *Store) List(_ context.Context, limit int) ([]rag.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]rag.Document, 0, len(s.byID))
	for i, doc := range s.docs {
		if !s.alive[i] {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, doc)
	}

	return out, nil
}

func (s *Store) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if i, ok := s.byID[id]; ok {
			s.alive[i] = false
			delete(s.byID, id)
		}
	}

	return nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.byID), nil
}

// Clear drops every document.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[string]int)
	s.docs = nil
	s.alive = nil
}

// search scores live documents, filters and sorts them. Caller holds the
// read lock.
func (s *Store) search(opts rag.SearchOptions, score func(rag.Document) float64) []rag.Document {
	matches := make([]rag.Document, 0, len(s.docs))

	for i, doc := range s.docs {
		if !s.alive[i] || !rag.MatchesFilter(doc, opts.Filter) {
			continue
		}

		doc.Score = score(doc)
		if doc.Score < opts.MinScore {
			continue
		}
		matches = append(matches, doc)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if opts.TopK > 0 && opts.TopK < len(matches) {
		matches = matches[:opts.TopK]
	}

	return matches
}

var _ rag.DocumentStore = (*Store)(nil)
