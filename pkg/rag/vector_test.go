package rag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ragline/ragline/pkg/rag"
)

func TestCosine(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, rag.Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, rag.Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, rag.Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

func TestCosineDegenerate(t *testing.T) {
	t.Parallel()

	assert.Zero(t, rag.Cosine([]float32{1, 0}, []float32{1}))
	assert.Zero(t, rag.Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Zero(t, rag.Cosine(nil, nil))
}

func TestMatchesFilter(t *testing.T) {
	t.Parallel()

	doc := rag.Document{Metadata: map[string]interface{}{"lang": "go", "year": 2025}}

	assert.True(t, rag.MatchesFilter(doc, nil))
	assert.True(t, rag.MatchesFilter(doc, map[string]interface{}{"lang": "go"}))
	assert.False(t, rag.MatchesFilter(doc, map[string]interface{}{"lang": "rust"}))
	assert.False(t, rag.MatchesFilter(doc, map[string]interface{}{"missing": "x"}))
	assert.False(t, rag.MatchesFilter(rag.Document{}, map[string]interface{}{"lang": "go"}))
}
