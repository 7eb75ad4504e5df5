package rag

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
)

const defaultHashDimension = 256

// HashEmbedder is a deterministic, offline embedder. It hashes tokens into a
// fixed number of buckets and L2-normalises the bucket counts. It captures
// lexical overlap rather than meaning, which is enough for tests and for
// air-gapped runs.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a hash embedder with the given dimension. A
// non-positive dimension falls back to the default.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = defaultHashDimension
	}

	return &HashEmbedder{dim: dim}
}

func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text)
	}

	return out, nil
}

func (e *HashEmbedder) EmbedQuery(_ context.Context, query string) ([]float32, error) {
	return e.embed(query), nil
}

func (e *HashEmbedder) Dimension() int {
	return e.dim
}

func (e *HashEmbedder) ModelName() string {
	return fmt.Sprintf("hash-%d", e.dim)
}

func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dim)

	for _, token := range Tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%e.dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}

	return vec
}

var _ Embedder = (*HashEmbedder)(nil)
