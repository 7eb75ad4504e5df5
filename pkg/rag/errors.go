package rag

import "github.com/pkg/errors"

var (
	ErrNoCompletion = errors.New("no completion returned")
	ErrEmptyBatch   = errors.New("no texts to embed")
)
