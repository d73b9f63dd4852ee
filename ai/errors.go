package ai

import "errors"

var (
	// ErrEmptyEmbedding indicates the embedding service answered without
	// returning a vector. Callers treat this like any other embedding
	// failure; an empty vector must never reach ranking.
	ErrEmptyEmbedding = errors.New("embedding service returned no vector")

	// ErrEmbeddingCount indicates a batch response did not contain one
	// vector per input text.
	ErrEmbeddingCount = errors.New("embedding count does not match input count")
)
