package ingestion

import "errors"

var (
	// ErrStoreRequired is returned when a chunk store is not provided.
	ErrStoreRequired = errors.New("chunk store required")

	// ErrProviderRequired is returned when an embedding provider is not provided.
	ErrProviderRequired = errors.New("embedding provider required")

	// ErrNoFragments is returned when Ingest is called with an empty batch.
	ErrNoFragments = errors.New("no fragments to ingest")

	// ErrInvalidFragment is returned when a fragment fails validation.
	ErrInvalidFragment = errors.New("invalid fragment")

	// ErrEmbeddingFailed is returned when the provider could not embed a batch.
	ErrEmbeddingFailed = errors.New("embedding failed")
)
