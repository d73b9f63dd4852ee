package storage

import (
	"context"

	"github.com/poiesic/librarian/core"
)

// ChunkStore persists embedded document fragments and answers approximate
// nearest-neighbor queries over them. Implementations must be thread-safe;
// the retrieval engine treats the store as read-only and never mutates an
// entry it reads.
type ChunkStore interface {
	// UpsertChunks stores one or more chunks, replacing any existing chunk
	// with the same Id wholesale. Sets IngestedAt on first insert and
	// UpdatedAt on every write. Upserting identical content twice yields a
	// store state indistinguishable from a single call.
	UpsertChunks(ctx context.Context, chunks ...*core.DocumentChunk) error

	// GetChunk retrieves a single chunk by Id.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.DocumentChunk, error)

	// GetChunks retrieves multiple chunks by their Ids.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.DocumentChunk, error)

	// DeleteChunks removes chunks by their Ids.
	// Returns ErrNotFound if any chunk doesn't exist.
	DeleteChunks(ctx context.Context, ids ...core.ID) error

	// QueryKNN finds the k chunks most similar to the given vector by
	// cosine similarity, ordered by descending score with ties broken by
	// ascending Id. Chunks scoring below minSimilarity are excluded; pass
	// -1 to disable the threshold. Filters restricts candidates by
	// metadata equality.
	QueryKNN(ctx context.Context, vector []float32, k int, minSimilarity float32, filters core.Filters) ([]*core.ScoredChunk, error)

	// ListChunkIDs returns the ids of all stored chunks in ascending order.
	ListChunkIDs(ctx context.Context) ([]core.ID, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// ValidateDimension checks every stored chunk carries a vector of the
	// given dimension. A mismatch is a fatal configuration error.
	ValidateDimension(ctx context.Context, dim int) error

	// Close closes the storage backend and releases resources.
	Close() error
}
