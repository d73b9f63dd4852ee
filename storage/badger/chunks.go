package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/librarian/core"
	"github.com/poiesic/librarian/storage"
)

// ChunkRepository implements storage.ChunkStore for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkStore = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *ChunkRepository) Close() error {
	return nil
}

// UpsertChunks stores one or more chunks, replacing existing chunks with the
// same Id wholesale. Embeddings are normalized to unit length so similarity
// scans can use dot products.
func (r *ChunkRepository) UpsertChunks(ctx context.Context, chunks ...*core.DocumentChunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if err := core.ValidateChunk(chunk, 0); err != nil {
				return err
			}

			key := makeChunkKey(chunk.Id)

			// Preserve the original ingestion timestamp on replace
			old, err := r.readChunk(tx, key)
			if err != nil {
				return err
			}

			stored := *chunk
			stored.Embedding = core.NormalizeVector(chunk.Embedding)
			stored.UpdatedAt = time.Now().UTC()
			if old != nil {
				stored.IngestedAt = old.IngestedAt
			} else if stored.IngestedAt.IsZero() {
				stored.IngestedAt = stored.UpdatedAt
			}

			if err := tx.Set(key, storage.MarshalChunk(&stored)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunk retrieves a single chunk by Id.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.DocumentChunk, error) {
	var chunk *core.DocumentChunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		chunk, err = r.readChunk(tx, makeChunkKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if chunk == nil {
		return nil, storage.ErrNotFound
	}

	return chunk, nil
}

// GetChunks retrieves multiple chunks by their Ids.
// Returns only the chunks that exist.
func (r *ChunkRepository) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.DocumentChunk, error) {
	chunks := make([]*core.DocumentChunk, 0, len(ids))

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := r.readChunk(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				chunks = append(chunks, chunk)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// DeleteChunks removes chunks by their Ids.
func (r *ChunkRepository) DeleteChunks(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeChunkKey(id)

			if _, err := tx.Get(key); err != nil {
				if err == badger.ErrKeyNotFound {
					return storage.ErrNotFound
				}
				return err
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// QueryKNN delegates to the backend.
func (r *ChunkRepository) QueryKNN(ctx context.Context, vector []float32, k int, minSimilarity float32, filters core.Filters) ([]*core.ScoredChunk, error) {
	return r.backend.QueryKNN(ctx, vector, k, minSimilarity, filters)
}

// ListChunkIDs returns the ids of all stored chunks. Badger iterates keys in
// byte order, so the result is sorted ascending.
func (r *ChunkRepository) ListChunkIDs(ctx context.Context) ([]core.ID, error) {
	var ids []core.ID

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkKeyPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := iter.Item().Key()
			ids = append(ids, core.ID(key[len(chunkKeyPrefix):]))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// Count returns the number of stored chunks.
func (r *ChunkRepository) Count(ctx context.Context) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkKeyPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// ValidateDimension checks that every stored chunk carries a vector of the
// given dimension.
func (r *ChunkRepository) ValidateDimension(ctx context.Context, dim int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkKeyPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.DocumentChunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil && len(chunk.Embedding) != dim {
				return fmt.Errorf("%w: chunk %s has dimension %d, store configured for %d",
					core.ErrDimensionMismatch, chunk.Id, len(chunk.Embedding), dim)
			}
		}
		return nil
	}, false)
}

// readChunk reads a chunk by key within a transaction.
// Returns nil (no error) when the key does not exist.
func (r *ChunkRepository) readChunk(tx *badger.Txn, key []byte) (*core.DocumentChunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.DocumentChunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	if err != nil {
		return nil, err
	}

	return chunk, nil
}
