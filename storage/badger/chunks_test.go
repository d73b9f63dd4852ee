package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/librarian/core"
	"github.com/poiesic/librarian/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChunk(id, text string, embedding []float32, metadata map[string]string) *core.DocumentChunk {
	return &core.DocumentChunk{
		Id:        core.ID(id),
		Text:      text,
		Embedding: embedding,
		Metadata:  metadata,
	}
}

func TestUpsertChunks(t *testing.T) {
	store, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		store.Close()
		backend.Close()
	}()

	ctx := context.Background()

	t.Run("stores and normalizes", func(t *testing.T) {
		chunk := newChunk("a", "active listening", []float32{3, 4, 0}, nil)
		require.NoError(t, store.UpsertChunks(ctx, chunk))

		got, err := store.GetChunk(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, core.ID("a"), got.Id)
		assert.Equal(t, "active listening", got.Text)
		assert.InDelta(t, 1.0, core.DotProduct(got.Embedding, got.Embedding), 1e-5)
		assert.False(t, got.IngestedAt.IsZero())
	})

	t.Run("replace is wholesale and keeps ingestion time", func(t *testing.T) {
		require.NoError(t, store.UpsertChunks(ctx, newChunk("b", "first", []float32{1, 0, 0}, map[string]string{"v": "1"})))
		first, err := store.GetChunk(ctx, "b")
		require.NoError(t, err)

		time.Sleep(2 * time.Millisecond)
		require.NoError(t, store.UpsertChunks(ctx, newChunk("b", "second", []float32{0, 1, 0}, map[string]string{"v": "2"})))

		got, err := store.GetChunk(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "second", got.Text)
		assert.Equal(t, "2", got.Metadata["v"])
		assert.Equal(t, first.IngestedAt, got.IngestedAt)
		assert.True(t, got.UpdatedAt.After(first.UpdatedAt) || got.UpdatedAt.Equal(first.UpdatedAt))
	})

	t.Run("invalid chunk rejected", func(t *testing.T) {
		err := store.UpsertChunks(ctx, newChunk("c", "", []float32{1}, nil))
		assert.ErrorIs(t, err, core.ErrInvalidChunk)
	})
}

func TestUpsertIdempotent(t *testing.T) {
	store, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		store.Close()
		backend.Close()
	}()

	ctx := context.Background()
	chunk := newChunk("same", "identical content", []float32{0, 1, 0}, map[string]string{"source": "x"})

	require.NoError(t, store.UpsertChunks(ctx, chunk))
	firstResults, err := store.QueryKNN(ctx, []float32{0, 1, 0}, 10, -1, nil)
	require.NoError(t, err)

	require.NoError(t, store.UpsertChunks(ctx, chunk))
	secondResults, err := store.QueryKNN(ctx, []float32{0, 1, 0}, 10, -1, nil)
	require.NoError(t, err)

	require.Len(t, secondResults, len(firstResults))
	for i := range firstResults {
		assert.Equal(t, firstResults[i].Chunk.Id, secondResults[i].Chunk.Id)
		assert.Equal(t, firstResults[i].Chunk.Text, secondResults[i].Chunk.Text)
		assert.Equal(t, firstResults[i].Relevance, secondResults[i].Relevance)
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetChunks(t *testing.T) {
	store, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		store.Close()
		backend.Close()
	}()

	ctx := context.Background()
	require.NoError(t, store.UpsertChunks(ctx,
		newChunk("a", "one", []float32{1, 0}, nil),
		newChunk("b", "two", []float32{0, 1}, nil),
	))

	t.Run("missing ids are skipped", func(t *testing.T) {
		chunks, err := store.GetChunks(ctx, "a", "nope", "b")
		require.NoError(t, err)
		assert.Len(t, chunks, 2)
	})

	t.Run("get missing chunk", func(t *testing.T) {
		_, err := store.GetChunk(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestDeleteChunks(t *testing.T) {
	store, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		store.Close()
		backend.Close()
	}()

	ctx := context.Background()
	require.NoError(t, store.UpsertChunks(ctx, newChunk("a", "one", []float32{1, 0}, nil)))

	require.NoError(t, store.DeleteChunks(ctx, "a"))
	_, err = store.GetChunk(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.DeleteChunks(ctx, "a"), storage.ErrNotFound)
}

func TestQueryKNN(t *testing.T) {
	store, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		store.Close()
		backend.Close()
	}()

	ctx := context.Background()
	require.NoError(t, store.UpsertChunks(ctx,
		newChunk("exact", "exact match", []float32{1, 0, 0}, map[string]string{"tag": "a"}),
		newChunk("close", "close match", []float32{0.9, 0.435889894, 0}, map[string]string{"tag": "a"}),
		newChunk("far", "far away", []float32{0, 0, 1}, map[string]string{"tag": "b"}),
	))

	query := []float32{1, 0, 0}

	t.Run("ordered by descending similarity", func(t *testing.T) {
		results, err := store.QueryKNN(ctx, query, 3, -1, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, core.ID("exact"), results[0].Chunk.Id)
		assert.Equal(t, core.ID("close"), results[1].Chunk.Id)
		assert.Equal(t, core.ID("far"), results[2].Chunk.Id)
		assert.GreaterOrEqual(t, results[0].Relevance, results[1].Relevance)
		assert.GreaterOrEqual(t, results[1].Relevance, results[2].Relevance)
	})

	t.Run("respects k", func(t *testing.T) {
		results, err := store.QueryKNN(ctx, query, 1, -1, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, core.ID("exact"), results[0].Chunk.Id)
	})

	t.Run("respects similarity threshold", func(t *testing.T) {
		results, err := store.QueryKNN(ctx, query, 10, 0.75, nil)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.GreaterOrEqual(t, r.Relevance, float32(0.75))
		}
	})

	t.Run("respects metadata filters", func(t *testing.T) {
		results, err := store.QueryKNN(ctx, query, 10, -1, core.Filters{"tag": "b"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, core.ID("far"), results[0].Chunk.Id)
	})

	t.Run("invalid k", func(t *testing.T) {
		_, err := store.QueryKNN(ctx, query, 0, -1, nil)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})

	t.Run("equal scores break ties by id", func(t *testing.T) {
		require.NoError(t, store.UpsertChunks(ctx,
			newChunk("dup-b", "duplicate two", []float32{1, 0, 0}, nil),
			newChunk("dup-a", "duplicate one", []float32{1, 0, 0}, nil),
		))
		results, err := store.QueryKNN(ctx, query, 3, -1, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, core.ID("dup-a"), results[0].Chunk.Id)
		assert.Equal(t, core.ID("dup-b"), results[1].Chunk.Id)
		assert.Equal(t, core.ID("exact"), results[2].Chunk.Id)
	})
}

func TestValidateDimension(t *testing.T) {
	store, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		store.Close()
		backend.Close()
	}()

	ctx := context.Background()
	require.NoError(t, store.UpsertChunks(ctx, newChunk("a", "one", []float32{1, 0, 0}, nil)))

	assert.NoError(t, store.ValidateDimension(ctx, 3))
	assert.ErrorIs(t, store.ValidateDimension(ctx, 384), core.ErrDimensionMismatch)
}

func TestListChunkIDs(t *testing.T) {
	store, backend, err := NewMemoryStore()
	require.NoError(t, err)
	defer func() {
		store.Close()
		backend.Close()
	}()

	ctx := context.Background()

	ids, err := store.ListChunkIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.UpsertChunks(ctx,
		newChunk("charlie", "three", []float32{0, 0, 1}, nil),
		newChunk("alpha", "one", []float32{1, 0, 0}, nil),
		newChunk("bravo", "two", []float32{0, 1, 0}, nil),
	))

	ids, err = store.ListChunkIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{"alpha", "bravo", "charlie"}, ids)
}

func TestClosedBackendFailsClosed(t *testing.T) {
	store, backend, err := NewMemoryStore()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.UpsertChunks(ctx, newChunk("a", "one", []float32{1, 0, 0}, nil)))
	require.NoError(t, backend.Close())

	_, err = store.QueryKNN(ctx, []float32{1, 0, 0}, 5, -1, nil)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = store.GetChunk(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	err = store.UpsertChunks(ctx, newChunk("b", "two", []float32{0, 1, 0}, nil))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
