package librarian

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/librarian/ai/mock"
	"github.com/poiesic/librarian/core"
	"github.com/poiesic/librarian/ingestion"
)

func TestNewLibrary(t *testing.T) {
	t.Run("create new library", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_library")
		lib, err := NewLibrary(tmpDir, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, lib)
		defer lib.Close()

		assert.NotNil(t, lib.Store())
		assert.NotNil(t, lib.backend)
		assert.NotNil(t, lib.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		lib, err := NewLibrary(tmpFile, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, lib)
	})
}

func TestLibrary_Close(t *testing.T) {
	lib, err := NewLibrary("", WithInMemoryStorage(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	assert.NoError(t, lib.Close())
}

func TestLibrary_IngestAndQuery(t *testing.T) {
	lib, err := NewLibrary("", WithInMemoryStorage(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer lib.Close()

	ctx := context.Background()

	ids, err := lib.Ingest(ctx,
		&ingestion.Fragment{Text: "the eiffel tower is in paris"},
		&ingestion.Fragment{Text: "badgers are nocturnal mammals"},
	)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	stats, err := lib.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 384, stats.Dimension)

	// The mock embedder is deterministic, so querying with the exact
	// ingested text must rank that chunk first.
	result, err := lib.Query(ctx, &core.QueryRequest{
		Text: "the eiffel tower is in paris",
		Mode: core.ModeFoundation,
		TopK: 1,
	})
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, ids[0], result.Chunks[0].Chunk.Id)
	assert.InDelta(t, 1.0, result.Chunks[0].Relevance, 1e-4)
}

func TestLibrary_DimensionGuard(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "library")

	embedder := mock.NewMockEmbedder()
	embedder.Dim = 8
	lib, err := NewLibrary(tmpDir, WithProvider(mock.NewMockProviderWithEmbedder(embedder, 8)))
	require.NoError(t, err)

	_, err = lib.Ingest(context.Background(), &ingestion.Fragment{Text: "seed"})
	require.NoError(t, err)
	require.NoError(t, lib.Close())

	// Reopening with a provider of a different dimension must refuse.
	other := mock.NewMockEmbedder()
	other.Dim = 16
	_, err = NewLibrary(tmpDir, WithProvider(mock.NewMockProviderWithEmbedder(other, 16)))
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}
