package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/librarian/ai/mock"
	"github.com/poiesic/librarian/core"
)

func TestReembedderRun(t *testing.T) {
	t.Run("reembeds every chunk", func(t *testing.T) {
		store := newSeededStore(t, 5)
		ctx := context.Background()

		embedder := mock.NewMockEmbedder()
		embedder.Dim = 8

		var out bytes.Buffer
		r := NewReembedder(store, embedder, &Config{
			BatchSize:      2,
			ReportInterval: 2,
			MaxRetries:     2,
			RetryDelay:     time.Millisecond,
		}, &out)

		require.NoError(t, r.Run(ctx))

		ids, err := store.ListChunkIDs(ctx)
		require.NoError(t, err)
		chunks, err := store.GetChunks(ctx, ids...)
		require.NoError(t, err)
		require.Len(t, chunks, 5)
		for _, chunk := range chunks {
			assert.Len(t, chunk.Embedding, 8, "chunk %s not reembedded", chunk.Id)
		}

		assert.Contains(t, out.String(), "Starting reembedding of 5 chunks")
		assert.Contains(t, out.String(), "Reembedding complete")
	})

	t.Run("empty store is a no-op", func(t *testing.T) {
		store := newSeededStore(t, 0)

		var out bytes.Buffer
		r := NewReembedder(store, mock.NewMockEmbedder(), nil, &out)
		require.NoError(t, r.Run(context.Background()))
		assert.Contains(t, out.String(), "No chunks found")
	})

	t.Run("persistent embedding failure surfaces", func(t *testing.T) {
		store := newSeededStore(t, 3)

		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("model gone")
		}

		var out bytes.Buffer
		r := NewReembedder(store, embedder, &Config{
			BatchSize:      2,
			ReportInterval: 2,
			MaxRetries:     2,
			RetryDelay:     time.Millisecond,
		}, &out)

		err := r.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model gone")
	})

	t.Run("preserves chunk text and metadata", func(t *testing.T) {
		store := newSeededStore(t, 1)
		ctx := context.Background()

		require.NoError(t, store.UpsertChunks(ctx, &core.DocumentChunk{
			Id:        "titled",
			Text:      "a titled chunk",
			Metadata:  map[string]string{"title": "Titled"},
			Embedding: []float32{0, 1, 0},
		}))

		embedder := mock.NewMockEmbedder()
		embedder.Dim = 4

		var out bytes.Buffer
		r := NewReembedder(store, embedder, nil, &out)
		require.NoError(t, r.Run(ctx))

		chunk, err := store.GetChunk(ctx, "titled")
		require.NoError(t, err)
		assert.Equal(t, "a titled chunk", chunk.Text)
		assert.Equal(t, "Titled", chunk.Metadata["title"])
		assert.Len(t, chunk.Embedding, 4)
	})
}
