package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedderDeterminism(t *testing.T) {
	embedder := NewMockEmbedder()
	ctx := context.Background()

	first, err := embedder.EmbedText(ctx, "canal locks")
	require.NoError(t, err)
	second, err := embedder.EmbedText(ctx, "canal locks")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 384)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestMockEmbedderConcurrentCallCount(t *testing.T) {
	embedder := NewMockEmbedder()
	ctx := context.Background()

	const goroutines = 8
	const callsPer = 25

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPer; j++ {
				_, err := embedder.EmbedText(ctx, "desire paths")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*callsPer, embedder.CallCount())

	embedder.Reset()
	assert.Zero(t, embedder.CallCount())
}
