package ai

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder wraps an Embedder with an in-memory LRU cache keyed by the
// exact input text. The cache is safe for concurrent use with last-write-wins
// semantics; a stale or evicted entry just causes a re-embed.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with an LRU cache holding up to size entries.
func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{
		inner: inner,
		cache: cache,
	}, nil
}

// EmbedText returns the cached vector for text, embedding and caching on miss.
// Callers must treat the returned vector as read-only.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := c.cache.Get(text); ok {
		return vector, nil
	}

	vector, err := c.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(text, vector)
	return vector, nil
}

// EmbedTexts embeds a batch of texts, serving cached entries and batching the
// misses into a single inner call.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	missing := make([]string, 0, len(texts))
	missingIdx := make([]int, 0, len(texts))

	for i, text := range texts {
		if vector, ok := c.cache.Get(text); ok {
			vectors[i] = vector
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	embedded, err := c.inner.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}

	for i, vector := range embedded {
		if i >= len(missingIdx) {
			break
		}
		vectors[missingIdx[i]] = vector
		c.cache.Add(missing[i], vector)
	}

	return vectors, nil
}

// Len returns the number of cached entries.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}
