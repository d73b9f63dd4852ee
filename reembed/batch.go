package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/librarian/ai"
	"github.com/poiesic/librarian/core"
	"github.com/poiesic/librarian/storage"
)

// BatchProcessor regenerates embeddings for batches of chunks.
type BatchProcessor struct {
	store          storage.ChunkStore
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries bounds the embedding API attempts per batch; retryBaseDelay is
// the base delay for the exponential backoff between them.
func NewBatchProcessor(store storage.ChunkStore, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		store:          store,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the batch's texts and writes the chunks back. The store
// normalizes vectors on write, so similarity scans stay dot-product based.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := bp.store.UpsertChunks(ctx, chunks...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}

	return nil
}
