package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/librarian/ai"
	"github.com/poiesic/librarian/core"
	"github.com/poiesic/librarian/storage"
)

// defaultBatchSize bounds how many fragments go to the provider in one
// embedding call.
const defaultBatchSize = 32

// Fragment is a unit of incoming content. Id and Embedding are optional:
// a missing Id is derived from the text, a missing Embedding is generated
// by the pipeline.
type Fragment struct {
	Id        core.ID           `json:"id,omitempty"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Embedding []float32         `json:"embedding,omitempty"`
}

// Pipeline ingests fragments into the chunk store, embedding the ones that
// arrive without a vector.
type Pipeline struct {
	store     storage.ChunkStore
	embedder  ai.Embedder
	dimension int
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets the per-call embedding batch size.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: batch size must be at least 1", ErrInvalidFragment)
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(store storage.ChunkStore, provider ai.EmbeddingProvider, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:     store,
		embedder:  provider.Embedder(),
		dimension: provider.Dimension(),
		pool:      pool,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest validates, embeds, and stores the given fragments as one batch.
// Returns the stored chunk ids in input order. The whole batch fails if any
// fragment is invalid or any embedding call fails; nothing is written in
// that case.
func (p *Pipeline) Ingest(ctx context.Context, fragments ...*Fragment) ([]core.ID, error) {
	if len(fragments) == 0 {
		return nil, ErrNoFragments
	}

	chunks := make([]*core.DocumentChunk, len(fragments))
	var pending []int
	for i, f := range fragments {
		if f == nil || f.Text == "" {
			return nil, fmt.Errorf("%w: fragment %d has no text", ErrInvalidFragment, i)
		}

		id := f.Id
		if id == "" {
			id = core.IDFromContent(f.Text)
		}

		chunks[i] = &core.DocumentChunk{
			Id:        id,
			Text:      f.Text,
			Metadata:  f.Metadata,
			Embedding: f.Embedding,
		}
		if len(f.Embedding) == 0 {
			pending = append(pending, i)
		}
	}

	if err := p.embedPending(ctx, chunks, pending); err != nil {
		return nil, err
	}

	for i, chunk := range chunks {
		if err := core.ValidateChunk(chunk, p.dimension); err != nil {
			return nil, fmt.Errorf("%w: fragment %d: %w", ErrInvalidFragment, i, err)
		}
	}

	if err := p.store.UpsertChunks(ctx, chunks...); err != nil {
		return nil, err
	}
	p.logger.Info("ingested fragments", "count", len(chunks), "embedded", len(pending))

	ids := make([]core.ID, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.Id
	}
	return ids, nil
}

// embedPending embeds the chunks at the given indexes, fanning batches out
// over the worker pool.
func (p *Pipeline) embedPending(ctx context.Context, chunks []*core.DocumentChunk, pending []int) error {
	if len(pending) == 0 {
		return nil
	}

	batches := make([][]int, 0, (len(pending)+p.batchSize-1)/p.batchSize)
	for start := 0; start < len(pending); start += p.batchSize {
		end := start + p.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batches = append(batches, pending[start:end])
	}

	errs := make([]error, len(batches))
	var wg sync.WaitGroup
	for bi, batch := range batches {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			errs[bi] = p.embedBatch(ctx, chunks, batch)
		}
		if err := p.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
		}
	}
	return nil
}

// embedBatch embeds one batch of chunks in a single provider call.
func (p *Pipeline) embedBatch(ctx context.Context, chunks []*core.DocumentChunk, batch []int) error {
	texts := make([]string, len(batch))
	for i, ci := range batch {
		texts[i] = chunks[ci].Text
	}

	p.logger.Debug("embedding fragment batch", "size", len(texts))
	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(embeddings))
	}

	for i, ci := range batch {
		chunks[ci].Embedding = embeddings[i]
	}
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
