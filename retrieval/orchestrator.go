package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/librarian/ai"
	"github.com/poiesic/librarian/core"
	"github.com/poiesic/librarian/storage"
)

// Orchestrator is the public facade of the retrieval engine: it validates the
// request, embeds the query text once, dispatches to the mode's ranking
// policy, and wraps the output with typed errors. It never fabricates
// results; every failure surfaces.
type Orchestrator struct {
	engine   *Engine
	embedder ai.Embedder
	cfg      Config
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithConfig replaces the default retrieval configuration.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.cfg = cfg
		return nil
	}
}

// NewOrchestrator creates an orchestrator over the given store and embedder.
// Store calls made on the query path are retried once with a short backoff
// before failing closed.
func NewOrchestrator(store storage.ChunkStore, embedder ai.Embedder, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	o := &Orchestrator{
		embedder: embedder,
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	retrying := &retryingStore{
		ChunkStore: store,
		backoff:    o.cfg.RetryBackoff,
	}
	engine, err := NewEngine(retrying, embedder, o.cfg, WithEngineLogger(o.logger))
	if err != nil {
		return nil, err
	}
	o.engine = engine

	return o, nil
}

// Close releases engine resources.
func (o *Orchestrator) Close() error {
	o.engine.Release()
	return nil
}

// Config returns the active retrieval configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Query executes a retrieval request and returns the ranked, annotated
// result. Synchronous from the caller's view; the caller bounds execution
// through the context deadline.
func (o *Orchestrator) Query(ctx context.Context, req *core.QueryRequest) (*core.RetrievalResult, error) {
	return o.QueryWithMonitor(ctx, req, nil)
}

// QueryWithMonitor executes a retrieval request with monitoring callbacks at
// each stage of the process.
func (o *Orchestrator) QueryWithMonitor(ctx context.Context, req *core.QueryRequest, monitor QueryMonitor) (*core.RetrievalResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if req != nil {
		req.Normalize()
	}
	if err := core.ValidateQueryRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	monitor.Start(req)

	// Embed the query text exactly once; every lens and mode shares the
	// resulting vector. One retry, then fail closed.
	var queryVec []float32
	err := retryOnce(ctx, func() error {
		var embedErr error
		queryVec, embedErr = o.embedder.EmbedText(ctx, req.Text)
		return embedErr
	}, o.cfg.RetryBackoff)
	if err != nil {
		if timeoutErr := asTimeout(err); timeoutErr != nil {
			return nil, timeoutErr
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		o.logger.Error("query embedding failed after retry", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("%w: provider returned empty vector", ErrEmbeddingUnavailable)
	}
	queryVec = core.NormalizeVector(queryVec)
	monitor.AfterQueryEmbedding(queryVec)

	result, err := o.engine.Retrieve(ctx, req.Text, queryVec, req, monitor)
	if err != nil {
		if timeoutErr := asTimeout(err); timeoutErr != nil {
			return nil, timeoutErr
		}
		if errors.Is(err, ErrAllDimensionsFailed) {
			return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
		}
		return nil, err
	}

	monitor.Finish(result)
	return result, nil
}

// asTimeout maps deadline expiry onto the typed timeout error, nil otherwise.
// An explicit caller cancel is not a timeout and passes through untouched.
func asTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return nil
}

// retryingStore decorates a ChunkStore so query-path reads get one retry with
// backoff before surfacing StoreUnavailable. Writes pass through untouched;
// the retrieval engine never writes.
type retryingStore struct {
	storage.ChunkStore
	backoff time.Duration
}

func (s *retryingStore) QueryKNN(ctx context.Context, vector []float32, k int, minSimilarity float32, filters core.Filters) ([]*core.ScoredChunk, error) {
	var results []*core.ScoredChunk
	err := retryOnce(ctx, func() error {
		var knnErr error
		results, knnErr = s.ChunkStore.QueryKNN(ctx, vector, k, minSimilarity, filters)
		return knnErr
	}, s.backoff)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return results, nil
}
