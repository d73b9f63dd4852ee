package retrieval

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

// lateralOversampleFloor is the minimum lateral candidate pool size.
const lateralOversampleFloor = 20

// Engine executes one of the retrieval policies against a read-only chunk
// store. The engine is stateless per query; concurrent Retrieve calls do not
// interfere with each other's ranking.
type Engine struct {
	store    storage.ChunkStore
	expander *DimensionExpander
	verifier *FactVerifier
	lensPool *ants.Pool
	cfg      Config
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine) error

// WithEngineLogger sets a custom logger.
// Default is slog.Default().
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates an engine over the given store and embedder. The embedder
// is only used to derive lateral lens vectors; query embedding belongs to the
// orchestrator.
func NewEngine(store storage.ChunkStore, embedder ai.Embedder, cfg Config, opts ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	expander, err := NewDimensionExpander(embedder, cfg.Dimensions, e.logger)
	if err != nil {
		return nil, err
	}
	e.expander = expander

	poolSize := runtime.NumCPU() / 2
	if poolSize < len(cfg.Dimensions)+1 {
		poolSize = len(cfg.Dimensions) + 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	e.lensPool = pool
	e.verifier = NewFactVerifier(e.logger)

	return e, nil
}

// Release frees the lens fan-out pool.
func (e *Engine) Release() {
	if e.lensPool != nil {
		e.lensPool.Release()
	}
}

// Retrieve dispatches the request to its mode's ranking policy. The query
// vector must be unit length; the request must already be normalized and
// validated.
func (e *Engine) Retrieve(ctx context.Context, queryText string, queryVec []float32, req *core.QueryRequest, monitor QueryMonitor) (*core.RetrievalResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	switch req.Mode {
	case core.ModeFoundation:
		return e.retrieveFoundation(ctx, queryVec, req, monitor)
	case core.ModeLateral:
		return e.retrieveLateral(ctx, queryText, queryVec, req, monitor)
	case core.ModeFactcheck:
		return e.retrieveFactcheck(ctx, queryText, queryVec, req, monitor)
	default:
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, core.ErrInvalidMode)
	}
}

// retrieveFoundation returns the plain nearest neighbors with no re-ranking.
func (e *Engine) retrieveFoundation(ctx context.Context, queryVec []float32, req *core.QueryRequest, monitor QueryMonitor) (*core.RetrievalResult, error) {
	results, err := e.store.QueryKNN(ctx, queryVec, req.TopK, -1, req.Filters)
	if err != nil {
		return nil, err
	}
	monitor.AfterCandidateFetch(core.ModeFoundation, len(results))

	if len(results) < req.TopK {
		if req.Strict {
			return nil, fmt.Errorf("%w: got %d of %d requested",
				ErrInsufficientResults, len(results), req.TopK)
		}
		e.logger.Debug("foundation pool short of top_k, degrading",
			"got", len(results), "want", req.TopK)
	}

	return &core.RetrievalResult{
		Mode:       core.ModeFoundation,
		Chunks:     results,
		Confidence: meanRelevance(results),
		Degraded:   len(results) < req.TopK,
	}, nil
}

// retrieveLateral oversamples candidates through every conceptual lens, then
// trades relevance against novelty with MMR.
func (e *Engine) retrieveLateral(ctx context.Context, queryText string, queryVec []float32, req *core.QueryRequest, monitor QueryMonitor) (*core.RetrievalResult, error) {
	candidateK := req.TopK * 4
	if candidateK < lateralOversampleFloor {
		candidateK = lateralOversampleFloor
	}

	lenses, err := e.expander.Expand(ctx, queryText)
	if err != nil {
		return nil, err
	}
	monitor.AfterLensExpansion(lenses)

	// Base lens first so the union prefers it on relevance ties.
	all := make([]Lens, 0, len(lenses)+1)
	all = append(all, Lens{Dimension: baseLens, Vector: queryVec})
	all = append(all, lenses...)

	// Fan the per-lens KNN queries out over the worker pool.
	outcomes := make([]lensQueryResult, len(all))
	var wg sync.WaitGroup
	for i, lens := range all {
		waitGroupSubmit(e.lensPool, &wg, func() {
			results, err := e.store.QueryKNN(ctx, lens.Vector, candidateK, -1, req.Filters)
			outcomes[i] = lensQueryResult{lens: lens.Dimension, results: results, err: err}
		})
	}
	wg.Wait()

	perLens, err := collectLensResults(outcomes, e.logger)
	if err != nil {
		return nil, err
	}

	lensOrder := make([]string, 0, len(all))
	for _, lens := range all {
		lensOrder = append(lensOrder, lens.Dimension)
	}
	candidates := unionCandidates(perLens, lensOrder)
	if len(candidates) > e.cfg.CandidateCap {
		candidates = candidates[:e.cfg.CandidateCap]
	}
	monitor.AfterCandidateFetch(core.ModeLateral, len(candidates))

	pool := make([]*core.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		pool = append(pool, c.scored)
	}

	selected, redundant := selectDiverse(pool, req.TopK, e.cfg.Lambda, e.cfg.RedundancyThreshold)
	degraded := redundant || len(selected) < req.TopK
	monitor.AfterDiversitySelection(selected, degraded)

	if len(selected) < req.TopK && req.Strict {
		return nil, fmt.Errorf("%w: got %d of %d requested",
			ErrInsufficientResults, len(selected), req.TopK)
	}

	return &core.RetrievalResult{
		Mode:               core.ModeLateral,
		Chunks:             selected,
		LateralConnections: connectionsFor(selected, candidates, queryText),
		Confidence:         meanRelevance(selected),
		Degraded:           degraded,
	}, nil
}

// retrieveFactcheck fetches a small high-precision pool and delegates to the
// verifier instead of returning a plain ranked list.
func (e *Engine) retrieveFactcheck(ctx context.Context, claim string, claimVec []float32, req *core.QueryRequest, monitor QueryMonitor) (*core.RetrievalResult, error) {
	candidateK := req.TopK * 2

	candidates, err := e.store.QueryKNN(ctx, claimVec, candidateK, e.cfg.MinFactcheckSimilarity, req.Filters)
	if err != nil {
		return nil, err
	}
	monitor.AfterCandidateFetch(core.ModeFactcheck, len(candidates))

	minConfidence := req.MinConfidence
	if minConfidence == 0 {
		minConfidence = e.cfg.MinConfidence
	}

	verification := e.verifier.Verify(claim, candidates, minConfidence)
	monitor.AfterVerification(verification)

	return &core.RetrievalResult{
		Mode:             core.ModeFactcheck,
		Chunks:           verification.SupportingChunks,
		FactVerification: verification,
		Confidence:       verification.Confidence,
	}, nil
}

// meanRelevance is the overall result confidence for ranked-list modes: the
// mean relevance of the returned chunks clamped into [0,1].
func meanRelevance(chunks []*core.ScoredChunk) float32 {
	if len(chunks) == 0 {
		return 0
	}
	var sum float32
	for _, c := range chunks {
		sum += c.Relevance
	}
	mean := sum / float32(len(chunks))
	if mean < 0 {
		return 0
	}
	if mean > 1 {
		return 1
	}
	return mean
}
