package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/poiesic/librarian/ai"
	"github.com/poiesic/librarian/core"
)

// baseLens tags candidates discovered through the unmodified query vector.
const baseLens = "base"

// Lens is a query variant produced by a conceptual dimension.
type Lens struct {
	// Dimension is the name of the lens that produced the vector; baseLens
	// for the original query.
	Dimension string
	Vector    []float32
}

// DimensionExpander generates query variants across configured conceptual
// dimensions. Each dimension contributes one "lens" vector obtained by
// embedding the dimension template combined with the query text.
type DimensionExpander struct {
	embedder   ai.Embedder
	dimensions []Dimension
	logger     *slog.Logger
}

// NewDimensionExpander creates an expander over the given dimensions.
func NewDimensionExpander(embedder ai.Embedder, dimensions []Dimension, logger *slog.Logger) (*DimensionExpander, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DimensionExpander{
		embedder:   embedder,
		dimensions: dimensions,
		logger:     logger,
	}, nil
}

// Expand produces one lens per configured dimension. A failed embedding call
// drops that dimension; the whole call fails only when every dimension fails.
func (x *DimensionExpander) Expand(ctx context.Context, queryText string) ([]Lens, error) {
	lenses := make([]Lens, 0, len(x.dimensions))
	var lastErr error

	for _, dim := range x.dimensions {
		variant := dim.Template + ": " + queryText
		vector, err := x.embedder.EmbedText(ctx, variant)
		if err != nil {
			x.logger.Warn("dimension embedding failed, dropping lens",
				"dimension", dim.Name, "err", err)
			lastErr = err
			continue
		}
		lenses = append(lenses, Lens{
			Dimension: dim.Name,
			Vector:    core.NormalizeVector(vector),
		})
	}

	if len(lenses) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllDimensionsFailed, lastErr)
	}

	return lenses, nil
}

// lateralCandidate tracks the best relevance seen for a chunk across lenses
// and the lens that produced it.
type lateralCandidate struct {
	scored *core.ScoredChunk
	lens   string
}

// unionCandidates merges per-lens KNN results, deduplicating by chunk Id and
// keeping the maximum relevance seen across lenses. On equal relevance the
// earlier lens wins, with the base lens always first.
func unionCandidates(perLens map[string][]*core.ScoredChunk, lensOrder []string) []*lateralCandidate {
	byID := make(map[core.ID]*lateralCandidate)

	for _, lens := range lensOrder {
		for _, scored := range perLens[lens] {
			existing, ok := byID[scored.Chunk.Id]
			if !ok || scored.Relevance > existing.scored.Relevance {
				byID[scored.Chunk.Id] = &lateralCandidate{
					scored: &core.ScoredChunk{
						Chunk:     scored.Chunk,
						Relevance: scored.Relevance,
					},
					lens: lens,
				}
			}
		}
	}

	merged := make([]*lateralCandidate, 0, len(byID))
	for _, c := range byID {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].scored.Relevance != merged[j].scored.Relevance {
			return merged[i].scored.Relevance > merged[j].scored.Relevance
		}
		return merged[i].scored.Chunk.Id < merged[j].scored.Chunk.Id
	})

	return merged
}

// lensQueryResult carries one lens's KNN outcome across the fan-out pool.
type lensQueryResult struct {
	lens    string
	results []*core.ScoredChunk
	err     error
}

// collectLensResults folds fan-out results into a per-lens map, absorbing
// individual lens failures. Returns an error only when every lens failed.
func collectLensResults(results []lensQueryResult, logger *slog.Logger) (map[string][]*core.ScoredChunk, error) {
	perLens := make(map[string][]*core.ScoredChunk, len(results))
	failures := 0
	var lastErr error

	for _, r := range results {
		if r.err != nil {
			logger.Warn("lens query failed", "lens", r.lens, "err", r.err)
			failures++
			lastErr = r.err
			continue
		}
		perLens[r.lens] = r.results
	}

	if failures == len(results) && failures > 0 {
		return nil, lastErr
	}
	return perLens, nil
}

// connectionsFor derives lateral connections for the selected chunks: every
// selection that entered the pool through a non-base lens is linked to the
// strongest base-lens chunk across the conceptual dimension that surfaced it.
func connectionsFor(selected []*core.ScoredChunk, candidates []*lateralCandidate, queryText string) []core.LateralConnection {
	lensByID := make(map[core.ID]string, len(candidates))
	var anchor *core.DocumentChunk
	for _, c := range candidates {
		lensByID[c.scored.Chunk.Id] = c.lens
		if c.lens == baseLens && anchor == nil {
			anchor = c.scored.Chunk
		}
	}

	from := queryText
	var anchorVec []float32
	if anchor != nil {
		from = anchor.Label()
		anchorVec = anchor.Embedding
	}

	var connections []core.LateralConnection
	for _, s := range selected {
		lens, ok := lensByID[s.Chunk.Id]
		if !ok || lens == baseLens {
			continue
		}
		strength := s.Relevance
		if anchorVec != nil {
			strength = core.CosineSimilarity(anchorVec, s.Chunk.Embedding)
		}
		connections = append(connections, core.LateralConnection{
			From:      from,
			To:        s.Chunk.Label(),
			Dimension: lens,
			Strength:  strength,
		})
	}

	return connections
}

// waitGroupSubmit submits fn to the pool, falling back to inline execution
// when the pool rejects the task, and ties completion to wg.
func waitGroupSubmit(pool interface{ Submit(func()) error }, wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	task := func() {
		defer wg.Done()
		fn()
	}
	if err := pool.Submit(task); err != nil {
		task()
	}
}
