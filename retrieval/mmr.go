package retrieval

import (
	"slices"
	"strings"

	"github.com/poiesic/librarian/core"
)

// SelectDiverse re-ranks candidates by Maximal Marginal Relevance: at each
// step it greedily picks the candidate maximizing
//
//	lambda * relevance - (1-lambda) * maxSimilarity(candidate, selected)
//
// until k items are chosen or the pool is exhausted. Ties go to the higher
// raw relevance, then to the lexicographically lower chunk Id, so output is
// deterministic for identical input. The Diversity field of each selected
// chunk is set to its marginal score at selection time. Runs in O(k * n);
// callers must pre-bound the candidate pool.
func SelectDiverse(candidates []*core.ScoredChunk, k int, lambda float32) []*core.ScoredChunk {
	selected, _ := selectDiverse(candidates, k, lambda, 1)
	return selected
}

// selectDiverse is the τ-aware MMR core. Candidates whose maximum similarity
// to an already-selected chunk exceeds redundancyThreshold are skipped in the
// first pass. If the pool runs out of sufficiently distinct candidates before
// k are chosen, the remainder is filled with the redundant candidates in MMR
// order and degraded is true.
func selectDiverse(candidates []*core.ScoredChunk, k int, lambda float32, redundancyThreshold float32) (selected []*core.ScoredChunk, degraded bool) {
	if k < 1 || len(candidates) == 0 {
		return nil, false
	}

	// Stable processing order: relevance descending, Id ascending. This
	// makes the greedy argmax independent of input order.
	pool := make([]*core.ScoredChunk, len(candidates))
	copy(pool, candidates)
	slices.SortFunc(pool, compareByRelevanceThenID)

	selected = make([]*core.ScoredChunk, 0, k)
	remaining := pool

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		var bestScore, bestRelevance float32

		for i, candidate := range remaining {
			maxSim := maxSimilarityToSelected(candidate, selected)
			if maxSim > redundancyThreshold {
				continue
			}

			score := lambda*candidate.Relevance - (1-lambda)*maxSim
			if bestIdx == -1 || score > bestScore ||
				(score == bestScore && candidate.Relevance > bestRelevance) {
				bestIdx = i
				bestScore = score
				bestRelevance = candidate.Relevance
			}
		}

		if bestIdx == -1 {
			// No candidate is sufficiently distinct from the
			// selection. Tolerate redundancy rather than starve the
			// result, and flag it.
			degraded = true
			redundant := remaining[0]
			picked := *redundant
			picked.Diversity = lambda*redundant.Relevance - (1-lambda)*maxSimilarityToSelected(redundant, selected)
			selected = append(selected, &picked)
			remaining = slices.Delete(remaining, 0, 1)
			continue
		}

		picked := *remaining[bestIdx]
		picked.Diversity = bestScore
		selected = append(selected, &picked)
		remaining = slices.Delete(remaining, bestIdx, bestIdx+1)
	}

	return selected, degraded
}

// maxSimilarityToSelected returns the highest cosine similarity between the
// candidate and any already-selected chunk, over the full [-1, 1] range so
// anti-similar candidates earn novelty credit. Zero when nothing is selected.
func maxSimilarityToSelected(candidate *core.ScoredChunk, selected []*core.ScoredChunk) float32 {
	if len(selected) == 0 {
		return 0
	}
	maxSim := float32(-1)
	for _, s := range selected {
		sim := core.CosineSimilarity(candidate.Chunk.Embedding, s.Chunk.Embedding)
		if sim > maxSim {
			maxSim = sim
		}
	}
	return maxSim
}

// compareByRelevanceThenID orders by relevance descending, then Id ascending.
func compareByRelevanceThenID(a, b *core.ScoredChunk) int {
	if a.Relevance > b.Relevance {
		return -1
	}
	if a.Relevance < b.Relevance {
		return 1
	}
	return strings.Compare(string(a.Chunk.Id), string(b.Chunk.Id))
}
