package retrieval

import (
	"log/slog"
	"slices"

	"github.com/poiesic/librarian/core"
)

// Weights of the confidence aggregate: the single best support score
// dominates, the mean of the top three tempers it.
const (
	maxSupportWeight  = 0.6
	meanSupportWeight = 0.4

	// supportedFloor is the minimum single support score required for a
	// supported verdict, independent of the aggregate confidence.
	supportedFloor = 0.8

	// unsupportedCeiling is the confidence below which the verdict is
	// unsupported.
	unsupportedCeiling = 0.3

	// supportingChunkLimit caps the supporting chunks reported: the
	// candidates actually used in the aggregate.
	supportingChunkLimit = 3
)

// FactVerifier scores a candidate answer's support against retrieved evidence
// and gates the result behind a confidence verdict.
type FactVerifier struct {
	logger *slog.Logger
}

// NewFactVerifier creates a verifier.
func NewFactVerifier(logger *slog.Logger) *FactVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &FactVerifier{logger: logger}
}

// Verify computes an entailment-style support score for each candidate (the
// claim/chunk cosine similarity scaled into [0,1]), aggregates the scores
// into an overall confidence, and derives the verdict.
//
// Confidence is 0 and the verdict unsupported whenever no candidates exist:
// absent evidence is never fabricated into support.
func (v *FactVerifier) Verify(claim string, candidates []*core.ScoredChunk, minConfidence float32) *core.FactVerificationResult {
	if len(candidates) == 0 {
		v.logger.Debug("no candidates for claim, failing closed", "claim", claim)
		return &core.FactVerificationResult{
			Claim:            claim,
			SupportingChunks: []*core.ScoredChunk{},
			Confidence:       0,
			Verdict:          core.VerdictUnsupported,
		}
	}

	// Candidate relevance is already the cosine similarity between the
	// claim embedding and the chunk embedding. Negative similarity means
	// no support at all.
	supports := make([]*core.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		support := c.Relevance
		if support < 0 {
			support = 0
		}
		if support > 1 {
			support = 1
		}
		supports = append(supports, &core.ScoredChunk{
			Chunk:     c.Chunk,
			Relevance: support,
		})
	}
	slices.SortFunc(supports, compareByRelevanceThenID)

	top := supports
	if len(top) > supportingChunkLimit {
		top = top[:supportingChunkLimit]
	}

	maxSupport := top[0].Relevance
	var sum float32
	for _, s := range top {
		sum += s.Relevance
	}
	mean := sum / float32(len(top))

	confidence := maxSupportWeight*maxSupport + meanSupportWeight*mean

	var verdict core.Verdict
	switch {
	case confidence >= minConfidence && maxSupport >= supportedFloor:
		verdict = core.VerdictSupported
	case confidence < unsupportedCeiling:
		verdict = core.VerdictUnsupported
	default:
		verdict = core.VerdictInsufficientEvidence
	}

	v.logger.Debug("verified claim",
		"claim", claim,
		"confidence", confidence,
		"verdict", verdict.String(),
		"supporting", len(top))

	return &core.FactVerificationResult{
		Claim:            claim,
		SupportingChunks: top,
		Confidence:       confidence,
		Verdict:          verdict,
	}
}
