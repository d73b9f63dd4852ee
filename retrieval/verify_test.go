package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/librarian/core"
)

func TestVerifyNoEvidence(t *testing.T) {
	v := NewFactVerifier(nil)

	result := v.Verify("the moon is made of cheese", nil, 0.7)
	require.NotNil(t, result)
	assert.Equal(t, core.VerdictUnsupported, result.Verdict)
	assert.Zero(t, result.Confidence)
	assert.Empty(t, result.SupportingChunks)
	assert.Equal(t, "the moon is made of cheese", result.Claim)
}

func TestVerifyConfidenceFormula(t *testing.T) {
	v := NewFactVerifier(nil)

	candidates := []*core.ScoredChunk{
		scored("a", 0.9, []float32{1, 0, 0}),
		scored("b", 0.8, []float32{0, 1, 0}),
		scored("c", 0.7, []float32{0, 0, 1}),
	}
	result := v.Verify("claim", candidates, 0.7)

	// 0.6*max + 0.4*mean(top 3) = 0.6*0.9 + 0.4*0.8
	assert.InDelta(t, 0.86, result.Confidence, 1e-5)
	assert.Equal(t, core.VerdictSupported, result.Verdict)
}

func TestVerifyVerdictBoundaries(t *testing.T) {
	v := NewFactVerifier(nil)

	t.Run("high confidence but max below floor is insufficient", func(t *testing.T) {
		candidates := []*core.ScoredChunk{
			scored("a", 0.78, []float32{1, 0, 0}),
			scored("b", 0.78, []float32{0, 1, 0}),
			scored("c", 0.78, []float32{0, 0, 1}),
		}
		result := v.Verify("claim", candidates, 0.7)
		// Confidence is 0.78, above the request threshold, but no single
		// chunk clears the per-chunk support floor.
		assert.InDelta(t, 0.78, result.Confidence, 1e-5)
		assert.Equal(t, core.VerdictInsufficientEvidence, result.Verdict)
	})

	t.Run("weak support is unsupported", func(t *testing.T) {
		candidates := []*core.ScoredChunk{
			scored("a", 0.2, []float32{1, 0, 0}),
		}
		result := v.Verify("claim", candidates, 0.7)
		assert.InDelta(t, 0.2, result.Confidence, 1e-5)
		assert.Equal(t, core.VerdictUnsupported, result.Verdict)
	})

	t.Run("middling support is insufficient", func(t *testing.T) {
		candidates := []*core.ScoredChunk{
			scored("a", 0.5, []float32{1, 0, 0}),
		}
		result := v.Verify("claim", candidates, 0.7)
		assert.Equal(t, core.VerdictInsufficientEvidence, result.Verdict)
	})

	t.Run("request threshold tightens the supported verdict", func(t *testing.T) {
		candidates := []*core.ScoredChunk{
			scored("a", 0.85, []float32{1, 0, 0}),
		}
		supported := v.Verify("claim", candidates, 0.7)
		assert.Equal(t, core.VerdictSupported, supported.Verdict)

		tightened := v.Verify("claim", candidates, 0.9)
		assert.Equal(t, core.VerdictInsufficientEvidence, tightened.Verdict)
	})
}

func TestVerifyTopThreeTruncation(t *testing.T) {
	v := NewFactVerifier(nil)

	candidates := []*core.ScoredChunk{
		scored("e1", 0.95, []float32{1, 0, 0}),
		scored("e2", 0.90, []float32{0, 1, 0}),
		scored("e3", 0.85, []float32{0, 0, 1}),
		scored("e4", 0.80, []float32{1, 1, 0}),
		scored("e5", 0.10, []float32{0, 1, 1}),
	}
	result := v.Verify("claim", candidates, 0.7)

	require.Len(t, result.SupportingChunks, 3)
	assert.Equal(t, []string{"e1", "e2", "e3"}, selectedIDs(result.SupportingChunks))
	// The weak e5 candidate must not drag the mean down.
	assert.InDelta(t, 0.6*0.95+0.4*0.9, result.Confidence, 1e-5)
}

func TestVerifyClampsNegativeSupport(t *testing.T) {
	v := NewFactVerifier(nil)

	candidates := []*core.ScoredChunk{
		scored("contra", -0.6, []float32{1, 0, 0}),
	}
	result := v.Verify("claim", candidates, 0.7)
	assert.Zero(t, result.Confidence)
	assert.Equal(t, core.VerdictUnsupported, result.Verdict)
}

func TestVerifySupportOrderingIsDeterministic(t *testing.T) {
	v := NewFactVerifier(nil)

	candidates := []*core.ScoredChunk{
		scored("zulu", 0.8, []float32{1, 0, 0}),
		scored("alpha", 0.8, []float32{0, 1, 0}),
		scored("mike", 0.9, []float32{0, 0, 1}),
	}
	result := v.Verify("claim", candidates, 0.7)
	assert.Equal(t, []string{"mike", "alpha", "zulu"}, selectedIDs(result.SupportingChunks))
}
