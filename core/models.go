package core

//go:generate go run ../cmd/musgen

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a stable identifier for a document chunk.
// Re-ingestion of the same ID replaces the chunk wholesale.
type ID string

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(text))
	return ID(hex.EncodeToString(h.Sum(nil)))
}

// RetrievalMode selects the ranking policy applied to a query.
type RetrievalMode int

const (
	// ModeFoundation returns the plain nearest neighbors by cosine similarity.
	ModeFoundation RetrievalMode = iota + 1
	// ModeLateral trades relevance against conceptual diversity across
	// configured dimensions.
	ModeLateral
	// ModeFactcheck gates the answer behind a support-confidence verdict.
	ModeFactcheck
)

// String returns the wire name of the mode.
func (m RetrievalMode) String() string {
	switch m {
	case ModeFoundation:
		return "foundation"
	case ModeLateral:
		return "lateral"
	case ModeFactcheck:
		return "factcheck"
	default:
		return "unknown"
	}
}

// ParseRetrievalMode parses a wire name into a RetrievalMode.
func ParseRetrievalMode(s string) (RetrievalMode, error) {
	switch s {
	case "foundation":
		return ModeFoundation, nil
	case "lateral":
		return ModeLateral, nil
	case "factcheck":
		return ModeFactcheck, nil
	default:
		return 0, ErrInvalidMode
	}
}

// MarshalJSON encodes the mode as its wire name.
func (m RetrievalMode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON decodes the mode from its wire name.
func (m *RetrievalMode) UnmarshalJSON(data []byte) error {
	parsed, err := ParseRetrievalMode(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// DocumentChunk is the atomic retrievable item: a unit of previously embedded
// text with stable identity. Chunks are immutable once stored; the retrieval
// engine never mutates them.
type DocumentChunk struct {
	Id         ID                `json:"id"`
	Text       string            `json:"text"`
	Embedding  []float32         `json:"embedding,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	IngestedAt time.Time         `json:"ingested_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Label returns a short human-readable label for the chunk, used when
// reporting lateral connections. Prefers the "title" metadata entry.
func (c *DocumentChunk) Label() string {
	if title, ok := c.Metadata["title"]; ok && title != "" {
		return title
	}
	runes := []rune(c.Text)
	if len(runes) > 80 {
		return string(runes[:80])
	}
	return c.Text
}

// ScoredChunk pairs a chunk with its relevance to a query. Diversity is only
// populated for lateral-mode results.
type ScoredChunk struct {
	Chunk     *DocumentChunk `json:"chunk"`
	Relevance float32        `json:"relevance_score"`
	Diversity float32        `json:"diversity_score,omitempty"`
}

// Filters is a metadata predicate: every key must be present with an equal
// value for a chunk to match. An empty or nil Filters matches everything.
type Filters map[string]string

// Match reports whether the given chunk metadata satisfies the predicate.
func (f Filters) Match(metadata map[string]string) bool {
	for key, want := range f {
		if metadata[key] != want {
			return false
		}
	}
	return true
}

// DefaultTopK is the number of results returned when a request does not
// specify one.
const DefaultTopK = 5

// QueryRequest describes a retrieval query.
type QueryRequest struct {
	Text string        `json:"text"`
	Mode RetrievalMode `json:"mode"`
	// TopK is the number of results requested. Zero means DefaultTopK.
	TopK int `json:"top_k,omitempty"`
	// Strict makes fewer-than-TopK candidates an error instead of a
	// degraded result.
	Strict  bool    `json:"strict,omitempty"`
	Filters Filters `json:"filters,omitempty"`
	// MinConfidence is the factcheck support threshold. Zero means the
	// engine default.
	MinConfidence float32 `json:"min_confidence,omitempty"`
}

// Normalize fills in defaulted fields.
func (r *QueryRequest) Normalize() {
	if r.TopK == 0 {
		r.TopK = DefaultTopK
	}
}

// LibraryStats summarizes the stored corpus.
type LibraryStats struct {
	Chunks    int `json:"chunks"`
	Dimension int `json:"dimension"`
}

// LateralConnection links two concept labels across a conceptual dimension.
type LateralConnection struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Dimension string  `json:"dimension"`
	Strength  float32 `json:"strength"`
}

// Verdict is the outcome category of a fact verification.
type Verdict int

const (
	// VerdictSupported means the claim is backed by the evidence.
	VerdictSupported Verdict = iota + 1
	// VerdictUnsupported means the evidence fails to back the claim.
	VerdictUnsupported
	// VerdictInsufficientEvidence means the evidence is too weak either way.
	VerdictInsufficientEvidence
)

// String returns the wire name of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictSupported:
		return "supported"
	case VerdictUnsupported:
		return "unsupported"
	case VerdictInsufficientEvidence:
		return "insufficient_evidence"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the verdict as its wire name.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// FactVerificationResult is the gated output of factcheck mode.
type FactVerificationResult struct {
	Claim            string         `json:"claim"`
	SupportingChunks []*ScoredChunk `json:"supporting_chunks"`
	Confidence       float32        `json:"confidence"`
	Verdict          Verdict        `json:"verdict"`
}

// RetrievalResult is the answer to a query under a given mode.
type RetrievalResult struct {
	Mode               RetrievalMode           `json:"mode"`
	Chunks             []*ScoredChunk          `json:"chunks"`
	LateralConnections []LateralConnection     `json:"lateral_connections,omitempty"`
	FactVerification   *FactVerificationResult `json:"fact_verification,omitempty"`
	Confidence         float32                 `json:"confidence"`
	// Degraded marks results that tolerate redundancy or returned fewer
	// than the requested TopK because the candidate pool was too small.
	Degraded bool `json:"degraded"`
}
