package retrieval

import (
	"errors"
	"time"
)

// Dimension is a conceptual lens used by lateral mode to generate alternate
// query phrasings for broader candidate discovery.
type Dimension struct {
	// Name tags connections produced through this lens, e.g. "methodological".
	Name string
	// Template is a short semantic prompt combined with the query text
	// before embedding.
	Template string
}

// DefaultDimensions are the conceptual lenses applied when none are configured.
func DefaultDimensions() []Dimension {
	return []Dimension{
		{Name: "methodological", Template: "analogous methods and techniques in a different field"},
		{Name: "historical", Template: "historical parallels and precedents"},
		{Name: "structural", Template: "situations with a similar underlying structure"},
		{Name: "adjacent", Template: "related ideas from an adjacent discipline"},
	}
}

// Config holds the tunable parameters of the retrieval engine. The zero value
// is not usable; start from DefaultConfig.
type Config struct {
	// Lambda is the MMR relevance/novelty tradeoff in [0,1]. Closer to 1
	// favors relevance, closer to 0 favors novelty.
	// Default: 0.5
	Lambda float32

	// RedundancyThreshold is the maximum pairwise cosine similarity
	// tolerated between lateral-mode results before the result is marked
	// degraded.
	// Default: 0.92
	RedundancyThreshold float32

	// CandidateCap bounds the lateral candidate pool so MMR stays O(k*n).
	// Default: 200
	CandidateCap int

	// MinFactcheckSimilarity is the similarity floor for factcheck
	// candidates, stricter than the other modes.
	// Default: 0.75
	MinFactcheckSimilarity float32

	// MinConfidence is the default support threshold for a supported
	// verdict when the request does not carry one.
	// Default: 0.7
	MinConfidence float32

	// RetryBackoff is the delay before the single retry of a failed
	// embedding or store call.
	// Default: 200ms
	RetryBackoff time.Duration

	// Dimensions are the lateral lenses. Between 2 and 5 entries.
	Dimensions []Dimension
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		Lambda:                 0.5,
		RedundancyThreshold:    0.92,
		CandidateCap:           200,
		MinFactcheckSimilarity: 0.75,
		MinConfidence:          0.7,
		RetryBackoff:           200 * time.Millisecond,
		Dimensions:             DefaultDimensions(),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Lambda < 0 || c.Lambda > 1 {
		return errors.New("retrieval config: Lambda must be in [0,1]")
	}
	if c.RedundancyThreshold <= 0 || c.RedundancyThreshold > 1 {
		return errors.New("retrieval config: RedundancyThreshold must be in (0,1]")
	}
	if c.CandidateCap < 1 {
		return errors.New("retrieval config: CandidateCap must be at least 1")
	}
	if c.MinFactcheckSimilarity < 0 || c.MinFactcheckSimilarity > 1 {
		return errors.New("retrieval config: MinFactcheckSimilarity must be in [0,1]")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return errors.New("retrieval config: MinConfidence must be in [0,1]")
	}
	if c.RetryBackoff < 0 {
		return errors.New("retrieval config: RetryBackoff cannot be negative")
	}
	if len(c.Dimensions) < 2 || len(c.Dimensions) > 5 {
		return errors.New("retrieval config: between 2 and 5 lateral dimensions required")
	}
	for _, d := range c.Dimensions {
		if d.Name == "" || d.Template == "" {
			return errors.New("retrieval config: dimension name and template required")
		}
	}
	return nil
}
