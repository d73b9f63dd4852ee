package retrieval

import "github.com/poiesic/librarian/core"

// QueryMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type QueryMonitor interface {
	Start(req *core.QueryRequest)
	AfterQueryEmbedding(vector []float32)
	AfterCandidateFetch(mode core.RetrievalMode, count int)
	AfterLensExpansion(lenses []Lens)
	AfterDiversitySelection(selected []*core.ScoredChunk, degraded bool)
	AfterVerification(result *core.FactVerificationResult)
	Finish(result *core.RetrievalResult)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.QueryRequest)                              {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)                         {}
func (n *noopMonitor) AfterCandidateFetch(_ core.RetrievalMode, _ int)         {}
func (n *noopMonitor) AfterLensExpansion(_ []Lens)                             {}
func (n *noopMonitor) AfterDiversitySelection(_ []*core.ScoredChunk, _ bool)   {}
func (n *noopMonitor) AfterVerification(_ *core.FactVerificationResult)        {}
func (n *noopMonitor) Finish(_ *core.RetrievalResult)                          {}
