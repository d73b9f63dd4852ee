// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import "github.com/poiesic/librarian/ai"

// MockProvider is a test double for ai.EmbeddingProvider.
type MockProvider struct {
	embedder  *MockEmbedder
	dimension int
}

// NewMockProvider creates a new mock provider with a default mock embedder
// and a 384-dimension vector space.
//
// Returns ai.EmbeddingProvider interface for consistency with production
// constructors. Use GetMockEmbedder() to access the concrete type for test
// assertions.
func NewMockProvider() ai.EmbeddingProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		dimension: 384,
	}
}

// NewMockProviderWithEmbedder creates a mock provider with a custom mock
// embedder and dimension. This allows full control over embedding behavior.
func NewMockProviderWithEmbedder(embedder *MockEmbedder, dimension int) ai.EmbeddingProvider {
	return &MockProvider{
		embedder:  embedder,
		dimension: dimension,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Dimension returns the configured vector dimension.
func (p *MockProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}
