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


package librarian

import (
	"context"
	"log/slog"

	"github.com/poiesic/librarian/ai"
	"github.com/poiesic/librarian/ai/openai"
	"github.com/poiesic/librarian/core"
	"github.com/poiesic/librarian/ingestion"
	"github.com/poiesic/librarian/retrieval"
	"github.com/poiesic/librarian/storage"
	"github.com/poiesic/librarian/storage/badger"
)

// Library bundles the chunk store, the embedding provider, the ingestion
// pipeline, and the retrieval orchestrator behind one handle.
type Library struct {
	backend      *badger.Backend
	store        storage.ChunkStore
	provider     ai.EmbeddingProvider
	pipeline     *ingestion.Pipeline
	orchestrator *retrieval.Orchestrator
	logger       *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig        *ai.Config
	retrievalConfig retrieval.Config
	provider        ai.EmbeddingProvider
	inMemory        bool
	logger          *slog.Logger
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(cfg *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithRetrievalConfig sets the retrieval engine configuration.
func WithRetrievalConfig(cfg retrieval.Config) LibraryOption {
	return func(o *libraryOptions) {
		o.retrievalConfig = cfg
	}
}

// WithProvider injects a pre-built embedding provider instead of the
// OpenAI-compatible default.
func WithProvider(provider ai.EmbeddingProvider) LibraryOption {
	return func(o *libraryOptions) {
		o.provider = provider
	}
}

// WithInMemoryStorage keeps all data in memory. Useful for tests and
// throwaway corpora.
func WithInMemoryStorage() LibraryOption {
	return func(o *libraryOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) LibraryOption {
	return func(o *libraryOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewLibrary opens or creates a library at the given path.
func NewLibrary(filePath string, opts ...LibraryOption) (*Library, error) {
	options := &libraryOptions{
		aiConfig:        ai.DefaultConfig(),
		retrievalConfig: retrieval.DefaultConfig(),
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}
	store := badger.NewChunkRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	// Refuse to open a corpus embedded at a different dimension.
	if err := store.ValidateDimension(context.Background(), provider.Dimension()); err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	pipeline, err := ingestion.NewPipeline(store, provider,
		ingestion.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	orchestrator, err := retrieval.NewOrchestrator(store, provider.Embedder(),
		retrieval.WithConfig(options.retrievalConfig),
		retrieval.WithLogger(options.logger))
	if err != nil {
		pipeline.Release()
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Library{
		backend:      backend,
		store:        store,
		provider:     provider,
		pipeline:     pipeline,
		orchestrator: orchestrator,
		logger:       options.logger,
	}, nil
}

// Query executes a retrieval request.
func (l *Library) Query(ctx context.Context, req *core.QueryRequest) (*core.RetrievalResult, error) {
	return l.orchestrator.Query(ctx, req)
}

// QueryWithMonitor executes a retrieval request with stage callbacks.
func (l *Library) QueryWithMonitor(ctx context.Context, req *core.QueryRequest, monitor retrieval.QueryMonitor) (*core.RetrievalResult, error) {
	return l.orchestrator.QueryWithMonitor(ctx, req, monitor)
}

// Ingest stores document fragments, embedding the ones without vectors.
func (l *Library) Ingest(ctx context.Context, fragments ...*ingestion.Fragment) ([]core.ID, error) {
	return l.pipeline.Ingest(ctx, fragments...)
}

// Stats reports corpus size and embedding dimension.
func (l *Library) Stats(ctx context.Context) (*core.LibraryStats, error) {
	count, err := l.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &core.LibraryStats{
		Chunks:    count,
		Dimension: l.provider.Dimension(),
	}, nil
}

// Store exposes the underlying chunk store.
func (l *Library) Store() storage.ChunkStore {
	return l.store
}

// Close releases all resources.
func (l *Library) Close() error {
	l.orchestrator.Close()
	l.pipeline.Release()

	if err := l.provider.Close(); err != nil {
		l.logger.Error("error closing embedding provider", "err", err)
	}
	if err := l.store.Close(); err != nil {
		l.logger.Error("error closing chunk store", "err", err)
		return err
	}
	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
