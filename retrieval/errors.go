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


package retrieval

import "errors"

var (
	// ErrStoreRequired is returned when a chunk store is not provided.
	ErrStoreRequired = errors.New("chunk store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidRequest indicates the query request failed validation.
	// Surfaced immediately, never retried.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmbeddingUnavailable indicates the embedding provider stayed
	// unreachable after the single retry. The query fails closed; no
	// vector is fabricated.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrStoreUnavailable indicates the chunk store stayed unreachable
	// after the single retry. The query fails closed.
	ErrStoreUnavailable = errors.New("chunk store unavailable")

	// ErrInsufficientResults indicates fewer than top_k candidates were
	// available and the caller requested strict behavior.
	ErrInsufficientResults = errors.New("insufficient results")

	// ErrTimeout indicates the caller's deadline expired. In-flight store
	// and provider calls are cancelled best-effort.
	ErrTimeout = errors.New("query timed out")

	// ErrAllDimensionsFailed indicates every lateral lens embedding failed.
	// Single-lens failures are absorbed; only total failure is an error.
	ErrAllDimensionsFailed = errors.New("all lateral dimensions failed")
)
