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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a DocumentChunk failed validation.
	ErrInvalidChunk = errors.New("invalid document chunk")

	// ErrInvalidRequest indicates a QueryRequest failed validation.
	ErrInvalidRequest = errors.New("invalid query request")

	// ErrEmptyID indicates the chunk Id field is empty.
	ErrEmptyID = errors.New("chunk id cannot be empty")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyEmbedding indicates the Embedding field is empty.
	ErrEmptyEmbedding = errors.New("embedding cannot be empty")

	// ErrInvalidMode indicates an unknown retrieval mode.
	ErrInvalidMode = errors.New("invalid retrieval mode")

	// ErrInvalidTopK indicates a non-positive top-k value.
	ErrInvalidTopK = errors.New("top_k must be at least 1")

	// ErrDimensionMismatch indicates an embedding whose dimension does not
	// match the deployment's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
