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

import "fmt"

// ValidateChunk validates a DocumentChunk according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - Text must not be empty
//   - Embedding must not be empty
//   - Embedding dimension must match dim when dim > 0
//
// NOT validated:
//   - Metadata (any mapping, including nil, is acceptable)
//   - Timestamps (populated by storage)
func ValidateChunk(chunk *DocumentChunk, dim int) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyID)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyEmbedding)
	}

	if dim > 0 && len(chunk.Embedding) != dim {
		return fmt.Errorf("%w: %w: got %d, want %d",
			ErrInvalidChunk, ErrDimensionMismatch, len(chunk.Embedding), dim)
	}

	return nil
}

// ValidateQueryRequest validates a QueryRequest according to domain rules.
// Callers should Normalize the request first so defaulted fields are filled.
func ValidateQueryRequest(req *QueryRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}

	if req.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyText)
	}

	if req.TopK < 1 {
		return fmt.Errorf("%w: %w: got %d", ErrInvalidRequest, ErrInvalidTopK, req.TopK)
	}

	if err := ValidateMode(req.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if req.MinConfidence < 0 || req.MinConfidence > 1 {
		return fmt.Errorf("%w: min confidence %f outside [0,1]", ErrInvalidRequest, req.MinConfidence)
	}

	return nil
}

// ValidateMode validates that a RetrievalMode has a valid value.
func ValidateMode(mode RetrievalMode) error {
	if mode != ModeFoundation && mode != ModeLateral && mode != ModeFactcheck {
		return fmt.Errorf("%w: value %d", ErrInvalidMode, mode)
	}
	return nil
}
