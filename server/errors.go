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


package server

import (
	"errors"
	"net/http"

	"github.com/poiesic/librarian/ingestion"
	"github.com/poiesic/librarian/retrieval"
)

// ErrServiceRequired is returned when a service is not provided.
var ErrServiceRequired = errors.New("service required")

// statusForError maps the retrieval and ingestion error taxonomy onto HTTP
// status codes. Unknown errors are internal.
func statusForError(err error) int {
	switch {
	case errors.Is(err, retrieval.ErrInvalidRequest),
		errors.Is(err, ingestion.ErrInvalidFragment),
		errors.Is(err, ingestion.ErrNoFragments):
		return http.StatusBadRequest
	case errors.Is(err, retrieval.ErrInsufficientResults):
		return http.StatusUnprocessableEntity
	case errors.Is(err, retrieval.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, retrieval.ErrEmbeddingUnavailable),
		errors.Is(err, retrieval.ErrStoreUnavailable),
		errors.Is(err, ingestion.ErrEmbeddingFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
