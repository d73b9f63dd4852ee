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

// Package retrieval implements the multi-policy query engine.
//
// A single Orchestrator fronts three retrieval policies selected per
// request: foundation (plain nearest-neighbor ranking), lateral
// (diversity-optimized selection over dimension-expanded query lenses),
// and factcheck (verification-gated evidence retrieval). The query text
// is embedded exactly once per request and the resulting vector is
// shared by every lens and policy.
//
// All ranking is deterministic: equal scores break toward the higher
// relevance, then the lexically smaller chunk id, so repeated queries
// over an unchanged corpus return byte-identical results.
package retrieval
