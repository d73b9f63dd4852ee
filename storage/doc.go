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


// Package storage defines the chunk persistence contracts for Librarian.
//
// The ChunkStore interface covers idempotent upsert, lookup by Id, and
// cosine-similarity nearest-neighbor queries with metadata filtering. Any
// backend with approximate cosine KNN semantics can implement it; the badger
// subpackage provides the embedded BadgerDB implementation.
//
// Serialization of stored records uses MUS binary codecs generated into the
// core package (go generate ./core).
package storage
