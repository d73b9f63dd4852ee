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


package reembed

import (
	"context"

	"github.com/poiesic/librarian/core"
	"github.com/poiesic/librarian/storage"
)

// DefaultBatchSize is the default number of chunks fetched per batch.
const DefaultBatchSize = 100

// ChunkIterator walks the whole chunk store in id order, loading chunk
// values one batch at a time.
type ChunkIterator struct {
	store     storage.ChunkStore
	batchSize int
}

// NewChunkIterator creates an iterator over the given store.
// batchSize must be > 0; non-positive values fall back to DefaultBatchSize.
func NewChunkIterator(store storage.ChunkStore, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkIterator{
		store:     store,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of chunks. Iteration stops on the first
// error from fn. Context cancellation is checked between batches. Chunks
// deleted between the id listing and the batch fetch are skipped silently.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.DocumentChunk) error) error {
	ids, err := it.store.ListChunkIDs(ctx)
	if err != nil {
		return err
	}

	for start := 0; start < len(ids); start += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + it.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		chunks, err := it.store.GetChunks(ctx, ids[start:end]...)
		if err != nil {
			return err
		}
		if len(chunks) == 0 {
			continue
		}

		if err := fn(chunks); err != nil {
			return err
		}
	}

	return nil
}
