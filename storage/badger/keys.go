package badger

import "github.com/poiesic/librarian/core"

// Key prefixes for different data types
const (
	chunkKeyPrefix = "chunk:"
)

// makeChunkKey generates a key for a document chunk by Id.
func makeChunkKey(id core.ID) []byte {
	return []byte(chunkKeyPrefix + string(id))
}
