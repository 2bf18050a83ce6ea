package chunk

import "github.com/cespare/xxhash/v2"

// BlobHash returns the hash a client uses to identify a cached blob, such as an encoded SubChunk or biome
// data, in the client blob cache.
func BlobHash(payload []byte) uint64 {
	return xxhash.Sum64(payload)
}
