package bedrockdb

import (
	"encoding/binary"

	"github.com/df-mc/dragonfly/server/world"
)

// Keys of records kept for every sub chunk. They follow the chunk index and are followed by the Y of the sub
// chunk.
const (
	KeySubChunkData = '/'
)

// Keys of records kept for every chunk. They follow the chunk index.
const (
	// KeyVersion holds a single byte with the version of the chunk.
	KeyVersion = ','
	// KeyVersionOld was replaced by KeyVersion. Vanilla still reads it but no longer writes it.
	KeyVersionOld = 'v'
	// KeyBlockEntities holds little endian NBT compounds appended to each other.
	KeyBlockEntities = '1'
	// KeyEntities holds little endian NBT compounds appended to each other. It is only used by old worlds.
	KeyEntities = '2'
	// KeyFinalisation holds a little endian int32 with the generation state of the chunk.
	KeyFinalisation = '6'
	// Key3DData holds a 512 byte height map followed by the biome storages of the chunk.
	Key3DData = '+'
	// Key2DData holds 2D biomes of worlds predating the height change.
	Key2DData = '-'
	// KeyChecksums holds checksums of the chunk records.
	KeyChecksums = ';'
	// KeyChunkTimeStamp holds a little endian int64 time stamp.
	KeyChunkTimeStamp = 'T'

	KeyDeltaUpdateTimeStamp = "dutsp"
	KeyDeltaUpdate          = "dup"
	KeyBlobHash             = "blobhashprefix"
)

// ChunkVersion is the chunk version written under KeyVersion.
const ChunkVersion = 40

const (
	finalisationGenerated = iota + 1
	finalisationPopulated
)

// Index returns the key prefix of the chunk at pos in dimension dim. It is 8 bytes long for the overworld
// and 12 bytes long for any other dimension.
func Index(dim Dimension, pos world.ChunkPos) []byte {
	b := make([]byte, 12, 16)
	binary.LittleEndian.PutUint32(b, uint32(pos[0]))
	binary.LittleEndian.PutUint32(b[4:], uint32(pos[1]))
	if dim == Overworld {
		return b[:8]
	}
	binary.LittleEndian.PutUint32(b[8:], uint32(dim))
	return b
}

// Sum returns Index(dim, pos) followed by p.
func Sum(dim Dimension, pos world.ChunkPos, p ...byte) []byte {
	return append(Index(dim, pos), p...)
}

// parseIndex parses the chunk position and dimension of a key holding a single byte tag after the index.
func parseIndex(key []byte) (world.ChunkPos, Dimension, byte, bool) {
	var dim Dimension
	switch len(key) {
	case 9:
	case 13:
		dim = Dimension(int32(binary.LittleEndian.Uint32(key[8:])))
		if dim == Overworld {
			return world.ChunkPos{}, 0, 0, false
		}
	default:
		return world.ChunkPos{}, 0, 0, false
	}
	pos := world.ChunkPos{int32(binary.LittleEndian.Uint32(key)), int32(binary.LittleEndian.Uint32(key[4:]))}
	return pos, dim, key[len(key)-1], true
}
