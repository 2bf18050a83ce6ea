// Package archive implements a single-file export format for the chunks of one dimension of a world. Chunks
// are kept in their disk encoding, so an archive can be imported into any world regardless of its block
// table.
package archive

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
)

const (
	// MagicNumber is the archive file identifier "BDBA".
	MagicNumber = 0x42444241

	// CurrentVersion is the latest supported archive version.
	CurrentVersion = 1

	// Compression types
	CompressionNone = 0
	CompressionZstd = 1
)

// Header describes the contents of an archive.
type Header struct {
	// ID identifies the archive. A random ID is assigned when writing an archive without one.
	ID uuid.UUID
	// Dimension is the ID of the dimension the chunks were exported from.
	Dimension int32
	// Range is the vertical range of the chunks.
	Range cube.Range
	// LevelName is the name of the world the chunks were exported from.
	LevelName string
}

// Chunk is a chunk held by an archive.
type Chunk struct {
	Pos world.ChunkPos
	// SubChunks holds the disk encoded sub chunks, from the bottom up. Sub chunks not stored are empty.
	SubChunks [][]byte
	// Biomes holds the disk encoded biome storages.
	Biomes []byte
	// BlockEntities holds the little endian NBT of the block entities of the chunk.
	BlockEntities []byte
	// TimeStamp is the time stamp of the chunk, or 0 if it has none.
	TimeStamp int64
}

// Archive is a fully read archive.
type Archive struct {
	Header
	Chunks []Chunk
}
