package chunk

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/oriumgames/bedrockdb/block"
)

const (
	// SubChunkVersion is the version of the sub chunks written, both on disk and over network.
	SubChunkVersion = 9
	// sameAsPrevious is written as the index size of a biome storage equal to the one below it.
	sameAsPrevious = 0x7f
)

// pool is used to pool byte buffers used for encoding chunks.
var pool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 1024))
	},
}

// SerialisedData holds the encoded sub chunks and biomes of a Chunk.
type SerialisedData struct {
	// SubChunks holds one encoded SubChunk for every SubChunk of the Chunk, from the bottom up.
	SubChunks [][]byte
	// Biomes holds the encoded biome storages of the Chunk.
	Biomes []byte
}

// Encode encodes every SubChunk and the biomes of a Chunk with the Encoding passed.
func Encode(c *Chunk, e Encoding, t *block.Table) SerialisedData {
	d := SerialisedData{SubChunks: make([][]byte, len(c.sub))}
	for i, sub := range c.sub {
		d.SubChunks[i] = EncodeSubChunk(sub, c.r, i, e, t)
	}
	d.Biomes = EncodeBiomes(c, e)
	return d
}

// EncodeSubChunk encodes a SubChunk at index ind of a Chunk spanning range r. Block palettes are written
// using the block.Table passed: on disk every runtime ID is written as its block state, over network
// runtime IDs are written as is. EncodeSubChunk panics if ind is not a valid index for r.
func EncodeSubChunk(sub *SubChunk, r cube.Range, ind int, e Encoding, t *block.Table) []byte {
	if ind < 0 || ind > r.Height()>>4 {
		panic(fmt.Sprintf("sub chunk index %v out of range %v", ind, r))
	}
	buf := pool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		pool.Put(buf)
	}()

	_, _ = buf.Write([]byte{SubChunkVersion, byte(len(sub.storages)), byte(int8(ind + (r[0] >> 4)))})
	pe := blockPaletteEncoding{t: t}
	for _, s := range sub.storages {
		encodePalettedStorage(buf, s, nil, e, pe)
	}
	return slices.Clone(buf.Bytes())
}

// EncodeBiomes encodes the biome storages of a Chunk. A storage equal to the one below it is written as a
// single byte referring back to it.
func EncodeBiomes(c *Chunk, e Encoding) []byte {
	buf := pool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		pool.Put(buf)
	}()

	var previous *PalettedStorage
	for _, b := range c.biomes {
		encodePalettedStorage(buf, b, previous, e, biomePaletteEncoding{})
		previous = b
	}
	return slices.Clone(buf.Bytes())
}

// NetworkEncode encodes a Chunk for a LevelChunk packet: its sub chunks up to the highest one holding
// blocks, its biomes and a zero border block count. It returns the payload and the number of sub chunks
// written.
func NetworkEncode(c *Chunk, t *block.Table) ([]byte, int) {
	count := c.HighestFilledSubChunk() + 1

	buf := new(bytes.Buffer)
	for i := range count {
		_, _ = buf.Write(EncodeSubChunk(c.sub[i], c.r, i, NetworkEncoding, t))
	}
	_, _ = buf.Write(EncodeBiomes(c, NetworkEncoding))
	_ = buf.WriteByte(0)
	return buf.Bytes(), count
}

// encodePalettedStorage writes a PalettedStorage to buf: a header byte holding the index size and the
// network flag, the index words and the palette. If the storage equals previous, only a header marking it
// as such is written.
func encodePalettedStorage(buf *bytes.Buffer, s, previous *PalettedStorage, e Encoding, pe paletteEncoding) {
	if previous != nil && s.Equal(previous) {
		_ = buf.WriteByte(sameAsPrevious<<1 | e.network())
		return
	}
	b := make([]byte, len(s.indices)*4+1)
	b[0] = s.bitsPerIndex<<1 | e.network()
	for i, v := range s.indices {
		b[i*4+1], b[i*4+2], b[i*4+3], b[i*4+4] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	}
	_, _ = buf.Write(b)

	e.encodePalette(buf, s.palette, s.bitsPerIndex, pe)
}
