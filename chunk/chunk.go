package chunk

import (
	"errors"
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// ErrOutOfRange is returned when a block or biome is written at a Y value outside the range of a Chunk.
var ErrOutOfRange = errors.New("y out of chunk range")

// Chunk is a 16xNx16 column of blocks, where N is the height of its range. It holds one SubChunk and one
// biome storage for every 16 blocks of height. Sub chunks are always present: a SubChunk never written
// to simply has no layers.
// Chunk is not safe for concurrent use.
type Chunk struct {
	r   cube.Range
	air uint32

	sub    []*SubChunk
	biomes []*PalettedStorage
}

// NewChunk creates a new Chunk spanning the range passed, filled with air and biome 0. The minimum of the
// range must be a multiple of 16 and its height one less than a multiple of 16.
func NewChunk(air uint32, r cube.Range) *Chunk {
	n := (r.Height() >> 4) + 1
	c := &Chunk{r: r, air: air, sub: make([]*SubChunk, n), biomes: make([]*PalettedStorage, n)}
	for i := range n {
		c.sub[i] = NewSubChunk(air)
		c.biomes[i] = NewStorage(0)
	}
	return c
}

// Range returns the vertical range of the Chunk.
func (c *Chunk) Range() cube.Range {
	return c.r
}

// Air returns the runtime ID of air the Chunk was created with.
func (c *Chunk) Air() uint32 {
	return c.air
}

// Sub returns every SubChunk of the Chunk, from the bottom of its range upwards.
func (c *Chunk) Sub() []*SubChunk {
	return c.sub
}

// SubIndex returns the index of the SubChunk holding the Y value passed.
func (c *Chunk) SubIndex(y int16) int16 {
	return (y - int16(c.r[0])) >> 4
}

// SubY returns the Y value of the bottom of the SubChunk at the index passed.
func (c *Chunk) SubY(index int16) int16 {
	return (index << 4) + int16(c.r[0])
}

// SubChunk returns the SubChunk holding the Y value passed, or false if y is outside the range.
func (c *Chunk) SubChunk(y int16) (*SubChunk, bool) {
	if !c.inRange(y) {
		return nil, false
	}
	return c.sub[c.SubIndex(y)], true
}

// SetSubChunk replaces the SubChunk at the index passed.
func (c *Chunk) SetSubChunk(index int16, sub *SubChunk) error {
	if index < 0 || int(index) >= len(c.sub) {
		return fmt.Errorf("set sub chunk %v: %w", index, ErrOutOfRange)
	}
	c.sub[index] = sub
	return nil
}

func (c *Chunk) inRange(y int16) bool {
	return int(y) >= c.r[0] && int(y) <= c.r[1]
}

// Block returns the runtime ID of the block at a position in the Chunk. Positions outside the range hold
// air.
func (c *Chunk) Block(x uint8, y int16, z uint8, layer uint8) uint32 {
	if !c.inRange(y) {
		return c.air
	}
	return c.sub[c.SubIndex(y)].Block(x, uint8(y&15), z, layer)
}

// SetBlock sets the runtime ID of the block at a position in the Chunk.
func (c *Chunk) SetBlock(x uint8, y int16, z uint8, layer uint8, rid uint32) error {
	if !c.inRange(y) {
		return fmt.Errorf("set block at y=%v: %w", y, ErrOutOfRange)
	}
	c.sub[c.SubIndex(y)].SetBlock(x, uint8(y&15), z, layer, rid)
	return nil
}

// Blocks returns the runtime IDs of every block of a layer, one slice of 4096 IDs per SubChunk.
func (c *Chunk) Blocks(layer uint8) [][]uint32 {
	b := make([][]uint32, len(c.sub))
	for i, sub := range c.sub {
		b[i] = sub.Blocks(layer)
	}
	return b
}

// SetBlocks replaces the blocks of a layer, one slice of 4096 IDs per SubChunk starting at the bottom. If
// fewer slices than sub chunks are passed, the sub chunks above are left untouched.
func (c *Chunk) SetBlocks(layer uint8, blocks [][]uint32) error {
	if len(blocks) > len(c.sub) {
		return fmt.Errorf("set blocks: %v sub chunks passed, chunk holds %v", len(blocks), len(c.sub))
	}
	for i, b := range blocks {
		if err := c.sub[i].SetBlocks(layer, b); err != nil {
			return fmt.Errorf("sub chunk %v: %w", i, err)
		}
	}
	return nil
}

// Biome returns the biome ID at a position in the Chunk, or false if y is outside the range.
func (c *Chunk) Biome(x uint8, y int16, z uint8) (uint32, bool) {
	if !c.inRange(y) {
		return 0, false
	}
	return c.biomes[c.SubIndex(y)].At(x, uint8(y&15), z), true
}

// SetBiome sets the biome ID at a position in the Chunk.
func (c *Chunk) SetBiome(x uint8, y int16, z uint8, biome uint32) error {
	if !c.inRange(y) {
		return fmt.Errorf("set biome at y=%v: %w", y, ErrOutOfRange)
	}
	c.biomes[c.SubIndex(y)].Set(x, uint8(y&15), z, biome)
	return nil
}

// Biomes returns the biome storage of every SubChunk.
func (c *Chunk) Biomes() []*PalettedStorage {
	return c.biomes
}

// SetBiomes replaces the biome storages of the Chunk from the bottom up. Storages above the last one passed
// are left untouched. Nil storages are filled with biome 0.
func (c *Chunk) SetBiomes(biomes []*PalettedStorage) error {
	if len(biomes) > len(c.biomes) {
		return fmt.Errorf("set biomes: %v storages passed, chunk holds %v: %w", len(biomes), len(c.biomes), ErrOutOfRange)
	}
	for i, b := range biomes {
		if b == nil {
			b = NewStorage(0)
		}
		c.biomes[i] = b
	}
	return nil
}

// HighestFilledSubChunk returns the index of the highest SubChunk whose first layer holds anything other
// than air, or -1 if there is no such SubChunk.
func (c *Chunk) HighestFilledSubChunk() int {
	for i := len(c.sub) - 1; i >= 0; i-- {
		s := c.sub[i].storages
		if len(s) > 0 && !s[0].only(c.air) {
			return i
		}
	}
	return -1
}

// Compact compacts every SubChunk and biome storage of the Chunk. Compact should be called right before
// the Chunk is encoded to keep the output as small as possible.
func (c *Chunk) Compact() {
	for i := range c.sub {
		c.sub[i].Compact()
		c.biomes[i].Compact()
	}
}

// Equals reports if c and o span the same range and hold the same blocks and biomes.
func (c *Chunk) Equals(o *Chunk) bool {
	if c.r != o.r || len(c.sub) != len(o.sub) {
		return false
	}
	for i := range c.sub {
		if !c.sub[i].Equals(o.sub[i]) || !c.biomes[i].Equal(o.biomes[i]) {
			return false
		}
	}
	return true
}
