package chunk

import (
	"errors"
	"testing"
)

func TestEmptyChunk(t *testing.T) {
	const air = 42
	c := NewChunk(air, overworld)
	if len(c.Sub()) != 24 || len(c.Biomes()) != 24 {
		t.Fatalf("overworld chunk holds %v sub chunks and %v biome storages", len(c.Sub()), len(c.Biomes()))
	}
	if h := c.HighestFilledSubChunk(); h != -1 {
		t.Fatalf("HighestFilledSubChunk() = %v, want -1", h)
	}
	for y := int16(-64); y <= 319; y += 5 {
		for x := uint8(0); x < 16; x += 3 {
			if b := c.Block(x, y, 15-x, 0); b != air {
				t.Fatalf("Block(%v, %v, %v) = %v, want air", x, y, 15-x, b)
			}
		}
	}
	if b := c.Block(0, 400, 0, 0); b != air {
		t.Fatalf("block above range is %v, want air", b)
	}
}

func TestChunkSetBlock(t *testing.T) {
	c := NewChunk(0, overworld)
	if err := c.SetBlock(1, 320, 1, 0, 5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange above range, got %v", err)
	}
	if err := c.SetBlock(1, -65, 1, 0, 5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange below range, got %v", err)
	}
	if err := c.SetBlock(1, -1, 2, 1, 5); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	if b := c.Block(1, -1, 2, 1); b != 5 {
		t.Fatalf("Block = %v, want 5", b)
	}
	if b := c.Block(1, -1, 2, 0); b != 0 {
		t.Fatalf("layer 0 below waterlogged block holds %v", b)
	}
	sub, ok := c.SubChunk(-1)
	if !ok || len(sub.Layers()) != 2 {
		t.Fatalf("expected 2 layers in sub chunk, got %v", len(sub.Layers()))
	}
	if c.HighestFilledSubChunk() != -1 {
		t.Fatalf("a block in layer 1 counts as filled")
	}
	if err := c.SetBlock(0, 200, 0, 0, 9); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	if h := c.HighestFilledSubChunk(); h != int(c.SubIndex(200)) {
		t.Fatalf("HighestFilledSubChunk() = %v, want %v", h, c.SubIndex(200))
	}
}

func TestSubIndex(t *testing.T) {
	c := NewChunk(0, overworld)
	for _, tc := range []struct{ y, index int16 }{{-64, 0}, {-49, 0}, {-48, 1}, {0, 4}, {319, 23}} {
		if got := c.SubIndex(tc.y); got != tc.index {
			t.Fatalf("SubIndex(%v) = %v, want %v", tc.y, got, tc.index)
		}
		if got := c.SubY(tc.index); got > tc.y || got+16 <= tc.y {
			t.Fatalf("SubY(%v) = %v does not contain %v", tc.index, got, tc.y)
		}
	}
	if _, ok := c.SubChunk(320); ok {
		t.Fatalf("SubChunk above range found")
	}
}

func TestChunkBiomes(t *testing.T) {
	c := NewChunk(0, overworld)
	if err := c.SetBiome(0, 319, 0, 7); err != nil {
		t.Fatalf("SetBiome: %v", err)
	}
	if b, ok := c.Biome(0, 319, 0); !ok || b != 7 {
		t.Fatalf("Biome = %v, %v", b, ok)
	}
	if _, ok := c.Biome(0, -100, 0); ok {
		t.Fatalf("biome below range found")
	}
	if err := c.SetBiome(0, -100, 0, 1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestChunkSetBiomes(t *testing.T) {
	c := NewChunk(0, overworld)
	b := NewStorage(6)
	if err := c.SetBiomes([]*PalettedStorage{nil, b}); err != nil {
		t.Fatalf("SetBiomes: %v", err)
	}
	if got, _ := c.Biome(0, -64, 0); got != 0 {
		t.Fatalf("nil storage filled with biome %v", got)
	}
	if got, _ := c.Biome(5, -48, 5); got != 6 {
		t.Fatalf("Biome = %v, want 6", got)
	}
	if err := c.SetBiomes(make([]*PalettedStorage, 25)); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestChunkEquals(t *testing.T) {
	a, b := NewChunk(0, overworld), NewChunk(0, overworld)
	_ = a.SetBlock(3, 3, 3, 0, 1)
	if a.Equals(b) {
		t.Fatalf("chunks with different blocks are equal")
	}
	_ = b.SetBlock(3, 3, 3, 0, 1)
	b.Compact()
	if !a.Equals(b) {
		t.Fatalf("compaction changed chunk equality")
	}
	_ = b.SetBiome(0, 0, 0, 3)
	if a.Equals(b) {
		t.Fatalf("chunks with different biomes are equal")
	}
}

func TestSubChunkCompact(t *testing.T) {
	sub := NewSubChunk(0)
	sub.SetBlock(0, 0, 0, 1, 8)
	sub.SetBlock(0, 0, 0, 1, 0)
	sub.SetBlock(0, 0, 0, 0, 3)
	sub.Compact()
	if len(sub.Layers()) != 1 {
		t.Fatalf("air layer kept after compaction: %v layers", len(sub.Layers()))
	}
	if sub.Empty() {
		t.Fatalf("sub chunk with a block is empty")
	}

	sub = NewSubChunk(0)
	sub.SetBlock(0, 0, 0, 1, 8)
	sub.Compact()
	if len(sub.Layers()) != 2 {
		t.Fatalf("air layer below a filled layer dropped")
	}
	sub.SetBlock(0, 0, 0, 1, 0)
	sub.Compact()
	if len(sub.Layers()) != 0 || !sub.Empty() {
		t.Fatalf("expected an empty sub chunk, got %v layers", len(sub.Layers()))
	}
}

func TestSetBlocks(t *testing.T) {
	c := NewChunk(0, overworld)
	blocks := make([]uint32, 4096)
	for i := range blocks {
		blocks[i] = uint32(i % 3)
	}
	if err := c.SetBlocks(0, [][]uint32{nil}); err == nil {
		t.Fatalf("expected error for short block slice")
	}
	if err := c.SetBlocks(0, [][]uint32{blocks, blocks}); err != nil {
		t.Fatalf("SetBlocks: %v", err)
	}
	// Offset x<<8 | z<<4 | y.
	if b := c.Block(0, -64+5, 1, 0); b != uint32((1<<4|5)%3) {
		t.Fatalf("Block = %v", b)
	}
	got := c.Blocks(0)
	for i, v := range got[1] {
		if v != blocks[i] {
			t.Fatalf("voxel %v holds %v, want %v", i, v, blocks[i])
		}
	}
}
