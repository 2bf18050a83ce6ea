package chunk

import (
	"math/rand/v2"
	"testing"
)

func TestStorageSetAt(t *testing.T) {
	s := NewStorage(7)
	if v, ok := s.Uniform(); !ok || v != 7 {
		t.Fatalf("new storage not uniform: %v, %v", v, ok)
	}
	r := rand.New(rand.NewPCG(1, 2))
	want := make([]uint32, 4096)
	for i := range want {
		want[i] = 7
	}
	for range 10000 {
		x, y, z := uint8(r.IntN(16)), uint8(r.IntN(16)), uint8(r.IntN(16))
		v := uint32(r.IntN(300))
		s.Set(x, y, z, v)
		want[offset(x, y, z)] = v
	}
	for x := range uint8(16) {
		for y := range uint8(16) {
			for z := range uint8(16) {
				if got := s.At(x, y, z); got != want[offset(x, y, z)] {
					t.Fatalf("At(%v, %v, %v) = %v, want %v", x, y, z, got, want[offset(x, y, z)])
				}
			}
		}
	}
}

func TestStorageBitsPerIndex(t *testing.T) {
	for _, tc := range []struct {
		values int
		bits   int
	}{{1, 0}, {2, 1}, {3, 2}, {5, 3}, {9, 4}, {17, 5}, {33, 6}, {65, 8}, {257, 16}} {
		s := NewStorage(0)
		for i := range tc.values {
			s.Set(uint8(i>>8), uint8(i&15), uint8(i>>4&15), uint32(i))
		}
		if s.BitsPerIndex() != tc.bits {
			t.Fatalf("%v values: %v bits per index, want %v", tc.values, s.BitsPerIndex(), tc.bits)
		}
		if len(s.indices) != wordCount(uint8(tc.bits)) {
			t.Fatalf("%v bits: %v words, want %v", tc.bits, len(s.indices), wordCount(uint8(tc.bits)))
		}
		for i := range tc.values {
			if got := s.At(uint8(i>>8), uint8(i&15), uint8(i>>4&15)); got != uint32(i) {
				t.Fatalf("%v values: voxel %v holds %v", tc.values, i, got)
			}
		}
	}
	if wordCount(3) != 410 || wordCount(5) != 683 || wordCount(6) != 820 {
		t.Fatalf("unexpected word counts for padded index sizes")
	}
}

func TestStorageCompact(t *testing.T) {
	s := NewStorage(1)
	s.Set(0, 0, 0, 2)
	s.Set(1, 2, 3, 3)
	s.Set(0, 0, 0, 1)
	before := s.values()

	if s.Compact() {
		t.Fatalf("storage with two values collapsed")
	}
	if got := s.Palette(); len(got) != 2 || s.BitsPerIndex() != 1 {
		t.Fatalf("compacted palette %v with %v bits", got, s.BitsPerIndex())
	}
	snapshot := s.clone()
	s.Compact()
	if !s.Equal(snapshot) || len(s.palette) != len(snapshot.palette) {
		t.Fatalf("compact is not idempotent")
	}
	for off, v := range s.values() {
		if before[off] != v {
			t.Fatalf("compact changed voxel %v from %v to %v", off, before[off], v)
		}
	}

	s.Set(1, 2, 3, 1)
	if !s.Compact() {
		t.Fatalf("single valued storage did not collapse")
	}
	if v, ok := s.Uniform(); !ok || v != 1 {
		t.Fatalf("collapsed storage holds %v, %v", v, ok)
	}
	if s.Compact() {
		t.Fatalf("compact of a uniform storage reported a collapse")
	}
}

func TestStorageEqual(t *testing.T) {
	a, b := NewStorage(0), NewStorage(0)
	a.Set(4, 4, 4, 9)
	a.Set(5, 5, 5, 8)
	b.Set(5, 5, 5, 8)
	b.Set(4, 4, 4, 9)
	if !a.Equal(b) {
		t.Fatalf("storages with different palette order are not equal")
	}
	a.Set(4, 4, 4, 0)
	a.Set(5, 5, 5, 0)
	if !a.Equal(NewStorage(0)) || !NewStorage(0).Equal(a) {
		t.Fatalf("dense air storage is not equal to uniform air storage")
	}
	if a.Equal(b) {
		t.Fatalf("different storages are equal")
	}
}

func TestStorageOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for out of range coordinate")
		}
	}()
	NewStorage(0).Set(16, 0, 0, 1)
}

func TestStoragePaletteBounded(t *testing.T) {
	s := NewStorage(0)
	for i := range 10000 {
		s.Set(3, 3, 3, uint32(i+1))
	}
	if s.At(3, 3, 3) != 10000 {
		t.Fatalf("last value not kept")
	}
	if len(s.palette) > maxPaletteSize {
		t.Fatalf("palette grew to %v entries", len(s.palette))
	}
}

func TestStorageAllDistinct(t *testing.T) {
	s := NewStorage(0)
	for off := range 4096 {
		s.Set(uint8(off>>8), uint8(off&15), uint8(off>>4&15), uint32(off+1))
	}
	s.Set(0, 0, 0, 9999)
	if len(s.palette) != maxPaletteSize {
		t.Fatalf("palette holds %v entries, want %v", len(s.palette), maxPaletteSize)
	}
	if got := s.At(0, 0, 0); got != 9999 {
		t.Fatalf("At(0, 0, 0) = %v, want 9999", got)
	}
	for off := 1; off < 4096; off++ {
		if got := s.At(uint8(off>>8), uint8(off&15), uint8(off>>4&15)); got != uint32(off+1) {
			t.Fatalf("voxel %v holds %v, want %v", off, got, off+1)
		}
	}
}
