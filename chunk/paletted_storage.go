package chunk

import (
	"fmt"
	"slices"
)

// allowedBitsPerIndex holds every bit width an index of a PalettedStorage may be written with.
var allowedBitsPerIndex = [...]uint8{0, 1, 2, 3, 4, 5, 6, 8, 16}

// PalettedStorage holds the values of a 16x16x16 volume. Every distinct value present is held once in a
// palette and every voxel stores an index into that palette, packed into 32-bit words with the minimum
// number of bits needed to address the palette.
//
// A storage with 0 bits per index holds a single palette entry and no index words: every voxel has that
// value. Such a storage is uniform. Compact narrows a storage back to the smallest representation.
type PalettedStorage struct {
	bitsPerIndex uint8
	// indicesPerWord is the number of indices fitting in a single uint32 word.
	indicesPerWord uint16
	indexMask      uint32

	indices []uint32
	palette []uint32
}

// NewStorage returns a uniform PalettedStorage holding v in every voxel.
func NewStorage(v uint32) *PalettedStorage {
	return newPalettedStorage([]uint32{v}, 0, nil)
}

// newPalettedStorage creates a PalettedStorage from a palette and index words. Indices must hold exactly
// wordCount(bitsPerIndex) words.
func newPalettedStorage(palette []uint32, bitsPerIndex uint8, indices []uint32) *PalettedStorage {
	s := &PalettedStorage{bitsPerIndex: bitsPerIndex, indices: indices, palette: palette}
	if bitsPerIndex != 0 {
		s.indicesPerWord = uint16(32 / bitsPerIndex)
		s.indexMask = 1<<bitsPerIndex - 1
	}
	return s
}

// wordCount returns the number of uint32 words needed to store 4096 indices of the size passed.
func wordCount(bitsPerIndex uint8) int {
	if bitsPerIndex == 0 {
		return 0
	}
	perWord := 32 / int(bitsPerIndex)
	return (4096 + perWord - 1) / perWord
}

// validBitsPerIndex reports if b is one of the index sizes Bedrock supports.
func validBitsPerIndex(b uint8) bool {
	return slices.Contains(allowedBitsPerIndex[:], b)
}

// bitsFor returns the smallest supported index size able to address n palette entries.
func bitsFor(n int) uint8 {
	for _, b := range allowedBitsPerIndex {
		if 1<<b >= n {
			return b
		}
	}
	panic(fmt.Sprintf("palette of %v entries too large", n))
}

// offset returns the voxel offset of a local position. It panics if any of the coordinates is above 15.
func offset(x, y, z uint8) uint16 {
	if x > 15 || y > 15 || z > 15 {
		panic(fmt.Sprintf("local position (%v, %v, %v) out of range", x, y, z))
	}
	return uint16(x)<<8 | uint16(z)<<4 | uint16(y)
}

// BitsPerIndex returns the number of bits every voxel index occupies.
func (s *PalettedStorage) BitsPerIndex() int {
	return int(s.bitsPerIndex)
}

// Palette returns a copy of the values in the palette of the storage.
func (s *PalettedStorage) Palette() []uint32 {
	return slices.Clone(s.palette)
}

// Uniform returns the value held by every voxel if the storage is in its uniform representation.
func (s *PalettedStorage) Uniform() (uint32, bool) {
	if s.bitsPerIndex == 0 {
		return s.palette[0], true
	}
	return 0, false
}

// At returns the value at a local position. It panics if any of the coordinates is above 15.
func (s *PalettedStorage) At(x, y, z uint8) uint32 {
	return s.palette[s.indexAt(offset(x, y, z))]
}

// Set sets the value at a local position. It panics if any of the coordinates is above 15.
func (s *PalettedStorage) Set(x, y, z uint8, v uint32) {
	off := offset(x, y, z)
	i := slices.Index(s.palette, v)
	if i == -1 {
		if len(s.palette) >= maxPaletteSize {
			// Overwritten values are never removed from the palette by Set, so drop them before it outgrows
			// the number of voxels.
			s.Compact()
			if len(s.palette) >= maxPaletteSize {
				// Every voxel holds a distinct value: the entry of the voxel at off is used by it alone.
				s.palette[s.indexAt(off)] = v
				return
			}
		}
		i = len(s.palette)
		s.palette = append(s.palette, v)
		if len(s.palette) > 1<<s.bitsPerIndex {
			s.resize(bitsFor(len(s.palette)))
		}
	}
	if s.bitsPerIndex == 0 {
		return
	}
	s.setIndex(off, uint32(i))
}

func (s *PalettedStorage) indexAt(off uint16) uint32 {
	if s.bitsPerIndex == 0 {
		return 0
	}
	word := s.indices[off/s.indicesPerWord]
	return word >> (uint32(off%s.indicesPerWord) * uint32(s.bitsPerIndex)) & s.indexMask
}

func (s *PalettedStorage) setIndex(off uint16, i uint32) {
	shift := uint32(off%s.indicesPerWord) * uint32(s.bitsPerIndex)
	w := &s.indices[off/s.indicesPerWord]
	*w = *w&^(s.indexMask<<shift) | i<<shift
}

// resize repacks every index into words of the bit width passed.
func (s *PalettedStorage) resize(bitsPerIndex uint8) {
	old := *s
	*s = *newPalettedStorage(s.palette, bitsPerIndex, make([]uint32, wordCount(bitsPerIndex)))
	if bitsPerIndex == 0 {
		s.indices = nil
		return
	}
	for off := uint16(0); off < 4096; off++ {
		s.setIndex(off, old.indexAt(off))
	}
}

// values returns the value of every voxel, in voxel offset order.
func (s *PalettedStorage) values() []uint32 {
	v := make([]uint32, 4096)
	for off := range uint16(4096) {
		v[off] = s.palette[s.indexAt(off)]
	}
	return v
}

// setValues replaces every voxel of the storage with the values passed, in voxel offset order.
func (s *PalettedStorage) setValues(v []uint32) {
	palette := make([]uint32, 0, 16)
	lookup := make(map[uint32]uint32, 16)
	indices := make([]uint32, 4096)
	for off, val := range v[:4096] {
		i, ok := lookup[val]
		if !ok {
			i = uint32(len(palette))
			lookup[val] = i
			palette = append(palette, val)
		}
		indices[off] = i
	}
	*s = *newPalettedStorage(palette, bitsFor(len(palette)), make([]uint32, wordCount(bitsFor(len(palette)))))
	if s.bitsPerIndex == 0 {
		s.indices = nil
		return
	}
	for off, i := range indices {
		s.setIndex(uint16(off), i)
	}
}

// Compact removes palette entries no voxel uses, merges duplicate entries and narrows the index size to
// the smallest one that fits the remaining palette. It returns true if this collapsed the storage into its
// uniform representation. Compact never changes the value of any voxel.
func (s *PalettedStorage) Compact() bool {
	if s.bitsPerIndex == 0 {
		return false
	}
	used := make([]bool, len(s.palette))
	for off := range uint16(4096) {
		used[s.indexAt(off)] = true
	}
	remap := make([]uint32, len(s.palette))
	lookup := make(map[uint32]uint32, len(s.palette))
	palette := make([]uint32, 0, len(s.palette))
	for i, v := range s.palette {
		if !used[i] {
			continue
		}
		n, ok := lookup[v]
		if !ok {
			n = uint32(len(palette))
			lookup[v] = n
			palette = append(palette, v)
		}
		remap[i] = n
	}
	if len(palette) == len(s.palette) {
		// Every entry is used and unique: the index size is already minimal unless it was widened past it.
		if b := bitsFor(len(palette)); b != s.bitsPerIndex {
			s.resize(b)
		}
		return s.bitsPerIndex == 0
	}

	old := *s
	bits := bitsFor(len(palette))
	*s = *newPalettedStorage(palette, bits, make([]uint32, wordCount(bits)))
	if bits == 0 {
		s.indices = nil
		return true
	}
	for off := range uint16(4096) {
		s.setIndex(off, remap[old.indexAt(off)])
	}
	return false
}

// only reports if every voxel of the storage holds v.
func (s *PalettedStorage) only(v uint32) bool {
	if !slices.Contains(s.palette, v) {
		return false
	}
	if !slices.ContainsFunc(s.palette, func(p uint32) bool { return p != v }) {
		return true
	}
	for off := range uint16(4096) {
		if s.palette[s.indexAt(off)] != v {
			return false
		}
	}
	return true
}

// Equal reports if s and o hold the same value in every voxel, regardless of the order of their palettes
// or whether they were compacted.
func (s *PalettedStorage) Equal(o *PalettedStorage) bool {
	if s == nil || o == nil {
		return s == o
	}
	if a, ok := s.Uniform(); ok {
		return o.only(a)
	}
	if b, ok := o.Uniform(); ok {
		return s.only(b)
	}
	for off := range uint16(4096) {
		if s.palette[s.indexAt(off)] != o.palette[o.indexAt(off)] {
			return false
		}
	}
	return true
}

// clone returns a deep copy of s.
func (s *PalettedStorage) clone() *PalettedStorage {
	c := *s
	c.palette = slices.Clone(s.palette)
	c.indices = slices.Clone(s.indices)
	return &c
}

// validate checks that every index of the storage addresses an entry of its palette.
func (s *PalettedStorage) validate() error {
	if len(s.palette) == 0 {
		return fmt.Errorf("empty palette")
	}
	if s.bitsPerIndex == 0 {
		return nil
	}
	n := uint32(len(s.palette))
	for off := range uint16(4096) {
		if i := s.indexAt(off); i >= n {
			return fmt.Errorf("voxel %v references palette index %v of %v entries", off, i, n)
		}
	}
	return nil
}
