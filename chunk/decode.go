package chunk

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/oriumgames/bedrockdb/block"
)

// ErrMalformed is wrapped by errors returned for data that is truncated or otherwise structurally invalid.
var ErrMalformed = errors.New("malformed chunk data")

// DecodeSubChunk decodes a SubChunk of a Chunk spanning range r from data, encoded with the Encoding passed.
// It returns the SubChunk and its index in the Chunk. Sub chunks of versions 1 and 8 do not hold their
// index, in which case 0 is returned.
//
// Network data must only reference runtime IDs present in t. Disk data is resolved through t, upgrading
// older block states, and states not in t decode to t.UnknownRuntimeID(). Any error leaves nothing
// decoded: the whole SubChunk must be treated as absent.
func DecodeSubChunk(data []byte, r cube.Range, e Encoding, t *block.Table) (*SubChunk, int, error) {
	buf := bytes.NewBuffer(data)
	sub, index, err := decodeSubChunk(buf, r, e, t)
	if err != nil {
		return nil, 0, err
	}
	if buf.Len() != 0 {
		return nil, 0, fmt.Errorf("decode sub chunk: %v trailing bytes: %w", buf.Len(), ErrMalformed)
	}
	return sub, index, nil
}

// decodeSubChunk decodes a SubChunk from buf, leaving any bytes that follow it.
func decodeSubChunk(buf *bytes.Buffer, r cube.Range, e Encoding, t *block.Table) (*SubChunk, int, error) {
	ver, err := buf.ReadByte()
	if err != nil {
		return nil, 0, fmt.Errorf("decode sub chunk: read version: %w", ErrMalformed)
	}
	sub, index := NewSubChunk(t.AirRuntimeID()), 0
	pe := blockPaletteEncoding{t: t}

	switch ver {
	case 1:
		// Version 1 holds a single layer and no layer count.
		s, err := decodePalettedStorage(buf, e, pe, false)
		if err != nil {
			return nil, 0, fmt.Errorf("decode sub chunk: layer 0: %w", err)
		}
		sub.storages = append(sub.storages, s)
	case 8, 9:
		layers, err := buf.ReadByte()
		if err != nil {
			return nil, 0, fmt.Errorf("decode sub chunk: read layer count: %w", ErrMalformed)
		}
		if ver == 9 {
			y, err := buf.ReadByte()
			if err != nil {
				return nil, 0, fmt.Errorf("decode sub chunk: read index: %w", ErrMalformed)
			}
			// The byte holds the Y of the sub chunk in the world, not its index in the chunk.
			index = int(int8(y)) - r[0]>>4
			if index < 0 || index > r.Height()>>4 {
				return nil, 0, fmt.Errorf("decode sub chunk: sub chunk y %v outside range %v: %w", int8(y), r, ErrMalformed)
			}
		}
		sub.storages = make([]*PalettedStorage, 0, layers)
		for i := range layers {
			s, err := decodePalettedStorage(buf, e, pe, false)
			if err != nil {
				return nil, 0, fmt.Errorf("decode sub chunk: layer %v: %w", i, err)
			}
			sub.storages = append(sub.storages, s)
		}
	default:
		return nil, 0, fmt.Errorf("decode sub chunk: unknown version %v: %w", ver, ErrMalformed)
	}

	if e.network() == 1 {
		for i, s := range sub.storages {
			for _, v := range s.palette {
				if !t.Registered(v) {
					return nil, 0, fmt.Errorf("decode sub chunk: layer %v: runtime ID %v not in block table: %w", i, v, ErrMalformed)
				}
			}
		}
	}
	return sub, index, nil
}

// decodePalettedStorage decodes a PalettedStorage from buf. If allowPrevious is true, the storage may be
// marked as equal to the previous one, in which case nil is returned without error.
func decodePalettedStorage(buf *bytes.Buffer, e Encoding, pe paletteEncoding, allowPrevious bool) (*PalettedStorage, error) {
	header, err := buf.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read storage header: %w", ErrMalformed)
	}
	if header&1 != e.network() {
		return nil, fmt.Errorf("storage network flag %v does not match encoding: %w", header&1, ErrMalformed)
	}
	bits := header >> 1
	if bits == sameAsPrevious {
		if !allowPrevious {
			return nil, fmt.Errorf("storage refers to previous storage: %w", ErrMalformed)
		}
		return nil, nil
	}
	if !validBitsPerIndex(bits) {
		return nil, fmt.Errorf("invalid bits per index %v: %w", bits, ErrMalformed)
	}

	n := wordCount(bits)
	raw := buf.Next(n * 4)
	if len(raw) != n*4 {
		return nil, fmt.Errorf("read %v index words: %w", n, ErrMalformed)
	}
	var indices []uint32
	if n > 0 {
		indices = make([]uint32, n)
		for i := range indices {
			indices[i] = uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		}
	}

	palette, err := e.decodePalette(buf, bits, pe)
	if err != nil {
		return nil, err
	}
	s := newPalettedStorage(palette, bits, indices)
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return s, nil
}

// decodeBiomes decodes the biome storages of c from buf. Decoding stops early without error if buf runs
// out before every SubChunk has a biome storage.
func decodeBiomes(buf *bytes.Buffer, c *Chunk, e Encoding) error {
	var last *PalettedStorage
	for i := 0; i < len(c.biomes) && buf.Len() > 0; i++ {
		b, err := decodePalettedStorage(buf, e, biomePaletteEncoding{}, i > 0)
		if err != nil {
			return fmt.Errorf("decode biomes %v: %w", i, err)
		}
		if b == nil {
			b = last.clone()
		} else {
			last = b
		}
		c.biomes[i] = b
	}
	return nil
}

// DiskDecode decodes a Chunk spanning range r from its disk representation. Empty sub chunk entries are left
// filled with air.
func DiskDecode(data SerialisedData, r cube.Range, t *block.Table) (*Chunk, error) {
	c := NewChunk(t.AirRuntimeID(), r)
	if len(data.SubChunks) > len(c.sub) {
		return nil, fmt.Errorf("disk decode: %v sub chunks for range %v: %w", len(data.SubChunks), r, ErrMalformed)
	}
	if err := decodeBiomes(bytes.NewBuffer(data.Biomes), c, DiskEncoding); err != nil {
		return nil, fmt.Errorf("disk decode: %w", err)
	}
	for i, b := range data.SubChunks {
		if len(b) == 0 {
			continue
		}
		sub, _, err := DecodeSubChunk(b, r, DiskEncoding, t)
		if err != nil {
			return nil, fmt.Errorf("disk decode: sub chunk %v: %w", i, err)
		}
		c.sub[i] = sub
	}
	return c, nil
}

// NetworkDecode decodes a Chunk spanning range r from a LevelChunk payload holding count sub chunks, as
// produced by NetworkEncode.
func NetworkDecode(air uint32, data []byte, count int, r cube.Range, t *block.Table) (*Chunk, error) {
	c := NewChunk(air, r)
	if count < 0 || count > len(c.sub) {
		return nil, fmt.Errorf("network decode: %v sub chunks for range %v: %w", count, r, ErrMalformed)
	}
	buf := bytes.NewBuffer(data)
	for i := range count {
		sub, _, err := decodeSubChunk(buf, r, NetworkEncoding, t)
		if err != nil {
			return nil, fmt.Errorf("network decode: sub chunk %v: %w", i, err)
		}
		c.sub[i] = sub
	}
	if err := decodeBiomes(buf, c, NetworkEncoding); err != nil {
		return nil, fmt.Errorf("network decode: %w", err)
	}
	return c, nil
}
