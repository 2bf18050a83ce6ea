package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/oriumgames/bedrockdb/block"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

type (
	// Encoding is an encoding type used for Chunk encoding. Implementations of this interface are DiskEncoding
	// and NetworkEncoding, which can be used to encode a Chunk to a disk or network representation
	// respectively.
	Encoding interface {
		encodePalette(buf *bytes.Buffer, palette []uint32, bitsPerIndex uint8, pe paletteEncoding)
		decodePalette(buf *bytes.Buffer, bitsPerIndex uint8, pe paletteEncoding) ([]uint32, error)
		network() byte
	}
	// paletteEncoding encodes the values of a single palette entry. Block and biome palettes are written
	// differently on disk.
	paletteEncoding interface {
		encode(buf *bytes.Buffer, v uint32)
		decode(buf *bytes.Buffer) (uint32, error)
	}
)

var (
	// DiskEncoding is the Encoding for writing a Chunk to disk. It writes block palettes as NBT block states
	// and does not use varints.
	DiskEncoding diskEncoding
	// NetworkEncoding is the Encoding used for sending a Chunk over network. It writes every palette entry
	// as a varint and does not use NBT.
	NetworkEncoding networkEncoding
)

// maxPaletteSize is the largest palette a storage of 4096 voxels may be decoded with.
const maxPaletteSize = 4096

// biomePaletteEncoding writes biome IDs as little endian uint32s.
type biomePaletteEncoding struct{}

func (biomePaletteEncoding) encode(buf *bytes.Buffer, v uint32) {
	_, _ = buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func (biomePaletteEncoding) decode(buf *bytes.Buffer) (uint32, error) {
	b := buf.Next(4)
	if len(b) != 4 {
		return 0, fmt.Errorf("read biome palette entry: %w", ErrMalformed)
	}
	return binary.LittleEndian.Uint32(b), nil
}

// blockPaletteEncoding writes block runtime IDs as the little endian NBT block state they resolve to in
// a block.Table.
type blockPaletteEncoding struct {
	t *block.Table
}

func (bpe blockPaletteEncoding) encode(buf *bytes.Buffer, v uint32) {
	s, ok := bpe.t.RuntimeIDToState(v)
	if !ok {
		logger.Printf("encode block palette: runtime ID %v not in block table, writing %v", v, block.UnknownName)
		s, _ = bpe.t.RuntimeIDToState(bpe.t.UnknownRuntimeID())
	}
	if err := nbt.NewEncoderWithEncoding(buf, nbt.LittleEndian).Encode(s); err != nil {
		// Registered states always encode, so this only happens if the table itself is broken.
		panic(fmt.Sprintf("encode block palette: %v: %v", s, err))
	}
}

func (bpe blockPaletteEncoding) decode(buf *bytes.Buffer) (uint32, error) {
	var m map[string]any
	if err := nbt.NewDecoderWithEncoding(buf, nbt.LittleEndian).Decode(&m); err != nil {
		return 0, fmt.Errorf("decode block palette entry: %w", err)
	}
	name, _ := m["name"].(string)
	version, _ := m["version"].(int32)

	props := map[string]any{}
	if v, ok := m["states"]; ok {
		// Broken world conversions may leave out the states entirely, which is treated as no properties.
		if props, ok = v.(map[string]any); !ok {
			return 0, fmt.Errorf("decode block palette entry: states of %v is %T, not a compound: %w", name, v, ErrMalformed)
		}
	}

	rid, ok := bpe.t.StateToRuntimeIDVersion(name, props, version)
	if !ok {
		if name != "" {
			logger.Printf("decode block palette: unknown block state %v %v (version %v), using %v", name, props, version, block.UnknownName)
		}
		return bpe.t.UnknownRuntimeID(), nil
	}
	return rid, nil
}

// diskEncoding implements the Chunk encoding for writing to disk.
type diskEncoding struct{}

func (diskEncoding) network() byte { return 0 }

func (diskEncoding) encodePalette(buf *bytes.Buffer, palette []uint32, bitsPerIndex uint8, pe paletteEncoding) {
	if bitsPerIndex != 0 {
		_, _ = buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(palette))))
	}
	for _, v := range palette {
		pe.encode(buf, v)
	}
}

func (diskEncoding) decodePalette(buf *bytes.Buffer, bitsPerIndex uint8, pe paletteEncoding) ([]uint32, error) {
	count := uint32(1)
	if bitsPerIndex != 0 {
		b := buf.Next(4)
		if len(b) != 4 {
			return nil, fmt.Errorf("read palette entry count: %w", ErrMalformed)
		}
		count = binary.LittleEndian.Uint32(b)
	}
	if count == 0 || count > maxPaletteSize {
		return nil, fmt.Errorf("invalid palette entry count %v for %v bits per index: %w", count, bitsPerIndex, ErrMalformed)
	}
	palette := make([]uint32, count)
	for i := range palette {
		v, err := pe.decode(buf)
		if err != nil {
			return nil, fmt.Errorf("palette entry %v: %w", i, err)
		}
		palette[i] = v
	}
	return palette, nil
}

// networkEncoding implements the Chunk encoding for sending over network.
type networkEncoding struct{}

func (networkEncoding) network() byte { return 1 }

func (networkEncoding) encodePalette(buf *bytes.Buffer, palette []uint32, bitsPerIndex uint8, _ paletteEncoding) {
	if bitsPerIndex != 0 {
		_ = protocol.WriteVarint32(buf, int32(len(palette)))
	}
	for _, v := range palette {
		_ = protocol.WriteVarint32(buf, int32(v))
	}
}

func (networkEncoding) decodePalette(buf *bytes.Buffer, bitsPerIndex uint8, _ paletteEncoding) ([]uint32, error) {
	count := int32(1)
	if bitsPerIndex != 0 {
		if err := protocol.Varint32(buf, &count); err != nil {
			return nil, fmt.Errorf("read palette entry count: %w: %w", ErrMalformed, err)
		}
	}
	if count <= 0 || count > maxPaletteSize {
		return nil, fmt.Errorf("invalid palette entry count %v for %v bits per index: %w", count, bitsPerIndex, ErrMalformed)
	}
	palette := make([]uint32, count)
	for i := range palette {
		var v int32
		if err := protocol.Varint32(buf, &v); err != nil {
			return nil, fmt.Errorf("read palette entry %v: %w: %w", i, ErrMalformed, err)
		}
		palette[i] = uint32(v)
	}
	return palette, nil
}
