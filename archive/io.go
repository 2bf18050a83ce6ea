package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/oriumgames/bedrockdb/chunk"
)

// CompressionLevel represents the compression level for writing archives.
type CompressionLevel int

const (
	// CompressionLevelNone disables compression.
	CompressionLevelNone CompressionLevel = iota
	// CompressionLevelFast uses fast compression (level 1).
	CompressionLevelFast
	// CompressionLevelDefault uses default compression (level 3).
	CompressionLevelDefault
	// CompressionLevelBest uses best compression (level 9).
	CompressionLevelBest
)

// encoderLevel maps a compression level to a zstd level.
func (l CompressionLevel) encoderLevel() zstd.EncoderLevel {
	switch l {
	case CompressionLevelFast:
		return zstd.SpeedFastest
	case CompressionLevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

// Chunk records are prefixed with recordChunk. recordEnd follows the last one.
const (
	recordEnd   = 0
	recordChunk = 1
)

// Writer writes an archive chunk by chunk.
type Writer struct {
	w    io.Writer
	zstd *zstd.Encoder
	n    int
}

// NewWriter writes the archive header to w and returns a Writer to write its chunks. Close must be called
// after the last chunk.
func NewWriter(w io.Writer, hdr Header, level CompressionLevel) (*Writer, error) {
	if hdr.ID == uuid.Nil {
		hdr.ID = uuid.New()
	}
	compression := uint8(CompressionNone)
	if level != CompressionLevelNone {
		compression = CompressionZstd
	}

	// Write header
	if err := binary.Write(w, binary.BigEndian, uint32(MagicNumber)); err != nil {
		return nil, fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, int16(CurrentVersion)); err != nil {
		return nil, fmt.Errorf("write version: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, compression); err != nil {
		return nil, fmt.Errorf("write compression: %w", err)
	}

	aw := &Writer{w: w}
	if compression == CompressionZstd {
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(level.encoderLevel()))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		aw.w, aw.zstd = enc, enc
	}

	buf := new(buffer)
	_, _ = buf.Write(hdr.ID[:])
	buf.WriteInt32(hdr.Dimension)
	buf.WriteInt32(int32(hdr.Range[0]))
	buf.WriteInt32(int32(hdr.Range[1]))
	buf.WriteString(hdr.LevelName)
	if _, err := aw.w.Write(buf.Bytes()); err != nil {
		aw.abort()
		return nil, fmt.Errorf("write archive header: %w", err)
	}
	return aw, nil
}

// WriteChunk writes a chunk to the archive.
func (w *Writer) WriteChunk(c Chunk) error {
	buf := new(buffer)
	_ = buf.WriteByte(recordChunk)
	buf.WriteInt32(c.Pos[0])
	buf.WriteInt32(c.Pos[1])
	buf.WriteBytes(chunk.EncodeContainer(c.SubChunks))
	buf.WriteBytes(c.Biomes)
	buf.WriteBytes(c.BlockEntities)
	buf.WriteInt64(c.TimeStamp)
	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write chunk (%d,%d): %w", c.Pos[0], c.Pos[1], err)
	}
	w.n++
	return nil
}

// Len returns the number of chunks written so far.
func (w *Writer) Len() int {
	return w.n
}

// Close ends the archive. It does not close the underlying writer.
func (w *Writer) Close() error {
	if _, err := w.w.Write([]byte{recordEnd}); err != nil {
		w.abort()
		return fmt.Errorf("write archive end: %w", err)
	}
	if w.zstd != nil {
		if err := w.zstd.Close(); err != nil {
			return fmt.Errorf("close zstd stream: %w", err)
		}
	}
	return nil
}

func (w *Writer) abort() {
	if w.zstd != nil {
		_ = w.zstd.Close()
	}
}

// Write writes a full archive to w.
func Write(w io.Writer, a *Archive, level CompressionLevel) error {
	aw, err := NewWriter(w, a.Header, level)
	if err != nil {
		return err
	}
	for _, c := range a.Chunks {
		if err := aw.WriteChunk(c); err != nil {
			aw.abort()
			return err
		}
	}
	return aw.Close()
}

// Reader reads an archive chunk by chunk.
type Reader struct {
	hdr  Header
	r    *reader
	zstd *zstd.Decoder
	done bool
}

// NewReader reads the archive header from r and returns a Reader to read its chunks.
func NewReader(r io.Reader) (*Reader, error) {
	// Read magic number
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != MagicNumber {
		return nil, fmt.Errorf("invalid magic number: got 0x%08X, want 0x%08X", magic, MagicNumber)
	}

	// Read version
	var version int16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version > CurrentVersion || version < 1 {
		return nil, fmt.Errorf("unsupported version: %d (max supported: %d)", version, CurrentVersion)
	}

	// Read compression type
	var compression uint8
	if err := binary.Read(r, binary.BigEndian, &compression); err != nil {
		return nil, fmt.Errorf("read compression: %w", err)
	}

	ar := &Reader{}
	switch compression {
	case CompressionNone:
		ar.r = newReader(r)
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		ar.r, ar.zstd = newReader(dec), dec
	default:
		return nil, fmt.Errorf("unknown compression type %d", compression)
	}

	id, err := ar.r.ReadN(len(uuid.UUID{}))
	if err != nil {
		ar.Close()
		return nil, fmt.Errorf("read archive id: %w", err)
	}
	copy(ar.hdr.ID[:], id)
	var lo, hi int32
	if ar.hdr.Dimension, err = ar.r.ReadInt32(); err == nil {
		if lo, err = ar.r.ReadInt32(); err == nil {
			hi, err = ar.r.ReadInt32()
		}
	}
	if err != nil {
		ar.Close()
		return nil, fmt.Errorf("read archive range: %w", err)
	}
	if lo > hi || (hi-lo+1)%16 != 0 {
		ar.Close()
		return nil, fmt.Errorf("invalid archive range [%d, %d]", lo, hi)
	}
	ar.hdr.Range = [2]int{int(lo), int(hi)}
	if ar.hdr.LevelName, err = ar.r.ReadString(); err != nil {
		ar.Close()
		return nil, fmt.Errorf("read level name: %w", err)
	}
	return ar, nil
}

// Header returns the header of the archive.
func (r *Reader) Header() Header {
	return r.hdr
}

// Next reads the next chunk of the archive. It returns io.EOF after the last chunk.
func (r *Reader) Next() (Chunk, error) {
	if r.done {
		return Chunk{}, io.EOF
	}
	record, err := r.r.ReadByte()
	if err != nil {
		return Chunk{}, fmt.Errorf("read record: %w", noEOF(err))
	}
	switch record {
	case recordEnd:
		r.done = true
		return Chunk{}, io.EOF
	case recordChunk:
	default:
		return Chunk{}, fmt.Errorf("unknown record type %d", record)
	}

	var c Chunk
	if c.Pos[0], err = r.r.ReadInt32(); err == nil {
		c.Pos[1], err = r.r.ReadInt32()
	}
	if err != nil {
		return Chunk{}, fmt.Errorf("read chunk position: %w", noEOF(err))
	}
	container, err := r.r.ReadBytes()
	if err != nil {
		return Chunk{}, fmt.Errorf("read chunk (%d,%d) sub chunks: %w", c.Pos[0], c.Pos[1], noEOF(err))
	}
	if c.SubChunks, err = chunk.DecodeContainer(container); err != nil {
		return Chunk{}, fmt.Errorf("read chunk (%d,%d) sub chunks: %w", c.Pos[0], c.Pos[1], err)
	}
	if n := (r.hdr.Range[1] - r.hdr.Range[0] + 1) >> 4; len(c.SubChunks) > n {
		return Chunk{}, fmt.Errorf("chunk (%d,%d) holds %d sub chunks, range allows %d", c.Pos[0], c.Pos[1], len(c.SubChunks), n)
	}
	if c.Biomes, err = r.r.ReadBytes(); err != nil {
		return Chunk{}, fmt.Errorf("read chunk (%d,%d) biomes: %w", c.Pos[0], c.Pos[1], noEOF(err))
	}
	if c.BlockEntities, err = r.r.ReadBytes(); err != nil {
		return Chunk{}, fmt.Errorf("read chunk (%d,%d) block entities: %w", c.Pos[0], c.Pos[1], noEOF(err))
	}
	if c.TimeStamp, err = r.r.ReadInt64(); err != nil {
		return Chunk{}, fmt.Errorf("read chunk (%d,%d) time stamp: %w", c.Pos[0], c.Pos[1], noEOF(err))
	}
	return c, nil
}

// Close releases the resources of the Reader. It does not close the underlying reader.
func (r *Reader) Close() {
	if r.zstd != nil {
		r.zstd.Close()
	}
}

// Read reads a full archive from r.
func Read(r io.Reader) (*Archive, error) {
	ar, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	a := &Archive{Header: ar.Header()}
	for {
		c, err := ar.Next()
		if errors.Is(err, io.EOF) {
			return a, nil
		}
		if err != nil {
			return nil, err
		}
		a.Chunks = append(a.Chunks, c)
	}
}

// noEOF turns an io.EOF into io.ErrUnexpectedEOF: an archive only ends after its end record.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
