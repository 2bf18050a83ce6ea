package archive

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// maxBytes is the largest byte slice read from an archive.
const maxBytes = 1 << 24

// buffer is a helper for writing binary data with convenient typed methods.
type buffer struct {
	bytes.Buffer
}

// WriteInt32 writes an int32 in big-endian format.
func (b *buffer) WriteInt32(v int32) {
	_ = binary.Write(b, binary.BigEndian, v)
}

// WriteInt64 writes an int64 in big-endian format.
func (b *buffer) WriteInt64(v int64) {
	_ = binary.Write(b, binary.BigEndian, v)
}

// WriteVarInt writes a variable-length integer.
func (b *buffer) WriteVarInt(v int64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	_, _ = b.Write(tmp[:n])
}

// WriteBytes writes a byte slice with its length as a varint.
func (b *buffer) WriteBytes(data []byte) {
	b.WriteVarInt(int64(len(data)))
	_, _ = b.Write(data)
}

// WriteString writes a string with its length as a varint.
func (b *buffer) WriteString(s string) {
	b.WriteVarInt(int64(len(s)))
	_, _ = b.Buffer.WriteString(s)
}

// reader is a helper for reading binary data with convenient typed methods.
type reader struct {
	r *bufio.Reader
}

func newReader(r io.Reader) *reader {
	if br, ok := r.(*bufio.Reader); ok {
		return &reader{r: br}
	}
	return &reader{r: bufio.NewReader(r)}
}

// ReadByte reads a single byte.
func (r *reader) ReadByte() (byte, error) {
	return r.r.ReadByte()
}

// ReadInt32 reads an int32 in big-endian format.
func (r *reader) ReadInt32() (int32, error) {
	var v int32
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

// ReadInt64 reads an int64 in big-endian format.
func (r *reader) ReadInt64() (int64, error) {
	var v int64
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

// ReadVarInt reads a variable-length integer.
func (r *reader) ReadVarInt() (int64, error) {
	return binary.ReadVarint(r.r)
}

// ReadBytes reads a byte slice with its length as a varint.
func (r *reader) ReadBytes() ([]byte, error) {
	length, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if length < 0 || length > maxBytes {
		return nil, fmt.Errorf("invalid byte array length: %d", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadString reads a string with its length as a varint.
func (r *reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	return string(b), err
}

// ReadN reads exactly n bytes.
func (r *reader) ReadN(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(r.r, buf)
	return buf, err
}
