package chunk

import (
	"encoding/binary"
	"fmt"
)

// EncodeContainer concatenates payloads into a single blob, each prefixed with its length as a little
// endian uint32. Empty payloads are written with a length of 0.
func EncodeContainer(payloads [][]byte) []byte {
	n := 0
	for _, p := range payloads {
		n += 4 + len(p)
	}
	b := make([]byte, 0, n)
	for _, p := range payloads {
		b = binary.LittleEndian.AppendUint32(b, uint32(len(p)))
		b = append(b, p...)
	}
	return b
}

// DecodeContainer splits a blob produced by EncodeContainer back into its payloads. An empty blob holds no
// payloads.
func DecodeContainer(b []byte) ([][]byte, error) {
	var payloads [][]byte
	for len(b) > 0 {
		if len(b) < 4 {
			return nil, fmt.Errorf("decode container: %v bytes left for length: %w", len(b), ErrMalformed)
		}
		n := binary.LittleEndian.Uint32(b)
		b = b[4:]
		if uint64(n) > uint64(len(b)) {
			return nil, fmt.Errorf("decode container: payload of %v bytes, %v left: %w", n, len(b), ErrMalformed)
		}
		payloads = append(payloads, b[:n:n])
		b = b[n:]
	}
	return payloads, nil
}
