package block

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// RegisterStates registers every state of a block state dump read from r. Two layouts are accepted: the
// vanilla block_states.nbt, a sequence of network NBT compounds {name, states, version}, and a gzip
// compressed big endian compound holding the states in a "blocks" list. States already registered are
// skipped.
func (b *Builder) RegisterStates(r io.Reader) error {
	if b.table != nil {
		return &RegistrationError{Op: "register states", Err: ErrFinalised}
	}
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read state dump: %w", err)
	}

	var states []State
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return fmt.Errorf("open gzip state dump: %w", err)
		}
		defer zr.Close()

		var dump struct {
			Blocks []State `nbt:"blocks"`
		}
		if err := nbt.NewDecoderWithEncoding(zr, nbt.BigEndian).Decode(&dump); err != nil {
			return fmt.Errorf("decode gzip state dump: %w", err)
		}
		states = dump.Blocks
	} else {
		data, err := io.ReadAll(br)
		if err != nil {
			return fmt.Errorf("read state dump: %w", err)
		}
		buf := bytes.NewBuffer(data)
		dec := nbt.NewDecoder(buf)
		for buf.Len() > 0 {
			var s State
			if err := dec.Decode(&s); err != nil {
				return fmt.Errorf("decode state %v: %w", len(states), err)
			}
			states = append(states, s)
		}
	}

	for _, s := range states {
		err := b.RegisterCustomBlock(s)
		if err != nil && !errors.Is(err, ErrDuplicateState) {
			return err
		}
	}
	return nil
}

// WriteStates writes every state of the table to w in runtime ID order, in the vanilla block_states.nbt
// layout read by Builder.RegisterStates.
func (t *Table) WriteStates(w io.Writer) error {
	enc := nbt.NewEncoder(w)
	var err error
	t.States(func(rid uint32, s State) bool {
		if e := enc.Encode(s); e != nil {
			err = fmt.Errorf("encode state %v: %w", rid, e)
			return false
		}
		return true
	})
	return err
}
