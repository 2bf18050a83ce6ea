package block

import (
	"bytes"
	"maps"
	"slices"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
	"github.com/segmentio/fasthash/fnv1"
	"github.com/segmentio/fasthash/fnv1a"
)

// unknownHash is the network hash the client reserves for minecraft:unknown.
const unknownHash = ^uint32(1)

// NetworkHash computes the runtime ID a state has when a table uses network ID hashes. The hash is the
// FNV-1a-32 of the little endian NBT encoding of {name: ..., states: {...}}, with the states written in
// sorted key order.
func NetworkHash(s State) uint32 {
	if s.Name == UnknownName {
		return unknownHash
	}
	keys := slices.Sorted(maps.Keys(s.Properties))

	b := bytes.NewBuffer(make([]byte, 0, 64))
	b.Write([]byte{tagCompound, 0, 0})
	b.Write(marshalEntry("name", s.Name))

	b.Write([]byte{tagCompound, 6, 0})
	b.WriteString("states")
	for _, k := range keys {
		b.Write(marshalEntry(k, s.Properties[k]))
	}
	// Ends of the states compound and the outer compound.
	b.WriteByte(0)
	b.WriteByte(0)

	return fnv1a.HashBytes32(b.Bytes())
}

// marshalEntry returns the little endian NBT encoding of a single named tag, without the compound that
// encloses it.
func marshalEntry(key string, value any) []byte {
	data, err := nbt.MarshalEncoding(map[string]any{key: value}, nbt.LittleEndian)
	if err != nil || len(data) < 4 {
		return nil
	}
	return data[3 : len(data)-1]
}

// nameOrder is the primary sort key of a table. Bedrock orders its block palette by the 64-bit FNV-1 hash
// of the block name.
func nameOrder(name string) uint64 {
	return fnv1.HashString64(name)
}
