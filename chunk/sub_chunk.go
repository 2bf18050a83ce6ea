package chunk

import "fmt"

// SubChunk is a 16x16x16 volume of blocks. It holds one or more layers of block storages: layer 0 holds the
// main block of every position and layer 1 typically holds the liquid a block is waterlogged with.
// A SubChunk without layers is filled with air.
type SubChunk struct {
	air      uint32
	storages []*PalettedStorage
}

// NewSubChunk creates a new SubChunk with no layers. All blocks in it are air.
func NewSubChunk(air uint32) *SubChunk {
	return &SubChunk{air: air}
}

// Air returns the runtime ID of air the SubChunk was created with.
func (sub *SubChunk) Air() uint32 {
	return sub.air
}

// Empty reports if every layer of the SubChunk is filled with air only.
func (sub *SubChunk) Empty() bool {
	for _, s := range sub.storages {
		if !s.only(sub.air) {
			return false
		}
	}
	return true
}

// Layer returns the storage of the layer passed. Layers up to and including that layer are created, filled
// with air, if they do not yet exist.
func (sub *SubChunk) Layer(layer uint8) *PalettedStorage {
	for len(sub.storages) <= int(layer) {
		sub.storages = append(sub.storages, NewStorage(sub.air))
	}
	return sub.storages[layer]
}

// Layers returns every layer of the SubChunk.
func (sub *SubChunk) Layers() []*PalettedStorage {
	return sub.storages
}

// Block returns the runtime ID of the block at a local position and layer. Layers that do not exist hold
// air only.
func (sub *SubChunk) Block(x, y, z uint8, layer uint8) uint32 {
	if len(sub.storages) <= int(layer) {
		_ = offset(x, y, z)
		return sub.air
	}
	return sub.storages[layer].At(x, y, z)
}

// SetBlock sets the runtime ID of the block at a local position and layer.
func (sub *SubChunk) SetBlock(x, y, z uint8, layer uint8, rid uint32) {
	if len(sub.storages) <= int(layer) && rid == sub.air {
		_ = offset(x, y, z)
		return
	}
	sub.Layer(layer).Set(x, y, z, rid)
}

// Blocks returns the runtime ID of every block in a layer, in voxel offset order: x<<8 | z<<4 | y.
func (sub *SubChunk) Blocks(layer uint8) []uint32 {
	if len(sub.storages) <= int(layer) {
		v := make([]uint32, 4096)
		for i := range v {
			v[i] = sub.air
		}
		return v
	}
	return sub.storages[layer].values()
}

// SetBlocks replaces every block of a layer with the runtime IDs passed, in the order returned by Blocks.
func (sub *SubChunk) SetBlocks(layer uint8, blocks []uint32) error {
	if len(blocks) != 4096 {
		return fmt.Errorf("set blocks: expected 4096 runtime IDs, got %v", len(blocks))
	}
	sub.Layer(layer).setValues(blocks)
	return nil
}

// Compact compacts every layer of the SubChunk and drops trailing layers that hold nothing but air.
func (sub *SubChunk) Compact() {
	for _, s := range sub.storages {
		s.Compact()
	}
	n := len(sub.storages)
	for n > 0 && sub.storages[n-1].only(sub.air) {
		n--
	}
	clear(sub.storages[n:])
	sub.storages = sub.storages[:n]
}

// Equals reports if sub and o hold the same blocks in every layer. Missing layers count as filled with air.
func (sub *SubChunk) Equals(o *SubChunk) bool {
	n := max(len(sub.storages), len(o.storages))
	for i := range n {
		a, b := sub.layerOrAir(i), o.layerOrAir(i)
		if !a.Equal(b) {
			return false
		}
	}
	return true
}

func (sub *SubChunk) layerOrAir(i int) *PalettedStorage {
	if i < len(sub.storages) {
		return sub.storages[i]
	}
	return NewStorage(sub.air)
}
