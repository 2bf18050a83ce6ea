package bedrockdb

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
)

// Dimension is the ID of a dimension as written in the keys of a world.
type Dimension int32

const (
	Overworld Dimension = iota
	Nether
	End
)

// DimensionOf returns the Dimension of a dragonfly world.Dimension.
func DimensionOf(dim world.Dimension) (Dimension, bool) {
	switch dim {
	case world.Overworld:
		return Overworld, true
	case world.Nether:
		return Nether, true
	case world.End:
		return End, true
	default:
		return 0, false
	}
}

// World returns the dragonfly world.Dimension of d.
func (d Dimension) World() (world.Dimension, bool) {
	switch d {
	case Overworld:
		return world.Overworld, true
	case Nether:
		return world.Nether, true
	case End:
		return world.End, true
	default:
		return nil, false
	}
}

// Range returns the vertical range of blocks in d. Dimensions not known use the range of the End.
func (d Dimension) Range() cube.Range {
	if w, ok := d.World(); ok {
		return w.Range()
	}
	return cube.Range{0, 255}
}

// Height returns the number of sub chunks in a chunk of d.
func (d Dimension) Height() int {
	return d.Range().Height()>>4 + 1
}

func (d Dimension) String() string {
	switch d {
	case Overworld:
		return "overworld"
	case Nether:
		return "nether"
	case End:
		return "end"
	default:
		return fmt.Sprintf("dimension(%d)", int32(d))
	}
}
