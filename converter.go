package bedrockdb

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	dfchunk "github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/oriumgames/bedrockdb/block"
	"github.com/oriumgames/bedrockdb/chunk"
)

// chunkToColumn converts a Chunk to a dragonfly chunk.Column. Block states are translated through the
// dragonfly block palette, and states it does not hold become air.
func chunkToColumn(c *chunk.Chunk, t *block.Table, pos world.ChunkPos, blockEntities []map[string]any) *dfchunk.Column {
	air, _ := dfchunk.StateToRuntimeID(block.AirName, map[string]any{})
	ch := dfchunk.New(air, c.Range())

	ids := make(map[uint32]uint32)
	convert := func(rid uint32) uint32 {
		if v, ok := ids[rid]; ok {
			return v
		}
		v := air
		if s, ok := t.RuntimeIDToState(rid); ok {
			if dfrid, found := dfchunk.StateToRuntimeID(s.Name, s.Properties); found {
				v = dfrid
			}
		}
		ids[rid] = v
		return v
	}

	for i, sub := range c.Sub() {
		if sub.Empty() {
			continue
		}
		baseY := c.SubY(int16(i))
		for layer, s := range sub.Layers() {
			if v, ok := s.Uniform(); ok && convert(v) == air {
				continue
			}
			for x := range uint8(16) {
				for y := range uint8(16) {
					for z := range uint8(16) {
						if rid := convert(s.At(x, y, z)); rid != air {
							ch.SetBlock(x, baseY+int16(y), z, uint8(layer), rid)
						}
					}
				}
			}
		}
	}
	for i, b := range c.Biomes() {
		baseY := c.SubY(int16(i))
		for x := range uint8(16) {
			for y := range uint8(16) {
				for z := range uint8(16) {
					ch.SetBiome(x, baseY+int16(y), z, b.At(x, y, z))
				}
			}
		}
	}

	col := &dfchunk.Column{Chunk: ch}
	for _, m := range blockEntities {
		x, _ := m["x"].(int32)
		y, _ := m["y"].(int32)
		z, _ := m["z"].(int32)
		if x>>4 != pos[0] || z>>4 != pos[1] {
			continue
		}
		col.BlockEntities = append(col.BlockEntities, dfchunk.BlockEntity{Pos: cube.Pos{int(x), int(y), int(z)}, Data: m})
	}
	return col
}

// columnToChunk converts a dragonfly chunk.Column to a Chunk, along with the NBT of its block entities.
// States not held by t become t.UnknownRuntimeID().
func columnToChunk(col *dfchunk.Column, t *block.Table) (*chunk.Chunk, []map[string]any) {
	ch := col.Chunk
	r := ch.Range()
	c := chunk.NewChunk(t.AirRuntimeID(), r)

	ids := make(map[uint32]uint32)
	convert := func(dfrid uint32) uint32 {
		if v, ok := ids[dfrid]; ok {
			return v
		}
		v := t.UnknownRuntimeID()
		if name, props, found := dfchunk.RuntimeIDToState(dfrid); found {
			if rid, ok := t.StateToRuntimeID(name, props); ok {
				v = rid
			}
		}
		ids[dfrid] = v
		return v
	}

	for i, sub := range ch.Sub() {
		if sub.Empty() {
			continue
		}
		baseY := int16(r[0]) + int16(i)<<4
		for layer, s := range sub.Layers() {
			for x := range uint8(16) {
				for y := range uint8(16) {
					for z := range uint8(16) {
						if rid := convert(s.At(x, y, z)); rid != c.Air() {
							_ = c.SetBlock(x, baseY+int16(y), z, uint8(layer), rid)
						}
					}
				}
			}
		}
	}
	for y := r[0]; y <= r[1]; y++ {
		for x := range uint8(16) {
			for z := range uint8(16) {
				_ = c.SetBiome(x, int16(y), z, ch.Biome(x, int16(y), z))
			}
		}
	}
	c.Compact()

	blockEntities := make([]map[string]any, 0, len(col.BlockEntities))
	for _, be := range col.BlockEntities {
		m := make(map[string]any, len(be.Data)+3)
		for k, v := range be.Data {
			m[k] = v
		}
		m["x"], m["y"], m["z"] = int32(be.Pos.X()), int32(be.Pos.Y()), int32(be.Pos.Z())
		blockEntities = append(blockEntities, m)
	}
	return c, blockEntities
}
