package bedrockdb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/oriumgames/bedrockdb/chunk"
	"github.com/oriumgames/bedrockdb/kv"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
	"github.com/willf/bitset"
)

// get returns the value of key, or nil if it has none.
func (db *DB) get(key []byte) ([]byte, error) {
	v, err := db.store.Get(key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// putOrDelete stores value under key, or deletes key if value is empty.
func (db *DB) putOrDelete(key, value []byte) error {
	if len(value) == 0 {
		return db.store.Delete(key)
	}
	return db.store.Put(key, value)
}

// HasChunk reports if the chunk at pos exists.
func (db *DB) HasChunk(dim Dimension, pos world.ChunkPos) (bool, error) {
	has, err := db.store.Has(Sum(dim, pos, KeyVersion))
	if err != nil || has {
		return has, err
	}
	return db.store.Has(Sum(dim, pos, KeyVersionOld))
}

// subChunkKey returns the key of the sub chunk at index i of the chunk at pos.
func subChunkKey(dim Dimension, pos world.ChunkPos, i int) []byte {
	return Sum(dim, pos, KeySubChunkData, byte(i+dim.Range()[0]>>4))
}

// LoadChunkPayload loads the disk encoded sub chunks of the chunk at pos without decoding them. The slice
// returned holds an entry for every sub chunk of the dimension, from the bottom up, which is nil for sub
// chunks not stored. If the chunk does not exist, false is returned.
func (db *DB) LoadChunkPayload(dim Dimension, pos world.ChunkPos) ([][]byte, bool, error) {
	exists, err := db.HasChunk(dim, pos)
	if err != nil {
		return nil, true, fmt.Errorf("read chunk version: %w", err)
	}
	if !exists {
		return nil, false, nil
	}
	payload := make([][]byte, dim.Height())
	for i := range payload {
		if payload[i], err = db.get(subChunkKey(dim, pos, i)); err != nil {
			return nil, true, fmt.Errorf("read sub chunk %v: %w", i, err)
		}
	}
	return payload, true, nil
}

// SaveChunkPayload saves disk encoded sub chunks as the chunk at pos, marking it as populated. Sub chunks
// with an empty payload are deleted.
func (db *DB) SaveChunkPayload(dim Dimension, pos world.ChunkPos, payload [][]byte) error {
	if len(payload) > dim.Height() {
		return fmt.Errorf("save chunk: %v sub chunks for %v", len(payload), dim)
	}
	if err := db.writeChunkHeader(dim, pos, finalisationPopulated); err != nil {
		return fmt.Errorf("save chunk: %w", err)
	}
	for i, sub := range payload {
		if err := db.putOrDelete(subChunkKey(dim, pos, i), sub); err != nil {
			return fmt.Errorf("save chunk: sub chunk %v: %w", i, err)
		}
	}
	return nil
}

func (db *DB) writeChunkHeader(dim Dimension, pos world.ChunkPos, finalisation uint32) error {
	if err := db.store.Put(Sum(dim, pos, KeyVersion), []byte{ChunkVersion}); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	f := make([]byte, 4)
	binary.LittleEndian.PutUint32(f, finalisation)
	if err := db.store.Put(Sum(dim, pos, KeyFinalisation), f); err != nil {
		return fmt.Errorf("write finalisation: %w", err)
	}
	return nil
}

// LoadChunk loads and decodes the chunk at pos. If it does not exist, false is returned. Biomes that are
// missing or unreadable are logged and left at their default.
func (db *DB) LoadChunk(dim Dimension, pos world.ChunkPos) (*chunk.Chunk, bool, error) {
	payload, exists, err := db.LoadChunkPayload(dim, pos)
	if !exists || err != nil {
		return nil, exists, err
	}
	biomes, err := db.LoadBiomes(dim, pos)
	if err != nil {
		db.conf.Log.Printf("load chunk %v (%v): %v", pos, dim, err)
		biomes = nil
	}
	c, err := chunk.DiskDecode(chunk.SerialisedData{SubChunks: payload, Biomes: biomes}, dim.Range(), db.t)
	if err != nil {
		return nil, true, fmt.Errorf("load chunk %v (%v): %w", pos, dim, err)
	}
	return c, true, nil
}

// SaveChunk saves the chunk c at pos along with its biomes. Sub chunks without blocks are not stored.
func (db *DB) SaveChunk(dim Dimension, pos world.ChunkPos, c *chunk.Chunk) error {
	if c.Range() != dim.Range() {
		return fmt.Errorf("save chunk: chunk range %v does not match %v range %v", c.Range(), dim, dim.Range())
	}
	data := chunk.Encode(c, chunk.DiskEncoding, db.t)
	for i, sub := range c.Sub() {
		if sub.Empty() {
			data.SubChunks[i] = nil
		}
	}
	if err := db.SaveBiomes(dim, pos, data.Biomes); err != nil {
		return fmt.Errorf("save chunk: %w", err)
	}
	return db.SaveChunkPayload(dim, pos, data.SubChunks)
}

// DeleteChunk deletes every record of the chunk at pos.
func (db *DB) DeleteChunk(dim Dimension, pos world.ChunkPos) error {
	keys := [][]byte{
		Sum(dim, pos, KeyVersion), Sum(dim, pos, KeyVersionOld), Sum(dim, pos, KeyFinalisation),
		Sum(dim, pos, Key3DData), Sum(dim, pos, Key2DData), Sum(dim, pos, KeyChecksums),
		Sum(dim, pos, KeyBlockEntities), Sum(dim, pos, KeyEntities), Sum(dim, pos, KeyChunkTimeStamp),
		Sum(dim, pos, []byte(KeyDeltaUpdateTimeStamp)...), Sum(dim, pos, []byte(KeyDeltaUpdate)...),
		Sum(dim, pos, []byte(KeyBlobHash)...),
	}
	for i := range dim.Height() {
		keys = append(keys, subChunkKey(dim, pos, i))
	}
	for _, k := range keys {
		if err := db.store.Delete(k); err != nil {
			return fmt.Errorf("delete chunk %v (%v): %w", pos, dim, err)
		}
	}
	return nil
}

// Chunks returns the positions of all chunks stored for dim, in key order.
func (db *DB) Chunks(dim Dimension) ([]world.ChunkPos, error) {
	var positions []world.ChunkPos
	// A chunk may hold both a current and a legacy version record.
	seen := make(map[world.ChunkPos]struct{})
	err := db.store.Iterate(nil, func(key, _ []byte) bool {
		pos, d, tag, ok := parseIndex(key)
		if !ok || d != dim || (tag != KeyVersion && tag != KeyVersionOld) {
			return true
		}
		if _, ok := seen[pos]; !ok {
			seen[pos] = struct{}{}
			positions = append(positions, pos)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	return positions, nil
}

// SubChunkPresence returns a bit set with bit i set if the sub chunk at index i of the chunk at pos is
// stored.
func (db *DB) SubChunkPresence(dim Dimension, pos world.ChunkPos) (*bitset.BitSet, error) {
	n := dim.Height()
	set := bitset.New(uint(n))
	for i := range n {
		has, err := db.store.Has(subChunkKey(dim, pos, i))
		if err != nil {
			return nil, fmt.Errorf("sub chunk presence: %w", err)
		}
		if has {
			set.Set(uint(i))
		}
	}
	return set, nil
}

// subChunkIndex returns the index in a chunk of the sub chunk at sub chunk Y y.
func subChunkIndex(dim Dimension, y int32) (int, error) {
	r := dim.Range()
	if y < int32(r[0]>>4) || y > int32(r[1]>>4) {
		return 0, fmt.Errorf("sub chunk y %v outside %v range %v", y, dim, r)
	}
	return int(y) - r[0]>>4, nil
}

// LoadSubChunk loads the sub chunk at sub chunk Y y of the chunk at pos. If the chunk exists but the sub
// chunk is not stored, an empty sub chunk is returned. If the chunk does not exist, false is returned.
func (db *DB) LoadSubChunk(dim Dimension, pos world.ChunkPos, y int32) (*chunk.SubChunk, bool, error) {
	i, err := subChunkIndex(dim, y)
	if err != nil {
		return nil, false, fmt.Errorf("load sub chunk: %w", err)
	}
	data, err := db.get(subChunkKey(dim, pos, i))
	if err != nil {
		return nil, false, fmt.Errorf("load sub chunk: %w", err)
	}
	if len(data) == 0 {
		exists, err := db.HasChunk(dim, pos)
		if err != nil || !exists {
			return nil, false, err
		}
		return chunk.NewSubChunk(db.t.AirRuntimeID()), true, nil
	}
	sub, _, err := chunk.DecodeSubChunk(data, dim.Range(), chunk.DiskEncoding, db.t)
	if err != nil {
		return nil, true, fmt.Errorf("load sub chunk %v of %v (%v): %w", y, pos, dim, err)
	}
	return sub, true, nil
}

// SaveSubChunk saves sub as the sub chunk at sub chunk Y y of the chunk at pos, marking the chunk as
// generated. A nil sub deletes the sub chunk.
func (db *DB) SaveSubChunk(dim Dimension, pos world.ChunkPos, y int32, sub *chunk.SubChunk) error {
	i, err := subChunkIndex(dim, y)
	if err != nil {
		return fmt.Errorf("save sub chunk: %w", err)
	}
	key := subChunkKey(dim, pos, i)
	if sub == nil {
		return db.store.Delete(key)
	}
	if err := db.writeChunkHeader(dim, pos, finalisationGenerated); err != nil {
		return fmt.Errorf("save sub chunk: %w", err)
	}
	if err := db.store.Put(key, chunk.EncodeSubChunk(sub, dim.Range(), i, chunk.DiskEncoding, db.t)); err != nil {
		return fmt.Errorf("save sub chunk: %w", err)
	}
	return nil
}

// LoadBiomes loads the disk encoded biome storages of the chunk at pos. Nil is returned if none are stored.
func (db *DB) LoadBiomes(dim Dimension, pos world.ChunkPos) ([]byte, error) {
	data, err := db.get(Sum(dim, pos, Key3DData))
	if err != nil || data == nil {
		return nil, err
	}
	// The first 512 bytes are a height map, which is computed when needed instead.
	if n := len(data); n <= 512 {
		return nil, fmt.Errorf("expected more than 512 bytes of 3D data, got %v", n)
	}
	return data[512:], nil
}

// SaveBiomes saves disk encoded biome storages for the chunk at pos. An empty payload deletes them.
func (db *DB) SaveBiomes(dim Dimension, pos world.ChunkPos, payload []byte) error {
	if len(payload) == 0 {
		return db.store.Delete(Sum(dim, pos, Key3DData))
	}
	return db.store.Put(Sum(dim, pos, Key3DData), append(make([]byte, 512, 512+len(payload)), payload...))
}

// LoadNBTPayload loads the encoded block entities of the chunk at pos. Nil is returned if none are stored.
func (db *DB) LoadNBTPayload(dim Dimension, pos world.ChunkPos) ([]byte, error) {
	return db.get(Sum(dim, pos, KeyBlockEntities))
}

// SaveNBTPayload saves encoded block entities for the chunk at pos. An empty payload deletes them.
func (db *DB) SaveNBTPayload(dim Dimension, pos world.ChunkPos, payload []byte) error {
	return db.putOrDelete(Sum(dim, pos, KeyBlockEntities), payload)
}

// LoadNBT loads and decodes the block entities of the chunk at pos.
func (db *DB) LoadNBT(dim Dimension, pos world.ChunkPos) ([]map[string]any, error) {
	data, err := db.LoadNBTPayload(dim, pos)
	if err != nil {
		return nil, fmt.Errorf("load block entities: %w", err)
	}
	var entities []map[string]any
	buf := bytes.NewBuffer(data)
	dec := nbt.NewDecoderWithEncoding(buf, nbt.LittleEndian)
	for buf.Len() != 0 {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode block entity %v: %w", len(entities), err)
		}
		entities = append(entities, m)
	}
	return entities, nil
}

// SaveNBT encodes and saves block entities for the chunk at pos. Saving none deletes them.
func (db *DB) SaveNBT(dim Dimension, pos world.ChunkPos, entities []map[string]any) error {
	buf := new(bytes.Buffer)
	enc := nbt.NewEncoderWithEncoding(buf, nbt.LittleEndian)
	for i, m := range entities {
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode block entity %v: %w", i, err)
		}
	}
	return db.SaveNBTPayload(dim, pos, buf.Bytes())
}
