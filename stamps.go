package bedrockdb

import (
	"encoding/binary"
	"fmt"

	"github.com/df-mc/dragonfly/server/world"
)

func (db *DB) loadTimeStamp(key []byte) (int64, error) {
	data, err := db.get(key)
	if err != nil {
		return 0, fmt.Errorf("load time stamp: %w", err)
	}
	if len(data) == 0 {
		return 0, nil
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("load time stamp: expected 8 bytes, got %v", len(data))
	}
	return int64(binary.LittleEndian.Uint64(data)), nil
}

func (db *DB) saveTimeStamp(key []byte, ts int64) error {
	if ts == 0 {
		return db.store.Delete(key)
	}
	return db.store.Put(key, binary.LittleEndian.AppendUint64(nil, uint64(ts)))
}

// LoadTimeStamp returns the time stamp of the chunk at pos, or 0 if it has none.
func (db *DB) LoadTimeStamp(dim Dimension, pos world.ChunkPos) (int64, error) {
	return db.loadTimeStamp(Sum(dim, pos, KeyChunkTimeStamp))
}

// SaveTimeStamp sets the time stamp of the chunk at pos. A time stamp of 0 deletes it.
func (db *DB) SaveTimeStamp(dim Dimension, pos world.ChunkPos, ts int64) error {
	return db.saveTimeStamp(Sum(dim, pos, KeyChunkTimeStamp), ts)
}

// LoadDeltaUpdateTimeStamp returns the time stamp of the delta update of the chunk at pos, or 0 if it has
// none.
func (db *DB) LoadDeltaUpdateTimeStamp(dim Dimension, pos world.ChunkPos) (int64, error) {
	return db.loadTimeStamp(Sum(dim, pos, []byte(KeyDeltaUpdateTimeStamp)...))
}

// SaveDeltaUpdateTimeStamp sets the time stamp of the delta update of the chunk at pos. A time stamp of 0
// deletes it.
func (db *DB) SaveDeltaUpdateTimeStamp(dim Dimension, pos world.ChunkPos, ts int64) error {
	return db.saveTimeStamp(Sum(dim, pos, []byte(KeyDeltaUpdateTimeStamp)...), ts)
}

// LoadDeltaUpdate returns the delta update payload of the chunk at pos, or nil if it has none.
func (db *DB) LoadDeltaUpdate(dim Dimension, pos world.ChunkPos) ([]byte, error) {
	return db.get(Sum(dim, pos, []byte(KeyDeltaUpdate)...))
}

// SaveDeltaUpdate sets the delta update payload of the chunk at pos. An empty payload deletes it.
func (db *DB) SaveDeltaUpdate(dim Dimension, pos world.ChunkPos, payload []byte) error {
	return db.putOrDelete(Sum(dim, pos, []byte(KeyDeltaUpdate)...), payload)
}

// BlobHash is the client cache blob hash of the sub chunk at sub chunk Y Y.
type BlobHash struct {
	Y    int8
	Hash uint64
}

func (h BlobHash) String() string {
	return fmt.Sprintf("%d (y=%d)", h.Hash, h.Y)
}

// LoadBlobHashes returns the blob hashes stored for the chunk at pos.
func (db *DB) LoadBlobHashes(dim Dimension, pos world.ChunkPos) ([]BlobHash, error) {
	data, err := db.get(Sum(dim, pos, []byte(KeyBlobHash)...))
	if err != nil {
		return nil, fmt.Errorf("load blob hashes: %w", err)
	}
	if len(data)%9 != 0 {
		return nil, fmt.Errorf("load blob hashes: %v bytes is not a multiple of 9", len(data))
	}
	hashes := make([]BlobHash, 0, len(data)/9)
	for ; len(data) > 0; data = data[9:] {
		hashes = append(hashes, BlobHash{Y: int8(data[0]), Hash: binary.LittleEndian.Uint64(data[1:9])})
	}
	return hashes, nil
}

// SaveBlobHashes replaces the blob hashes stored for the chunk at pos. Saving none deletes them.
func (db *DB) SaveBlobHashes(dim Dimension, pos world.ChunkPos, hashes []BlobHash) error {
	data := make([]byte, 0, len(hashes)*9)
	for _, h := range hashes {
		data = append(data, byte(h.Y))
		data = binary.LittleEndian.AppendUint64(data, h.Hash)
	}
	return db.putOrDelete(Sum(dim, pos, []byte(KeyBlobHash)...), data)
}

// LoadSubChunkBlobHash returns the blob hash of the sub chunk at sub chunk Y y of the chunk at pos. If no
// hash is stored for it, false is returned.
func (db *DB) LoadSubChunkBlobHash(dim Dimension, pos world.ChunkPos, y int8) (uint64, bool, error) {
	hashes, err := db.LoadBlobHashes(dim, pos)
	if err != nil {
		return 0, false, err
	}
	for _, h := range hashes {
		if h.Y == y {
			return h.Hash, true, nil
		}
	}
	return 0, false, nil
}

// SaveSubChunkBlobHash sets the blob hash of the sub chunk at sub chunk Y y of the chunk at pos, keeping the
// hashes of other sub chunks.
func (db *DB) SaveSubChunkBlobHash(dim Dimension, pos world.ChunkPos, y int8, hash uint64) error {
	hashes, err := db.LoadBlobHashes(dim, pos)
	if err != nil {
		return err
	}
	found := false
	for i := range hashes {
		if hashes[i].Y == y {
			hashes[i].Hash, found = hash, true
		}
	}
	if !found {
		hashes = append(hashes, BlobHash{Y: y, Hash: hash})
	}
	return db.SaveBlobHashes(dim, pos, hashes)
}
