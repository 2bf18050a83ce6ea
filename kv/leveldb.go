package kv

import (
	"errors"
	"fmt"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/util"
)

// LevelDBOptions configures a LevelDB store.
type LevelDBOptions struct {
	// ReadOnly opens the database without write access.
	ReadOnly bool
	// BlockSize is the size of the uncompressed data blocks. It defaults to 16 KiB.
	BlockSize int
	// NoCompression disables the flate compression Bedrock compresses its world data with.
	NoCompression bool
}

// LevelDB is a Store backed by a LevelDB database, the format Bedrock keeps the db/ directory of a world in.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens or creates the LevelDB database in dir.
func OpenLevelDB(dir string, o LevelDBOptions) (*LevelDB, error) {
	options := &opt.Options{
		Compression: opt.FlateCompression,
		BlockSize:   16 * opt.KiB,
		ReadOnly:    o.ReadOnly,
	}
	if o.BlockSize > 0 {
		options.BlockSize = o.BlockSize
	}
	if o.NoCompression {
		options.Compression = opt.NoCompression
	}
	db, err := leveldb.OpenFile(dir, options)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %v: %w", dir, err)
	}
	return &LevelDB{db: db}, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	v, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

// Put stores value under key.
func (l *LevelDB) Put(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

// Delete removes the value stored under key.
func (l *LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

// Has reports if a value is stored under key.
func (l *LevelDB) Has(key []byte) (bool, error) {
	return l.db.Has(key, nil)
}

// Iterate calls f for every key starting with prefix in ascending order, until f returns false.
func (l *LevelDB) Iterate(prefix []byte, f func(key, value []byte) bool) error {
	iter := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if !f(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

// Close closes the LevelDB database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
