// Package bedrockdb reads and writes Bedrock Edition worlds. A world is a directory holding a level.dat and a
// key-value store of chunk records, usually a LevelDB database.
package bedrockdb

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oriumgames/bedrockdb/block"
	"github.com/oriumgames/bedrockdb/kv"
	"github.com/oriumgames/bedrockdb/leveldat"
)

// Config holds the options used to open a world.
type Config struct {
	// Log is used to log problems found in world data. Nothing is logged if Log is nil.
	Log *log.Logger
	// ReadOnly opens the world without writing anything to it, including its level.dat on Close.
	ReadOnly bool
	// SQLite keeps chunk records in a SQLite database in the db.sqlite file instead of the LevelDB database
	// in the db directory.
	SQLite bool
	// NoCompression disables compression of LevelDB blocks.
	NoCompression bool
	// BlockSize is the LevelDB block size. Zero uses 16 KiB.
	BlockSize int
	// Store is used to keep chunk records if non-nil. It is closed when the DB is closed.
	Store kv.Store
}

// DB is a Bedrock world. Its methods are safe for concurrent use.
type DB struct {
	conf  Config
	dir   string
	store kv.Store
	t     *block.Table

	mu   sync.RWMutex
	ldat *leveldat.LevelDat
	data leveldat.Data
}

// Open opens the world in dir using the default Config. Block states are resolved through t.
func Open(dir string, t *block.Table) (*DB, error) {
	var conf Config
	return conf.Open(dir, t)
}

// Open opens the world in dir using the Config. A new world is created if dir holds no level.dat, unless
// conf.ReadOnly is set.
func (conf Config) Open(dir string, t *block.Table) (*DB, error) {
	if conf.Log == nil {
		conf.Log = log.New(io.Discard, "", 0)
	}
	if !conf.ReadOnly {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create world directory: %w", err)
		}
	}
	db := &DB{conf: conf, dir: dir, t: t}

	ldat, err := leveldat.ReadFile(filepath.Join(dir, "level.dat"))
	switch {
	case err == nil:
		db.ldat = ldat
		if db.data, err = ldat.Data(); err != nil {
			return nil, fmt.Errorf("open world: %w", err)
		}
		if v := ldat.Version(); v != leveldat.Version {
			conf.Log.Printf("level.dat has storage version %v, expected %v", v, leveldat.Version)
		}
	case errors.Is(err, os.ErrNotExist) && !conf.ReadOnly:
		db.data = leveldat.Default(filepath.Base(dir))
		if db.ldat, err = leveldat.New(db.data); err != nil {
			return nil, fmt.Errorf("open world: %w", err)
		}
	default:
		return nil, fmt.Errorf("open world: read level.dat: %w", err)
	}

	if db.store, err = conf.openStore(dir); err != nil {
		return nil, fmt.Errorf("open world: %w", err)
	}
	return db, nil
}

func (conf Config) openStore(dir string) (kv.Store, error) {
	switch {
	case conf.Store != nil:
		return conf.Store, nil
	case conf.SQLite:
		return kv.OpenSQLite(filepath.Join(dir, "db.sqlite"))
	default:
		return kv.OpenLevelDB(filepath.Join(dir, "db"), kv.LevelDBOptions{
			ReadOnly:      conf.ReadOnly,
			BlockSize:     conf.BlockSize,
			NoCompression: conf.NoCompression,
		})
	}
}

// Dir returns the directory of the world.
func (db *DB) Dir() string {
	return db.dir
}

// Table returns the block.Table block states are resolved through.
func (db *DB) Table() *block.Table {
	return db.t
}

// Store returns the kv.Store holding the records of the world.
func (db *DB) Store() kv.Store {
	return db.store
}

// LevelDat returns the level.dat data of the world.
func (db *DB) LevelDat() leveldat.Data {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.data
}

// SetLevelDat replaces the level.dat data of the world. It is written by UpdateLevelDat or Close.
func (db *DB) SetLevelDat(d leveldat.Data) {
	db.mu.Lock()
	db.data = d
	db.mu.Unlock()
}

// UpdateLevelDat writes the level.dat and levelname.txt files of the world.
func (db *DB) UpdateLevelDat() error {
	if db.conf.ReadOnly {
		return fmt.Errorf("update level.dat: world opened read-only")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.writeLevelDat()
}

func (db *DB) writeLevelDat() error {
	if err := db.ldat.Set(db.data); err != nil {
		return fmt.Errorf("update level.dat: %w", err)
	}
	if err := db.ldat.WriteFile(filepath.Join(db.dir, "level.dat")); err != nil {
		return fmt.Errorf("update level.dat: %w", err)
	}
	if err := os.WriteFile(filepath.Join(db.dir, "levelname.txt"), []byte(db.data.LevelName), 0o644); err != nil {
		return fmt.Errorf("update level.dat: write levelname.txt: %w", err)
	}
	return nil
}

// Close writes the level.dat of the world, with its last played time set to now, and closes the store.
func (db *DB) Close() error {
	if !db.conf.ReadOnly {
		db.mu.Lock()
		db.data.LastPlayed = time.Now().Unix()
		err := db.writeLevelDat()
		db.mu.Unlock()
		if err != nil {
			_ = db.store.Close()
			return fmt.Errorf("close: %w", err)
		}
	}
	if err := db.store.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
