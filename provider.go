package bedrockdb

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	dfchunk "github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/google/uuid"
)

// Provider serves a DB to a dragonfly world as its world.Provider. Blocks and biomes of columns are kept,
// along with block entities. Entities, scheduled block updates and player spawn positions are not stored.
type Provider struct {
	db *DB
}

// NewProvider returns a Provider reading and writing db. Closing the Provider closes db.
func NewProvider(db *DB) *Provider {
	return &Provider{db: db}
}

// Settings returns the world settings held by the level.dat.
func (p *Provider) Settings() *world.Settings {
	return p.db.LevelDat().Settings()
}

// SaveSettings saves the world settings to the level.dat data. They are written when the DB is closed.
func (p *Provider) SaveSettings(s *world.Settings) {
	d := p.db.LevelDat()
	d.SetSettings(s)
	p.db.SetLevelDat(d)
}

// LoadColumn loads the chunk column at pos. leveldb.ErrNotFound is returned if it does not exist.
func (p *Provider) LoadColumn(pos world.ChunkPos, dim world.Dimension) (*dfchunk.Column, error) {
	d, ok := DimensionOf(dim)
	if !ok {
		return nil, fmt.Errorf("load column: unknown dimension %v", dim)
	}
	c, exists, err := p.db.LoadChunk(d, pos)
	if err != nil {
		return nil, fmt.Errorf("load column: %w", err)
	}
	if !exists {
		return nil, leveldb.ErrNotFound
	}
	blockEntities, err := p.db.LoadNBT(d, pos)
	if err != nil {
		return nil, fmt.Errorf("load column: %w", err)
	}
	return chunkToColumn(c, p.db.t, pos, blockEntities), nil
}

// StoreColumn stores the chunk column at pos.
func (p *Provider) StoreColumn(pos world.ChunkPos, dim world.Dimension, col *dfchunk.Column) error {
	d, ok := DimensionOf(dim)
	if !ok {
		return fmt.Errorf("store column: unknown dimension %v", dim)
	}
	c, blockEntities := columnToChunk(col, p.db.t)
	if err := p.db.SaveChunk(d, pos, c); err != nil {
		return fmt.Errorf("store column: %w", err)
	}
	if err := p.db.SaveNBT(d, pos, blockEntities); err != nil {
		return fmt.Errorf("store column: %w", err)
	}
	return nil
}

// LoadPlayerSpawnPosition always reports that no spawn position is stored for the player.
func (p *Provider) LoadPlayerSpawnPosition(uuid.UUID) (cube.Pos, bool, error) {
	return cube.Pos{}, false, nil
}

// SavePlayerSpawnPosition does nothing.
func (p *Provider) SavePlayerSpawnPosition(uuid.UUID, cube.Pos) error {
	return nil
}

// Close closes the DB.
func (p *Provider) Close() error {
	return p.db.Close()
}
