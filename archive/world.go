package archive

import (
	"errors"
	"fmt"
	"io"

	"github.com/oriumgames/bedrockdb"
)

// Export writes every chunk of dimension dim of db to w as an archive. It returns the number of chunks
// written.
func Export(w io.Writer, db *bedrockdb.DB, dim bedrockdb.Dimension, level CompressionLevel) (int, error) {
	positions, err := db.Chunks(dim)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	aw, err := NewWriter(w, Header{
		Dimension: int32(dim),
		Range:     dim.Range(),
		LevelName: db.LevelDat().LevelName,
	}, level)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	for _, pos := range positions {
		c := Chunk{Pos: pos}
		subs, exists, err := db.LoadChunkPayload(dim, pos)
		if err == nil && exists {
			c.SubChunks = subs
			if c.Biomes, err = db.LoadBiomes(dim, pos); err == nil {
				if c.BlockEntities, err = db.LoadNBTPayload(dim, pos); err == nil {
					c.TimeStamp, err = db.LoadTimeStamp(dim, pos)
				}
			}
		}
		if err != nil {
			aw.abort()
			return aw.Len(), fmt.Errorf("export chunk %v: %w", pos, err)
		}
		if !exists {
			continue
		}
		if err := aw.WriteChunk(c); err != nil {
			aw.abort()
			return aw.Len(), fmt.Errorf("export: %w", err)
		}
	}
	if err := aw.Close(); err != nil {
		return aw.Len(), fmt.Errorf("export: %w", err)
	}
	return aw.Len(), nil
}

// Import reads an archive from r and stores its chunks in db, in the dimension the archive was exported
// from. Existing chunks at the same positions are overwritten. It returns the number of chunks imported.
func Import(r io.Reader, db *bedrockdb.DB) (int, error) {
	ar, err := NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	defer ar.Close()

	hdr := ar.Header()
	dim := bedrockdb.Dimension(hdr.Dimension)
	if hdr.Range != dim.Range() {
		return 0, fmt.Errorf("import: archive range %v does not match %v range %v", hdr.Range, dim, dim.Range())
	}
	n := 0
	for {
		c, err := ar.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("import: %w", err)
		}
		if err := db.SaveChunkPayload(dim, c.Pos, c.SubChunks); err != nil {
			return n, fmt.Errorf("import chunk %v: %w", c.Pos, err)
		}
		if err := db.SaveBiomes(dim, c.Pos, c.Biomes); err != nil {
			return n, fmt.Errorf("import chunk %v: %w", c.Pos, err)
		}
		if err := db.SaveNBTPayload(dim, c.Pos, c.BlockEntities); err != nil {
			return n, fmt.Errorf("import chunk %v: %w", c.Pos, err)
		}
		if err := db.SaveTimeStamp(dim, c.Pos, c.TimeStamp); err != nil {
			return n, fmt.Errorf("import chunk %v: %w", c.Pos, err)
		}
		n++
	}
}
