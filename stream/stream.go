// Package stream serves the chunks of a world over a websocket connection in their network encoding.
//
// A client sends a Request as a JSON text message. The server answers with a Response, also as JSON, and if
// the chunk was found, follows it with a single binary message holding the LevelChunk payload of the chunk.
package stream

import (
	"github.com/df-mc/dragonfly/server/world"
	"github.com/oriumgames/bedrockdb"
)

// Request asks for the chunk at X, Z in Dimension.
type Request struct {
	Dimension bedrockdb.Dimension `json:"dimension"`
	X         int32               `json:"x"`
	Z         int32               `json:"z"`
}

// Pos returns the position of the chunk requested.
func (r Request) Pos() world.ChunkPos {
	return world.ChunkPos{r.X, r.Z}
}

// Status is the outcome of a Request.
type Status string

const (
	StatusOK      Status = "ok"
	StatusMissing Status = "missing"
	StatusError   Status = "error"
)

// Response answers a Request.
type Response struct {
	Request
	Status Status `json:"status"`
	// SubChunks is the number of sub chunks in the payload that follows a Response with StatusOK.
	SubChunks int    `json:"sub_chunks,omitempty"`
	Error     string `json:"error,omitempty"`
}
