package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/gorilla/websocket"
	"github.com/oriumgames/bedrockdb"
	"github.com/oriumgames/bedrockdb/block"
	"github.com/oriumgames/bedrockdb/chunk"
)

// Client requests chunks from a Server. Its methods may be called concurrently: requests are sent one at a
// time.
type Client struct {
	t *block.Table

	mu   sync.Mutex
	conn *websocket.Conn
	// err is the failure that broke conn. Once set, every request fails with ErrConnectionFailed.
	err error
}

// ErrConnectionFailed is returned by Client.Chunk once an earlier request left the connection unusable, for
// example because its context was cancelled while waiting for the Server.
var ErrConnectionFailed = errors.New("stream: connection failed")

// Dial connects to the Server at url, such as ws://localhost:8080/chunks. Chunks received are decoded using
// t, which must assign the same runtime IDs as the table of the Server.
func Dial(ctx context.Context, url string, t *block.Table) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %v: %w", url, err)
	}
	return &Client{t: t, conn: conn}, nil
}

// Chunk requests the chunk at pos in dim. It returns false without error if the Server has no such chunk.
func (c *Client) Chunk(ctx context.Context, dim bedrockdb.Dimension, pos world.ChunkPos) (*chunk.Chunk, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if c.err != nil {
		return nil, false, fmt.Errorf("request chunk %v: %w: %w", pos, ErrConnectionFailed, c.err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(30 * time.Second)
	}
	_ = c.conn.SetWriteDeadline(deadline)
	_ = c.conn.SetReadDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	req := Request{Dimension: dim, X: pos[0], Z: pos[1]}
	if err := c.conn.WriteJSON(req); err != nil {
		return nil, false, c.fail(ctx, fmt.Errorf("request chunk %v: %w", pos, err))
	}
	var resp Response
	if err := c.conn.ReadJSON(&resp); err != nil {
		return nil, false, c.fail(ctx, fmt.Errorf("read response for chunk %v: %w", pos, err))
	}
	if resp.Request != req {
		return nil, false, c.fail(ctx, fmt.Errorf("response for chunk %v in %v answers request for %v", resp.Pos(), resp.Dimension, pos))
	}
	switch resp.Status {
	case StatusMissing:
		return nil, false, nil
	case StatusError:
		return nil, false, fmt.Errorf("load chunk %v: server: %v", pos, resp.Error)
	case StatusOK:
	default:
		return nil, false, fmt.Errorf("response for chunk %v: unknown status %q", pos, resp.Status)
	}

	typ, payload, err := c.conn.ReadMessage()
	if err != nil {
		return nil, false, c.fail(ctx, fmt.Errorf("read chunk %v: %w", pos, err))
	}
	if typ != websocket.BinaryMessage {
		return nil, false, c.fail(ctx, fmt.Errorf("read chunk %v: expected binary message", pos))
	}
	ch, err := chunk.NetworkDecode(c.t.AirRuntimeID(), payload, resp.SubChunks, dim.Range(), c.t)
	if err != nil {
		return nil, false, fmt.Errorf("decode chunk %v: %w", pos, err)
	}
	return ch, true, nil
}

// fail closes the connection after a request left it in an unknown state. It returns err, joined with the
// error of ctx if it was cancelled.
func (c *Client) fail(ctx context.Context, err error) error {
	c.err = err
	_ = c.conn.Close()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(ctxErr, err)
	}
	return err
}

// Close sends a close message to the Server and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}
