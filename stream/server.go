package stream

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oriumgames/bedrockdb"
	"github.com/oriumgames/bedrockdb/chunk"
)

// Server is an http.Handler that upgrades requests to websocket connections and serves chunks from a DB.
type Server struct {
	db  *bedrockdb.DB
	log *log.Logger

	// IdleTimeout is the time a connection may go without a request before it is closed.
	IdleTimeout time.Duration

	upgrader websocket.Upgrader
}

// NewServer returns a Server serving the chunks of db. A nil logger discards all output.
func NewServer(db *bedrockdb.DB, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		db:          db,
		log:         logger,
		IdleTimeout: time.Minute,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request to a websocket connection and answers chunk requests until the client
// disconnects or stays idle for longer than IdleTimeout.
func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(s.IdleTimeout))
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Printf("stream: %v: read: %v", r.RemoteAddr, err)
			}
			return
		}
		if typ != websocket.TextMessage {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "expected text request"), time.Now().Add(time.Second))
			return
		}
		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad request"), time.Now().Add(time.Second))
			return
		}
		if err := s.serve(conn, req); err != nil {
			s.log.Printf("stream: %v: write: %v", r.RemoteAddr, err)
			return
		}
	}
}

// serve answers a single Request. Only write errors are returned: errors loading the chunk are sent to the
// client.
func (s *Server) serve(conn *websocket.Conn, req Request) error {
	resp, payload := s.load(req)

	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(resp); err != nil {
		return err
	}
	if resp.Status != StatusOK {
		return nil
	}
	return conn.WriteMessage(websocket.BinaryMessage, payload)
}

func (s *Server) load(req Request) (Response, []byte) {
	resp := Response{Request: req}
	if _, ok := req.Dimension.World(); !ok {
		resp.Status, resp.Error = StatusError, "unknown dimension "+req.Dimension.String()
		return resp, nil
	}
	c, ok, err := s.db.LoadChunk(req.Dimension, req.Pos())
	if err != nil {
		s.log.Printf("stream: load chunk %v in %v: %v", req.Pos(), req.Dimension, err)
		resp.Status, resp.Error = StatusError, err.Error()
		if errors.Is(err, chunk.ErrMalformed) {
			resp.Error = "chunk data corrupted"
		}
		return resp, nil
	}
	if !ok {
		resp.Status = StatusMissing
		return resp, nil
	}
	payload, count := chunk.NetworkEncode(c, s.db.Table())
	resp.Status, resp.SubChunks = StatusOK, count
	return resp, payload
}
