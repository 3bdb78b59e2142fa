// Package ws implements the WebSocket adapter that streams session state to
// the page.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeTimeout = 5 * time.Second
	sendBuffer   = 16 // queued messages per connection before it is dropped
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// conn wraps a single WebSocket connection bound to one session. Messages
// reach the socket through send, drained by the connection's writer.
type conn struct {
	ws        *websocket.Conn
	cancel    context.CancelFunc
	sessionID string
	send      chan []byte
}

// Hub tracks WebSocket connections per session and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	conns   map[*conn]struct{}
	origins []string
}

// NewHub creates an empty hub. Handshakes are accepted from the page's own
// host and from hosts matching originPatterns (see OriginPatterns).
func NewHub(originPatterns ...string) *Hub {
	return &Hub{
		conns:   make(map[*conn]struct{}),
		origins: originPatterns,
	}
}

// OriginPatterns turns configured origins such as "http://localhost:8080"
// into host patterns for NewHub. Empty and malformed entries are skipped.
func OriginPatterns(origins ...string) []string {
	var patterns []string
	for _, o := range origins {
		if o == "" {
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			slog.Warn("ignoring websocket origin", "origin", o)
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}

// HandleWS upgrades the request and attaches the connection to sessionID.
// When initial is non-nil it is written before any broadcast so the page
// starts from the current state. The caller must have checked that the
// session exists.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request, sessionID string, initial *Message) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "session_id", sessionID, "error", err)
		return
	}

	// The connection outlives the upgrade request.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	c := &conn{ws: ws, cancel: cancel, sessionID: sessionID, send: make(chan []byte, sendBuffer)}

	if initial != nil {
		if err := h.write(ctx, c, *initial); err != nil {
			cancel()
			_ = ws.Close(websocket.StatusInternalError, "initial state")
			return
		}
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "session_id", sessionID, "remote", r.RemoteAddr)

	go h.writeLoop(ctx, c)

	// Read loop detects disconnects and consumes pings.
	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// Broadcast queues msg for every connection attached to sessionID. It never
// waits on a socket: a connection whose queue is full is dropped.
func (h *Hub) Broadcast(ctx context.Context, sessionID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "marshal websocket message", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*conn, 0, 1)
	for c := range h.conns {
		if c.sessionID == sessionID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			slog.WarnContext(ctx, "websocket client too slow, disconnecting", "session_id", sessionID)
			h.remove(c)
			_ = c.ws.CloseNow()
		}
	}
}

// writeLoop drains c.send to the socket until the connection is removed.
func (h *Hub) writeLoop(ctx context.Context, c *conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Debug("websocket write failed", "session_id", c.sessionID, "error", err)
				h.remove(c)
				return
			}
		}
	}
}

// CloseSession disconnects every client of sessionID, used when a session
// expires.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.RLock()
	var targets []*conn
	for c := range h.conns {
		if c.sessionID == sessionID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.remove(c)
		if c.ws != nil {
			_ = c.ws.Close(websocket.StatusGoingAway, "session expired")
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// SessionConnections returns the number of connections attached to sessionID.
func (h *Hub) SessionConnections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.conns {
		if c.sessionID == sessionID {
			n++
		}
	}
	return n
}

func (h *Hub) write(ctx context.Context, c *conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.ws.Write(ctx, websocket.MessageText, data)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected", "session_id", c.sessionID)
	}
}
