package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds every socket write so one controller that stops reading
// cannot stall Broadcast or CloseAll. Variable so tests can shorten it.
var writeWait = 10 * time.Second

// Conn is one accepted controller connection.
type Conn struct {
	ID          string
	WS          *websocket.Conn
	ConnectedAt time.Time
	writeMu     sync.Mutex
}

// Send marshals and writes one frame (thread-safe).
func (c *Conn) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(data)
}

func (c *Conn) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.WS.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.WS.WriteMessage(websocket.TextMessage, data)
}

// closeWith sends a close frame with the given code and reason, then closes
// the socket.
func (c *Conn) closeWith(code int, reason string) {
	c.writeMu.Lock()
	deadline := time.Now().Add(writeWait)
	_ = c.WS.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.writeMu.Unlock()
	_ = c.WS.Close()
}

// Registry tracks every authenticated controller connection. Only accepted
// sockets live here; the auth handshake happens before Add.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

func (r *Registry) Add(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID] = c
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Broadcast serializes the frame once and writes it to every connection.
// Connections that cannot be written to are skipped, not dropped.
func (r *Registry) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("broadcast marshal failed", "error", err)
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conns {
		if err := c.write(data); err != nil {
			slog.Warn("broadcast failed", "conn", c.ID, "error", err)
		}
	}
}

// CloseAll closes every connection with a normal close handshake and empties
// the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.conns {
		c.closeWith(websocket.CloseNormalClosure, "shutting down")
		delete(r.conns, id)
	}
}
