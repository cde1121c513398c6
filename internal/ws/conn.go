// internal/ws/conn.go
package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Handle is the transport-level surface the presence core needs from a live
// connection. The core holds a non-owning reference; the transport pumps own
// the socket lifetime.
type Handle interface {
	IsOpen() bool
	SendText(payload []byte) error
	Close(code int, reason string) error
}

// Conn wraps a gorilla connection behind Handle. All frame writes go through
// a single mutex so a broadcast and the ping ticker never interleave frames.
type Conn struct {
	id     string
	sock   *websocket.Conn
	mu     sync.Mutex
	closed atomic.Bool
}

// NewConn wraps an upgraded websocket connection
func NewConn(sock *websocket.Conn) *Conn {
	return &Conn{
		id:   uuid.NewString(),
		sock: sock,
	}
}

// ID returns the connection's log identifier
func (c *Conn) ID() string {
	return c.id
}

// IsOpen reports whether the connection has not been closed locally
func (c *Conn) IsOpen() bool {
	return !c.closed.Load()
}

// SendText writes a text frame with the standard write deadline
func (c *Conn) SendText(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return websocket.ErrCloseSent
	}
	c.sock.SetWriteDeadline(time.Now().Add(writeWait))
	return c.sock.WriteMessage(websocket.TextMessage, payload)
}

// Ping writes a ping control frame
func (c *Conn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return websocket.ErrCloseSent
	}
	c.sock.SetWriteDeadline(time.Now().Add(writeWait))
	return c.sock.WriteMessage(websocket.PingMessage, nil)
}

// Close sends a close frame with the given reason and closes the socket.
// Safe to call more than once.
func (c *Conn) Close(code int, reason string) error {
	if c.closed.Swap(true) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sock.SetWriteDeadline(time.Now().Add(writeWait))
	c.sock.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	return c.sock.Close()
}

// SetupRead configures the read limit and the pong-refreshed read deadline
func (c *Conn) SetupRead(limit int64, pongWait time.Duration) {
	c.sock.SetReadLimit(limit)
	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		c.sock.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}

// NextMessage blocks for the next inbound frame. A read error marks the
// connection closed so in-flight broadcasts skip it.
func (c *Conn) NextMessage() ([]byte, error) {
	_, payload, err := c.sock.ReadMessage()
	if err != nil {
		c.closed.Store(true)
		return nil, err
	}
	return payload, nil
}
