// Package ws is the websocket transport adapter: connection lifecycle,
// read/write pumps and per-connection backpressure.
package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/nickaroot/music-room/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Conn wraps one websocket with a buffered outbound channel. TrySend
// never blocks: a full buffer reports backpressure and the frame is
// dropped silently by the delivery layer.
type Conn struct {
	ws   *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newConn(ws *websocket.Conn, buffer int) *Conn {
	if buffer <= 0 {
		buffer = 32
	}
	return &Conn{ws: ws, send: make(chan core.Frame, buffer)}
}

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.ws.Close()
	c.mu.Unlock()
}
