package websocket

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errConnDrained = errors.New("no more frames")

// frame is one message written to or queued on a fakeConn.
type frame struct {
	kind int
	data []byte
}

// fakeConn is an in-memory Conn for pump and hub tests. ReadMessage
// serves queued frames and errors once drained, which ends the read
// pump the same way a dropped peer would.
type fakeConn struct {
	mu      sync.Mutex
	pending []frame
	written []frame
	closed  bool
}

func (c *fakeConn) queueRead(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, frame{kind: websocket.TextMessage, data: data})
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, nil, net.ErrClosed
	}
	if len(c.pending) == 0 {
		return 0, nil, errConnDrained
	}
	f := c.pending[0]
	c.pending = c.pending[1:]
	return f.kind, f.data, nil
}

func (c *fakeConn) WriteMessage(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return net.ErrClosed
	}
	c.written = append(c.written, frame{kind: kind, data: data})
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) frames() []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]frame, len(c.written))
	copy(out, c.written)
	return out
}

func (c *fakeConn) SetReadDeadline(time.Time) error { return nil }

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) SetReadLimit(int64) {}

func (c *fakeConn) SetPongHandler(func(string) error) {}

func (c *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 39000}
}
