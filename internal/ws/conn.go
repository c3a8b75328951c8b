// Package ws adapts gorilla websocket connections to notification channels.
package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrClosed is returned by Send once the connection has been closed.
var ErrClosed = errors.New("websocket connection closed")

// Options holds keepalive and limit settings for a connection.
type Options struct {
	PingInterval time.Duration
	PongWait     time.Duration
	WriteTimeout time.Duration
	ReadLimit    int64
}

func (o Options) withDefaults() Options {
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongWait {
		o.PingInterval = o.PongWait * 9 / 10
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 4096
	}
	return o
}

// Conn is one live websocket session. It satisfies notification.Channel.
type Conn struct {
	id   uuid.UUID
	conn *websocket.Conn
	opts Options

	mu        sync.Mutex // serialises writes
	closed    chan struct{}
	closeOnce sync.Once
}

// NewConn wraps an upgraded connection.
func NewConn(conn *websocket.Conn, opts Options) *Conn {
	return &Conn{
		id:     uuid.New(),
		conn:   conn,
		opts:   opts.withDefaults(),
		closed: make(chan struct{}),
	}
}

// ID identifies the session in logs.
func (c *Conn) ID() uuid.UUID {
	return c.id
}

func (c *Conn) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.opts.WriteTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

// Send writes payload as a single text frame.
func (c *Conn) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		// gorilla connections are unusable after a failed write.
		c.markClosed()
		_ = c.conn.Close()
		return err
	}
	return nil
}

// Serve runs the read loop until the peer goes away, a read fails or ctx is
// done. Incoming frames are discarded; reading only detects disconnection and
// processes control frames. When ctx ends first, the peer gets a going-away
// close frame.
func (c *Conn) Serve(ctx context.Context) error {
	c.conn.SetReadLimit(c.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go c.keepalive(ctx, done)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.markClosed()
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
	}
}

func (c *Conn) keepalive(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			c.Close(websocket.CloseGoingAway, "server shutting down")
			return
		case <-ticker.C:
			c.mu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteTimeout))
			c.mu.Unlock()
			if err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

func (c *Conn) markClosed() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// Close sends a close frame with code and reason, then closes the socket.
// Later calls are no-ops.
func (c *Conn) Close(code int, reason string) error {
	first := false
	c.closeOnce.Do(func() {
		first = true
		close(c.closed)
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	if first {
		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteTimeout))
	}
	return c.conn.Close()
}
