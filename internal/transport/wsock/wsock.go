// Package wsock carries the patch protocol over a raw WebSocket. Frames
// are binary MessagePack, one message per frame.
package wsock

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/transport"
)

// Conn adapts a gorilla websocket connection to transport.Transport.
type Conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

var _ transport.Transport = (*Conn)(nil)

// Upgrader promotes an HTTP request to a protocol connection.
type Upgrader struct {
	up websocket.Upgrader
}

// NewUpgrader returns an upgrader accepting any origin. Origin policy is
// the embedding server's job; it sees the request first.
func NewUpgrader() *Upgrader {
	return &Upgrader{
		up: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Upgrade performs the WebSocket handshake and wraps the result.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := u.up.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{ws: ws}, nil
}

// Dial connects to a server endpoint, for clients and tests.
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{ws: ws}, nil
}

// Send writes one batch as a binary frame.
func (c *Conn) Send(ctx context.Context, b *transport.Batch) error {
	data, err := transport.EncodeBatch(b)
	if err != nil {
		return err
	}
	if c.isClosed() {
		return transport.ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.ws.SetWriteDeadline(deadline)
	}
	if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		ctxlog.FromContext(ctx).Debug("WebSocket write failed.", "error", err)
		return transport.ErrClosed
	}
	return nil
}

// Receive reads frames until one decodes as an event. Text frames and
// malformed payloads are skipped with a debug log rather than killing the
// connection.
func (c *Conn) Receive(ctx context.Context) (*transport.Event, error) {
	logger := ctxlog.FromContext(ctx)

	// ReadMessage has no context support, so unblock it by tearing the
	// connection down when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-done:
		}
	}()

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, transport.ErrClosed
			}
			if c.isClosed() {
				return nil, transport.ErrClosed
			}
			return nil, errors.Join(transport.ErrClosed, err)
		}
		if msgType != websocket.BinaryMessage {
			logger.Debug("Ignoring non-binary frame.", "type", msgType)
			continue
		}
		ev, err := transport.DecodeEvent(data)
		if err != nil {
			logger.Debug("Ignoring malformed event frame.", "error", err)
			continue
		}
		return ev, nil
	}
}

// Close shuts the connection down, attempting a polite close frame first.
func (c *Conn) Close() error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	c.closeMu.Unlock()

	c.writeMu.Lock()
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.ws.Close()
}

func (c *Conn) isClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}
