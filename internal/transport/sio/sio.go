// Package sio carries the patch protocol over Socket.IO. Inbound events
// arrive as named emits ("hello", "callback", "close"); outbound batches
// go out as binary MessagePack payloads under the "patch" event.
package sio

import (
	"context"
	"net/http"
	"sync"

	"github.com/zishang520/socket.io/v2/socket"

	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/transport"
)

// AcceptFunc is invoked once per connected client, on its own goroutine.
// The transport stays valid until the client disconnects or Close is
// called.
type AcceptFunc func(ctx context.Context, conn transport.Transport, clientID string)

// Server bridges a Socket.IO server to the transport contract.
type Server struct {
	io     *socket.Server
	accept AcceptFunc
}

// NewServer builds the bridge. Wire Handler into an HTTP mux to serve it.
func NewServer(ctx context.Context, accept AcceptFunc) *Server {
	s := &Server{
		io:     socket.NewServer(nil, nil),
		accept: accept,
	}
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		s.handleConnection(ctx, client)
	})
	return s
}

// Handler returns the HTTP handler for the Socket.IO endpoint, typically
// mounted at /socket.io/.
func (s *Server) Handler() http.Handler {
	return s.io.ServeHandler(nil)
}

// Close shuts the underlying Socket.IO server down.
func (s *Server) Close() {
	s.io.Close(nil)
}

func (s *Server) handleConnection(ctx context.Context, client *socket.Socket) {
	logger := ctxlog.FromContext(ctx).With("clientID", string(client.Id()))
	logger.Debug("Client connected.")

	c := &conn{
		client: client,
		events: make(chan *transport.Event, 16),
	}

	forward := func(evType string) func(...any) {
		return func(args ...any) {
			ev := &transport.Event{Type: evType}
			if evType == transport.EventCallback {
				if len(args) == 0 {
					logger.Debug("Dropping callback event without a reference.")
					return
				}
				ref, ok := args[0].(string)
				if !ok {
					logger.Debug("Dropping callback event with a non-string reference.")
					return
				}
				ev.Ref = ref
				ev.Args = args[1:]
			}
			c.deliver(ev)
		}
	}
	client.On(transport.EventHello, forward(transport.EventHello))
	client.On(transport.EventCallback, forward(transport.EventCallback))
	client.On(transport.EventClose, forward(transport.EventClose))
	client.On("disconnect", func(...any) {
		logger.Debug("Client disconnected.")
		c.shutdown()
	})

	go s.accept(ctx, c, string(client.Id()))
}

// conn is one client's transport. Inbound emits are funneled into the
// events channel so Receive keeps the blocking contract.
type conn struct {
	client *socket.Socket
	events chan *transport.Event

	mu     sync.Mutex
	closed bool
}

var _ transport.Transport = (*conn)(nil)

func (c *conn) deliver(ev *transport.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		// A client flooding events faster than the session loop drains
		// them loses the oldest semantics anyway; drop the newest.
	}
}

func (c *conn) Send(ctx context.Context, b *transport.Batch) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return transport.ErrClosed
	}
	data, err := transport.EncodeBatch(b)
	if err != nil {
		return err
	}
	return c.client.Emit("patch", data)
}

func (c *conn) Receive(ctx context.Context) (*transport.Event, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev, ok := <-c.events:
		if !ok {
			return nil, transport.ErrClosed
		}
		return ev, nil
	}
}

func (c *conn) Close() error {
	c.shutdown()
	c.client.Disconnect(true)
	return nil
}

func (c *conn) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}
