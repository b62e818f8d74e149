package transport

import (
	"context"
	"errors"

	"github.com/vk/weft/internal/patch"
)

// Event types a client may send.
const (
	EventHello    = "hello"
	EventCallback = "callback"
	EventClose    = "close"
)

// ErrClosed is returned by Receive and Send once the underlying carrier
// has shut down.
var ErrClosed = errors.New("transport: closed")

// Event is one inbound client message. Hello opens the session and asks
// for the initial tree; Callback fires a handler by its reference string;
// Close ends the session.
type Event struct {
	Type string `msgpack:"type"`
	Ref  string `msgpack:"ref,omitempty"`
	Args []any  `msgpack:"args,omitempty"`
}

// Batch is one outbound message: every patch produced by a single render
// pass, applied by the client atomically.
type Batch struct {
	SessionID string        `msgpack:"session_id"`
	Patches   []patch.Patch `msgpack:"patches"`
}

// Transport carries batches out and events in for one connected display.
// Implementations are safe for one concurrent sender and one concurrent
// receiver.
type Transport interface {
	// Send delivers a patch batch to the client.
	Send(ctx context.Context, b *Batch) error

	// Receive blocks until the next client event arrives. It returns
	// ErrClosed once the connection is gone.
	Receive(ctx context.Context) (*Event, error)

	// Close tears the connection down. Safe to call more than once.
	Close() error
}
