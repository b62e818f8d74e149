package headless

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/transport"
)

// Options tunes the connection.
type Options struct {
	// Namespace defaults to "/".
	Namespace string
	// ConnectTimeout defaults to 10s.
	ConnectTimeout time.Duration
}

// Client is one connected headless display.
type Client struct {
	manager *socket.Manager
	io      *socket.Socket

	mu      sync.Mutex
	mirror  *Mirror
	batches chan *transport.Batch
}

// Dial connects and waits for the Socket.IO handshake to complete.
func Dial(ctx context.Context, rawURL string, o Options) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)

	if o.Namespace == "" {
		o.Namespace = "/"
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 10 * time.Second
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing server URL: %w", err)
	}
	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)

	opts := socket.DefaultOptions()
	if parsed.Path != "" {
		opts.SetPath(parsed.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(o.Namespace, opts)

	c := &Client{
		manager: manager,
		io:      io,
		mirror:  NewMirror(),
		batches: make(chan *transport.Batch, 32),
	}

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Headless client connected.")
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		connected <- fmt.Errorf("connect error: %v", errs)
	})
	io.On(types.EventName("patch"), func(args ...any) {
		c.onPatch(ctx, args)
	})

	select {
	case <-ctx.Done():
		io.Disconnect()
		return nil, ctx.Err()
	case <-time.After(o.ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out connecting to %s", rawURL)
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, err
		}
	}
	return c, nil
}

// Hello asks the server for the initial tree.
func (c *Client) Hello() error {
	return c.io.Emit(transport.EventHello)
}

// Fire triggers a callback by its reference, as a user interaction would.
func (c *Client) Fire(ref string, args ...any) error {
	emitArgs := append([]any{ref}, args...)
	return c.io.Emit(transport.EventCallback, emitArgs...)
}

// NextBatch blocks until the next patch batch has been applied to the
// mirror, and returns it.
func (c *Client) NextBatch(ctx context.Context) (*transport.Batch, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case b, ok := <-c.batches:
		if !ok {
			return nil, transport.ErrClosed
		}
		return b, nil
	}
}

// Snapshot returns a copy of the mirrored tree state.
func (c *Client) Snapshot() *Mirror {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirror.Clone()
}

// Close tells the server the session is over and disconnects.
func (c *Client) Close() {
	_ = c.io.Emit(transport.EventClose)
	c.io.Disconnect()
}

func (c *Client) onPatch(ctx context.Context, args []any) {
	logger := ctxlog.FromContext(ctx)
	if len(args) == 0 {
		logger.Debug("Ignoring empty patch event.")
		return
	}
	data, ok := rawBytes(args[0])
	if !ok {
		logger.Debug("Ignoring patch payload of unexpected type.", "type", fmt.Sprintf("%T", args[0]))
		return
	}
	batch, err := transport.DecodeBatch(data)
	if err != nil {
		logger.Debug("Ignoring undecodable patch batch.", "error", err)
		return
	}

	c.mu.Lock()
	err = c.mirror.Apply(batch)
	c.mu.Unlock()
	if err != nil {
		logger.Warn("Patch batch did not apply cleanly.", "error", err)
	}

	select {
	case c.batches <- batch:
	default:
		logger.Warn("Dropping patch batch: consumer is not keeping up.")
	}
}

// rawBytes unwraps the binary payload forms the Socket.IO parser may
// deliver.
func rawBytes(v any) ([]byte, bool) {
	switch p := v.(type) {
	case []byte:
		return p, true
	case string:
		return []byte(p), true
	case interface{ Bytes() []byte }:
		return p.Bytes(), true
	default:
		return nil, false
	}
}
