package app

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/transport"
	"github.com/vk/weft/internal/widget"
)

type fakeConn struct {
	events chan *transport.Event

	mu      sync.Mutex
	batches []*transport.Batch
}

func (f *fakeConn) Send(_ context.Context, b *transport.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, b)
	return nil
}

func (f *fakeConn) Receive(ctx context.Context) (*transport.Event, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev, ok := <-f.events:
		if !ok {
			return nil, transport.ErrClosed
		}
		return ev, nil
	}
}

func (f *fakeConn) Close() error { return nil }

func testApp(t *testing.T) *App {
	t.Helper()
	reg := component.NewRegistry()
	widget.Register(reg)
	reg.Register(component.Func("home", component.KindComposition, func(ctx context.Context, _ *component.Props) error {
		return widget.Text(ctx, "welcome")
	}))

	cfg := DefaultConfig()
	a, err := New(io.Discard, &cfg, reg, "home")
	require.NoError(t, err)
	return a
}

func TestNewRejectsBadRoots(t *testing.T) {
	reg := component.NewRegistry()
	widget.Register(reg)
	cfg := DefaultConfig()

	_, err := New(io.Discard, &cfg, reg, "missing")
	assert.Error(t, err)

	// Text is registered but is not a composition.
	_, err = New(io.Discard, &cfg, reg, "text")
	assert.Error(t, err)
}

func TestServeSessionLifecycle(t *testing.T) {
	a := testApp(t)

	conn := &fakeConn{events: make(chan *transport.Event, 4)}
	conn.events <- &transport.Event{Type: transport.EventHello}

	done := make(chan struct{})
	go func() {
		a.serveSession(context.Background(), conn, "client1")
		close(done)
	}()

	require.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return len(conn.batches) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, a.SessionCount())

	conn.events <- &transport.Event{Type: transport.EventClose}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
	assert.Zero(t, a.SessionCount())
}

func TestBroadcastFlushesEverySession(t *testing.T) {
	count := 0
	a := testApp(t)

	conn := &fakeConn{events: make(chan *transport.Event, 4)}
	conn.events <- &transport.Event{Type: transport.EventHello}
	go a.serveSession(context.Background(), conn, "client1")

	require.Eventually(t, func() bool { return a.SessionCount() == 1 },
		2*time.Second, 5*time.Millisecond)

	a.Broadcast(context.Background(), func(ctx context.Context) error {
		count++
		return nil
	})
	assert.Equal(t, 1, count)

	conn.events <- &transport.Event{Type: transport.EventClose}

	require.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return len(conn.batches) >= 1 && len(conn.batches[0].Patches) == 2
	}, 2*time.Second, 5*time.Millisecond)
}
