package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/patch"
	"github.com/vk/weft/internal/render"
	"github.com/vk/weft/internal/session"
	"github.com/vk/weft/internal/state"
	"github.com/vk/weft/internal/transport"
)

// memTransport is an in-process transport for loop tests.
type memTransport struct {
	events chan *transport.Event

	mu      sync.Mutex
	batches []*transport.Batch
	closed  bool
}

func newMemTransport() *memTransport {
	return &memTransport{events: make(chan *transport.Event, 8)}
}

func (m *memTransport) Send(_ context.Context, b *transport.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return transport.ErrClosed
	}
	m.batches = append(m.batches, b)
	return nil
}

func (m *memTransport) Receive(ctx context.Context) (*transport.Event, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev, ok := <-m.events:
		if !ok {
			return nil, transport.ErrClosed
		}
		return ev, nil
	}
}

func (m *memTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memTransport) sent() []*transport.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*transport.Batch(nil), m.batches...)
}

func runLoop(t *testing.T, l *Loop) (wait func()) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()
	return func() {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("loop did not stop")
		}
	}
}

func counterApp(clicks *state.Value[int]) component.Component {
	button := component.Func("button", component.KindLeaf, nil)
	return component.Func("app", component.KindComposition, func(ctx context.Context, _ *component.Props) error {
		n, err := clicks.Get(ctx)
		if err != nil {
			return err
		}
		return render.Place(ctx, button, component.NewProps(
			"label", n,
			"on_click", func(ctx context.Context) { clicks.Set(ctx, n+1) },
		))
	})
}

func TestLoopHelloCallbackClose(t *testing.T) {
	clicks := state.NewValue[int]()
	clicks.Set(context.Background(), 0)

	tr := newMemTransport()
	sess := session.New("s1")
	l := New(sess, tr, counterApp(clicks), nil)

	wait := runLoop(t, l)
	tr.events <- &transport.Event{Type: transport.EventHello}
	tr.events <- &transport.Event{Type: transport.EventCallback, Ref: "0@app/0@button:on_click"}
	tr.events <- &transport.Event{Type: transport.EventClose}
	wait()

	batches := tr.sent()
	require.Len(t, batches, 2)

	// Hello produced the initial tree.
	assert.Equal(t, "s1", batches[0].SessionID)
	require.Len(t, batches[0].Patches, 2)
	for _, p := range batches[0].Patches {
		assert.Equal(t, patch.KindAdd, p.Kind)
	}

	// The click incremented the counter, updating the label.
	require.Len(t, batches[1].Patches, 1)
	p := batches[1].Patches[0]
	assert.Equal(t, patch.KindUpdate, p.Kind)
	assert.Equal(t, map[string]any{"label": 1}, p.Props)

	ctx, release := sess.Enter(context.Background())
	defer release()
	assert.True(t, sess.Closed(ctx), "loop closes the session on exit")
}

func TestLoopDropsStaleCallback(t *testing.T) {
	clicks := state.NewValue[int]()
	clicks.Set(context.Background(), 0)

	tr := newMemTransport()
	l := New(session.New("s1"), tr, counterApp(clicks), nil)

	wait := runLoop(t, l)
	tr.events <- &transport.Event{Type: transport.EventHello}
	tr.events <- &transport.Event{Type: transport.EventCallback, Ref: "0@app/9@gone:on_click"}
	tr.events <- &transport.Event{Type: transport.EventClose}
	wait()

	require.Len(t, tr.sent(), 1, "a stale callback produces no batch and no failure")
}

func TestLoopReportsUserErrors(t *testing.T) {
	boom := errors.New("boom")
	app := component.Func("app", component.KindComposition, func(ctx context.Context, _ *component.Props) error {
		return boom
	})

	tr := newMemTransport()
	l := New(session.New("s1"), tr, app, nil)
	var reported error
	l.OnUserError = func(err error) { reported = err }

	wait := runLoop(t, l)
	tr.events <- &transport.Event{Type: transport.EventHello}
	tr.events <- &transport.Event{Type: transport.EventClose}
	wait()

	require.Error(t, reported)
	assert.True(t, errors.Is(reported, boom))
	assert.Empty(t, tr.sent())
}

func TestInvokeFlushesExternalWrites(t *testing.T) {
	clicks := state.NewValue[int]()
	clicks.Set(context.Background(), 0)

	tr := newMemTransport()
	sess := session.New("s1")
	l := New(sess, tr, counterApp(clicks), nil)

	wait := runLoop(t, l)
	tr.events <- &transport.Event{Type: transport.EventHello}

	require.Eventually(t, func() bool { return len(tr.sent()) == 1 },
		time.Second, 5*time.Millisecond)

	err := l.Invoke(context.Background(), func(ctx context.Context) error {
		clicks.Set(ctx, 10)
		return nil
	})
	require.NoError(t, err)

	batches := tr.sent()
	require.Len(t, batches, 2)
	assert.Equal(t, map[string]any{"label": 10}, batches[1].Patches[0].Props)

	tr.events <- &transport.Event{Type: transport.EventClose}
	wait()
}

func TestInvokeHandler(t *testing.T) {
	t.Run("context and typed args", func(t *testing.T) {
		var gotN int
		var gotS string
		fn := func(ctx context.Context, n int, s string) { gotN, gotS = n, s }
		require.NoError(t, invokeHandler(context.Background(), fn, []any{int64(7), "hi"}))
		assert.Equal(t, 7, gotN)
		assert.Equal(t, "hi", gotS)
	})

	t.Run("missing args become zero values", func(t *testing.T) {
		var got string
		fn := func(s string) { got = s }
		require.NoError(t, invokeHandler(context.Background(), fn, nil))
		assert.Equal(t, "", got)
	})

	t.Run("error result propagates", func(t *testing.T) {
		want := errors.New("nope")
		fn := func() error { return want }
		assert.ErrorIs(t, invokeHandler(context.Background(), fn, nil), want)
	})

	t.Run("panic is contained", func(t *testing.T) {
		fn := func() { panic("ouch") }
		err := invokeHandler(context.Background(), fn, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ouch")
	})

	t.Run("non-function target", func(t *testing.T) {
		assert.Error(t, invokeHandler(context.Background(), 42, nil))
	})
}
