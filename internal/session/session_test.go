package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/elemid"
	"github.com/vk/weft/internal/patch"
	"github.com/vk/weft/internal/tree"
)

func TestEnterIsReentrant(t *testing.T) {
	s := New("s1")
	ctx, release := s.Enter(context.Background())
	defer release()

	assert.True(t, s.Held(ctx))

	// Nested entry with the marked context must not deadlock.
	done := make(chan struct{})
	go func() {
		defer close(done)
		inner, innerRelease := s.Enter(ctx)
		innerRelease()
		assert.True(t, s.Held(inner))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nested Enter deadlocked")
	}
}

func TestMarkDirtyBlocksDuringPass(t *testing.T) {
	s := New("s1")

	// Simulate an in-flight render pass holding the lock.
	passCtx, release := s.Enter(context.Background())

	var order []string
	var mu sync.Mutex
	note := func(step string) {
		mu.Lock()
		order = append(order, step)
		mu.Unlock()
	}

	started := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		close(started)
		// Unmarked context: must block until the pass releases.
		s.MarkDirty(context.Background(), "0@app/0@a")
		note("external mark applied")
		close(finished)
	}()

	<-started
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, s.DirtyLen(passCtx), "external mark must not land mid-pass")

	// A mark from inside the pass lands immediately.
	s.MarkDirty(passCtx, "0@app/1@b")
	assert.Equal(t, 1, s.DirtyLen(passCtx))

	note("pass complete")
	release()
	<-finished

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"pass complete", "external mark applied"}, order)

	ctx, release2 := s.Enter(context.Background())
	defer release2()
	assert.Equal(t, 2, s.DirtyLen(ctx))
}

func TestConcurrentMarksSerialize(t *testing.T) {
	s := New("s1")
	passCtx, release := s.Enter(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		id := elemid.Child("0@app", string(rune('0'+i)), "leaf")
		go func() {
			defer wg.Done()
			s.MarkDirty(context.Background(), id)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, s.DirtyLen(passCtx))
	release()
	wg.Wait()

	ctx, release2 := s.Enter(context.Background())
	defer release2()
	assert.Equal(t, 2, s.DirtyLen(ctx))
}

func TestTakeDirtyShallowestFirst(t *testing.T) {
	s := New("s1")
	ctx, release := s.Enter(context.Background())
	defer release()

	s.MarkDirty(ctx, "0@app/1@col/0@text")
	s.MarkDirty(ctx, "0@app")
	s.MarkDirty(ctx, "0@app/1@col")
	s.MarkDirty(ctx, "0@app/0@col")

	got := s.TakeDirty(ctx)
	assert.Equal(t, []elemid.ID{
		"0@app",
		"0@app/0@col",
		"0@app/1@col",
		"0@app/1@col/0@text",
	}, got)

	assert.Nil(t, s.TakeDirty(ctx), "dirty set is drained")
}

func TestTakeDirtyWithoutLockPanics(t *testing.T) {
	s := New("s1")
	assert.Panics(t, func() { s.TakeDirty(context.Background()) })
}

func TestResolveCallback(t *testing.T) {
	s := New("s1")
	ctx, release := s.Enter(context.Background())
	defer release()

	clicked := false
	btn := component.Func("button", component.KindLeaf, nil)
	s.Store().Put(&tree.Element{
		ID:        "0@app/0@button",
		Component: btn,
		Props:     component.NewProps("on_click", func() { clicked = true }),
	})

	ref := patch.FormatRef("0@app/0@button", "on_click")
	fn, err := s.ResolveCallback(ctx, ref)
	require.NoError(t, err)
	fn.(func())()
	assert.True(t, clicked)

	t.Run("missing element", func(t *testing.T) {
		_, err := s.ResolveCallback(ctx, patch.FormatRef("0@app/9@gone", "on_click"))
		assert.ErrorContains(t, err, "no longer exists")
	})

	t.Run("malformed ref", func(t *testing.T) {
		_, err := s.ResolveCallback(ctx, "garbage")
		assert.Error(t, err)
	})
}

func TestClose(t *testing.T) {
	s := New("s1")
	ctx, release := s.Enter(context.Background())

	text := component.Func("text", component.KindText, nil)
	s.Store().Put(&tree.Element{ID: "0@app", Component: text, Props: component.NewProps()})
	s.Store().State("0@app")
	s.MarkDirty(ctx, "0@app")
	release()

	s.Close(context.Background())

	ctx, release = s.Enter(context.Background())
	defer release()
	assert.True(t, s.Closed(ctx))
	assert.Zero(t, s.Store().Len())
	assert.Zero(t, s.DirtyLen(ctx))

	// Dirty marks after close are dropped.
	s.MarkDirty(ctx, "0@app")
	assert.Zero(t, s.DirtyLen(ctx))
}
