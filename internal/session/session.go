package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/elemid"
	"github.com/vk/weft/internal/patch"
	"github.com/vk/weft/internal/tree"
)

// Session is the persistent container for one connection's element tree
// and dirty set. Created once per connection, torn down when the
// connection ends.
type Session struct {
	id string

	mu    sync.Mutex
	store *tree.Store
	dirty map[elemid.ID]struct{}

	closed bool
}

// New creates an empty session.
func New(id string) *Session {
	return &Session{
		id:    id,
		store: tree.NewStore(),
		dirty: make(map[elemid.ID]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Store returns the element store. Callers must hold the session lock.
func (s *Session) Store() *tree.Store { return s.store }

// tokenKey marks a context as holding this session's lock.
type tokenKey struct{}

// Enter acquires the session lock unless ctx already holds it. The
// returned context carries the ownership marker and must be used for all
// work done under the lock; the returned release frees the lock and is a
// no-op for reentrant entries.
func (s *Session) Enter(ctx context.Context) (context.Context, func()) {
	if s.Held(ctx) {
		return ctx, func() {}
	}
	s.mu.Lock()
	return context.WithValue(ctx, tokenKey{}, s), s.mu.Unlock
}

// Held reports whether ctx carries this session's lock.
func (s *Session) Held(ctx context.Context) bool {
	owner, _ := ctx.Value(tokenKey{}).(*Session)
	return owner == s
}

// MarkDirty records the element as needing re-execution. It implements
// state.Observer. Calls from outside the session block until any in-flight
// render pass completes, making the mutation visible to the next pass.
func (s *Session) MarkDirty(ctx context.Context, id elemid.ID) {
	ctx, release := s.Enter(ctx)
	defer release()

	if s.closed {
		return
	}
	ctxlog.FromContext(ctx).Debug("Element marked dirty.", "session", s.id, "elementID", id)
	s.dirty[id] = struct{}{}
}

// TakeDirty pops the entire dirty set, sorted shallowest-first (ties
// broken lexicographically for determinism). Callers must hold the lock.
func (s *Session) TakeDirty(ctx context.Context) []elemid.ID {
	s.mustHold(ctx)

	if len(s.dirty) == 0 {
		return nil
	}
	ids := make([]elemid.ID, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	s.dirty = make(map[elemid.ID]struct{})

	sort.Slice(ids, func(i, j int) bool {
		di, dj := ids[i].Depth(), ids[j].Depth()
		if di != dj {
			return di < dj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// DirtyLen reports the current dirty-set size. Callers must hold the lock.
func (s *Session) DirtyLen(ctx context.Context) int {
	s.mustHold(ctx)
	return len(s.dirty)
}

// ResolveCallback turns a callback reference back into the function
// currently stored in the originating element's live properties. Callers
// must hold the lock. A reference into an element that no longer exists is
// an error: the display surface raced an unmount.
func (s *Session) ResolveCallback(ctx context.Context, ref string) (any, error) {
	s.mustHold(ctx)

	id, path, err := patch.ParseRef(ref)
	if err != nil {
		return nil, err
	}
	el, ok := s.store.Element(id)
	if !ok {
		return nil, fmt.Errorf("callback %q: element no longer exists", ref)
	}
	fn, err := patch.LookupPath(el.Props, path)
	if err != nil {
		return nil, fmt.Errorf("callback %q: %w", ref, err)
	}
	return fn, nil
}

// Close tears the session down: every element state is disposed so
// reactive subscriptions are severed, and further dirty marks are dropped.
func (s *Session) Close(ctx context.Context) {
	ctx, release := s.Enter(ctx)
	defer release()

	if s.closed {
		return
	}
	s.closed = true
	for _, id := range s.store.IDs() {
		if es, ok := s.store.StateIfPresent(id); ok {
			es.Dispose()
		}
		s.store.Delete(id)
	}
	s.dirty = make(map[elemid.ID]struct{})
	ctxlog.FromContext(ctx).Debug("Session closed.", "session", s.id)
}

// Closed reports whether Close ran. Callers must hold the lock.
func (s *Session) Closed(ctx context.Context) bool {
	s.mustHold(ctx)
	return s.closed
}

// mustHold panics when ctx does not carry the lock. Forgetting Enter is a
// programmer error, not a recoverable condition.
func (s *Session) mustHold(ctx context.Context) {
	if !s.Held(ctx) {
		panic("session: caller does not hold the session lock")
	}
}
