package state

import (
	"context"

	"github.com/vk/weft/internal/elemid"
)

// Observer receives dirty marks for elements whose read dependencies
// changed. The render session implements it.
type Observer interface {
	MarkDirty(ctx context.Context, id elemid.ID)
}

// watcher identifies one (observer, element) pair recorded against a value.
// Observers are expected to be pointer-shaped so watcher is a valid map key.
type watcher struct {
	obs Observer
	id  elemid.ID
}

// depSet is the recordable side of a reactive value. Values and tracked
// collections embed one; Tracker uses the interface to drop a watcher when
// an element re-renders or unmounts.
type depSet interface {
	forget(w watcher)
}

// Tracker accumulates the values one element read during one execution.
// The render pass keeps the previous pass's tracker on the element state
// and forgets it before re-executing, which is what keeps a value's watcher
// set aligned with the most recent render.
type Tracker struct {
	w    watcher
	deps []depSet
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Forget removes the tracker's watcher from every value it was recorded
// against. Safe to call on a nil tracker and idempotent.
func (t *Tracker) Forget() {
	if t == nil {
		return
	}
	for _, d := range t.deps {
		d.forget(t.w)
	}
	t.deps = t.deps[:0]
}

func (t *Tracker) record(d depSet) {
	t.deps = append(t.deps, d)
}

// observation is what a read finds in the context: whom to register as a
// watcher and where to note the subscription for later cleanup.
type observation struct {
	w  watcher
	tr *Tracker
}

type observerKey struct{}

// WithObserver marks ctx as executing the given element. Every tracked read
// below this context registers (obs, id) as a watcher and notes the
// subscription on tr.
func WithObserver(ctx context.Context, obs Observer, id elemid.ID, tr *Tracker) context.Context {
	w := watcher{obs: obs, id: id}
	if tr != nil {
		tr.w = w
	}
	return context.WithValue(ctx, observerKey{}, observation{w: w, tr: tr})
}

// WithoutObserver strips any executing-element marker, making reads below
// it untracked. Used when dispatching user callbacks: a callback reading
// state is not a render dependency.
func WithoutObserver(ctx context.Context) context.Context {
	return context.WithValue(ctx, observerKey{}, observation{})
}

func currentObservation(ctx context.Context) (observation, bool) {
	o, ok := ctx.Value(observerKey{}).(observation)
	if !ok || o.w.obs == nil {
		return observation{}, false
	}
	return o, true
}
