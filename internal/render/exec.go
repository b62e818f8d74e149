package render

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/elemid"
	"github.com/vk/weft/internal/patch"
	"github.com/vk/weft/internal/reconcile"
	"github.com/vk/weft/internal/state"
	"github.com/vk/weft/internal/tree"
)

// renderElement (re-)executes one element: runs its component body inside
// a fresh frame, reconciles the collected children against the pre-pass
// snapshot, evicts what disappeared, and records patches.
func (ar *ActiveRender) renderElement(ctx context.Context, el *tree.Element) error {
	store := ar.sess.Store()

	es := store.State(el.ID)
	es.BeginPass()
	// Drop the previous pass's subscriptions so the watcher sets end up
	// reflecting exactly what this execution reads.
	es.Watch.Forget()
	tr := state.NewTracker()
	es.Watch = tr

	ctx = state.WithObserver(ctx, ar.sess, el.ID, tr)
	ctx = withCurrent(ctx, el.ID)

	ar.push(el.ID, 0)
	renderErr := el.Component.Render(ctx, el.Props)
	fr := ar.pop()
	if renderErr != nil {
		return fmt.Errorf("render %s: %w", el.ID, renderErr)
	}
	if dup, ok := firstDuplicate(fr.children); ok {
		return usageErrorf("element %s mounted child %s twice", el.ID, dup)
	}
	el.ChildIDs = fr.children

	old := ar.snapshot[el.ID]
	store.Put(el)
	ar.rendered[el.ID] = struct{}{}

	var oldChildren []elemid.ID
	if old != nil {
		oldChildren = old.ChildIDs
	}
	res := reconcile.Reconcile(oldChildren, el.ChildIDs)
	for _, gone := range res.Removed {
		// Only evict elements this element created. A mounted reference
		// to a child collected in an outer scope merely leaves the
		// display; the element survives for later remounting, and its
		// creator's next render decides its fate.
		if gone.Parent() == el.ID {
			ar.evictSubtree(ctx, gone)
		}
	}

	if old == nil {
		wire, err := wireElement(el)
		if err != nil {
			return fmt.Errorf("render %s: %w", el.ID, err)
		}
		ar.collector.Add(el.ID.Parent(), el.ChildIDs, wire)
	} else {
		changed, err := changedProps(old, el)
		if err != nil {
			return fmt.Errorf("render %s: %w", el.ID, err)
		}
		var newOrder []elemid.ID
		if !sameOrder(oldChildren, el.ChildIDs) {
			// Non-nil even when all children left, so the order change
			// still reaches the wire.
			newOrder = append(make([]elemid.ID, 0, len(el.ChildIDs)), el.ChildIDs...)
		}
		ar.collector.Update(el.ID, changed, newOrder)
	}

	if !es.Mounted {
		es.Mounted = true
		ar.pendingMount = append(ar.pendingMount, el.ID)
	}
	return nil
}

// evictSubtree removes an element and everything beneath it from the
// store, queues unmount hooks and records a single Remove patch for the
// subtree root. An id already absent from the store means a stale frame
// referenced it; that is expected, not an error.
func (ar *ActiveRender) evictSubtree(ctx context.Context, id elemid.ID) {
	ar.evict(ctx, id, true)
}

func (ar *ActiveRender) evict(ctx context.Context, id elemid.ID, root bool) {
	store := ar.sess.Store()
	el, ok := store.Element(id)
	if !ok {
		return
	}
	for _, child := range el.ChildIDs {
		if child.Parent() == id {
			ar.evict(ctx, child, false)
		}
	}
	if es, ok := store.StateIfPresent(id); ok {
		es.Dispose()
	}
	ar.queueUnmount(id, el.Component)
	store.Delete(id)
	if root {
		ar.collector.Remove(id)
	}
}

// sweepOrphans evicts elements that were created by an earlier execution
// of a re-rendered ancestor but were not re-created this pass. They can no
// longer be reached by any frame, so keeping them would leak state and
// watchers.
func (ar *ActiveRender) sweepOrphans(ctx context.Context) {
	store := ar.sess.Store()
	for id, old := range ar.snapshot {
		if _, ok := ar.rendered[id]; ok {
			continue
		}
		live, ok := store.Element(id)
		if !ok || live != old {
			continue
		}
		if ar.rerenderedAncestor(id) {
			ctxlog.FromContext(ctx).Debug("Evicting orphaned element.", "elementID", id)
			ar.evictSubtree(ctx, id)
		}
	}
}

// rerenderedAncestor reports whether some strict ancestor of id was
// re-executed this pass.
func (ar *ActiveRender) rerenderedAncestor(id elemid.ID) bool {
	for cur := id.Parent(); cur != ""; cur = cur.Parent() {
		if _, ok := ar.rendered[cur]; ok {
			return true
		}
	}
	return false
}

// wireElement serializes a freshly added element.
func wireElement(el *tree.Element) (*patch.WireElement, error) {
	props, err := patch.EncodeProps(el.ID, el.Props)
	if err != nil {
		return nil, err
	}
	childIDs := make([]string, len(el.ChildIDs))
	for i, id := range el.ChildIDs {
		childIDs[i] = string(id)
	}
	return &patch.WireElement{
		ID:        string(el.ID),
		Component: component.Identity(el.Component),
		Kind:      el.Component.Kind().String(),
		Props:     props,
		ChildIDs:  childIDs,
	}, nil
}

// changedProps compares the wire encodings of old and new properties and
// returns only the keys whose encoding differs. Keys that vanished map to
// nil. Encodings are compared instead of raw values because callbacks
// encode to position-stable references: a replaced closure on the same
// property is not a change.
func changedProps(old, next *tree.Element) (map[string]any, error) {
	oldEnc, err := patch.EncodeProps(old.ID, old.Props)
	if err != nil {
		return nil, err
	}
	newEnc, err := patch.EncodeProps(next.ID, next.Props)
	if err != nil {
		return nil, err
	}

	var changed map[string]any
	record := func(key string, val any) {
		if changed == nil {
			changed = make(map[string]any)
		}
		changed[key] = val
	}

	for key, nv := range newEnc {
		ov, existed := oldEnc[key]
		if !existed || !reflect.DeepEqual(ov, nv) {
			record(key, nv)
		}
	}
	for key := range oldEnc {
		if _, still := newEnc[key]; !still {
			record(key, nil)
		}
	}
	return changed, nil
}

func sameOrder(a, b []elemid.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func firstDuplicate(ids []elemid.ID) (elemid.ID, bool) {
	seen := make(map[elemid.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return "", false
}
