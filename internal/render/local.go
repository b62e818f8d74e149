package render

import (
	"context"
	"fmt"

	"github.com/vk/weft/internal/state"
)

// Local state gives a component instance-scoped reactive values without
// declaring a state record. Allocations are keyed by (kind, ordinal call
// index) within the element's execution, so call order must be identical
// across re-renders: allocating local state conditionally is rejected,
// not silently tolerated.

func localState(ctx context.Context, kind string, init func() any) (any, error) {
	ar, ok := activeFrom(ctx)
	if !ok {
		return nil, usageErrorf("local state requested outside a render pass")
	}
	id, ok := currentElement(ctx)
	if !ok {
		return nil, usageErrorf("local state requested outside a component body")
	}
	es := ar.sess.Store().State(id)
	v, err := es.NextLocal(kind, init)
	if err != nil {
		return nil, usageErrorf("element %s: %v", id, err)
	}
	return v, nil
}

// UseValue returns the element's cached reactive value for this call
// index, allocating it with the given default on first render.
func UseValue[T any](ctx context.Context, def func() T) (*state.Value[T], error) {
	var zero T
	kind := fmt.Sprintf("value[%T]", zero)
	v, err := localState(ctx, kind, func() any {
		if def != nil {
			return state.NewValueDefault(def)
		}
		return state.NewValue[T]()
	})
	if err != nil {
		return nil, err
	}
	return v.(*state.Value[T]), nil
}

// UseList returns the element's cached tracked list for this call index.
func UseList[T any](ctx context.Context, items ...T) (*state.List[T], error) {
	var zero T
	kind := fmt.Sprintf("list[%T]", zero)
	v, err := localState(ctx, kind, func() any {
		return state.NewList(items...)
	})
	if err != nil {
		return nil, err
	}
	return v.(*state.List[T]), nil
}

// UseMap returns the element's cached tracked map for this call index.
func UseMap[K comparable, V any](ctx context.Context) (*state.Map[K, V], error) {
	var zk K
	var zv V
	kind := fmt.Sprintf("map[%T]%T", zk, zv)
	v, err := localState(ctx, kind, func() any {
		return state.NewMap[K, V]()
	})
	if err != nil {
		return nil, err
	}
	return v.(*state.Map[K, V]), nil
}

// Provide stores a value on the current element, visible to descendants
// through Lookup. Conventionally keyed by a type.
func Provide(ctx context.Context, key, value any) error {
	ar, ok := activeFrom(ctx)
	if !ok {
		return usageErrorf("Provide called outside a render pass")
	}
	id, ok := currentElement(ctx)
	if !ok {
		return usageErrorf("Provide called outside a component body")
	}
	ar.sess.Store().State(id).Context[key] = value
	return nil
}

// Lookup finds the nearest ancestor-provided value for key, starting at
// the current element itself.
func Lookup(ctx context.Context, key any) (any, bool) {
	ar, ok := activeFrom(ctx)
	if !ok {
		return nil, false
	}
	id, ok := currentElement(ctx)
	if !ok {
		return nil, false
	}
	for cur := id; cur != ""; cur = cur.Parent() {
		es, ok := ar.sess.Store().StateIfPresent(cur)
		if !ok {
			continue
		}
		if v, found := es.Context[key]; found {
			return v, true
		}
	}
	return nil, false
}

// Expose publishes an imperative handle for the current element; the
// parent retrieves it through ChildRef.Handle.
func Expose(ctx context.Context, handle any) error {
	ar, ok := activeFrom(ctx)
	if !ok {
		return usageErrorf("Expose called outside a render pass")
	}
	id, ok := currentElement(ctx)
	if !ok {
		return usageErrorf("Expose called outside a component body")
	}
	ar.sess.Store().State(id).Ref = handle
	return nil
}
