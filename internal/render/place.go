package render

import (
	"context"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/ctxlog"
	"github.com/vk/weft/internal/elemid"
	"github.com/vk/weft/internal/session"
	"github.com/vk/weft/internal/tree"
)

// Place creates (or re-creates) one child element of the currently
// executing component and renders its subtree. The element's position
// within the active frame becomes part of its id.
func Place(ctx context.Context, c component.Component, props *component.Props) error {
	return place(ctx, "", c, props)
}

// PlaceKeyed is Place with an explicit stable identity. Keyed siblings
// keep their element (and its local state) when their position shifts.
func PlaceKeyed(ctx context.Context, key string, c component.Component, props *component.Props) error {
	if key == "" {
		return usageErrorf("PlaceKeyed requires a non-empty key")
	}
	return place(ctx, key, c, props)
}

func place(ctx context.Context, key string, c component.Component, props *component.Props) error {
	if c == nil {
		return usageErrorf("cannot place a nil component")
	}
	ar, ok := activeFrom(ctx)
	if !ok {
		return usageErrorf("%s placed outside a render pass", c.Name())
	}
	fr, ok := ar.top()
	if !ok || fr.done {
		return usageErrorf("%s placed after its scope exited", c.Name())
	}

	seg := fr.nextSegment()
	if key != "" {
		seg = elemid.EscapeKey(key)
	}
	id := elemid.Child(fr.parent, seg, component.Identity(c))

	el := &tree.Element{
		ID:        id,
		Component: c,
		Props:     ensureProps(props),
		Key:       key,
	}
	if err := ar.renderElement(ctx, el); err != nil {
		return err
	}
	fr.children = append(fr.children, id)
	return nil
}

// Collect runs body inside a collection scope: elements it places are
// fully rendered and retained in the store, but they are not mounted into
// the current frame. The returned refs let a container mount them later,
// anywhere in its own output, or not at all — which is what preserves
// children across conditional rendering.
//
// The scope shares the enclosing frame's position space, so collected
// children cannot collide with siblings placed outside the scope.
func Collect(ctx context.Context, body func(ctx context.Context) error) ([]ChildRef, error) {
	ar, ok := activeFrom(ctx)
	if !ok {
		return nil, usageErrorf("Collect called outside a render pass")
	}
	outer, ok := ar.top()
	if !ok || outer.done {
		return nil, usageErrorf("Collect called after its scope exited")
	}

	ar.push(outer.parent, outer.counter)
	err := body(ctx)
	popped := ar.pop()
	outer.counter = popped.counter
	if err != nil {
		return nil, err
	}

	refs := make([]ChildRef, len(popped.children))
	for i, id := range popped.children {
		refs[i] = ChildRef{sess: ar.sess, ID: id}
	}
	return refs, nil
}

// Container places a composition component together with explicitly
// collected children. The children are rendered first (in the enclosing
// element's position space), then handed to the container via the
// "children" property as deferred references.
func Container(ctx context.Context, c component.Component, props *component.Props, body func(ctx context.Context) error) error {
	return containerKeyed(ctx, "", c, props, body)
}

// ContainerKeyed is Container with an explicit stable identity.
func ContainerKeyed(ctx context.Context, key string, c component.Component, props *component.Props, body func(ctx context.Context) error) error {
	if key == "" {
		return usageErrorf("ContainerKeyed requires a non-empty key")
	}
	return containerKeyed(ctx, key, c, props, body)
}

func containerKeyed(ctx context.Context, key string, c component.Component, props *component.Props, body func(ctx context.Context) error) error {
	if c == nil {
		return usageErrorf("cannot place a nil container")
	}
	if c.Kind() != component.KindComposition {
		return usageErrorf("%s is a %s component and cannot take children", c.Name(), c.Kind())
	}

	refs, err := Collect(ctx, body)
	if err != nil {
		return err
	}
	props = ensureProps(props).Clone()
	props.Set("children", refs)
	return place(ctx, key, c, props)
}

// ChildRef is a deferred reference to a collected child: the session it
// lives in plus its element id. A ref stays valid across passes; mounting
// one whose element has since been evicted renders nothing.
type ChildRef struct {
	sess *session.Session
	ID   elemid.ID
}

// Mount appends the referenced element to the currently active frame,
// making it a child of the element being rendered.
func (r ChildRef) Mount(ctx context.Context) error {
	ar, ok := activeFrom(ctx)
	if !ok {
		return usageErrorf("child %s mounted outside a render pass", r.ID)
	}
	fr, ok := ar.top()
	if !ok || fr.done {
		return usageErrorf("child %s mounted after its scope exited", r.ID)
	}
	if r.sess != nil && r.sess != ar.sess {
		return usageErrorf("child %s belongs to a different session", r.ID)
	}
	if _, ok := ar.sess.Store().Element(r.ID); !ok {
		// Concurrent eviction between collection and mounting is
		// expected: nothing to render here.
		ctxlog.FromContext(ctx).Debug("Skipping mount of evicted child.", "elementID", r.ID)
		return nil
	}
	fr.children = append(fr.children, r.ID)
	return nil
}

// Handle returns the imperative handle the referenced element exposed, if
// any.
func (r ChildRef) Handle(ctx context.Context) (any, bool) {
	ar, ok := activeFrom(ctx)
	if !ok {
		return nil, false
	}
	es, ok := ar.sess.Store().StateIfPresent(r.ID)
	if !ok || es.Ref == nil {
		return nil, false
	}
	return es.Ref, true
}

// WireValue makes refs serializable as properties: a ref on the wire is
// just the element id it points at.
func (r ChildRef) WireValue() any {
	return string(r.ID)
}

// Children extracts the deferred references a container was invoked with.
func Children(props *component.Props) []ChildRef {
	v, ok := props.Get("children")
	if !ok {
		return nil
	}
	refs, _ := v.([]ChildRef)
	return refs
}

func ensureProps(props *component.Props) *component.Props {
	if props == nil {
		return component.NewProps()
	}
	return props
}
