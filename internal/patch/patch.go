package patch

import "github.com/vk/weft/internal/elemid"

// Kind discriminates the three patch shapes.
type Kind uint8

const (
	KindAdd Kind = iota + 1
	KindUpdate
	KindRemove
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindUpdate:
		return "update"
	case KindRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// WireElement is the serialized form of a newly added element.
type WireElement struct {
	ID        string         `msgpack:"id"`
	Component string         `msgpack:"component"`
	Kind      string         `msgpack:"kind"`
	Props     map[string]any `msgpack:"props"`
	ChildIDs  []string       `msgpack:"child_ids"`
}

// Patch is one minimal change to the displayed tree.
type Patch struct {
	Kind Kind      `msgpack:"kind"`
	ID   elemid.ID `msgpack:"id"`
	// ParentID is set on Add patches.
	ParentID elemid.ID `msgpack:"parent_id,omitempty"`
	// ChildOrder carries the parent's new child order on Add patches and
	// the element's own new order on Update patches. Nil means unchanged;
	// an empty slice means the element now has no displayed children, so
	// the field must not collapse to nil on the wire.
	ChildOrder []elemid.ID `msgpack:"child_order"`
	// Element is the full serialized element on Add patches.
	Element *WireElement `msgpack:"element,omitempty"`
	// Props holds only the changed properties on Update patches. Nil
	// means no property changed.
	Props map[string]any `msgpack:"props,omitempty"`
}

// Collector accumulates patches in discovery order.
type Collector struct {
	patches []Patch
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records the creation of el under parent.
func (c *Collector) Add(parent elemid.ID, childOrder []elemid.ID, el *WireElement) {
	c.patches = append(c.patches, Patch{
		Kind:       KindAdd,
		ID:         elemid.ID(el.ID),
		ParentID:   parent,
		ChildOrder: childOrder,
		Element:    el,
	})
}

// Update records changed properties and/or a changed child order. Passing
// nil for both is a no-op.
func (c *Collector) Update(id elemid.ID, changed map[string]any, childOrder []elemid.ID) {
	if changed == nil && childOrder == nil {
		return
	}
	c.patches = append(c.patches, Patch{
		Kind:       KindUpdate,
		ID:         id,
		ChildOrder: childOrder,
		Props:      changed,
	})
}

// Remove records the removal of the element and its subtree.
func (c *Collector) Remove(id elemid.ID) {
	c.patches = append(c.patches, Patch{Kind: KindRemove, ID: id})
}

// Patches returns the collected patches in discovery order.
func (c *Collector) Patches() []Patch {
	return c.patches
}

// Len reports the number of collected patches.
func (c *Collector) Len() int {
	return len(c.patches)
}
