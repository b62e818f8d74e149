package tree

import (
	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/elemid"
)

// Element is one placement of a component in the tree. Elements are owned
// exclusively by the session's Store; nothing else may hold one across
// render passes.
type Element struct {
	ID        elemid.ID
	Component component.Component
	Props     *component.Props
	// ChildIDs is the ordered list of mounted children. Order is
	// significant: it is the child_order carried by patches.
	ChildIDs []elemid.ID
	// Key is the caller-supplied stable identity override, empty when the
	// position counter was used instead.
	Key string
}

// Clone returns a copy with fresh ChildIDs and Props containers. The
// render pass clones the live element before re-executing it so the
// pre-pass snapshot stays intact for diffing.
func (e *Element) Clone() *Element {
	return &Element{
		ID:        e.ID,
		Component: e.Component,
		Props:     e.Props.Clone(),
		ChildIDs:  append([]elemid.ID(nil), e.ChildIDs...),
		Key:       e.Key,
	}
}
