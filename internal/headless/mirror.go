package headless

import (
	"fmt"
	"strings"

	"github.com/vk/weft/internal/patch"
	"github.com/vk/weft/internal/transport"
)

// Mirror is the client-side picture of the element tree, maintained
// purely by applying patch batches.
type Mirror struct {
	elements map[string]*patch.WireElement
	roots    []string
}

// NewMirror returns an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{elements: make(map[string]*patch.WireElement)}
}

// Apply folds one batch into the mirror. Patches are applied in order;
// the first inconsistency aborts with an error describing it.
func (m *Mirror) Apply(b *transport.Batch) error {
	for i := range b.Patches {
		p := &b.Patches[i]
		switch p.Kind {
		case patch.KindAdd:
			if err := m.add(p); err != nil {
				return err
			}
		case patch.KindUpdate:
			if err := m.update(p); err != nil {
				return err
			}
		case patch.KindRemove:
			m.remove(string(p.ID))
		default:
			return fmt.Errorf("patch %d: unknown kind %d", i, p.Kind)
		}
	}
	return nil
}

func (m *Mirror) add(p *patch.Patch) error {
	if p.Element == nil {
		return fmt.Errorf("add patch for %s carries no element", p.ID)
	}
	el := cloneWire(p.Element)
	m.elements[el.ID] = el
	if p.ParentID == "" {
		m.roots = append(m.roots, el.ID)
		return nil
	}
	// The parent may arrive later in the same batch; its own add carries
	// the authoritative child list, so nothing to reorder here.
	return nil
}

func (m *Mirror) update(p *patch.Patch) error {
	el, ok := m.elements[string(p.ID)]
	if !ok {
		return fmt.Errorf("update patch for unknown element %s", p.ID)
	}
	for k, v := range p.Props {
		if v == nil {
			delete(el.Props, k)
			continue
		}
		if el.Props == nil {
			el.Props = make(map[string]any)
		}
		el.Props[k] = v
	}
	if p.ChildOrder != nil {
		order := make([]string, len(p.ChildOrder))
		for i, id := range p.ChildOrder {
			order[i] = string(id)
		}
		el.ChildIDs = order
	}
	return nil
}

func (m *Mirror) remove(id string) {
	el, ok := m.elements[id]
	if !ok {
		return
	}
	for _, child := range el.ChildIDs {
		m.remove(child)
	}
	delete(m.elements, id)
	for i, r := range m.roots {
		if r == id {
			m.roots = append(m.roots[:i], m.roots[i+1:]...)
			break
		}
	}
	// Drop dangling references from any parent still displaying it.
	for _, parent := range m.elements {
		for i, child := range parent.ChildIDs {
			if child == id {
				parent.ChildIDs = append(parent.ChildIDs[:i], parent.ChildIDs[i+1:]...)
				break
			}
		}
	}
}

// Element looks an element up by id.
func (m *Mirror) Element(id string) (*patch.WireElement, bool) {
	el, ok := m.elements[id]
	return el, ok
}

// Len reports how many elements the mirror holds.
func (m *Mirror) Len() int { return len(m.elements) }

// Text renders every text element's body in display order, one line per
// element. It is the assertion surface for tests.
func (m *Mirror) Text() string {
	var sb strings.Builder
	var walk func(id string)
	walk = func(id string) {
		el, ok := m.elements[id]
		if !ok {
			return
		}
		if el.Kind == "text" {
			fmt.Fprintln(&sb, el.Props["body"])
		}
		for _, child := range el.ChildIDs {
			walk(child)
		}
	}
	for _, root := range m.roots {
		walk(root)
	}
	return sb.String()
}

// Clone deep-copies the mirror.
func (m *Mirror) Clone() *Mirror {
	out := NewMirror()
	out.roots = append([]string(nil), m.roots...)
	for id, el := range m.elements {
		out.elements[id] = cloneWire(el)
	}
	return out
}

func cloneWire(el *patch.WireElement) *patch.WireElement {
	cp := *el
	cp.ChildIDs = append([]string(nil), el.ChildIDs...)
	if el.Props != nil {
		cp.Props = make(map[string]any, len(el.Props))
		for k, v := range el.Props {
			cp.Props[k] = v
		}
	}
	return &cp
}
