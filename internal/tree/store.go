package tree

import "github.com/vk/weft/internal/elemid"

// Store holds the elements and element states of one session.
//
// Not internally locked: callers hold the session lock across every method.
type Store struct {
	elements map[elemid.ID]*Element
	states   map[elemid.ID]*ElementState
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		elements: make(map[elemid.ID]*Element),
		states:   make(map[elemid.ID]*ElementState),
	}
}

// Put inserts or replaces an element.
func (s *Store) Put(el *Element) {
	s.elements[el.ID] = el
}

// Element looks up an element by id.
func (s *Store) Element(id elemid.ID) (*Element, bool) {
	el, ok := s.elements[id]
	return el, ok
}

// Delete removes the element and its state record.
func (s *Store) Delete(id elemid.ID) {
	delete(s.elements, id)
	delete(s.states, id)
}

// State returns the element's state record, allocating it on first use.
// State records are created eagerly on first render and then survive until
// the element is deleted.
func (s *Store) State(id elemid.ID) *ElementState {
	es, ok := s.states[id]
	if !ok {
		es = NewElementState()
		s.states[id] = es
	}
	return es
}

// StateIfPresent looks up a state record without allocating one.
func (s *Store) StateIfPresent(id elemid.ID) (*ElementState, bool) {
	es, ok := s.states[id]
	return es, ok
}

// Len reports the number of stored elements.
func (s *Store) Len() int {
	return len(s.elements)
}

// IDs returns the ids of all stored elements in unspecified order.
func (s *Store) IDs() []elemid.ID {
	out := make([]elemid.ID, 0, len(s.elements))
	for id := range s.elements {
		out = append(out, id)
	}
	return out
}

// Snapshot captures the current id to element mapping. Elements are
// immutable once stored (re-renders Put fresh values), so sharing the
// pointers is safe for the lifetime of one pass.
func (s *Store) Snapshot() map[elemid.ID]*Element {
	out := make(map[elemid.ID]*Element, len(s.elements))
	for id, el := range s.elements {
		out[id] = el
	}
	return out
}
