package state

import (
	"context"
	"fmt"
)

// binding records the single (owner, attribute) pair a tracked collection
// belongs to. Collections share watcher semantics with Value but add the
// single-owner rule: the same collection instance cannot back two owners,
// because its watcher set would then conflate two unrelated dependencies.
type binding struct {
	owner any
	attr  string
}

func (b *binding) bind(owner any, attr string) {
	if owner == nil {
		panic("state: cannot bind a tracked collection to a nil owner")
	}
	if b.owner == nil {
		b.owner = owner
		b.attr = attr
		return
	}
	if b.owner == owner && b.attr == attr {
		return
	}
	panic(fmt.Sprintf(
		"state: tracked collection already bound to (%T).%s; copy it instead of reassigning",
		b.owner, b.attr,
	))
}

// List is a tracked ordered collection.
type List[T any] struct {
	deps
	binding
	items []T
}

// NewList returns a tracked list seeded with items.
func NewList[T any](items ...T) *List[T] {
	return &List[T]{items: append([]T(nil), items...)}
}

// Bind attaches the list to its owning record. Rebinding to a different
// owner panics; copy the contents into a fresh list instead.
func (l *List[T]) Bind(owner any, attr string) *List[T] {
	l.bind(owner, attr)
	return l
}

// All returns a copy of the contents, registering the reader as a watcher.
func (l *List[T]) All(ctx context.Context) []T {
	l.track(ctx)
	return append([]T(nil), l.items...)
}

// At reads one item.
func (l *List[T]) At(ctx context.Context, i int) T {
	l.track(ctx)
	return l.items[i]
}

// Len reads the length.
func (l *List[T]) Len(ctx context.Context) int {
	l.track(ctx)
	return len(l.items)
}

// Append adds items and marks watchers dirty.
func (l *List[T]) Append(ctx context.Context, items ...T) {
	l.items = append(l.items, items...)
	l.invalidate(ctx)
}

// SetAt replaces the item at i.
func (l *List[T]) SetAt(ctx context.Context, i int, item T) {
	l.items[i] = item
	l.invalidate(ctx)
}

// RemoveAt deletes the item at i, preserving order.
func (l *List[T]) RemoveAt(ctx context.Context, i int) {
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.invalidate(ctx)
}

// Clear empties the list.
func (l *List[T]) Clear(ctx context.Context) {
	l.items = l.items[:0]
	l.invalidate(ctx)
}

// Map is a tracked key/value collection.
type Map[K comparable, V any] struct {
	deps
	binding
	items map[K]V
}

// NewMap returns an empty tracked map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{items: make(map[K]V)}
}

// Bind attaches the map to its owning record; see List.Bind.
func (m *Map[K, V]) Bind(owner any, attr string) *Map[K, V] {
	m.bind(owner, attr)
	return m
}

// Get reads one entry.
func (m *Map[K, V]) Get(ctx context.Context, key K) (V, bool) {
	m.track(ctx)
	v, ok := m.items[key]
	return v, ok
}

// Len reads the entry count.
func (m *Map[K, V]) Len(ctx context.Context) int {
	m.track(ctx)
	return len(m.items)
}

// Put stores an entry and marks watchers dirty.
func (m *Map[K, V]) Put(ctx context.Context, key K, value V) {
	m.items[key] = value
	m.invalidate(ctx)
}

// Delete removes an entry.
func (m *Map[K, V]) Delete(ctx context.Context, key K) {
	delete(m.items, key)
	m.invalidate(ctx)
}

// Set is a tracked set of comparable items.
type Set[T comparable] struct {
	deps
	binding
	items map[T]struct{}
}

// NewSet returns a tracked set seeded with items.
func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{items: make(map[T]struct{}, len(items))}
	for _, it := range items {
		s.items[it] = struct{}{}
	}
	return s
}

// Bind attaches the set to its owning record; see List.Bind.
func (s *Set[T]) Bind(owner any, attr string) *Set[T] {
	s.bind(owner, attr)
	return s
}

// Has reads membership.
func (s *Set[T]) Has(ctx context.Context, item T) bool {
	s.track(ctx)
	_, ok := s.items[item]
	return ok
}

// Len reads the item count.
func (s *Set[T]) Len(ctx context.Context) int {
	s.track(ctx)
	return len(s.items)
}

// Add inserts an item and marks watchers dirty.
func (s *Set[T]) Add(ctx context.Context, item T) {
	s.items[item] = struct{}{}
	s.invalidate(ctx)
}

// Remove deletes an item.
func (s *Set[T]) Remove(ctx context.Context, item T) {
	delete(s.items, item)
	s.invalidate(ctx)
}
