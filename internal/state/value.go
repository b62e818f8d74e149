package state

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnset is returned when a value with no stored content and no default
// is read.
var ErrUnset = errors.New("state: value is unset")

// deps is the shared watcher-set implementation embedded by Value and the
// tracked collections.
type deps struct {
	watchers map[watcher]struct{}
}

// track registers the currently executing element, if any, as a watcher.
func (d *deps) track(ctx context.Context) {
	o, ok := currentObservation(ctx)
	if !ok {
		return
	}
	if d.watchers == nil {
		d.watchers = make(map[watcher]struct{}, 1)
	}
	if _, dup := d.watchers[o.w]; dup {
		return
	}
	d.watchers[o.w] = struct{}{}
	if o.tr != nil {
		o.tr.record(d)
	}
}

// invalidate marks every recorded watcher dirty. The set is not cleared; a
// watcher that stops reading is dropped by its tracker on the element's
// next render instead.
func (d *deps) invalidate(ctx context.Context) {
	for w := range d.watchers {
		w.obs.MarkDirty(ctx, w.id)
	}
}

func (d *deps) forget(w watcher) {
	delete(d.watchers, w)
}

// watcherCount is exposed for tests.
func (d *deps) watcherCount() int { return len(d.watchers) }

// Value is a single reactive field. The zero Value is unset with no
// default.
type Value[T any] struct {
	deps
	name string
	val  T
	set  bool
	def  func() T
}

// NewValue returns an unset value.
func NewValue[T any]() *Value[T] {
	return &Value[T]{}
}

// NewValueDefault returns a value whose content is produced lazily by def
// on first read.
func NewValueDefault[T any](def func() T) *Value[T] {
	return &Value[T]{def: def}
}

// Named attaches a diagnostic name used in unset-read errors.
func (v *Value[T]) Named(name string) *Value[T] {
	v.name = name
	return v
}

// Get reads the value, registering the currently executing element as a
// watcher. A value with no content resolves its default on first read;
// with no default it returns ErrUnset.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	v.track(ctx)
	if !v.set {
		if v.def == nil {
			var zero T
			if v.name != "" {
				return zero, fmt.Errorf("reading %q: %w", v.name, ErrUnset)
			}
			return zero, ErrUnset
		}
		v.val = v.def()
		v.set = true
	}
	return v.val, nil
}

// MustGet is Get for values known to be set; it panics on ErrUnset.
func (v *Value[T]) MustGet(ctx context.Context) T {
	val, err := v.Get(ctx)
	if err != nil {
		panic(err)
	}
	return val
}

// Peek reads without registering a watcher and without resolving defaults.
func (v *Value[T]) Peek() (T, bool) {
	return v.val, v.set
}

// Set stores a new value and synchronously marks every watcher dirty.
func (v *Value[T]) Set(ctx context.Context, val T) {
	v.val = val
	v.set = true
	v.invalidate(ctx)
}
