package tree

import (
	"fmt"

	"github.com/vk/weft/internal/state"
)

// LocalKey addresses one local-state slot: the state kind plus the ordinal
// of the allocation call within the element's execution.
type LocalKey struct {
	Kind  string
	Index int
}

// ElementState is the per-element mutable runtime record. It is keyed by
// element id and survives re-renders of the element.
type ElementState struct {
	// Mounted is set once the element's mount hook has been queued.
	Mounted bool

	// Local caches reactive state instances allocated during execution,
	// keyed by (kind, ordinal call index) so repeated allocations line up
	// across passes as long as control flow is unchanged.
	Local map[LocalKey]any

	// kinds records, per call index, the kind requested on the pass that
	// allocated the slot. A later pass requesting a different kind at the
	// same index diverged in control flow and is rejected.
	kinds []string

	// CallCount is the number of local-state allocations made during the
	// current execution. Reset at the start of every re-execution so
	// allocation is deterministic.
	CallCount int

	// Context holds values provided by ancestor scoping blocks, looked up
	// by a caller-chosen key (conventionally a type).
	Context map[any]any

	// Ref is the imperative handle the element exposed to its parent, if
	// any.
	Ref any

	// Watch is the dependency tracker from the element's most recent
	// execution. Forgotten before re-execution and on unmount.
	Watch *state.Tracker
}

// NewElementState returns an empty state record.
func NewElementState() *ElementState {
	return &ElementState{
		Local:   make(map[LocalKey]any),
		Context: make(map[any]any),
	}
}

// BeginPass resets the allocation counter ahead of a re-execution.
func (es *ElementState) BeginPass() {
	es.CallCount = 0
}

// NextLocal returns the cached local-state instance for the next call
// index, allocating it with init on first use. Requesting a different kind
// at an index that previously served another kind means the component's
// control flow diverged between passes; that is rejected rather than
// silently tolerated.
func (es *ElementState) NextLocal(kind string, init func() any) (any, error) {
	idx := es.CallCount
	es.CallCount++

	if idx < len(es.kinds) {
		if es.kinds[idx] != kind {
			return nil, fmt.Errorf(
				"local state call %d requested %s but previously allocated %s; local-state allocation must not be conditional",
				idx, kind, es.kinds[idx],
			)
		}
	} else {
		es.kinds = append(es.kinds, kind)
	}

	key := LocalKey{Kind: kind, Index: idx}
	if v, ok := es.Local[key]; ok {
		return v, nil
	}
	v := init()
	es.Local[key] = v
	return v, nil
}

// Dispose severs the record's reactive subscriptions. Called on unmount.
func (es *ElementState) Dispose() {
	es.Watch.Forget()
	es.Watch = nil
	es.Mounted = false
}
