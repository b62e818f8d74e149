// Package state implements reactive values with automatic dependency
// discovery.
//
// A Value (or a tracked collection) remembers which elements read it during
// their most recent render. Reads consult the observer carried in the
// context by the render pass; outside a pass reads record nothing. A write
// synchronously marks every recorded watcher dirty in its owning session.
// There is no batching at this layer.
//
// # Why no locks here
//
// Watcher sets are mutated inline during reads and writes. Both are only
// reachable while either a render pass is running or a callback is being
// dispatched, and the session lock is held for the entirety of both, so the
// sets never see concurrent access.
//
// The package deliberately depends on nothing else in the engine: the
// session participates through the Observer interface, and the render pass
// through WithObserver, so the reactive core can be tested in isolation.
package state
