// Package session owns everything that persists across the render passes
// of one logical connection: the element store, the dirty set, and the
// mutual-exclusion discipline gluing render passes and external callbacks
// together.
//
// # Locking
//
// A session has one lock. It is held for the entirety of a render pass,
// for dirty-marking from any goroutine, and around the dispatch of any
// user callback. Reentrancy is needed because a callback triggers state
// writes that recurse into dirty-marking while the dispatch lock is still
// held; since Go has no reentrant mutex, ownership travels in the
// context: Enter returns a context marked as inside the session, and a
// nested Enter with that context is a no-op. External goroutines without
// the marker simply block until the pass completes.
package session
