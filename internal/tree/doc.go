// Package tree holds the persistent element tree of one render session.
//
// It separates two records with different lifetimes:
//
//   - Element: one placement of a component, rebuilt wholesale on every
//     re-render of that placement.
//   - ElementState: the mutable runtime record keyed by the same id, which
//     survives re-renders so reconciliation can swap the displayed subtree
//     without losing hook-like local state.
//
// The Store owns both maps. It is not internally locked: every mutation
// happens while the owning session's lock is held, the same discipline the
// rest of the engine follows for shared state.
package tree
