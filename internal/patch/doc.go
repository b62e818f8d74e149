// Package patch turns render-pass changes into minimal wire-safe
// descriptions of what the display surface must do.
//
// Three kinds exist: Add a new element under a parent, Update an element's
// properties and/or child order, Remove an element and its subtree. A
// Collector preserves the order in which changes were discovered during
// one pass.
//
// Property serialization reduces values to primitives a codec can carry.
// Functions are replaced by an opaque callback reference built from the
// originating element's id and the property path; resolution later goes
// back through the element's live properties, never through the function
// value itself, so the reference stays valid even when the closure is
// replaced on the next pass.
package patch
