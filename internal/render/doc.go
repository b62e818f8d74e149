// Package render drives component execution and produces patches.
//
// A render pass executes a root component (initial pass) or re-executes a
// single already-rendered element (incremental pass). Execution maintains a
// frame stack: placing a component pushes a frame that collects the ids of
// children created inside it, and popping the frame turns the collected ids
// into the element's child order. Reconciling that order against the
// previous pass yields Add/Update/Remove patches.
//
// All scratch state of one pass lives in ActiveRender, created at pass
// start and discarded at pass end. Everything here runs with the session
// lock held; the pass entry points acquire it themselves and are reentrant
// through the context marker.
package render
