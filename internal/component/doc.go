// Package component defines the contract between the render engine and the
// things it renders.
//
// A Component is an immutable, named template: it describes how to render
// one unit of UI but holds no per-placement state itself. Leaf and text
// components map directly to a primitive on the display surface; composition
// components run Go code that places other components. The engine invokes a
// composition component's body and observes the elements it places as side
// effects; it never inspects the body itself.
//
// Props is the ordered keyword-property bag every component is invoked
// with. Insertion order is preserved so serialized patches come out
// deterministic across passes.
package component
