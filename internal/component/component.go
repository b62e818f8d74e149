package component

import "context"

// Kind classifies what an element of this component maps to on the display
// surface.
type Kind uint8

const (
	// KindLeaf is a primitive display element with no engine-driven body.
	KindLeaf Kind = iota
	// KindText is a leaf that renders a run of text.
	KindText
	// KindComposition runs Go code that places other components.
	KindComposition
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindText:
		return "text"
	case KindComposition:
		return "composition"
	default:
		return "unknown"
	}
}

// RenderFunc is the body of a composition component. It receives the
// keyword properties of the placement being rendered and places children by
// side effect. Returning an error aborts the render pass.
type RenderFunc func(ctx context.Context, props *Props) error

// Component is an immutable template describing how to render one unit of
// UI. Implementations must be safe for concurrent use: the same Component
// value is shared by every session that renders it.
type Component interface {
	// Name is the stable identity of the component. It participates in
	// element ids, so renaming a component re-keys every element it
	// produced.
	Name() string
	Kind() Kind
	// Render executes the component body. Leaf and text components are
	// never executed; their Render must be a no-op.
	Render(ctx context.Context, props *Props) error
}

// funcComponent adapts a name, kind and body function into a Component.
type funcComponent struct {
	name string
	kind Kind
	fn   RenderFunc
}

func (c *funcComponent) Name() string { return c.name }
func (c *funcComponent) Kind() Kind   { return c.kind }

func (c *funcComponent) Render(ctx context.Context, props *Props) error {
	if c.fn == nil {
		return nil
	}
	return c.fn(ctx, props)
}

// Func builds a Component from a plain function. Leaf and text components
// pass a nil fn.
func Func(name string, kind Kind, fn RenderFunc) Component {
	return &funcComponent{name: name, kind: kind, fn: fn}
}

// Identity returns the token representing the component inside element ids.
func Identity(c Component) string {
	return c.Name()
}
