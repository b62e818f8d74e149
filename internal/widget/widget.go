package widget

import (
	"context"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/render"
)

var (
	textComp   = component.Func("text", component.KindText, nil)
	buttonComp = component.Func("button", component.KindLeaf, nil)
	inputComp  = component.Func("input", component.KindLeaf, nil)

	columnComp = component.Func("column", component.KindComposition, mountAll)
	rowComp    = component.Func("row", component.KindComposition, mountAll)
)

// Register adds the built-in components to a registry.
func Register(reg *component.Registry) {
	reg.Register(textComp)
	reg.Register(buttonComp)
	reg.Register(inputComp)
	reg.Register(columnComp)
	reg.Register(rowComp)
}

// mountAll displays every collected child in collection order.
func mountAll(ctx context.Context, props *component.Props) error {
	for _, ref := range render.Children(props) {
		if err := ref.Mount(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Text places a text element.
func Text(ctx context.Context, body string) error {
	return render.Place(ctx, textComp, component.NewProps("body", body))
}

// Button places a button. onClick runs under the session lock when the
// client reports a click.
func Button(ctx context.Context, label string, onClick func(ctx context.Context)) error {
	return render.Place(ctx, buttonComp, component.NewProps(
		"label", label,
		"on_click", onClick,
	))
}

// Input places a single-line text input. onChange receives the new value.
func Input(ctx context.Context, value string, onChange func(ctx context.Context, value string)) error {
	return render.Place(ctx, inputComp, component.NewProps(
		"value", value,
		"on_change", onChange,
	))
}

// Column lays its children out vertically.
func Column(ctx context.Context, body func(ctx context.Context) error) error {
	return render.Container(ctx, columnComp, nil, body)
}

// ColumnKeyed is Column with a stable identity among its siblings.
func ColumnKeyed(ctx context.Context, key string, body func(ctx context.Context) error) error {
	return render.ContainerKeyed(ctx, key, columnComp, nil, body)
}

// Row lays its children out horizontally.
func Row(ctx context.Context, body func(ctx context.Context) error) error {
	return render.Container(ctx, rowComp, nil, body)
}
