package headless

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/weft/internal/component"
	"github.com/vk/weft/internal/patch"
	"github.com/vk/weft/internal/render"
	"github.com/vk/weft/internal/session"
	"github.com/vk/weft/internal/state"
	"github.com/vk/weft/internal/transport"
)

// applyOverWire pushes render output through the real codec before it
// reaches the mirror, the way a connected client would see it.
func applyOverWire(t *testing.T, m *Mirror, patches []patch.Patch) {
	t.Helper()
	data, err := transport.EncodeBatch(&transport.Batch{SessionID: "s1", Patches: patches})
	require.NoError(t, err)
	decoded, err := transport.DecodeBatch(data)
	require.NoError(t, err)
	require.NoError(t, m.Apply(decoded))
}

func TestHiddenLastChildReachesMirrorOverWire(t *testing.T) {
	visible := state.NewValue[bool]()
	visible.Set(context.Background(), true)

	textComp := component.Func("text", component.KindText, nil)
	holder := component.Func("holder", component.KindComposition, func(ctx context.Context, props *component.Props) error {
		show, err := visible.Get(ctx)
		if err != nil {
			return err
		}
		if !show {
			return nil
		}
		for _, ref := range render.Children(props) {
			if err := ref.Mount(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	app := component.Func("app", component.KindComposition, func(ctx context.Context, _ *component.Props) error {
		return render.Container(ctx, holder, nil, func(ctx context.Context) error {
			return render.Place(ctx, textComp, component.NewProps("body", "kept"))
		})
	})

	sess := session.New("s1")
	mirror := NewMirror()

	_, initial, err := render.RenderRoot(context.Background(), sess, app, nil)
	require.NoError(t, err)
	applyOverWire(t, mirror, initial)

	holderEl, ok := mirror.Element("0@app/1@holder")
	require.True(t, ok)
	require.Equal(t, []string{"0@app/0@text"}, holderEl.ChildIDs)

	// Hiding the only child must empty the mirrored order, not leave it
	// pointing at the unmounted element forever.
	visible.Set(context.Background(), false)
	patches, err := render.RenderDirty(context.Background(), sess)
	require.NoError(t, err)
	applyOverWire(t, mirror, patches)

	holderEl, ok = mirror.Element("0@app/1@holder")
	require.True(t, ok)
	assert.Empty(t, holderEl.ChildIDs)
	assert.Empty(t, mirror.Text())

	// Showing it again restores the order through an Update alone.
	visible.Set(context.Background(), true)
	patches, err = render.RenderDirty(context.Background(), sess)
	require.NoError(t, err)
	applyOverWire(t, mirror, patches)

	holderEl, ok = mirror.Element("0@app/1@holder")
	require.True(t, ok)
	assert.Equal(t, []string{"0@app/0@text"}, holderEl.ChildIDs)
	assert.Equal(t, "kept\n", mirror.Text())
}
