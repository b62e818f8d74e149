package component

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc(t *testing.T) {
	ran := false
	c := Func("panel", KindComposition, func(ctx context.Context, props *Props) error {
		ran = true
		v, ok := props.Get("title")
		require.True(t, ok)
		assert.Equal(t, "hi", v)
		return nil
	})

	assert.Equal(t, "panel", c.Name())
	assert.Equal(t, KindComposition, c.Kind())
	assert.Equal(t, "panel", Identity(c))

	err := c.Render(context.Background(), NewProps("title", "hi"))
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestFuncLeafRenderIsNoop(t *testing.T) {
	c := Func("text", KindText, nil)
	assert.NoError(t, c.Render(context.Background(), nil))
}

func TestProps(t *testing.T) {
	t.Run("preserves insertion order", func(t *testing.T) {
		p := NewProps()
		p.Set("b", 1).Set("a", 2).Set("c", 3)
		assert.Equal(t, []string{"b", "a", "c"}, p.Keys())
	})

	t.Run("overwrite keeps position", func(t *testing.T) {
		p := NewProps("b", 1, "a", 2)
		p.Set("b", 9)
		assert.Equal(t, []string{"b", "a"}, p.Keys())
		v, ok := p.Get("b")
		require.True(t, ok)
		assert.Equal(t, 9, v)
	})

	t.Run("clone is independent", func(t *testing.T) {
		p := NewProps("x", 1)
		q := p.Clone()
		q.Set("x", 2).Set("y", 3)

		v, _ := p.Get("x")
		assert.Equal(t, 1, v)
		_, ok := p.Get("y")
		assert.False(t, ok)
		assert.Equal(t, 2, q.Len())
	})

	t.Run("nil-safe reads", func(t *testing.T) {
		var p *Props
		_, ok := p.Get("x")
		assert.False(t, ok)
		assert.Zero(t, p.Len())
	})

	t.Run("odd pair count panics", func(t *testing.T) {
		assert.Panics(t, func() { NewProps("only-key") })
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	text := Func("text", KindText, nil)
	r.Register(text)

	got, ok := r.Lookup("text")
	require.True(t, ok)
	assert.Same(t, text, got)
	assert.Equal(t, 1, r.Len())

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Panics(t, func() { r.Register(Func("text", KindLeaf, nil)) })
	assert.Panics(t, func() { r.Register(Func("", KindLeaf, nil)) })
	assert.Panics(t, func() { r.Register(Func("bad/name", KindLeaf, nil)) })
}
