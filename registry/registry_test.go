package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andersonmmachado/arena-unity/scene"
)

func TestRegistry(t *testing.T) {
	g := scene.NewGraph()
	r := New()

	a := g.NewNode("a", nil)
	b := g.NewNode("b", nil)

	require.NoError(t, r.Insert("b", b))
	require.NoError(t, r.Insert("a", a))
	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Equal(t, 2, r.Len())

	got, ok := r.Lookup("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	err := r.Insert("a", b)
	assert.True(t, errors.Is(err, ErrDuplicate))
	got, _ = r.Lookup("a")
	assert.Same(t, a, got, "duplicate insert keeps the original")

	removed, ok := r.Remove("a")
	require.True(t, ok)
	assert.Same(t, a, removed)
	assert.False(t, r.Contains("a"))

	_, ok = r.Remove("a")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}
