package pedestrian

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andersonmmachado/arena-unity/scene"
)

const actor = `<actor name="walker"><skin>walk.dae</skin></actor>`

func TestCrowd_SpawnAndDelete(t *testing.T) {
	g := scene.NewGraph()
	c := NewCrowd(g)

	pose := scene.Pose{Position: scene.Vector3{X: 1, Y: 2}}
	n, err := c.Spawn("7", actor, pose)
	require.NoError(t, err)

	assert.Equal(t, scene.TagPedestrian, n.Tag())
	assert.Equal(t, scene.ShapeCylinder, g.Shape(n))
	assert.Equal(t, 1.0, n.Pose().Position.X)
	assert.Equal(t, scene.IdentityQuaternion, n.Pose().Orientation)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(7))
	assert.Equal(t, 0, c.Len())

	err = c.Delete(7)
	assert.True(t, errors.Is(err, ErrUnknownAgent))
}

func TestCrowd_IDs(t *testing.T) {
	c := NewCrowd(scene.NewGraph())

	_, err := c.Spawn("3", actor, scene.Pose{})
	require.NoError(t, err)

	_, err = c.Spawn("3", actor, scene.Pose{})
	assert.Error(t, err, "integer ids are unique")

	_, err = c.Spawn("walker", actor, scene.Pose{})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	err = c.Delete(4)
	assert.True(t, errors.Is(err, ErrUnknownAgent), "named agents hold no integer id")

	require.NoError(t, c.Release("walker"))
	assert.True(t, errors.Is(c.Release("walker"), ErrUnknownAgent))
	assert.Equal(t, 1, c.Len())
}

func TestCrowd_NamedAgentsDoNotShadowIDs(t *testing.T) {
	c := NewCrowd(scene.NewGraph())

	_, err := c.Spawn("walker", actor, scene.Pose{})
	require.NoError(t, err)
	_, err = c.Spawn("1", actor, scene.Pose{})
	require.NoError(t, err)

	require.NoError(t, c.Delete(1))
	assert.Equal(t, 1, c.Len(), "walker survives deleting id 1")

	err = c.Delete(1)
	assert.True(t, errors.Is(err, ErrUnknownAgent))
}

func TestCrowd_EmptyDescriptor(t *testing.T) {
	c := NewCrowd(scene.NewGraph())
	_, err := c.Spawn("ped", "", scene.Pose{})
	assert.Error(t, err)
}
