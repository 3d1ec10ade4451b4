//go:build integration

package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andersonmmachado/arena-unity/scene"
)

func newTestStore(t *testing.T) *StateStore {
	t.Helper()
	tc := natsclient.NewTestClient(t, natsclient.WithJetStream())
	js, err := tc.Client.JetStream()
	require.NoError(t, err)

	store, err := NewStateStore(context.Background(), js, "")
	require.NoError(t, err)
	return store
}

func TestStateStore_PutGetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &EntityRecord{Name: "burger", Kind: "robot",
		Pose: scene.Pose{Position: scene.Vector3{X: 1}}}
	require.NoError(t, store.Put(ctx, rec))
	require.NotEmpty(t, rec.ID)
	firstID := rec.ID

	moved := &EntityRecord{Name: "burger", Kind: "robot",
		Pose: scene.Pose{Position: scene.Vector3{X: 5}}}
	require.NoError(t, store.Put(ctx, moved))
	assert.Equal(t, firstID, moved.ID, "id survives updates")

	got, err := store.Get(ctx, "burger")
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Pose.Position.X)

	require.NoError(t, store.Delete(ctx, "burger"))
	_, err = store.Get(ctx, "burger")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, store.Delete(ctx, "burger"))
}

func TestStateStore_ListAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "my robot", "alpha"} {
		require.NoError(t, store.Put(ctx, &EntityRecord{Name: name, Kind: "generic"}))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "my robot", list[1].Name)

	require.NoError(t, store.Clear(ctx))
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
