package robotconfig

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListModels(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "jackal", "plugins: []\n")
	writeModel(t, root, "burger", "plugins: []\n")

	stray := filepath.Join(root, "entities", "robots", "burger", "extra.model.yaml")
	require.NoError(t, os.WriteFile(stray, []byte("plugins: []\n"), 0o644))

	models, err := ListModels(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"burger", "jackal"}, models)
}

func TestListModels_EmptyRoot(t *testing.T) {
	models, err := ListModels(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestModelWatcher_ReportsEdits(t *testing.T) {
	root := t.TempDir()
	path := writeModel(t, root, "burger", "plugins: []\n")

	var (
		mu      sync.Mutex
		changes []ModelChange
	)
	w, err := NewModelWatcher(root, 20*time.Millisecond, func(c ModelChange) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("plugins:\n  - type: Laser\n"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range changes {
			if c.Robot == "burger" && !c.Removed {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}
