package plugins

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnFileChanges(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "ping.yaml", "title: Ping\naliases: [ping]\nhandler: ping\n")

	r := NewRegistry(root, noopCatalog(), nil)
	require.NoError(t, r.Load())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Watch(ctx))

	// Adding a unit makes its alias resolvable without an explicit Load.
	writePlugin(t, root, "extra.yaml", "title: Extra\naliases: [extra]\nhandler: menu\n")
	assert.Eventually(t, func() bool {
		_, ok := r.Resolve("extra")
		return ok
	}, 3*time.Second, 20*time.Millisecond, "new plugin never became resolvable")

	// Removing it drops the alias on the next reload.
	require.NoError(t, os.Remove(filepath.Join(root, "extra.yaml")))
	assert.Eventually(t, func() bool {
		_, ok := r.Resolve("extra")
		return !ok
	}, 3*time.Second, 20*time.Millisecond, "removed plugin still resolvable")
}
