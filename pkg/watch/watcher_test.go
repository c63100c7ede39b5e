package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 100 * time.Millisecond

func startWatcher(t *testing.T, root string, ignore IgnoreFunc) *Watcher {
	t.Helper()
	w := NewWatcher(root, nil)
	w.SetDebounce(testDebounce)
	w.SetIgnore(ignore)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return w
}

func waitTrigger(w *Watcher, timeout time.Duration) bool {
	select {
	case <-w.Trigger():
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestWatcherTriggersOnWrite(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, nil)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))
	assert.True(t, waitTrigger(w, 2*time.Second), "expected a trigger after a write")
}

func TestWatcherRecursive(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deeper"), 0755))
	w := startWatcher(t, root, nil)

	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "deeper", "b.txt"), []byte("b"), 0644))
	assert.True(t, waitTrigger(w, 2*time.Second), "expected a trigger for a nested write")
}

func TestWatcherCoalescesBursts(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, nil)

	for i := 0; i < 20; i++ {
		name := filepath.Join(root, "f"+string(rune('a'+i))+".txt")
		require.NoError(t, os.WriteFile(name, []byte("x"), 0644))
	}

	require.True(t, waitTrigger(w, 2*time.Second))
	assert.False(t, waitTrigger(w, 3*testDebounce), "a single burst should fire once")
}

func TestWatcherIgnore(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, func(relPath string) bool {
		return strings.HasSuffix(relPath, ".tmp")
	})

	require.NoError(t, os.WriteFile(filepath.Join(root, "scratch.tmp"), []byte("x"), 0644))
	assert.False(t, waitTrigger(w, 3*testDebounce), "ignored paths must not trigger")

	require.NoError(t, os.WriteFile(filepath.Join(root, "real.txt"), []byte("x"), 0644))
	assert.True(t, waitTrigger(w, 2*time.Second))
}

func TestWatcherMissingRoot(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
}

func TestWatcherStopIdempotent(t *testing.T) {
	w := NewWatcher(t.TempDir(), nil)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
