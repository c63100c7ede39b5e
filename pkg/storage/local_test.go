package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a file (and its parents) under root
func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestNewLocal(t *testing.T) {
	t.Run("ExistingDirectory", func(t *testing.T) {
		dir := t.TempDir()
		l, err := NewLocal(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, l.Root())
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		_, err := NewLocal(filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})

	t.Run("RegularFile", func(t *testing.T) {
		p := writeFile(t, t.TempDir(), "file.txt", "x")
		_, err := NewLocal(p)
		assert.ErrorContains(t, err, "not a directory")
	})
}

func TestLocalScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	writeFile(t, root, "Sub/B.txt", "world!")
	writeFile(t, root, "sub/deeper/c.bin", "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))

	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	require.NoError(t, os.Chtimes(filepath.Join(root, "a.txt"), mtime, mtime))

	l, err := NewLocal(root)
	require.NoError(t, err)

	snap, err := l.Scan(context.Background())
	require.NoError(t, err)

	t.Run("OnlyFiles", func(t *testing.T) {
		keys := make([]string, 0, len(snap))
		for k := range snap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		assert.Equal(t, []string{"a.txt", "sub/b.txt", "sub/deeper/c.bin"}, keys)
	})

	t.Run("Metadata", func(t *testing.T) {
		a := snap["a.txt"]
		assert.Equal(t, "a.txt", a.RelPath)
		assert.Equal(t, filepath.Join(root, "a.txt"), a.FullPath)
		assert.Equal(t, int64(5), a.Size)
		assert.Equal(t, time.UTC, a.LastWriteUTC.Location())
		assert.True(t, a.LastWriteUTC.Equal(mtime))
	})

	t.Run("KeepsOriginalCase", func(t *testing.T) {
		assert.Equal(t, "Sub/B.txt", snap["sub/b.txt"].RelPath)
	})
}

func TestLocalScanFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.txt", "k")
	writeFile(t, root, "skip.tmp", "s")
	writeFile(t, root, "cache/inner.txt", "c")

	l, err := NewLocal(root)
	require.NoError(t, err)
	l.SetFilter(func(rel string, isDir bool) bool {
		return strings.HasSuffix(rel, ".tmp") || (isDir && rel == "cache")
	})

	snap, err := l.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap, 1)
	assert.Contains(t, snap, "keep.txt")

	dirs, err := l.Dirs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestLocalScanCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")

	l, err := NewLocal(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalScanRootRemoved(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	require.NoError(t, os.Mkdir(root, 0755))

	l, err := NewLocal(root)
	require.NoError(t, err)
	require.NoError(t, os.Remove(root))

	_, err = l.Scan(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocalDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "x/y/z.txt", "z")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "nested"), 0755))

	l, err := NewLocal(root)
	require.NoError(t, err)

	dirs, err := l.Dirs(context.Background())
	require.NoError(t, err)
	sort.Strings(dirs)
	assert.Equal(t, []string{"empty", "empty/nested", "x", "x/y"}, dirs)
}

func TestLocalMkdirAll(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root)
	require.NoError(t, err)

	t.Run("CreateNestedDirs", func(t *testing.T) {
		created, err := l.MkdirAll("a/b/c")
		require.NoError(t, err)
		assert.True(t, created)
		assert.DirExists(t, filepath.Join(root, "a", "b", "c"))
	})

	t.Run("ExistingDir", func(t *testing.T) {
		created, err := l.MkdirAll("a/b")
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("FileInTheWay", func(t *testing.T) {
		writeFile(t, root, "blocker", "x")
		_, err := l.MkdirAll("blocker")
		assert.Error(t, err)
	})
}

func TestLocalRemoveFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gone.txt", "x")

	l, err := NewLocal(root)
	require.NoError(t, err)

	require.NoError(t, l.RemoveFile("gone.txt"))
	assert.NoFileExists(t, filepath.Join(root, "gone.txt"))

	// already missing is not an error
	assert.NoError(t, l.RemoveFile("gone.txt"))
}

func TestLocalRemoveEmptyDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "full/file.txt", "x")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))

	l, err := NewLocal(root)
	require.NoError(t, err)

	t.Run("Empty", func(t *testing.T) {
		removed, err := l.RemoveEmptyDir("empty")
		require.NoError(t, err)
		assert.True(t, removed)
		assert.NoDirExists(t, filepath.Join(root, "empty"))
	})

	t.Run("NotEmpty", func(t *testing.T) {
		removed, err := l.RemoveEmptyDir("full")
		require.NoError(t, err)
		assert.False(t, removed)
		assert.DirExists(t, filepath.Join(root, "full"))
	})

	t.Run("Missing", func(t *testing.T) {
		removed, err := l.RemoveEmptyDir("nope")
		require.NoError(t, err)
		assert.False(t, removed)
	})
}
