package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sdejongh/foldersync/internal/platform"
	"github.com/sdejongh/foldersync/pkg/models"
)

// Filter reports whether a relative path (forward slashes) must be skipped
type Filter func(relPath string, isDir bool) bool

// Local is a filesystem tree rooted at one directory
type Local struct {
	rootPath string
	filter   Filter
}

// NewLocal creates a new local filesystem tree
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	return &Local{rootPath: absPath}, nil
}

// SetFilter installs a filter applied by Scan and Dirs. Excluded
// directories are pruned along with everything below them.
func (l *Local) SetFilter(filter Filter) {
	l.filter = filter
}

// Root returns the absolute root path
func (l *Local) Root() string {
	return l.rootPath
}

// Abs returns the absolute path of a relative path under the root
func (l *Local) Abs(relPath string) string {
	return filepath.Join(l.rootPath, filepath.FromSlash(relPath))
}

// Scan walks the whole tree and returns every regular file keyed by its
// case-insensitive relative path. Any enumeration failure aborts the scan.
func (l *Local) Scan(ctx context.Context) (models.TreeSnapshot, error) {
	snapshot := make(models.TreeSnapshot)

	err := l.walk(ctx, func(p, relPath string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// removed between listing and stat
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		snapshot[platform.Key(relPath)] = models.FileMeta{
			RelPath:      relPath,
			FullPath:     p,
			Size:         info.Size(),
			LastWriteUTC: info.ModTime().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", l.rootPath, err)
	}

	return snapshot, nil
}

// Dirs returns the relative paths (forward slashes) of every directory
// below the root. The root itself is not included.
func (l *Local) Dirs(ctx context.Context) ([]string, error) {
	var dirs []string

	err := l.walk(ctx, func(_, relPath string, d fs.DirEntry) error {
		if d.IsDir() {
			dirs = append(dirs, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list directories of %s: %w", l.rootPath, err)
	}

	return dirs, nil
}

// walk visits every entry below the root with its slash-separated relative
// path, skipping the root and filtered entries
func (l *Local) walk(ctx context.Context, visit func(p, relPath string, d fs.DirEntry) error) error {
	return filepath.WalkDir(l.rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// An entry below the root vanished while walking
			if p != l.rootPath && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if p == l.rootPath {
			return nil
		}

		relPath, err := filepath.Rel(l.rootPath, p)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if l.filter != nil && l.filter(relPath, d.IsDir()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		return visit(p, relPath, d)
	})
}

// MkdirAll creates a directory and all necessary parents. It reports
// whether the directory had to be created.
func (l *Local) MkdirAll(relPath string) (bool, error) {
	fullPath := l.Abs(relPath)

	if info, err := os.Stat(fullPath); err == nil {
		if info.IsDir() {
			return false, nil
		}
		return false, fmt.Errorf("path exists but is not a directory: %s", fullPath)
	}

	if err := os.MkdirAll(fullPath, 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}
	return true, nil
}

// RemoveFile deletes a single file. A file that is already gone counts as
// removed.
func (l *Local) RemoveFile(relPath string) error {
	err := os.Remove(l.Abs(relPath))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// IsEmptyDir reports whether a directory currently has no entries
func (l *Local) IsEmptyDir(relPath string) (bool, error) {
	f, err := os.Open(l.Abs(relPath))
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

// RemoveEmptyDir deletes a directory only if it has no entries. The
// returned bool reports whether it was removed.
func (l *Local) RemoveEmptyDir(relPath string) (bool, error) {
	empty, err := l.IsEmptyDir(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect directory: %w", err)
	}
	if !empty {
		return false, nil
	}

	if err := os.Remove(l.Abs(relPath)); err != nil {
		return false, fmt.Errorf("failed to delete directory: %w", err)
	}
	return true, nil
}
