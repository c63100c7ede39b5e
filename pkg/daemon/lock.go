package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var (
	// ErrReplicaLocked is returned when another process already syncs into the replica
	ErrReplicaLocked = errors.New("replica locked by another foldersync process")
)

// DefaultLockPath returns the lock file used for a replica: a hidden file
// next to the replica root, so it never shows up inside the replica tree
func DefaultLockPath(replicaRoot string) string {
	replicaRoot = filepath.Clean(replicaRoot)
	return filepath.Join(filepath.Dir(replicaRoot), "."+filepath.Base(replicaRoot)+".foldersync.lock")
}

// Lock is an advisory single-writer lock on a replica
type Lock struct {
	flock *flock.Flock
}

// AcquireLock takes the lock at path without blocking
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f := flock.New(path)
	locked, err := f.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock replica: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock file %s)", ErrReplicaLocked, path)
	}

	return &Lock{flock: f}, nil
}

// Path returns the lock file path
func (l *Lock) Path() string {
	return l.flock.Path()
}

// Release unlocks and removes the lock file
func (l *Lock) Release() error {
	// nothing to do if this process does not hold the lock
	if !l.flock.Locked() {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock replica: %w", err)
	}

	if err := os.Remove(l.flock.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
