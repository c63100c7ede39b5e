package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sdejongh/foldersync/pkg/ratelimit"
)

// TempSuffix is appended to the target path to name the in-progress copy
const TempSuffix = ".tmp_copy"

// errSourceGone reports a source removed after it was stat'ed
var errSourceGone = errors.New("source file vanished")

// Result describes a finished copy
type Result struct {
	Bytes   int64
	Skipped bool // source vanished or became a directory
}

// Copier copies whole files into place without ever exposing a partial file
// at the target path
type Copier struct {
	bufferPool *sync.Pool
	limiter    *ratelimit.Limiter

	// OnProgress, when set, receives throttled byte counts per file
	OnProgress ProgressFunc

	// BeforeCommit, when set, runs after the temporary file is complete and
	// before it replaces the target. A non-nil error aborts the copy.
	BeforeCommit func(tmpPath string) error
}

// NewCopier creates a copier using buffers of bufferSize bytes. A nil
// limiter means unlimited bandwidth.
func NewCopier(bufferSize int, limiter *ratelimit.Limiter) *Copier {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &Copier{
		limiter: limiter,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// TempPath returns the temporary path used while copying to target
func TempPath(target string) string {
	return target + TempSuffix
}

// Copy replaces target with the content and modification time of source.
// The data lands in TempPath(target) first and is renamed over target once
// it is flushed, so target always holds either the old or the new file.
func (c *Copier) Copy(ctx context.Context, source, target string) (Result, error) {
	srcInfo, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Skipped: true}, nil
		}
		return Result{}, fmt.Errorf("failed to stat source: %w", err)
	}
	if srcInfo.IsDir() {
		return Result{Skipped: true}, nil
	}

	// The temporary file lives next to the target
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return Result{}, fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmpPath := TempPath(target)
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Result{}, fmt.Errorf("failed to remove stale temporary file: %w", err)
	}

	n, err := c.writeTemp(ctx, source, tmpPath, srcInfo.Size())
	if errors.Is(err, errSourceGone) {
		return Result{Skipped: true}, nil
	}
	if err != nil {
		os.Remove(tmpPath)
		return Result{}, err
	}

	// After close, so nothing flushed later can touch the mtime
	mtime := srcInfo.ModTime()
	if err := os.Chtimes(tmpPath, mtime, mtime); err != nil {
		os.Remove(tmpPath)
		return Result{}, fmt.Errorf("failed to set modification time: %w", err)
	}

	if c.BeforeCommit != nil {
		if err := c.BeforeCommit(tmpPath); err != nil {
			os.Remove(tmpPath)
			return Result{}, err
		}
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return Result{}, fmt.Errorf("failed to replace target: %w", err)
	}

	return Result{Bytes: n}, nil
}

// writeTemp streams source into a new file at tmpPath and flushes it to disk
func (c *Copier) writeTemp(ctx context.Context, source, tmpPath string, size int64) (int64, error) {
	src, err := os.Open(source)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, errSourceGone
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	var reader io.Reader = &contextReader{ctx: ctx, reader: src}
	reader = ratelimit.NewReader(ctx, reader, c.limiter)

	pr := &progressReader{reader: reader, total: size}
	if c.OnProgress != nil {
		pr.onProgress = func(copied, total int64) { c.OnProgress(source, copied, total) }
	}

	// Get buffer from pool
	bufPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(bufPtr)

	// Hide ReadFrom so the pooled buffer is actually used
	n, err := io.CopyBuffer(struct{ io.Writer }{dst}, pr, *bufPtr)
	pr.flush()
	if err != nil {
		dst.Close()
		return n, fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Sync(); err != nil {
		dst.Close()
		return n, fmt.Errorf("failed to flush temporary file: %w", err)
	}

	if err := dst.Close(); err != nil {
		return n, fmt.Errorf("failed to close temporary file: %w", err)
	}

	return n, nil
}
