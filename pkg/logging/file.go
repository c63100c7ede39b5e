package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotatingFile is an append-only log file that rotates by size.
// It is safe for concurrent use.
type RotatingFile struct {
	path        string
	maxSize     int64 // bytes before rotation, 0 = never rotate
	maxBackups  int
	mu          sync.Mutex
	file        *os.File
	currentSize int64
}

// OpenRotatingFile opens (or creates) path for appending, creating its
// directory when needed
func OpenRotatingFile(path string, maxSize int64, maxBackups int) (*RotatingFile, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &RotatingFile{
		path:        path,
		maxSize:     maxSize,
		maxBackups:  maxBackups,
		file:        file,
		currentSize: info.Size(),
	}, nil
}

// Path returns the active log file path
func (f *RotatingFile) Path() string {
	return f.path
}

// Write appends p, rotating first if the file has reached its size limit
func (f *RotatingFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return 0, os.ErrClosed
	}

	if f.maxSize > 0 && f.currentSize >= f.maxSize {
		if err := f.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := f.file.Write(p)
	f.currentSize += int64(n)
	return n, err
}

// Close closes the underlying file
func (f *RotatingFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// rotate shifts path.N to path.N+1, moves the current file to path.1 and
// reopens path (must be called with lock held)
func (f *RotatingFile) rotate() error {
	f.file.Close()

	for i := f.maxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", f.path, i), fmt.Sprintf("%s.%d", f.path, i+1))
	}

	if f.maxBackups > 0 {
		os.Rename(f.path, f.path+".1")
		os.Remove(fmt.Sprintf("%s.%d", f.path, f.maxBackups+1))
	} else {
		os.Remove(f.path)
	}

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		f.file = nil
		return fmt.Errorf("failed to reopen log file: %w", err)
	}

	f.file = file
	f.currentSize = 0
	return nil
}
