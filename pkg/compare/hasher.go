package compare

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/sdejongh/foldersync/pkg/models"
)

// ReaderWrapper wraps the reader of a file being hashed (e.g., for rate limiting)
type ReaderWrapper func(ctx context.Context, r io.Reader) io.Reader

// Hasher computes content checksums by streaming files through a pooled buffer
type Hasher struct {
	algorithm     models.HashAlgorithm
	newHash       func() hash.Hash
	bufferPool    *sync.Pool
	readerWrapper ReaderWrapper
}

// NewHasher creates a hasher for the given algorithm
func NewHasher(algorithm models.HashAlgorithm, bufferSize int) (*Hasher, error) {
	var newHash func() hash.Hash
	switch algorithm {
	case models.HashXXH64, "":
		algorithm = models.HashXXH64
		newHash = func() hash.Hash { return xxhash.New() }
	case models.HashMD5:
		newHash = md5.New
	case models.HashSHA256:
		newHash = sha256.New
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}

	if bufferSize < 4096 {
		bufferSize = 4096
	}

	return &Hasher{
		algorithm: algorithm,
		newHash:   newHash,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}, nil
}

// Algorithm returns the checksum algorithm in use
func (h *Hasher) Algorithm() models.HashAlgorithm {
	return h.algorithm
}

// SetReaderWrapper sets a function to wrap readers (e.g., for rate limiting)
func (h *Hasher) SetReaderWrapper(wrapper ReaderWrapper) {
	h.readerWrapper = wrapper
}

// HashFile returns the hex checksum of a file's content
func (h *Hasher) HashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return h.Hash(ctx, f)
}

// Hash returns the hex checksum of everything readable from r
func (h *Hasher) Hash(ctx context.Context, r io.Reader) (string, error) {
	if h.readerWrapper != nil {
		r = h.readerWrapper(ctx, r)
	}

	sum := h.newHash()

	// Get buffer from pool
	bufPtr := h.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer h.bufferPool.Put(bufPtr)

	for {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := r.Read(buffer)
		if n > 0 {
			sum.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	return hex.EncodeToString(sum.Sum(nil)), nil
}
