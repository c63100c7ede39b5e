package compare

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sdejongh/foldersync/pkg/models"
)

// DefaultTolerance is the largest mtime difference still treated as equal.
// It absorbs the 2s timestamp granularity of FAT filesystems.
const DefaultTolerance = 2 * time.Second

// Classifier decides whether a source file must be copied to the replica
type Classifier struct {
	// Tolerance is the mtime window; a difference strictly greater is an update
	Tolerance time.Duration

	// Hasher, when set, confirms files whose timestamps match by comparing
	// content checksums
	Hasher *Hasher
}

// NewClassifier creates a classifier. A nil hasher disables content comparison.
func NewClassifier(tolerance time.Duration, hasher *Hasher) *Classifier {
	return &Classifier{
		Tolerance: tolerance,
		Hasher:    hasher,
	}
}

// Classify compares a source file with its replica counterpart. dst is nil
// when the replica has no entry under the same key.
func (c *Classifier) Classify(ctx context.Context, src models.FileMeta, dst *models.FileMeta) (models.Decision, error) {
	if dst == nil {
		return models.DecisionCreate, nil
	}

	delta := src.LastWriteUTC.Sub(dst.LastWriteUTC)
	if delta < 0 {
		delta = -delta
	}
	if delta > c.Tolerance {
		return models.DecisionUpdate, nil
	}

	if c.Hasher == nil {
		return models.DecisionUnchanged, nil
	}

	// Different sizes cannot hash equal
	if src.Size != dst.Size {
		return models.DecisionUpdate, nil
	}

	equal, err := c.sameContent(ctx, src.FullPath, dst.FullPath)
	if err != nil {
		return "", err
	}
	if equal {
		return models.DecisionUnchanged, nil
	}
	return models.DecisionUpdate, nil
}

// sameContent hashes both files in parallel and compares the checksums
func (c *Classifier) sameContent(ctx context.Context, sourcePath, replicaPath string) (bool, error) {
	var sourceHash, replicaHash string
	var sourceErr, replicaErr error
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		sourceHash, sourceErr = c.Hasher.HashFile(ctx, sourcePath)
	}()
	go func() {
		defer wg.Done()
		replicaHash, replicaErr = c.Hasher.HashFile(ctx, replicaPath)
	}()
	wg.Wait()

	if sourceErr != nil {
		return false, fmt.Errorf("failed to compute source hash: %w", sourceErr)
	}
	if replicaErr != nil {
		return false, fmt.Errorf("failed to compute replica hash: %w", replicaErr)
	}

	return sourceHash == replicaHash, nil
}
