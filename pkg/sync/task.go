package sync

import (
	"time"

	"github.com/sdejongh/foldersync/pkg/models"
)

// FileTask is one file scheduled for the copy pass
type FileTask struct {
	// Source is the scanned source file
	Source models.FileMeta

	// Target is the absolute replica path written by the copy. For updates
	// it keeps the casing already present in the replica.
	Target string

	// Decision is Create or Update
	Decision models.Decision

	// Skipped is set when the source vanished before it could be copied
	Skipped bool

	// Error holds any error that occurred during the copy
	Error error

	// BytesTransferred tracks how many bytes were actually transferred
	BytesTransferred int64

	// Duration tracks how long the copy took
	Duration time.Duration
}

// NewFileTask creates a copy task for a classified source file
func NewFileTask(src models.FileMeta, target string, decision models.Decision) *FileTask {
	return &FileTask{
		Source:   src,
		Target:   target,
		Decision: decision,
	}
}

// Action returns the tag logged for this task
func (t *FileTask) Action() models.Action {
	return t.Decision.Action()
}

// MarkCompleted records a successful copy
func (t *FileTask) MarkCompleted(bytesTransferred int64, duration time.Duration) {
	t.BytesTransferred = bytesTransferred
	t.Duration = duration
}

// MarkSkipped records a copy that found no source file
func (t *FileTask) MarkSkipped(duration time.Duration) {
	t.Skipped = true
	t.Duration = duration
}

// MarkError marks the task as failed with an error
func (t *FileTask) MarkError(err error, duration time.Duration) {
	t.Error = err
	t.Duration = duration
}
