package models

import (
	"time"
)

// CycleReport represents the results of one reconciliation cycle
type CycleReport struct {
	// Cycle details
	ID          string
	SourceRoot  string
	ReplicaRoot string

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats Statistics

	// Changes applied to the replica
	Actions []ItemAction

	// Per-item failures; none of these aborted the cycle
	Errors []ItemError

	// Overall status
	Status CycleStatus
}

// Statistics holds cycle metrics
type Statistics struct {
	SourceFilesScanned  int
	ReplicaFilesScanned int

	FilesCreated   int
	FilesUpdated   int
	FilesUnchanged int
	FilesDeleted   int
	FilesErrored   int

	DirsCreated int
	DirsDeleted int
	DirsErrored int

	BytesTransferred int64
}

// Changes returns the number of create, update and delete actions applied
func (s Statistics) Changes() int {
	return s.FilesCreated + s.FilesUpdated + s.FilesDeleted + s.DirsCreated + s.DirsDeleted
}

// CycleStatus represents the overall result
type CycleStatus string

const (
	// StatusSuccess indicates all operations completed successfully
	StatusSuccess CycleStatus = "success"
	// StatusPartial indicates some operations failed
	StatusPartial CycleStatus = "partial"
	// StatusFailed indicates the cycle failed
	StatusFailed CycleStatus = "failed"
	// StatusCancelled indicates the cycle was cancelled
	StatusCancelled CycleStatus = "cancelled"
)

// ExitCode returns the appropriate exit code for the cycle status
func (s CycleStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// ItemError is a failure scoped to one file or directory
type ItemError struct {
	RelPath   string
	Action    Action
	Err       error
	Timestamp time.Time
}

func (e ItemError) Error() string {
	return string(e.Action) + " " + e.RelPath + ": " + e.Err.Error()
}

func (e ItemError) Unwrap() error {
	return e.Err
}
