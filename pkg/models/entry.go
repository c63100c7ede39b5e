package models

import (
	"time"
)

// FileMeta describes one regular file found during a scan.
// It is recomputed every cycle and never persisted.
type FileMeta struct {
	// RelPath is the path relative to the scanned root, with forward
	// slashes and the casing found on disk
	RelPath string

	// FullPath is the absolute path at scan time
	FullPath string

	// Size in bytes at scan time (informational)
	Size int64

	// LastWriteUTC is the last modification time, normalized to UTC
	LastWriteUTC time.Time
}

// TreeSnapshot maps a case-insensitive relative path key to the file found
// under that path. Directories are never entries.
type TreeSnapshot map[string]FileMeta

// TotalBytes returns the sum of all file sizes in the snapshot
func (s TreeSnapshot) TotalBytes() int64 {
	var total int64
	for _, m := range s {
		total += m.Size
	}
	return total
}

// Action is the tag attached to a change applied to the replica
type Action string

const (
	// ActionNew copies a file that does not exist in the replica yet
	ActionNew Action = "new"
	// ActionUpdate replaces a replica file whose source changed
	ActionUpdate Action = "update"
	// ActionDeleteFile removes a replica file with no source counterpart
	ActionDeleteFile Action = "del file"
	// ActionCreateDir creates a replica directory mirroring the source
	ActionCreateDir Action = "new folder"
	// ActionDeleteDir removes an empty orphan replica directory
	ActionDeleteDir Action = "del folder"
	// ActionCompare is used for failures while classifying a file
	ActionCompare Action = "compare"
)

// ItemAction records one change applied to the replica during a cycle
type ItemAction struct {
	Action  Action
	RelPath string
	Bytes   int64
}
