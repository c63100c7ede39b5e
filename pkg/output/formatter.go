package output

import (
	"fmt"
	"io"
	"os"

	"github.com/sdejongh/foldersync/pkg/models"
)

// UpdateType identifies what a ProgressUpdate reports
type UpdateType string

const (
	UpdateFileStart    UpdateType = "file_start"
	UpdateFileProgress UpdateType = "file_progress"
	UpdateFileComplete UpdateType = "file_complete"
	UpdateFileError    UpdateType = "file_error"
)

// ProgressUpdate represents a progress notification during the copy pass
type ProgressUpdate struct {
	Type         UpdateType
	FilePath     string
	Action       models.Action
	BytesWritten int64
	TotalBytes   int64
	Error        error
}

// Formatter defines the interface for cycle output.
// Progress may be called from several copy workers at once.
type Formatter interface {
	// Start announces the copy pass of a cycle
	Start(totalFiles int, totalBytes int64) error

	// Progress reports progress during the copy pass
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays the cycle summary
	Complete(report *models.CycleReport) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter for a format name ("human" or "json"). The
// progress bar replaces the human formatter when progress is requested.
func New(format string, progress bool, writer io.Writer) (Formatter, error) {
	if writer == nil {
		writer = os.Stdout
	}
	switch format {
	case "", "human":
		if progress {
			return NewProgressFormatter(writer), nil
		}
		return NewHumanFormatter(writer), nil
	case "json":
		return NewJSONFormatter(writer), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}
