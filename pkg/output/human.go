package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/foldersync/pkg/models"
)

// HumanFormatter prints a readable summary after each cycle
type HumanFormatter struct {
	mu         sync.Mutex
	writer     io.Writer
	totalFiles int
	totalBytes int64
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter(writer io.Writer) *HumanFormatter {
	return &HumanFormatter{writer: writer}
}

// Start records the size of the copy pass
func (f *HumanFormatter) Start(totalFiles int, totalBytes int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.totalFiles = totalFiles
	f.totalBytes = totalBytes
	return nil
}

// Progress is silent; every applied action is already logged
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete displays the cycle summary
func (f *HumanFormatter) Complete(report *models.CycleReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return writeSummary(f.writer, report)
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// writeSummary prints the cycle summary shared by the human and progress formatters
func writeSummary(w io.Writer, report *models.CycleReport) error {
	s := report.Stats

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Cycle completed in %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Scanned:      %d source files, %d replica files\n", s.SourceFilesScanned, s.ReplicaFilesScanned)
	fmt.Fprintf(w, "  Files:        %d new, %d updated, %d unchanged, %d deleted, %d errored\n",
		s.FilesCreated, s.FilesUpdated, s.FilesUnchanged, s.FilesDeleted, s.FilesErrored)
	fmt.Fprintf(w, "  Folders:      %d new, %d deleted, %d errored\n", s.DirsCreated, s.DirsDeleted, s.DirsErrored)
	fmt.Fprintf(w, "  Transferred:  %s", humanize.IBytes(uint64(s.BytesTransferred)))

	if report.Duration.Seconds() > 0 && s.BytesTransferred > 0 {
		avgSpeed := float64(s.BytesTransferred) / report.Duration.Seconds()
		fmt.Fprintf(w, " (%s/s)", humanize.IBytes(uint64(avgSpeed)))
	}
	fmt.Fprintf(w, "\n")

	_, err := fmt.Fprintf(w, "Status: %s\n", report.Status)

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  %s %s: %v\n", e.Action, e.RelPath, e.Err)
		}
	}

	return err
}
