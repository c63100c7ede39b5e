package output

import (
	"io"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/foldersync/pkg/models"
)

const progressTemplate = `{{string . "prefix"}} {{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}`

// getUpdateInterval returns the progress refresh interval based on OS.
// Windows terminals have higher latency with ANSI sequences.
func getUpdateInterval() time.Duration {
	if runtime.GOOS == "windows" {
		return 300 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// ProgressFormatter shows a byte progress bar during the copy pass
type ProgressFormatter struct {
	mu       sync.Mutex
	writer   io.Writer
	bar      *pb.ProgressBar
	copied   map[string]int64 // bytes already added to the bar, per file
	done     int
	total    int
	terminal bool
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter(writer io.Writer) *ProgressFormatter {
	terminal := false
	if file, ok := writer.(*os.File); ok {
		terminal = term.IsTerminal(int(file.Fd()))
	}
	return &ProgressFormatter{
		writer:   writer,
		copied:   make(map[string]int64),
		terminal: terminal,
	}
}

// Start creates the bar for the copy pass. Nothing is shown when there is
// nothing to copy.
func (f *ProgressFormatter) Start(totalFiles int, totalBytes int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finishBar()
	f.copied = make(map[string]int64)
	f.done = 0
	f.total = totalFiles

	if totalFiles == 0 {
		return nil
	}

	bar := pb.New64(totalBytes)
	bar.SetWriter(f.writer)
	bar.SetTemplateString(progressTemplate)
	bar.SetRefreshRate(getUpdateInterval())
	bar.Set(pb.Bytes, true)
	bar.Set(pb.Terminal, f.terminal)
	bar.Set("prefix", f.prefix())
	bar.Start()
	f.bar = bar

	return nil
}

// Progress advances the bar by the bytes copied since the previous update
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar == nil {
		return nil
	}

	switch update.Type {
	case UpdateFileProgress:
		delta := update.BytesWritten - f.copied[update.FilePath]
		if delta > 0 {
			f.bar.Add64(delta)
			f.copied[update.FilePath] = update.BytesWritten
		}

	case UpdateFileComplete, UpdateFileError:
		// Count the rest of the file so the bar ends at 100% even when a
		// copy failed or the file shrank
		if rest := update.TotalBytes - f.copied[update.FilePath]; rest > 0 {
			f.bar.Add64(rest)
		}
		delete(f.copied, update.FilePath)
		f.done++
		f.bar.Set("prefix", f.prefix())
	}

	return nil
}

// Complete stops the bar and displays the cycle summary
func (f *ProgressFormatter) Complete(report *models.CycleReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finishBar()
	return writeSummary(f.writer, report)
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}

func (f *ProgressFormatter) prefix() string {
	return "files " + strconv.Itoa(f.done) + "/" + strconv.Itoa(f.total)
}

// finishBar stops the running bar, if any (must be called with lock held)
func (f *ProgressFormatter) finishBar() {
	if f.bar != nil {
		f.bar.Finish()
		f.bar = nil
	}
}
