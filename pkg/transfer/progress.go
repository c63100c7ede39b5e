package transfer

import (
	"context"
	"io"
	"time"
)

// Progress reporting thresholds
const (
	progressReportInterval = 50 * time.Millisecond // Minimum time between progress reports
	progressReportBytes    = 64 * 1024             // Minimum bytes between reports (64KB)
)

// ProgressFunc receives the running byte count of a file being copied,
// identified by its source path
type ProgressFunc func(sourcePath string, copied, total int64)

// progressReader wraps an io.Reader to report throttled progress
type progressReader struct {
	reader         io.Reader
	total          int64
	read           int64
	lastReported   int64
	lastReportTime time.Time
	onProgress     func(copied, total int64)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)

		if pr.onProgress != nil {
			shouldReport := pr.read-pr.lastReported >= progressReportBytes ||
				time.Since(pr.lastReportTime) >= progressReportInterval ||
				err != nil

			if shouldReport {
				pr.onProgress(pr.read, pr.total)
				pr.lastReported = pr.read
				pr.lastReportTime = time.Now()
			}
		}
	}
	return n, err
}

// flush reports the final count if the last read was not reported
func (pr *progressReader) flush() {
	if pr.onProgress != nil && pr.read > pr.lastReported {
		pr.onProgress(pr.read, pr.total)
	}
}

// contextReader stops reading once its context is done
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.reader.Read(p)
}
