package output

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/sdejongh/foldersync/pkg/models"
)

// JSONFormatter writes one JSON document per cycle for automation and scripting
type JSONFormatter struct {
	mu     sync.Mutex
	writer io.Writer
}

// JSONReportData represents the final report data
type JSONReportData struct {
	ID          string           `json:"id"`
	SourceRoot  string           `json:"source"`
	ReplicaRoot string           `json:"replica"`
	StartTime   time.Time        `json:"start_time"`
	Status      string           `json:"status"`
	Duration    string           `json:"duration"`
	DurationMs  int64            `json:"duration_ms"`
	Stats       JSONStatsData    `json:"stats"`
	Actions     []JSONActionData `json:"actions,omitempty"`
	Errors      []JSONErrorData  `json:"errors,omitempty"`
}

// JSONStatsData represents statistics in JSON format
type JSONStatsData struct {
	SourceFiles      int   `json:"source_files"`
	ReplicaFiles     int   `json:"replica_files"`
	FilesCreated     int   `json:"files_created"`
	FilesUpdated     int   `json:"files_updated"`
	FilesUnchanged   int   `json:"files_unchanged"`
	FilesDeleted     int   `json:"files_deleted"`
	FilesErrored     int   `json:"files_errored"`
	DirsCreated      int   `json:"dirs_created"`
	DirsDeleted      int   `json:"dirs_deleted"`
	DirsErrored      int   `json:"dirs_errored"`
	BytesTransferred int64 `json:"bytes_transferred"`
}

// JSONActionData represents one change applied to the replica
type JSONActionData struct {
	Action string `json:"action"`
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes,omitempty"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Action string `json:"action"`
	Path   string `json:"path"`
	Error  string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: writer}
}

// Start does nothing; only the final report is written
func (f *JSONFormatter) Start(totalFiles int, totalBytes int64) error {
	return nil
}

// Progress does nothing to keep the output parseable
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete writes the cycle report as a single JSON line
func (f *JSONFormatter) Complete(report *models.CycleReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return json.NewEncoder(f.writer).Encode(NewJSONReport(report))
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

// NewJSONReport converts a cycle report to its JSON representation
func NewJSONReport(report *models.CycleReport) JSONReportData {
	s := report.Stats
	data := JSONReportData{
		ID:          report.ID,
		SourceRoot:  report.SourceRoot,
		ReplicaRoot: report.ReplicaRoot,
		StartTime:   report.StartTime,
		Status:      string(report.Status),
		Duration:    report.Duration.Round(time.Millisecond).String(),
		DurationMs:  report.Duration.Milliseconds(),
		Stats: JSONStatsData{
			SourceFiles:      s.SourceFilesScanned,
			ReplicaFiles:     s.ReplicaFilesScanned,
			FilesCreated:     s.FilesCreated,
			FilesUpdated:     s.FilesUpdated,
			FilesUnchanged:   s.FilesUnchanged,
			FilesDeleted:     s.FilesDeleted,
			FilesErrored:     s.FilesErrored,
			DirsCreated:      s.DirsCreated,
			DirsDeleted:      s.DirsDeleted,
			DirsErrored:      s.DirsErrored,
			BytesTransferred: s.BytesTransferred,
		},
	}

	for _, a := range report.Actions {
		data.Actions = append(data.Actions, JSONActionData{
			Action: string(a.Action),
			Path:   a.RelPath,
			Bytes:  a.Bytes,
		})
	}
	for _, e := range report.Errors {
		data.Errors = append(data.Errors, JSONErrorData{
			Action: string(e.Action),
			Path:   e.RelPath,
			Error:  e.Err.Error(),
		})
	}

	return data
}
