package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Format represents the log file format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

const consoleTimeFormat = "2006-01-02 15:04:05.000 -07:00"

// Config holds configuration for the console and file sinks
type Config struct {
	// Console receives colored human-readable output (default os.Stdout).
	// Color is disabled when it is not a terminal.
	Console io.Writer
	// ConsoleLevel is the minimum level written to the console
	ConsoleLevel Level
	// DisableConsole turns the console sink off
	DisableConsole bool

	// FilePath enables the append-only file sink when non-empty
	FilePath string
	// FileFormat is the file output format (json or text)
	FileFormat Format
	// FileLevel is the minimum level written to the file
	FileLevel Level
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of backup files to keep
	MaxBackups int
}

// SlogLogger implements Logger on top of log/slog
type SlogLogger struct {
	logger *slog.Logger
	file   *RotatingFile
}

// New creates a logger writing to the console and, when configured, to a file
func New(config Config) (*SlogLogger, error) {
	var handlers []slog.Handler
	var file *RotatingFile

	if !config.DisableConsole {
		console := config.Console
		if console == nil {
			console = os.Stdout
		}
		handlers = append(handlers, tint.NewHandler(console, &tint.Options{
			Level:      slogLevel(config.ConsoleLevel),
			TimeFormat: consoleTimeFormat,
			NoColor:    !isTerminal(console),
		}))
	}

	if config.FilePath != "" {
		f, err := OpenRotatingFile(config.FilePath, config.MaxSize, config.MaxBackups)
		if err != nil {
			return nil, err
		}
		file = f

		opts := &slog.HandlerOptions{Level: slogLevel(config.FileLevel)}
		if config.FileFormat == FormatJSON {
			handlers = append(handlers, slog.NewJSONHandler(f, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(f, opts))
		}
	}

	return &SlogLogger{
		logger: slog.New(NewMultiHandler(handlers...)),
		file:   file,
	}, nil
}

// NewWithHandler wraps an existing slog handler
func NewWithHandler(handler slog.Handler) *SlogLogger {
	return &SlogLogger{logger: slog.New(handler)}
}

// Slog returns the underlying slog logger
func (l *SlogLogger) Slog() *slog.Logger {
	return l.logger
}

// Debug logs a debug message
func (l *SlogLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs(fields)...)
}

// Info logs an info message
func (l *SlogLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs(fields)...)
}

// Warn logs a warning message
func (l *SlogLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs(fields)...)
}

// Error logs an error message
func (l *SlogLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	a := attrs(fields)
	if err != nil {
		a = append(a, tint.Err(err))
	}
	l.logger.LogAttrs(ctx, slog.LevelError, msg, a...)
}

// WithFields returns a logger with additional fields. The returned logger
// shares the file sink; closing either closes it.
func (l *SlogLogger) WithFields(fields Fields) Logger {
	args := make([]any, 0, len(fields))
	for _, a := range attrs(fields) {
		args = append(args, a)
	}
	return &SlogLogger{
		logger: l.logger.With(args...),
		file:   l.file,
	}
}

// Close flushes and closes the logger
func (l *SlogLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// attrs converts fields to attributes in key order
func attrs(fields Fields) []slog.Attr {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		out = append(out, slog.Any(k, fields[k]))
	}
	return out
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
