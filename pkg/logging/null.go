package logging

import "context"

// NullLogger drops every record. It is the default wherever no logger is
// configured, and test loggers embed it to override only the levels they
// inspect.
type NullLogger struct{}

var _ Logger = NullLogger{}

// NewNullLogger returns a logger that discards everything
func NewNullLogger() NullLogger {
	return NullLogger{}
}

func (NullLogger) Debug(context.Context, string, Fields) {}
func (NullLogger) Info(context.Context, string, Fields) {}
func (NullLogger) Warn(context.Context, string, Fields) {}
func (NullLogger) Error(context.Context, string, error, Fields) {}

// WithFields has nothing to attach fields to
func (l NullLogger) WithFields(Fields) Logger {
	return l
}

func (NullLogger) Close() error {
	return nil
}
