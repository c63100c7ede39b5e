package models

import (
	"time"
)

// SyncConfiguration holds everything a reconciliation cycle needs.
// The caller guarantees both roots are absolute and normalized, that the
// source exists, and that neither root contains the other.
type SyncConfiguration struct {
	SourceRoot      string
	ReplicaRoot     string
	UseHashCompare  bool
	HashAlgorithm   HashAlgorithm
	Tolerance       time.Duration // mtime delta below which files are unchanged
	MaxWorkers      int
	BufferSize      int
	BandwidthLimit  int64 // bytes per second, 0 = unlimited
	ExcludePatterns []string
}

// Validate checks if the configuration is usable by the reconciler
func (c *SyncConfiguration) Validate() error {
	if c.SourceRoot == "" {
		return &ValidationError{Field: "SourceRoot", Message: "source path is required"}
	}
	if c.ReplicaRoot == "" {
		return &ValidationError{Field: "ReplicaRoot", Message: "replica path is required"}
	}
	if c.UseHashCompare && !c.HashAlgorithm.Valid() {
		return &ValidationError{Field: "HashAlgorithm", Message: "unsupported hash algorithm: " + string(c.HashAlgorithm)}
	}
	if c.Tolerance < 0 {
		return &ValidationError{Field: "Tolerance", Message: "tolerance cannot be negative"}
	}
	if c.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	if c.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	if c.BandwidthLimit < 0 {
		return &ValidationError{Field: "BandwidthLimit", Message: "bandwidth limit cannot be negative"}
	}
	return nil
}

// ValidationError represents a configuration error detected before any cycle runs
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
