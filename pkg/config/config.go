package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"

	"github.com/sdejongh/foldersync/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Sync        SyncConfig        `yaml:"sync"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	Exclude     []string          `yaml:"exclude"`
	LockFile    string            `yaml:"lock_file,omitempty"`    // empty = next to the replica
	MetricsAddr string            `yaml:"metrics_addr,omitempty"` // empty = disabled
	Watch       bool              `yaml:"watch"`
}

// SyncConfig holds sync-related settings
type SyncConfig struct {
	Interval      time.Duration        `yaml:"interval"`
	HashCompare   bool                 `yaml:"hash_compare"`
	HashAlgorithm models.HashAlgorithm `yaml:"hash_algorithm"`
	Tolerance     time.Duration        `yaml:"tolerance"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	MaxWorkers     int    `yaml:"max_workers"`
	BufferSize     int    `yaml:"buffer_size"`
	BandwidthLimit string `yaml:"bandwidth_limit,omitempty"` // e.g. "10MB", empty = unlimited
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show a progress bar during copies
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	File       string `yaml:"file,omitempty"`     // Log file path (empty = console only)
	Format     string `yaml:"format"`             // "text" or "json"
	Level      string `yaml:"level"`              // "debug", "info", "warn", "error"
	MaxSize    string `yaml:"max_size,omitempty"` // rotate the file past this size, empty = never
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			Interval:      60 * time.Second,
			HashCompare:   false,
			HashAlgorithm: models.HashXXH64,
			Tolerance:     2 * time.Second,
		},
		Performance: PerformanceConfig{
			MaxWorkers: 4,
			BufferSize: 65536,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: false,
		},
		Logging: LoggingConfig{
			Format:     "text",
			Level:      "info",
			MaxBackups: 3,
		},
		Exclude: []string{},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Sync.Interval <= 0 {
		return &models.ValidationError{
			Field:   "sync.interval",
			Message: "must be greater than zero",
		}
	}

	if !c.Sync.HashAlgorithm.Valid() {
		return &models.ValidationError{
			Field:   "sync.hash_algorithm",
			Message: "must be 'xxhash', 'md5', or 'sha256'",
		}
	}

	if c.Sync.Tolerance < 0 {
		return &models.ValidationError{
			Field:   "sync.tolerance",
			Message: "cannot be negative",
		}
	}

	if c.Performance.MaxWorkers < 1 {
		return &models.ValidationError{
			Field:   "performance.max_workers",
			Message: "must be at least 1",
		}
	}

	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if _, err := c.BandwidthBytes(); err != nil {
		return err
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if _, err := c.LogMaxSizeBytes(); err != nil {
		return err
	}

	if c.Logging.MaxBackups < 0 {
		return &models.ValidationError{
			Field:   "logging.max_backups",
			Message: "cannot be negative",
		}
	}

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(strings.ReplaceAll(pattern, `\`, "/")) {
			return &models.ValidationError{
				Field:   "exclude",
				Message: fmt.Sprintf("invalid pattern %q", pattern),
			}
		}
	}

	return nil
}

// BandwidthBytes returns the bandwidth limit in bytes per second, 0 when unlimited
func (c *Config) BandwidthBytes() (int64, error) {
	return parseSize("performance.bandwidth_limit", c.Performance.BandwidthLimit)
}

// LogMaxSizeBytes returns the log rotation threshold in bytes, 0 when disabled
func (c *Config) LogMaxSizeBytes() (int64, error) {
	return parseSize("logging.max_size", c.Logging.MaxSize)
}

// SyncConfiguration builds the per-cycle settings for a source and replica pair
func (c *Config) SyncConfiguration(source, replica string) (models.SyncConfiguration, error) {
	bandwidth, err := c.BandwidthBytes()
	if err != nil {
		return models.SyncConfiguration{}, err
	}

	return models.SyncConfiguration{
		SourceRoot:      source,
		ReplicaRoot:     replica,
		UseHashCompare:  c.Sync.HashCompare,
		HashAlgorithm:   c.Sync.HashAlgorithm,
		Tolerance:       c.Sync.Tolerance,
		MaxWorkers:      c.Performance.MaxWorkers,
		BufferSize:      c.Performance.BufferSize,
		BandwidthLimit:  bandwidth,
		ExcludePatterns: append([]string(nil), c.Exclude...),
	}, nil
}

// parseSize parses a human size such as "10MB" or "1.5GiB"
func parseSize(field, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, &models.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("invalid size %q", s),
		}
	}
	return int64(n), nil
}
