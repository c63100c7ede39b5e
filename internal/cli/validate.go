package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/sdejongh/foldersync/internal/platform"
	"github.com/sdejongh/foldersync/pkg/config"
	"github.com/sdejongh/foldersync/pkg/models"
)

// ValidatePaths normalizes the source and replica roots and checks that one
// can be synced into the other. The replica is created when missing and
// createReplica is set. Every failure is a *models.ValidationError.
func ValidatePaths(source, replica string, createReplica bool) (string, string, error) {
	src, err := platform.NormalizeRoot(source)
	if err != nil {
		return "", "", &models.ValidationError{Field: "source", Message: err.Error()}
	}
	dst, err := platform.NormalizeRoot(replica)
	if err != nil {
		return "", "", &models.ValidationError{Field: "replica", Message: err.Error()}
	}

	info, err := os.Stat(src)
	if err != nil {
		return "", "", &models.ValidationError{Field: "source", Message: fmt.Sprintf("folder does not exist: '%s'", src)}
	}
	if !info.IsDir() {
		return "", "", &models.ValidationError{Field: "source", Message: fmt.Sprintf("not a folder: '%s'", src)}
	}

	if platform.SamePath(src, dst) {
		return "", "", &models.ValidationError{Message: "source and replica folder paths must be different"}
	}
	if platform.IsNested(src, dst) || platform.IsNested(dst, src) {
		return "", "", &models.ValidationError{Message: "source and replica folders cannot be nested"}
	}

	info, err = os.Stat(dst)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !createReplica {
			return "", "", &models.ValidationError{Field: "replica", Message: fmt.Sprintf("folder does not exist: '%s'", dst)}
		}
		if err := os.MkdirAll(dst, 0755); err != nil {
			return "", "", &models.ValidationError{Field: "replica", Message: fmt.Sprintf("failed to create folder: %v", err)}
		}
	case err != nil:
		return "", "", &models.ValidationError{Field: "replica", Message: err.Error()}
	case !info.IsDir():
		return "", "", &models.ValidationError{Field: "replica", Message: fmt.Sprintf("not a folder: '%s'", dst)}
	}

	return src, dst, nil
}

// loadConfig loads configuration from --config or the default location
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(globalFlags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// applyFlagsToConfig overrides config values with the flags that were set
// explicitly on the command line
func applyFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) {
	if flagChanged(flags, "interval") {
		cfg.Sync.Interval = time.Duration(syncFlags.Interval) * time.Second
	}
	if flagChanged(flags, "hash") {
		cfg.Sync.HashCompare = syncFlags.Hash
	}
	if flagChanged(flags, "hash-algorithm") {
		cfg.Sync.HashAlgorithm = models.HashAlgorithm(syncFlags.HashAlgorithm)
		// choosing an algorithm implies hashing
		if !flagChanged(flags, "hash") {
			cfg.Sync.HashCompare = true
		}
	}
	if flagChanged(flags, "tolerance") {
		cfg.Sync.Tolerance = syncFlags.Tolerance
	}

	if flagChanged(flags, "workers") {
		cfg.Performance.MaxWorkers = syncFlags.Workers
	}
	if flagChanged(flags, "bandwidth") {
		cfg.Performance.BandwidthLimit = syncFlags.Bandwidth
	}

	if flagChanged(flags, "exclude") {
		cfg.Exclude = append(cfg.Exclude, syncFlags.Exclude...)
	}

	if flagChanged(flags, "log") {
		cfg.Logging.File = syncFlags.LogFile
	}

	if flagChanged(flags, "output") {
		cfg.Output.Format = syncFlags.Output
	}
	if flagChanged(flags, "progress") {
		cfg.Output.Progress = syncFlags.Progress
	}

	if flagChanged(flags, "watch") {
		cfg.Watch = syncFlags.Watch
	}
	if flagChanged(flags, "metrics-addr") {
		cfg.MetricsAddr = syncFlags.MetricsAddr
	}
	if flagChanged(flags, "lock-file") {
		cfg.LockFile = syncFlags.LockFile
	}

	// The progress bar would garble quiet output
	if globalFlags.Quiet {
		cfg.Output.Progress = false
	}
}
