package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sdejongh/foldersync/pkg/config"
	"github.com/sdejongh/foldersync/pkg/daemon"
	"github.com/sdejongh/foldersync/pkg/logging"
	"github.com/sdejongh/foldersync/pkg/metrics"
	"github.com/sdejongh/foldersync/pkg/models"
	"github.com/sdejongh/foldersync/pkg/output"
	"github.com/sdejongh/foldersync/pkg/sync"
	"github.com/sdejongh/foldersync/pkg/watch"
)

// SyncFlags holds sync command flags
type SyncFlags struct {
	Source        string
	Replica       string
	Interval      int
	LogFile       string
	Hash          bool
	HashAlgorithm string
	Tolerance     time.Duration
	Workers       int
	Exclude       []string
	Bandwidth     string
	Once          bool
	Watch         bool
	MetricsAddr   string
	LockFile      string
	Output        string
	Progress      bool
}

var syncFlags SyncFlags

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Keep a replica folder identical to a source folder",
		Long: `Periodically reconcile the replica folder with the source folder.
New and changed files are copied, files and folders missing from the source
are removed from the replica. Runs until interrupted, or once with --once.`,
		Example: `  foldersync sync -s /data/photos -r /mnt/backup/photos -i 30 -l /var/log/foldersync.log
  foldersync sync -s ./docs -r ./docs-mirror --once --hash`,
		RunE: runSync,
	}

	cmd.Flags().StringVarP(&syncFlags.Source, "source", "s", "", "source folder path (required)")
	cmd.Flags().StringVarP(&syncFlags.Replica, "replica", "r", "", "replica folder path (required)")
	cmd.Flags().IntVarP(&syncFlags.Interval, "interval", "i", 60, "seconds between cycles")
	cmd.Flags().StringVarP(&syncFlags.LogFile, "log", "l", "", "append log lines to this file")

	// Change detection
	cmd.Flags().BoolVar(&syncFlags.Hash, "hash", false, "compare file contents when timestamps match")
	cmd.Flags().StringVar(&syncFlags.HashAlgorithm, "hash-algorithm", string(models.HashXXH64), "content hash: xxhash, md5, sha256")
	cmd.Flags().DurationVar(&syncFlags.Tolerance, "tolerance", 2*time.Second, "modification time difference treated as unchanged")

	// Performance
	cmd.Flags().IntVarP(&syncFlags.Workers, "workers", "p", 4, "number of parallel copies")
	cmd.Flags().StringVarP(&syncFlags.Bandwidth, "bandwidth", "b", "", "bandwidth limit (e.g., \"10MB\", \"1GiB\")")
	cmd.Flags().StringSliceVar(&syncFlags.Exclude, "exclude", []string{}, "glob patterns to exclude")

	// Scheduling
	cmd.Flags().BoolVar(&syncFlags.Once, "once", false, "run a single cycle and exit with its status")
	cmd.Flags().BoolVar(&syncFlags.Watch, "watch", false, "start a cycle early when the source changes")
	cmd.Flags().StringVar(&syncFlags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g., \":9090\")")
	cmd.Flags().StringVar(&syncFlags.LockFile, "lock-file", "", "lock file guarding the replica (default next to the replica)")

	// Output
	cmd.Flags().StringVarP(&syncFlags.Output, "output", "o", "human", "cycle summary format: human, json")
	cmd.Flags().BoolVar(&syncFlags.Progress, "progress", false, "show a progress bar while copying")

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override config with command-line flags
	applyFlagsToConfig(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	source, replica, err := ValidatePaths(syncFlags.Source, syncFlags.Replica, true)
	if err != nil {
		return err
	}

	syncCfg, err := cfg.SyncConfiguration(source, replica)
	if err != nil {
		return err
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	// Single writer per replica
	lockPath := cfg.LockFile
	if lockPath == "" {
		lockPath = daemon.DefaultLockPath(replica)
	}
	lock, err := daemon.AcquireLock(lockPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn(ctx, "failed to release lock", logging.Fields{"path": lockPath, "error": err.Error()})
		}
	}()

	opts := []sync.Option{sync.WithLogger(logger)}

	if !globalFlags.Quiet {
		formatter, err := output.New(cfg.Output.Format, cfg.Output.Progress, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		opts = append(opts, sync.WithFormatter(formatter))
	}

	if cfg.MetricsAddr != "" {
		m := startMetrics(ctx, cfg.MetricsAddr, logger)
		opts = append(opts, sync.WithMetrics(m))
	}

	runOpts := daemon.Options{
		Interval: cfg.Sync.Interval,
		Once:     syncFlags.Once,
	}

	if cfg.Watch && !syncFlags.Once {
		w, err := startWatcher(ctx, source, cfg.Exclude, logger)
		if err != nil {
			logger.Warn(ctx, "source watch unavailable, polling only", logging.Fields{"error": err.Error()})
		} else {
			defer w.Stop()
			runOpts.Trigger = w.Trigger()
		}
	}

	reconciler := sync.NewReconciler(opts...)
	report, err := daemon.NewRunner(reconciler, syncCfg, runOpts, logger).Run(ctx)

	if !syncFlags.Once {
		return err
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("sync failed: %w", err)
	}
	if report != nil {
		if code := report.Status.ExitCode(); code != 0 {
			return &ExitError{Code: code}
		}
	}
	return nil
}

// createLogger builds the console and file logger from configuration
func createLogger(cfg *config.Config) (*logging.SlogLogger, error) {
	level := logging.ParseLevel(cfg.Logging.Level)
	consoleLevel := level
	fileLevel := level

	switch {
	case globalFlags.Verbose:
		consoleLevel = logging.DebugLevel
		fileLevel = logging.DebugLevel
	case globalFlags.Quiet:
		consoleLevel = logging.ErrorLevel
	}

	maxSize, err := cfg.LogMaxSizeBytes()
	if err != nil {
		return nil, err
	}

	return logging.New(logging.Config{
		ConsoleLevel: consoleLevel,
		FilePath:     cfg.Logging.File,
		FileFormat:   logging.Format(cfg.Logging.Format),
		FileLevel:    fileLevel,
		MaxSize:      maxSize,
		MaxBackups:   cfg.Logging.MaxBackups,
	})
}

// startMetrics registers the cycle metrics on a private registry and serves
// them in the background until ctx is done
func startMetrics(ctx context.Context, addr string, logger logging.Logger) *metrics.Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	go func() {
		if err := metrics.Serve(ctx, addr, registry); err != nil {
			logger.Error(ctx, "metrics server stopped", err, logging.Fields{"addr": addr})
		}
	}()
	logger.Info(ctx, "serving metrics", logging.Fields{"addr": addr})

	return m
}

// startWatcher watches the source tree, ignoring excluded paths
func startWatcher(ctx context.Context, source string, exclude []string, logger logging.Logger) (*watch.Watcher, error) {
	excluder, err := sync.NewExcluder(exclude)
	if err != nil {
		return nil, err
	}

	w := watch.NewWatcher(source, logger)
	w.SetIgnore(excluder.MatchTree)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
