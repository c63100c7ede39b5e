package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/foldersync/pkg/compare"
	"github.com/sdejongh/foldersync/pkg/logging"
	"github.com/sdejongh/foldersync/pkg/metrics"
	"github.com/sdejongh/foldersync/pkg/models"
	"github.com/sdejongh/foldersync/pkg/output"
	"github.com/sdejongh/foldersync/pkg/ratelimit"
	"github.com/sdejongh/foldersync/pkg/storage"
	"github.com/sdejongh/foldersync/pkg/transfer"
)

// Copier copies one source file over a replica path
type Copier interface {
	Copy(ctx context.Context, source, target string) (transfer.Result, error)
}

// Reconciler makes a replica tree match a source tree, one cycle at a time
type Reconciler struct {
	logger    logging.Logger
	formatter output.Formatter
	metrics   *metrics.Metrics
	copier    Copier
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithLogger sets the logger receiving action and error lines
func WithLogger(logger logging.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithFormatter sets the cycle output formatter
func WithFormatter(formatter output.Formatter) Option {
	return func(r *Reconciler) {
		r.formatter = formatter
	}
}

// WithMetrics sets the metrics recorder. nil disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// WithCopier replaces the atomic file copier built from the configuration
func WithCopier(copier Copier) Option {
	return func(r *Reconciler) {
		r.copier = copier
	}
}

// NewReconciler creates a reconciler
func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{
		logger: logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// cycle holds the state of one RunOnce call
type cycle struct {
	cfg        models.SyncConfiguration
	source     *storage.Local
	replica    *storage.Local
	classifier *compare.Classifier
	copier     Copier
	report     *models.CycleReport
	unchanged  map[string]struct{} // keys classified unchanged
	mu         sync.Mutex          // guards report during the copy pass
}

// RunOnce performs one full reconciliation cycle.
//
// A non-nil error means the cycle could not run to the end: the replica
// root could not be created, a scan failed, or ctx was cancelled. Failures
// scoped to a single file or directory never abort the cycle; they are
// collected in the report. The report is returned in both cases.
func (r *Reconciler) RunOnce(ctx context.Context, cfg models.SyncConfiguration) (*models.CycleReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	report := &models.CycleReport{
		ID:          uuid.New().String(),
		SourceRoot:  cfg.SourceRoot,
		ReplicaRoot: cfg.ReplicaRoot,
		StartTime:   time.Now(),
		Status:      models.StatusSuccess,
	}

	r.logger.Debug(ctx, "cycle started", logging.Fields{
		"cycle":   report.ID,
		"source":  cfg.SourceRoot,
		"replica": cfg.ReplicaRoot,
	})

	err := r.run(ctx, cfg, report)
	r.finish(ctx, report, err)

	return report, err
}

func (r *Reconciler) run(ctx context.Context, cfg models.SyncConfiguration, report *models.CycleReport) error {
	if err := os.MkdirAll(cfg.ReplicaRoot, 0755); err != nil {
		return fmt.Errorf("failed to create replica root: %w", err)
	}

	c, err := r.newCycle(cfg, report)
	if err != nil {
		return err
	}

	srcTree, err := c.source.Scan(ctx)
	if err != nil {
		return fmt.Errorf("source scan failed: %w", err)
	}
	dstTree, err := c.replica.Scan(ctx)
	if err != nil {
		return fmt.Errorf("replica scan failed: %w", err)
	}
	report.Stats.SourceFilesScanned = len(srcTree)
	report.Stats.ReplicaFilesScanned = len(dstTree)

	srcDirs, err := c.source.Dirs(ctx)
	if err != nil {
		return fmt.Errorf("source scan failed: %w", err)
	}
	replicaDirs, err := c.replica.Dirs(ctx)
	if err != nil {
		return fmt.Errorf("replica scan failed: %w", err)
	}

	tasks, err := r.classify(ctx, c, srcTree, dstTree)
	if err != nil {
		return err
	}

	passes := r.schedulePasses(c, tasks, srcTree, dstTree)
	if err := r.copyAll(ctx, c, passes); err != nil {
		return err
	}

	if err := r.deleteOrphanFiles(ctx, c, srcTree, dstTree); err != nil {
		return err
	}

	return r.reconcileDirs(ctx, c, srcDirs, replicaDirs)
}

// newCycle builds the per-cycle scanners, classifier and copier
func (r *Reconciler) newCycle(cfg models.SyncConfiguration, report *models.CycleReport) (*cycle, error) {
	excluder, err := NewExcluder(cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	source, err := storage.NewLocal(cfg.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("source unavailable: %w", err)
	}
	replica, err := storage.NewLocal(cfg.ReplicaRoot)
	if err != nil {
		return nil, fmt.Errorf("replica unavailable: %w", err)
	}
	if !excluder.Empty() {
		source.SetFilter(excluder.Match)
		replica.SetFilter(excluder.Match)
	}

	limiter := ratelimit.NewLimiter(cfg.BandwidthLimit)

	var hasher *compare.Hasher
	if cfg.UseHashCompare {
		hasher, err = compare.NewHasher(cfg.HashAlgorithm, cfg.BufferSize)
		if err != nil {
			return nil, err
		}
		if limiter != nil {
			hasher.SetReaderWrapper(limiter.Wrap)
		}
	}

	c := &cycle{
		cfg:        cfg,
		source:     source,
		replica:    replica,
		classifier: compare.NewClassifier(cfg.Tolerance, hasher),
		copier:     r.copier,
		report:     report,
		unchanged:  make(map[string]struct{}),
	}

	if c.copier == nil {
		copier := transfer.NewCopier(cfg.BufferSize, limiter)
		if r.formatter != nil {
			copier.OnProgress = r.progressFunc(cfg.SourceRoot)
		}
		c.copier = copier
	}

	return c, nil
}

// finish stamps the end time, settles the status and publishes the report
func (r *Reconciler) finish(ctx context.Context, report *models.CycleReport, err error) {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		report.Status = models.StatusCancelled
	case err != nil:
		report.Status = models.StatusFailed
	case len(report.Errors) > 0 && len(report.Actions) == 0:
		// every item that was attempted failed
		report.Status = models.StatusFailed
	case len(report.Errors) > 0:
		report.Status = models.StatusPartial
	default:
		report.Status = models.StatusSuccess
	}

	r.metrics.RecordCycle(report.Status, report.Duration, report.EndTime)

	if err == nil && r.formatter != nil {
		if ferr := r.formatter.Complete(report); ferr != nil {
			r.logger.Warn(ctx, "failed to write cycle summary", logging.Fields{"error": ferr.Error()})
		}
	}

	r.logger.Debug(ctx, "cycle finished", logging.Fields{
		"cycle":    report.ID,
		"status":   report.Status,
		"changes":  report.Stats.Changes(),
		"errors":   len(report.Errors),
		"duration": report.Duration.String(),
	})
}

// recordAction logs an applied change and adds it to the report
// (caller holds c.mu when workers are running)
func (r *Reconciler) recordAction(ctx context.Context, c *cycle, action models.Action, relPath string, bytes int64) {
	c.report.Actions = append(c.report.Actions, models.ItemAction{
		Action:  action,
		RelPath: relPath,
		Bytes:   bytes,
	})
	r.metrics.RecordAction(action, bytes)
	r.logger.Info(ctx, string(action), logging.Fields{"path": relPath})
}

// recordError logs a per-item failure and adds it to the report
// (caller holds c.mu when workers are running)
func (r *Reconciler) recordError(ctx context.Context, c *cycle, action models.Action, relPath string, err error) {
	c.report.Errors = append(c.report.Errors, models.ItemError{
		RelPath:   relPath,
		Action:    action,
		Err:       err,
		Timestamp: time.Now(),
	})
	r.metrics.RecordItemError(action)
	r.logger.Error(ctx, string(action)+" failed", err, logging.Fields{"path": relPath})
}
