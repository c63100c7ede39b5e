// Package daemon runs reconciliation cycles on a schedule until cancelled.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sdejongh/foldersync/pkg/logging"
	"github.com/sdejongh/foldersync/pkg/models"
)

// Cycler runs one reconciliation cycle
type Cycler interface {
	RunOnce(ctx context.Context, cfg models.SyncConfiguration) (*models.CycleReport, error)
}

// Options controls the scheduling loop
type Options struct {
	// Interval is the wait between the end of a cycle and the start of the next
	Interval time.Duration

	// Once runs a single cycle and returns its report
	Once bool

	// Trigger, when set, ends the wait early. Typically a watch.Watcher channel.
	Trigger <-chan struct{}
}

// Runner repeatedly hands a configuration to a Cycler. Cycles never overlap.
type Runner struct {
	cycler Cycler
	cfg    models.SyncConfiguration
	opts   Options
	logger logging.Logger
}

// NewRunner creates a scheduling loop
func NewRunner(cycler Cycler, cfg models.SyncConfiguration, opts Options, logger logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Runner{
		cycler: cycler,
		cfg:    cfg,
		opts:   opts,
		logger: logger,
	}
}

// Run executes cycles until ctx is cancelled.
//
// A cycle-fatal error is logged and the loop goes on; the next cycle is the
// retry. Configuration errors are returned immediately since no later cycle
// can succeed. In Once mode the single report and its error are returned.
// Cancellation ends the loop with a nil error.
func (r *Runner) Run(ctx context.Context) (*models.CycleReport, error) {
	if !r.opts.Once && r.opts.Interval <= 0 {
		return nil, &models.ValidationError{Field: "Interval", Message: "interval must be greater than zero"}
	}

	r.logger.Info(ctx, "starting", logging.Fields{
		"source":   r.cfg.SourceRoot,
		"replica":  r.cfg.ReplicaRoot,
		"interval": r.opts.Interval.String(),
		"hash":     r.cfg.UseHashCompare,
	})

	var last *models.CycleReport
	for {
		if ctx.Err() != nil {
			break
		}

		report, err := r.runCycle(ctx)
		if report != nil {
			last = report
		}

		var ve *models.ValidationError
		if errors.As(err, &ve) {
			return last, err
		}
		if r.opts.Once {
			return last, err
		}
		if isCancellation(err) {
			break
		}

		if !r.wait(ctx) {
			break
		}
	}

	r.logger.Info(ctx, "stopped", nil)
	return last, nil
}

// runCycle runs one cycle and logs how it ended
func (r *Runner) runCycle(ctx context.Context) (*models.CycleReport, error) {
	start := time.Now()
	report, err := r.cycler.RunOnce(ctx, r.cfg)

	switch {
	case isCancellation(err):
		r.logger.Info(ctx, "stopping", nil)
	case err != nil:
		r.logger.Error(ctx, "cycle failed", err, nil)
	default:
		r.logger.Info(ctx, fmt.Sprintf("-- completed in %.3fs --", time.Since(start).Seconds()), logging.Fields{
			"status": string(report.Status),
		})
	}

	return report, err
}

// wait blocks for the interval, a trigger or cancellation.
// It returns false when the loop must stop.
func (r *Runner) wait(ctx context.Context) bool {
	timer := time.NewTimer(r.opts.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		r.logger.Info(ctx, "stopping", nil)
		return false
	case <-timer.C:
		return true
	case <-r.opts.Trigger:
		r.logger.Debug(ctx, "source changed, starting cycle early", nil)
		return true
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
