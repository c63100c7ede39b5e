package sync

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/foldersync/internal/platform"
	"github.com/sdejongh/foldersync/pkg/logging"
	"github.com/sdejongh/foldersync/pkg/models"
	"github.com/sdejongh/foldersync/pkg/output"
	"github.com/sdejongh/foldersync/pkg/transfer"
)

// classify decides, file by file, what the copy pass has to do. A file
// that cannot be classified is reported and left out of this cycle.
func (r *Reconciler) classify(ctx context.Context, c *cycle, srcTree, dstTree models.TreeSnapshot) ([]*FileTask, error) {
	var tasks []*FileTask

	for _, key := range sortedKeys(srcTree) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src := srcTree[key]
		var dst *models.FileMeta
		if m, ok := dstTree[key]; ok {
			dst = &m
		}

		decision, err := c.classifier.Classify(ctx, src, dst)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.report.Stats.FilesErrored++
			r.recordError(ctx, c, models.ActionCompare, src.RelPath, err)
			continue
		}

		switch decision {
		case models.DecisionUnchanged:
			c.report.Stats.FilesUnchanged++
			c.unchanged[key] = struct{}{}
		case models.DecisionUpdate:
			tasks = append(tasks, NewFileTask(src, dst.FullPath, decision))
		case models.DecisionCreate:
			tasks = append(tasks, NewFileTask(src, c.replica.Abs(src.RelPath), decision))
		}
	}

	return tasks, nil
}

// schedulePasses splits the copy tasks into passes run one after the other.
// Copying x goes through the replica path x.tmp_copy, which destroys the
// mirrored copy of a source file with that name. Such a file is moved to a
// later pass, and copied again there when it was classified unchanged.
func (r *Reconciler) schedulePasses(c *cycle, tasks []*FileTask, srcTree, dstTree models.TreeSnapshot) [][]*FileTask {
	var passes [][]*FileTask

	pending := tasks
	for len(pending) > 0 {
		shadowed := make(map[string]struct{})
		for _, t := range pending {
			key := platform.Key(transfer.TempPath(t.Source.RelPath))
			if _, ok := srcTree[key]; ok {
				shadowed[key] = struct{}{}
			}
		}
		if len(shadowed) == 0 {
			passes = append(passes, pending)
			break
		}

		var current, next []*FileTask
		for _, t := range pending {
			key := platform.Key(t.Source.RelPath)
			if _, ok := shadowed[key]; ok {
				next = append(next, t)
				delete(shadowed, key)
			} else {
				current = append(current, t)
			}
		}

		requeue := make([]string, 0, len(shadowed))
		for key := range shadowed {
			requeue = append(requeue, key)
		}
		sort.Strings(requeue)
		for _, key := range requeue {
			if _, ok := c.unchanged[key]; !ok {
				continue
			}
			delete(c.unchanged, key)
			c.report.Stats.FilesUnchanged--
			next = append(next, NewFileTask(srcTree[key], dstTree[key].FullPath, models.DecisionUpdate))
		}

		passes = append(passes, current)
		pending = next
	}

	return passes
}

// copyAll runs the copy passes in order
func (r *Reconciler) copyAll(ctx context.Context, c *cycle, passes [][]*FileTask) error {
	if r.formatter != nil {
		var totalFiles int
		var totalBytes int64
		for _, pass := range passes {
			for _, t := range pass {
				totalFiles++
				totalBytes += t.Source.Size
			}
		}
		r.formatter.Start(totalFiles, totalBytes)
	}

	for _, pass := range passes {
		if err := r.copyPass(ctx, c, pass); err != nil {
			return err
		}
	}
	return nil
}

// copyPass runs the tasks on at most MaxWorkers goroutines. It stops
// scheduling new copies once ctx is done and always waits for the copies
// already running.
func (r *Reconciler) copyPass(ctx context.Context, c *cycle, tasks []*FileTask) error {
	var g errgroup.Group
	g.SetLimit(c.cfg.MaxWorkers)

	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			// a slot may free up after cancellation
			if ctx.Err() != nil {
				return nil
			}
			r.copyFile(ctx, c, task)
			return nil
		})
	}
	g.Wait()

	return ctx.Err()
}

// copyFile executes one task and records its outcome
func (r *Reconciler) copyFile(ctx context.Context, c *cycle, task *FileTask) {
	startTime := time.Now()
	relPath := task.Source.RelPath

	r.progress(output.ProgressUpdate{
		Type:       output.UpdateFileStart,
		FilePath:   relPath,
		Action:     task.Action(),
		TotalBytes: task.Source.Size,
	})

	res, err := c.copier.Copy(ctx, task.Source.FullPath, task.Target)

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case err != nil && ctx.Err() != nil:
		// interrupted, the target was left as it was
		task.MarkSkipped(time.Since(startTime))
		r.logger.Debug(ctx, "copy interrupted", logging.Fields{"path": relPath})

	case err != nil:
		task.MarkError(err, time.Since(startTime))
		c.report.Stats.FilesErrored++
		r.recordError(ctx, c, task.Action(), relPath, err)
		r.progress(output.ProgressUpdate{
			Type:       output.UpdateFileError,
			FilePath:   relPath,
			Action:     task.Action(),
			TotalBytes: task.Source.Size,
			Error:      err,
		})

	case res.Skipped:
		task.MarkSkipped(time.Since(startTime))
		r.logger.Debug(ctx, "source file vanished before copy", logging.Fields{"path": relPath})
		r.progress(output.ProgressUpdate{
			Type:       output.UpdateFileComplete,
			FilePath:   relPath,
			Action:     task.Action(),
			TotalBytes: task.Source.Size,
		})

	default:
		task.MarkCompleted(res.Bytes, time.Since(startTime))
		if task.Decision == models.DecisionCreate {
			c.report.Stats.FilesCreated++
		} else {
			c.report.Stats.FilesUpdated++
		}
		c.report.Stats.BytesTransferred += res.Bytes
		r.recordAction(ctx, c, task.Action(), relPath, res.Bytes)
		r.progress(output.ProgressUpdate{
			Type:         output.UpdateFileComplete,
			FilePath:     relPath,
			Action:       task.Action(),
			BytesWritten: res.Bytes,
			TotalBytes:   task.Source.Size,
		})
	}
}

// progressFunc adapts copier byte counts to formatter updates keyed by
// relative path
func (r *Reconciler) progressFunc(sourceRoot string) transfer.ProgressFunc {
	return func(sourcePath string, copied, total int64) {
		rel, err := filepath.Rel(sourceRoot, sourcePath)
		if err != nil {
			return
		}
		r.progress(output.ProgressUpdate{
			Type:         output.UpdateFileProgress,
			FilePath:     filepath.ToSlash(rel),
			BytesWritten: copied,
			TotalBytes:   total,
		})
	}
}

func (r *Reconciler) progress(update output.ProgressUpdate) {
	if r.formatter != nil {
		r.formatter.Progress(update)
	}
}

// sortedKeys returns the snapshot keys in lexical order
func sortedKeys(tree models.TreeSnapshot) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
