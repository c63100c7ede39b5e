package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/foldersync/internal/platform"
	"github.com/sdejongh/foldersync/pkg/models"
)

// Plan scans both trees and reports the actions the next cycle would apply,
// without touching the replica. Orphan directories are listed whether or
// not they would end up empty.
func (r *Reconciler) Plan(ctx context.Context, cfg models.SyncConfiguration) (*models.CycleReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	report := &models.CycleReport{
		ID:          uuid.New().String(),
		SourceRoot:  cfg.SourceRoot,
		ReplicaRoot: cfg.ReplicaRoot,
		StartTime:   time.Now(),
	}

	c, err := r.newCycle(cfg, report)
	if err != nil {
		return report, err
	}

	srcTree, err := c.source.Scan(ctx)
	if err != nil {
		return report, fmt.Errorf("source scan failed: %w", err)
	}
	dstTree, err := c.replica.Scan(ctx)
	if err != nil {
		return report, fmt.Errorf("replica scan failed: %w", err)
	}
	srcDirs, err := c.source.Dirs(ctx)
	if err != nil {
		return report, fmt.Errorf("source scan failed: %w", err)
	}
	replicaDirs, err := c.replica.Dirs(ctx)
	if err != nil {
		return report, fmt.Errorf("replica scan failed: %w", err)
	}
	report.Stats.SourceFilesScanned = len(srcTree)
	report.Stats.ReplicaFilesScanned = len(dstTree)

	tasks, err := r.classify(ctx, c, srcTree, dstTree)
	if err != nil {
		return report, err
	}
	var scheduled []*FileTask
	for _, pass := range r.schedulePasses(c, tasks, srcTree, dstTree) {
		scheduled = append(scheduled, pass...)
	}
	for _, task := range scheduled {
		if task.Decision == models.DecisionCreate {
			report.Stats.FilesCreated++
		} else {
			report.Stats.FilesUpdated++
		}
		report.Stats.BytesTransferred += task.Source.Size
		report.Actions = append(report.Actions, models.ItemAction{
			Action:  task.Action(),
			RelPath: task.Source.RelPath,
			Bytes:   task.Source.Size,
		})
	}

	for _, key := range sortedKeys(dstTree) {
		if _, ok := srcTree[key]; !ok {
			report.Stats.FilesDeleted++
			report.Actions = append(report.Actions, models.ItemAction{
				Action:  models.ActionDeleteFile,
				RelPath: dstTree[key].RelPath,
			})
		}
	}

	srcKeys := dirKeys(srcDirs)
	replicaKeys := dirKeys(replicaDirs)

	sort.Strings(srcDirs)
	for _, relPath := range srcDirs {
		if _, ok := replicaKeys[platform.Key(relPath)]; !ok {
			report.Stats.DirsCreated++
			report.Actions = append(report.Actions, models.ItemAction{Action: models.ActionCreateDir, RelPath: relPath})
		}
	}

	var orphans []string
	for _, relPath := range replicaDirs {
		if _, ok := srcKeys[platform.Key(relPath)]; !ok {
			orphans = append(orphans, relPath)
		}
	}
	sortDeepestFirst(orphans)
	for _, relPath := range orphans {
		report.Stats.DirsDeleted++
		report.Actions = append(report.Actions, models.ItemAction{Action: models.ActionDeleteDir, RelPath: relPath})
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	report.Status = models.StatusSuccess
	if len(report.Errors) > 0 {
		report.Status = models.StatusPartial
	}

	return report, nil
}
