package sync

import (
	"context"
	"sort"

	"github.com/sdejongh/foldersync/internal/platform"
	"github.com/sdejongh/foldersync/pkg/models"
)

// deleteOrphanFiles removes every replica file that has no source
// counterpart. Stale temporary copies left by an interrupted cycle are
// orphans too and disappear here.
func (r *Reconciler) deleteOrphanFiles(ctx context.Context, c *cycle, srcTree, dstTree models.TreeSnapshot) error {
	for _, key := range sortedKeys(dstTree) {
		if _, ok := srcTree[key]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath := dstTree[key].RelPath
		if err := c.replica.RemoveFile(relPath); err != nil {
			c.report.Stats.FilesErrored++
			r.recordError(ctx, c, models.ActionDeleteFile, relPath, err)
			continue
		}

		c.report.Stats.FilesDeleted++
		r.recordAction(ctx, c, models.ActionDeleteFile, relPath, 0)
	}

	return nil
}

// reconcileDirs mirrors the source directory structure into the replica,
// then removes replica directories that are absent from the source and
// empty, deepest first so a chain like a/b/c goes away in one cycle.
// Both directory lists come from the scans taken at the start of the cycle.
func (r *Reconciler) reconcileDirs(ctx context.Context, c *cycle, srcDirs, replicaDirs []string) error {
	srcKeys := dirKeys(srcDirs)
	replicaKeys := dirKeys(replicaDirs)

	// Mirror: parents sort before their children
	sort.Strings(srcDirs)
	for _, relPath := range srcDirs {
		if _, ok := replicaKeys[platform.Key(relPath)]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		// The copy pass may already have created it as a parent
		if _, err := c.replica.MkdirAll(relPath); err != nil {
			c.report.Stats.DirsErrored++
			r.recordError(ctx, c, models.ActionCreateDir, relPath, err)
			continue
		}
		c.report.Stats.DirsCreated++
		r.recordAction(ctx, c, models.ActionCreateDir, relPath, 0)
	}

	// Orphans, deepest first
	var orphans []string
	for _, relPath := range replicaDirs {
		if _, ok := srcKeys[platform.Key(relPath)]; !ok {
			orphans = append(orphans, relPath)
		}
	}
	sortDeepestFirst(orphans)

	for _, relPath := range orphans {
		if err := ctx.Err(); err != nil {
			return err
		}

		removed, err := c.replica.RemoveEmptyDir(relPath)
		if err != nil {
			c.report.Stats.DirsErrored++
			r.recordError(ctx, c, models.ActionDeleteDir, relPath, err)
			continue
		}
		if removed {
			c.report.Stats.DirsDeleted++
			r.recordAction(ctx, c, models.ActionDeleteDir, relPath, 0)
		}
	}

	return nil
}

func dirKeys(dirs []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(dirs))
	for _, d := range dirs {
		keys[platform.Key(d)] = struct{}{}
	}
	return keys
}

// sortDeepestFirst orders directories by descending segment count so that
// children are handled before their parents
func sortDeepestFirst(dirs []string) {
	sort.SliceStable(dirs, func(i, j int) bool {
		di, dj := platform.SegmentCount(dirs[i]), platform.SegmentCount(dirs[j])
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})
}
