package sync

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/foldersync/pkg/models"
)

func TestPlanLeavesReplicaUntouched(t *testing.T) {
	h := NewTestHelper(t)
	old := time.Now().Add(-time.Hour)
	h.WriteSource("new.txt", "new", time.Time{})
	h.WriteSource("changed.txt", "v2", time.Now())
	h.WriteSource("same.txt", "s", old)
	require.NoError(t, os.MkdirAll(h.source+"/empty", 0755))
	h.WriteReplica("changed.txt", "v1", old)
	h.WriteReplica("same.txt", "s", old)
	h.WriteReplica("old/a/b.txt", "b", time.Time{})

	before := tree(t, h.replica)

	report, err := NewReconciler().Plan(context.Background(), h.Config())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, report.Status)

	assert.Equal(t, []models.ItemAction{
		{Action: models.ActionUpdate, RelPath: "changed.txt", Bytes: 2},
		{Action: models.ActionNew, RelPath: "new.txt", Bytes: 3},
		{Action: models.ActionDeleteFile, RelPath: "old/a/b.txt"},
		{Action: models.ActionCreateDir, RelPath: "empty"},
		{Action: models.ActionDeleteDir, RelPath: "old/a"},
		{Action: models.ActionDeleteDir, RelPath: "old"},
	}, report.Actions)
	assert.Equal(t, 1, report.Stats.FilesCreated)
	assert.Equal(t, 1, report.Stats.FilesUpdated)
	assert.Equal(t, int64(5), report.Stats.BytesTransferred)

	assert.Equal(t, before, tree(t, h.replica))
}

func TestPlanMatchesRunOnce(t *testing.T) {
	h := NewTestHelper(t)
	h.WriteSource("a/b/c.txt", "c", time.Time{})
	h.WriteSource("d.txt", "d", time.Time{})
	h.WriteReplica("x/y.txt", "y", time.Time{})

	r := NewReconciler()
	plan, err := r.Plan(context.Background(), h.Config())
	require.NoError(t, err)

	report, err := r.RunOnce(context.Background(), h.Config())
	require.NoError(t, err)

	assert.Equal(t, actionsOf(plan), actionsOf(report))
}
