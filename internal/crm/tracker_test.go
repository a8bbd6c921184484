package crm

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondbrain/internal/core"
	applog "secondbrain/internal/log"
	"secondbrain/internal/storage"
	"secondbrain/internal/storage/memory"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestTracker(t *testing.T, store storage.Store) (*Tracker, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)}
	n := 0
	tr, err := NewTracker(context.Background(), store,
		WithoutSeed(),
		WithClock(c.Now),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }))
	require.NoError(t, err)
	return tr, c
}

func TestNewTrackerSeeds(t *testing.T) {
	store := memory.New()
	tr, err := NewTracker(context.Background(), store)
	require.NoError(t, err)
	assert.Len(t, tr.Projects(), 2)
	assert.Len(t, tr.Tasks(""), 3)
	assert.Len(t, tr.Tasks("proj-1"), 2)

	_, ok := store.Raw(storage.KeyTasks)
	assert.True(t, ok)

	// Seed values are not shared between trackers.
	task, err := tr.Task("task-1")
	require.NoError(t, err)
	assert.Equal(t, 5, task.Subtasks[0].CompletionTime.Hours)
}

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(t, memory.New())

	p, err := tr.AddProject(ctx, ProjectParams{Name: " Site ", CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Site", p.Name)
	assert.Equal(t, ProjectNotStarted, p.Status)

	_, err = tr.AddProject(ctx, ProjectParams{Name: ""})
	assert.ErrorIs(t, err, core.ErrValidation)

	p, err = tr.UpdateProject(ctx, p.ID, ProjectParams{Name: "Site v2", Status: ProjectInProgress})
	require.NoError(t, err)
	assert.Equal(t, ProjectInProgress, p.Status)
	assert.Empty(t, p.CompanyName)

	p, err = tr.ToggleArchive(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, p.IsArchived)

	_, err = tr.UpdateProject(ctx, "missing", ProjectParams{Name: "x"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(t, memory.New())
	a, _ := tr.AddProject(ctx, ProjectParams{Name: "A"})
	b, _ := tr.AddProject(ctx, ProjectParams{Name: "B"})
	_, err := tr.AddTask(ctx, TaskParams{ProjectID: a.ID, Title: "one"})
	require.NoError(t, err)
	_, err = tr.AddTask(ctx, TaskParams{ProjectID: b.ID, Title: "two"})
	require.NoError(t, err)

	require.NoError(t, tr.DeleteProject(ctx, a.ID))
	assert.Len(t, tr.Projects(), 1)
	tasks := tr.Tasks("")
	require.Len(t, tasks, 1)
	assert.Equal(t, "two", tasks[0].Title)
}

func TestTaskStatusTransitions(t *testing.T) {
	ctx := context.Background()
	tr, c := newTestTracker(t, memory.New())
	p, _ := tr.AddProject(ctx, ProjectParams{Name: "A"})

	task, err := tr.AddTask(ctx, TaskParams{ProjectID: p.ID, Title: "Build", Price: core.Cents(20000)})
	require.NoError(t, err)
	assert.Equal(t, TaskToDo, task.Status)
	assert.Nil(t, task.CompletedAt)

	task, err = tr.CompleteTask(ctx, task.ID, Duration{Hours: 2, Minutes: 15})
	require.NoError(t, err)
	assert.Equal(t, TaskDone, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, c.now, *task.CompletedAt)
	assert.Equal(t, &Duration{Hours: 2, Minutes: 15}, task.CompletionTime)

	// Staying in Done keeps the original stamp.
	c.now = c.now.Add(48 * time.Hour)
	task, err = tr.UpdateTask(ctx, task.ID, TaskParams{Title: "Build it", Price: core.Cents(20000), Status: TaskDone})
	require.NoError(t, err)
	assert.Equal(t, 15, task.CompletedAt.Day())

	task, err = tr.UpdateTask(ctx, task.ID, TaskParams{Title: "Build it", Price: core.Cents(20000), Status: TaskInProgress})
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)
	assert.Nil(t, task.CompletionTime)
}

func TestTaskValidation(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(t, memory.New())
	p, _ := tr.AddProject(ctx, ProjectParams{Name: "A"})

	_, err := tr.AddTask(ctx, TaskParams{ProjectID: "missing", Title: "x"})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = tr.AddTask(ctx, TaskParams{ProjectID: p.ID, Title: " "})
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = tr.AddTask(ctx, TaskParams{ProjectID: p.ID, Title: "x", Price: core.Cents(-1)})
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = tr.AddTask(ctx, TaskParams{ProjectID: p.ID, Title: "x", Status: "Blocked"})
	assert.ErrorIs(t, err, core.ErrValidation)

	task, err := tr.AddTask(ctx, TaskParams{ProjectID: p.ID, Title: "x"})
	require.NoError(t, err)
	_, err = tr.CompleteTask(ctx, task.ID, Duration{Minutes: 75})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Empty(t, tr.Tasks("")[0].CompletedAt)
}

func TestSubtasks(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(t, memory.New())
	p, _ := tr.AddProject(ctx, ProjectParams{Name: "A"})
	task, _ := tr.AddTask(ctx, TaskParams{ProjectID: p.ID, Title: "Design"})

	sub, err := tr.AddSubtask(ctx, task.ID, "Homepage")
	require.NoError(t, err)

	sub, err = tr.UpdateSubtask(ctx, task.ID, sub.ID, "", &Duration{Hours: 1})
	require.NoError(t, err)
	assert.Equal(t, "Homepage", sub.Title)
	assert.Equal(t, 1, sub.CompletionTime.Hours)

	sub, err = tr.UpdateSubtask(ctx, task.ID, sub.ID, "Landing", nil)
	require.NoError(t, err)
	assert.Nil(t, sub.CompletionTime)

	_, err = tr.UpdateSubtask(ctx, task.ID, "missing", "x", nil)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, tr.DeleteSubtask(ctx, task.ID, sub.ID))
	got, _ := tr.Task(task.ID)
	assert.Empty(t, got.Subtasks)
}

func TestSummarySkipsArchived(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(t, memory.New())
	a, _ := tr.AddProject(ctx, ProjectParams{Name: "A"})
	b, _ := tr.AddProject(ctx, ProjectParams{Name: "B"})
	t1, _ := tr.AddTask(ctx, TaskParams{ProjectID: a.ID, Title: "1", Price: core.Cents(1000)})
	_, _ = tr.AddTask(ctx, TaskParams{ProjectID: a.ID, Title: "2", Price: core.Cents(500)})
	_, _ = tr.AddTask(ctx, TaskParams{ProjectID: b.ID, Title: "3", Price: core.Cents(9999)})
	_, err := tr.CompleteTask(ctx, t1.ID, Duration{Minutes: 10})
	require.NoError(t, err)
	_, err = tr.ToggleArchive(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, Summary{ActiveProjects: 1, TotalTasks: 2, CompletedTasks: 1, TotalValue: core.Cents(1500)}, tr.Summary())
}

func TestTrackerReportAndReload(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tr, c := newTestTracker(t, store)
	p, _ := tr.AddProject(ctx, ProjectParams{Name: "Site", CompanyName: "Acme"})
	july, _ := tr.AddTask(ctx, TaskParams{ProjectID: p.ID, Title: "July", Price: core.Cents(20000)})
	aug, _ := tr.AddTask(ctx, TaskParams{ProjectID: p.ID, Title: "August", Price: core.Cents(30000)})

	_, err := tr.CompleteTask(ctx, july.ID, Duration{Hours: 1})
	require.NoError(t, err)
	c.now = time.Date(2024, 8, 2, 9, 0, 0, 0, time.UTC)
	_, err = tr.CompleteTask(ctx, aug.ID, Duration{Hours: 3})
	require.NoError(t, err)

	reloaded, _ := newTestTracker(t, store)
	r, err := reloaded.Report(core.NewDate(2024, 7, 1), core.NewDate(2024, 7, 31))
	require.NoError(t, err)
	assert.Equal(t, int64(20000), r.TotalValue.Cents)
	assert.Equal(t, Duration{Hours: 1}, r.TotalTime)

	_, err = reloaded.Report(core.NewDate(2024, 7, 31), core.NewDate(2024, 7, 1))
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestAddProjectLogsUnderCRMComponent(t *testing.T) {
	var buf bytes.Buffer
	ctx := applog.NewContext(context.Background(), applog.New(applog.Config{Output: &buf}))
	tr, _ := newTestTracker(t, memory.New())

	pr, err := tr.AddProject(ctx, ProjectParams{Name: "Audit", CompanyName: "Acme"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "component=crm")
	assert.Contains(t, buf.String(), "project_id="+pr.ID)
}
