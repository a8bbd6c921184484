// Package crm tracks client projects, their billable tasks and subtasks,
// and builds time and value reports over completed work.
package crm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"secondbrain/internal/core"
	applog "secondbrain/internal/log"
	"secondbrain/internal/storage"
)

var defaultProjects = []Project{
	{ID: "proj-1", Name: "Website Redesign", CompanyName: "Innovate Corp", Description: "Complete overhaul of the main corporate website.", Status: ProjectInProgress},
	{ID: "proj-2", Name: "Mobile App Development", CompanyName: "Tech Solutions", Description: "Develop a new cross-platform mobile application.", Status: ProjectNotStarted},
}

var defaultTasks = []Task{
	{ID: "task-1", ProjectID: "proj-1", Title: "Design Mockups", Price: core.Cents(150000), Status: TaskInProgress, Subtasks: []Subtask{
		{ID: "sub-1", Title: "Homepage design", CompletionTime: &Duration{Hours: 5, Minutes: 30}},
		{ID: "sub-2", Title: "About page design"},
	}},
	{ID: "task-2", ProjectID: "proj-1", Title: "Frontend Development", Price: core.Cents(400000), Status: TaskToDo, Subtasks: []Subtask{}},
	{ID: "task-3", ProjectID: "proj-2", Title: "Setup Project Environment", Price: core.Cents(50000), Status: TaskToDo, Subtasks: []Subtask{}},
}

type Tracker struct {
	mu       sync.Mutex
	store    storage.Store
	newID    func() string
	now      func() time.Time
	seed     bool
	projects []Project
	tasks    []Task
}

// Option configures a Tracker.
type Option func(*Tracker)

func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) { t.newID = fn }
}

// WithClock overrides the time source used to stamp completions.
func WithClock(fn func() time.Time) Option {
	return func(t *Tracker) { t.now = fn }
}

// WithoutSeed starts an empty store with no sample projects.
func WithoutSeed() Option {
	return func(t *Tracker) { t.seed = false }
}

// NewTracker loads projects and tasks from store.
func NewTracker(ctx context.Context, store storage.Store, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		store: store,
		newID: uuid.NewString,
		now:   time.Now,
		seed:  true,
	}
	for _, opt := range opts {
		opt(t)
	}

	projectsFound, err := store.Get(ctx, storage.KeyProjects, &t.projects)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	tasksFound, err := store.Get(ctx, storage.KeyTasks, &t.tasks)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if !projectsFound && !tasksFound && t.seed {
		t.projects = append([]Project(nil), defaultProjects...)
		for _, task := range defaultTasks {
			t.tasks = append(t.tasks, cloneTask(task))
		}
		if err := t.persist(ctx, t.projects, t.tasks); err != nil {
			return nil, fmt.Errorf("persist sample projects: %w", err)
		}
	}
	for i := range t.tasks {
		if t.tasks[i].Subtasks == nil {
			t.tasks[i].Subtasks = []Subtask{}
		}
	}

	logger(ctx).InfoContext(ctx, "CRM tracker loaded", "projects", len(t.projects), "tasks", len(t.tasks))
	return t, nil
}

func logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentCRM)
}

func (t *Tracker) persist(ctx context.Context, projects []Project, tasks []Task) error {
	return storage.SetAll(ctx, t.store, map[string]any{
		storage.KeyProjects: projects,
		storage.KeyTasks:    tasks,
	})
}

// mutate runs fn against copies of the collections and commits them only
// when fn succeeds and the copies are persisted.
func (t *Tracker) mutate(ctx context.Context, op string, fn func(projects *[]Project, tasks *[]Task) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	projects := append([]Project(nil), t.projects...)
	tasks := make([]Task, len(t.tasks))
	for i := range t.tasks {
		tasks[i] = cloneTask(t.tasks[i])
	}
	if err := fn(&projects, &tasks); err != nil {
		logger(ctx).DebugContext(ctx, "CRM mutation rejected", applog.FieldOperation, op, applog.FieldError, err)
		return err
	}
	if err := t.persist(ctx, projects, tasks); err != nil {
		logger(ctx).ErrorContext(ctx, "Failed to persist CRM data", applog.FieldOperation, op, applog.FieldError, err)
		return fmt.Errorf("persist crm: %w", err)
	}
	t.projects, t.tasks = projects, tasks
	return nil
}

func projectIndex(projects []Project, id string) (int, error) {
	for i := range projects {
		if projects[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("project %q: %w", id, core.ErrNotFound)
}

func taskIndex(tasks []Task, id string) (int, error) {
	for i := range tasks {
		if tasks[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("task %q: %w", id, core.ErrNotFound)
}

// ProjectParams holds the editable fields of a project.
type ProjectParams struct {
	Name        string
	CompanyName string
	Description string
	Status      ProjectStatus
}

func (p ProjectParams) apply(pr Project) Project {
	pr.Name = strings.TrimSpace(p.Name)
	pr.CompanyName = strings.TrimSpace(p.CompanyName)
	pr.Description = strings.TrimSpace(p.Description)
	if p.Status != "" {
		pr.Status = p.Status
	}
	return pr
}

// AddProject creates a project at the top of the list. An empty status
// means not started.
func (t *Tracker) AddProject(ctx context.Context, p ProjectParams) (Project, error) {
	pr := p.apply(Project{ID: t.newID(), Status: ProjectNotStarted})
	if err := pr.Validate(); err != nil {
		return Project{}, err
	}
	err := t.mutate(ctx, "add_project", func(projects *[]Project, _ *[]Task) error {
		*projects = append([]Project{pr}, *projects...)
		return nil
	})
	if err != nil {
		return Project{}, err
	}
	logger(ctx).InfoContext(ctx, "Project added", applog.FieldProjectID, pr.ID, "name", pr.Name)
	return pr, nil
}

func (t *Tracker) UpdateProject(ctx context.Context, id string, p ProjectParams) (Project, error) {
	var updated Project
	err := t.mutate(ctx, "update_project", func(projects *[]Project, _ *[]Task) error {
		i, err := projectIndex(*projects, id)
		if err != nil {
			return err
		}
		pr := p.apply((*projects)[i])
		if err := pr.Validate(); err != nil {
			return err
		}
		(*projects)[i] = pr
		updated = pr
		return nil
	})
	return updated, err
}

// DeleteProject removes a project together with its tasks.
func (t *Tracker) DeleteProject(ctx context.Context, id string) error {
	removed := 0
	err := t.mutate(ctx, "delete_project", func(projects *[]Project, tasks *[]Task) error {
		i, err := projectIndex(*projects, id)
		if err != nil {
			return err
		}
		*projects = append((*projects)[:i], (*projects)[i+1:]...)
		kept := (*tasks)[:0]
		for _, task := range *tasks {
			if task.ProjectID == id {
				removed++
				continue
			}
			kept = append(kept, task)
		}
		*tasks = kept
		return nil
	})
	if err != nil {
		return err
	}
	logger(ctx).InfoContext(ctx, "Project deleted", applog.FieldProjectID, id, "tasks_removed", removed)
	return nil
}

// ToggleArchive flips the archived flag of a project.
func (t *Tracker) ToggleArchive(ctx context.Context, id string) (Project, error) {
	var updated Project
	err := t.mutate(ctx, "toggle_archive", func(projects *[]Project, _ *[]Task) error {
		i, err := projectIndex(*projects, id)
		if err != nil {
			return err
		}
		(*projects)[i].IsArchived = !(*projects)[i].IsArchived
		updated = (*projects)[i]
		return nil
	})
	return updated, err
}

// TaskParams holds the editable fields of a task.
type TaskParams struct {
	ProjectID   string
	Title       string
	Description string
	Price       core.Money
	Status      TaskStatus
}

// AddTask appends a task to a project. An empty status means to do.
func (t *Tracker) AddTask(ctx context.Context, p TaskParams) (Task, error) {
	var created Task
	err := t.mutate(ctx, "add_task", func(projects *[]Project, tasks *[]Task) error {
		if _, err := projectIndex(*projects, p.ProjectID); err != nil {
			return core.Invalid("projectId", err)
		}
		task := Task{
			ID:          t.newID(),
			ProjectID:   p.ProjectID,
			Title:       strings.TrimSpace(p.Title),
			Description: strings.TrimSpace(p.Description),
			Price:       p.Price,
			Status:      p.Status,
			Subtasks:    []Subtask{},
		}
		if task.Status == "" {
			task.Status = TaskToDo
		}
		if task.Status == TaskDone {
			at := t.now().UTC()
			task.CompletedAt = &at
		}
		if err := task.Validate(); err != nil {
			return err
		}
		*tasks = append(*tasks, task)
		created = task
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	logger(ctx).InfoContext(ctx, "Task added", applog.FieldTaskID, created.ID, applog.FieldProjectID, created.ProjectID)
	return created, nil
}

// UpdateTask replaces the editable fields of a task. Moving into Done
// stamps the completion time; moving out of Done clears it together with
// the logged duration.
func (t *Tracker) UpdateTask(ctx context.Context, id string, p TaskParams) (Task, error) {
	var updated Task
	err := t.mutate(ctx, "update_task", func(projects *[]Project, tasks *[]Task) error {
		i, err := taskIndex(*tasks, id)
		if err != nil {
			return err
		}
		task := (*tasks)[i]
		if p.ProjectID != "" && p.ProjectID != task.ProjectID {
			if _, err := projectIndex(*projects, p.ProjectID); err != nil {
				return core.Invalid("projectId", err)
			}
			task.ProjectID = p.ProjectID
		}
		task.Title = strings.TrimSpace(p.Title)
		task.Description = strings.TrimSpace(p.Description)
		task.Price = p.Price
		if p.Status != "" {
			t.transition(&task, p.Status)
		}
		if err := task.Validate(); err != nil {
			return err
		}
		(*tasks)[i] = task
		updated = task
		return nil
	})
	return updated, err
}

func (t *Tracker) transition(task *Task, next TaskStatus) {
	switch {
	case next == TaskDone && task.Status != TaskDone:
		at := t.now().UTC()
		task.CompletedAt = &at
	case next != TaskDone && task.Status == TaskDone:
		task.CompletedAt = nil
		task.CompletionTime = nil
	}
	task.Status = next
}

// CompleteTask marks a task done and records the time spent on it.
func (t *Tracker) CompleteTask(ctx context.Context, id string, spent Duration) (Task, error) {
	if err := spent.Validate(); err != nil {
		return Task{}, err
	}
	var updated Task
	err := t.mutate(ctx, "complete_task", func(_ *[]Project, tasks *[]Task) error {
		i, err := taskIndex(*tasks, id)
		if err != nil {
			return err
		}
		task := &(*tasks)[i]
		t.transition(task, TaskDone)
		d := spent
		task.CompletionTime = &d
		updated = cloneTask(*task)
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	logger(ctx).InfoContext(ctx, "Task completed", applog.FieldTaskID, id, "minutes", spent.TotalMinutes())
	return updated, nil
}

func (t *Tracker) DeleteTask(ctx context.Context, id string) error {
	return t.mutate(ctx, "delete_task", func(_ *[]Project, tasks *[]Task) error {
		i, err := taskIndex(*tasks, id)
		if err != nil {
			return err
		}
		*tasks = append((*tasks)[:i], (*tasks)[i+1:]...)
		return nil
	})
}

func (t *Tracker) AddSubtask(ctx context.Context, taskID, title string) (Subtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Subtask{}, core.Invalid("title", core.ErrEmptyName)
	}
	sub := Subtask{ID: t.newID(), Title: title}
	err := t.mutate(ctx, "add_subtask", func(_ *[]Project, tasks *[]Task) error {
		i, err := taskIndex(*tasks, taskID)
		if err != nil {
			return err
		}
		(*tasks)[i].Subtasks = append((*tasks)[i].Subtasks, sub)
		return nil
	})
	if err != nil {
		return Subtask{}, err
	}
	return sub, nil
}

// UpdateSubtask renames a subtask and sets or clears its logged time. An
// empty title keeps the current one.
func (t *Tracker) UpdateSubtask(ctx context.Context, taskID, subtaskID, title string, spent *Duration) (Subtask, error) {
	if spent != nil {
		if err := spent.Validate(); err != nil {
			return Subtask{}, err
		}
	}
	var updated Subtask
	err := t.mutate(ctx, "update_subtask", func(_ *[]Project, tasks *[]Task) error {
		i, err := taskIndex(*tasks, taskID)
		if err != nil {
			return err
		}
		subs := (*tasks)[i].Subtasks
		for si := range subs {
			if subs[si].ID != subtaskID {
				continue
			}
			if title = strings.TrimSpace(title); title != "" {
				subs[si].Title = title
			}
			subs[si].CompletionTime = nil
			if spent != nil {
				d := *spent
				subs[si].CompletionTime = &d
			}
			updated = subs[si]
			return nil
		}
		return fmt.Errorf("subtask %q: %w", subtaskID, core.ErrNotFound)
	})
	return updated, err
}

func (t *Tracker) DeleteSubtask(ctx context.Context, taskID, subtaskID string) error {
	return t.mutate(ctx, "delete_subtask", func(_ *[]Project, tasks *[]Task) error {
		i, err := taskIndex(*tasks, taskID)
		if err != nil {
			return err
		}
		subs := (*tasks)[i].Subtasks
		for si := range subs {
			if subs[si].ID == subtaskID {
				(*tasks)[i].Subtasks = append(subs[:si], subs[si+1:]...)
				return nil
			}
		}
		return fmt.Errorf("subtask %q: %w", subtaskID, core.ErrNotFound)
	})
}

// Projects returns all projects, archived ones included.
func (t *Tracker) Projects() []Project {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Project(nil), t.projects...)
}

func (t *Tracker) Project(id string) (Project, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := projectIndex(t.projects, id)
	if err != nil {
		return Project{}, err
	}
	return t.projects[i], nil
}

// Tasks returns the tasks of projectID, or every task when it is empty.
func (t *Tracker) Tasks(projectID string) []Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := []Task{}
	for _, task := range t.tasks {
		if projectID == "" || task.ProjectID == projectID {
			out = append(out, cloneTask(task))
		}
	}
	return out
}

func (t *Tracker) Task(id string) (Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := taskIndex(t.tasks, id)
	if err != nil {
		return Task{}, err
	}
	return cloneTask(t.tasks[i]), nil
}

// Summary are the headline figures over active projects.
type Summary struct {
	ActiveProjects int        `json:"activeProjects"`
	TotalTasks     int        `json:"totalTasks"`
	CompletedTasks int        `json:"completedTasks"`
	TotalValue     core.Money `json:"totalValue"`
}

// Summary counts tasks of projects that are not archived.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := map[string]bool{}
	for _, p := range t.projects {
		if !p.IsArchived {
			active[p.ID] = true
		}
	}
	s := Summary{ActiveProjects: len(active)}
	for _, task := range t.tasks {
		if !active[task.ProjectID] {
			continue
		}
		s.TotalTasks++
		s.TotalValue = s.TotalValue.Add(task.Price)
		if task.Status == TaskDone {
			s.CompletedTasks++
		}
	}
	return s
}

// Report builds the time and value report for [start, end].
func (t *Tracker) Report(start, end core.Date) (Report, error) {
	if err := start.Validate(); err != nil {
		return Report{}, core.Invalid("startDate", err)
	}
	if err := end.Validate(); err != nil {
		return Report{}, core.Invalid("endDate", err)
	}
	if end.Before(start.Time) {
		return Report{}, core.Invalid("endDate", fmt.Errorf("%s is before %s", end, start))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return BuildReport(start, end, t.projects, t.tasks), nil
}
