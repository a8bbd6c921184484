package crm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"secondbrain/internal/core"
)

type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "Not Started"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectCompleted  ProjectStatus = "Completed"
)

func (s ProjectStatus) IsValid() bool {
	return s == ProjectNotStarted || s == ProjectInProgress || s == ProjectCompleted
}

type TaskStatus string

const (
	TaskToDo       TaskStatus = "To Do"
	TaskInProgress TaskStatus = "In Progress"
	TaskDone       TaskStatus = "Done"
)

func (s TaskStatus) IsValid() bool {
	return s == TaskToDo || s == TaskInProgress || s == TaskDone
}

// NoCompany labels work for projects without a company.
const NoCompany = "No Company"

// Duration is logged work time.
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

func (d Duration) TotalMinutes() int {
	return d.Hours*60 + d.Minutes
}

func (d Duration) Validate() error {
	if d.Hours < 0 || d.Minutes < 0 || d.Minutes > 59 {
		return core.Invalid("completionTime", fmt.Errorf("%dh%dm out of range", d.Hours, d.Minutes))
	}
	return nil
}

// DurationFromMinutes folds a minute count into hours and minutes.
func DurationFromMinutes(total int) Duration {
	return Duration{Hours: total / 60, Minutes: total % 60}
}

type (
	Project struct {
		ID          string        `json:"id"`
		Name        string        `json:"name"`
		CompanyName string        `json:"companyName,omitempty"`
		Description string        `json:"description,omitempty"`
		Status      ProjectStatus `json:"status"`
		IsArchived  bool          `json:"isArchived"`
	}

	Subtask struct {
		ID             string    `json:"id"`
		Title          string    `json:"title"`
		CompletionTime *Duration `json:"completionTime"`
	}

	Task struct {
		ID             string     `json:"id"`
		ProjectID      string     `json:"projectId"`
		Title          string     `json:"title"`
		Description    string     `json:"description,omitempty"`
		Price          core.Money `json:"price"`
		Status         TaskStatus `json:"status"`
		Subtasks       []Subtask  `json:"subtasks"`
		CompletionTime *Duration  `json:"completionTime"`
		CompletedAt    *time.Time `json:"completedAt,omitempty"`
	}
)

// Company returns the company label used in reports.
func (p Project) Company() string {
	if strings.TrimSpace(p.CompanyName) == "" {
		return NoCompany
	}
	return p.CompanyName
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return core.Invalid("name", core.ErrEmptyName)
	}
	if len(p.Name) > 100 {
		return core.Invalid("name", errors.New("too long (max 100 characters)"))
	}
	if !p.Status.IsValid() {
		return core.Invalid("status", fmt.Errorf("unknown project status %q", p.Status))
	}
	return nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return core.Invalid("title", errors.New("cannot be empty"))
	}
	if len(t.Title) > 200 {
		return core.Invalid("title", errors.New("too long (max 200 characters)"))
	}
	if t.ProjectID == "" {
		return core.Invalid("projectId", core.ErrMissingReference)
	}
	if t.Price.IsNegative() {
		return core.Invalid("price", core.ErrInvalidAmount)
	}
	if !t.Status.IsValid() {
		return core.Invalid("status", fmt.Errorf("unknown task status %q", t.Status))
	}
	if t.CompletionTime != nil {
		return t.CompletionTime.Validate()
	}
	return nil
}

// CompletedWithin reports whether the task is done and was completed
// between the start of from and the end of to, both UTC days.
func (t Task) CompletedWithin(from, to core.Date) bool {
	if t.Status != TaskDone || t.CompletedAt == nil {
		return false
	}
	at := t.CompletedAt.UTC()
	return !at.Before(from.StartOfDay()) && !at.After(to.EndOfDay())
}

func cloneTask(t Task) Task {
	t.Subtasks = append([]Subtask(nil), t.Subtasks...)
	return t
}
