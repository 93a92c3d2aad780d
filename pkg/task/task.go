package task

import (
	"strings"

	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
)

type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

type Task struct {
	record.Meta
	Title     string          `json:"title"`
	Notes     string          `json:"notes,omitempty"`
	DueDate   recurrence.Date `json:"dueDate"`
	Priority  Priority        `json:"priority"`
	Completed bool            `json:"completed"`
	// Pomodoros is the number of focus sessions spent on the task.
	Pomodoros int `json:"pomodoros"`
}

// Points is the gamification score awarded for a completed task.
func (t Task) Points() int {
	if !t.Completed {
		return 0
	}
	return 10*(int(t.Priority)+1) + 5*t.Pomodoros
}

func (t Task) RecordDate() recurrence.Date { return t.DueDate }
func (t Task) SortKey() string             { return t.Title }

func (t Task) WithId(id string) Task {
	t.Id = id
	return t
}

func (t Task) WithDate(d recurrence.Date) Task {
	t.DueDate = d
	return t
}

func (t Task) WithLink(l record.Link) Task {
	t.Meta = t.Meta.Linked(l)
	return t
}

func (t Task) Validate() error {
	if err := t.ValidateRecurrence(t.RecordDate()); err != nil {
		return err
	}
	if strings.TrimSpace(t.Title) == "" {
		return record.Invalid("title", "is required")
	}
	if !t.DueDate.IsZero() && !t.DueDate.Valid() {
		return record.Invalid("dueDate", "is not a valid calendar date")
	}
	if t.DueDate.IsZero() && t.Recurrence().Count() > 1 {
		return record.Invalid("dueDate", "is required for recurring tasks")
	}
	if t.Priority < PriorityLow || t.Priority > PriorityHigh {
		return record.Invalid("priority", "out of range")
	}
	if t.Pomodoros < 0 {
		return record.Invalid("pomodoros", "must not be negative")
	}
	return nil
}
