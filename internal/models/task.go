package models

import (
	"time"

	"github.com/google/uuid"
)

// Task represents a task as supplied by the owning application.
// The planner core only reads tasks; it never mutates them.
type Task struct {
	ID          uuid.UUID  `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// HasDueDate reports whether the task carries a due date
func (t *Task) HasDueDate() bool {
	return t.DueDate != nil
}

// IsCompleted reports whether the task has been completed
func (t *Task) IsCompleted() bool {
	return t.CompletedAt != nil
}
