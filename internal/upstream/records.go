// Package upstream decodes task, goal, plan and job records produced by the planner API.
//
// Every timestamp goes through the timestamp package's fallback chain. A timestamp that
// cannot be decoded fails the whole record; no default date is substituted.
package upstream

import (
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/timestamp"
	"github.com/google/uuid"
)

// TaskRecord is a task as supplied by the owning application
type TaskRecord struct {
	ID          uuid.UUID       `json:"id" yaml:"id" validate:"required"`
	Title       string          `json:"title" yaml:"title" validate:"required,max=1000"`
	DueDate     *timestamp.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	CreatedAt   timestamp.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   timestamp.Time  `json:"updated_at" yaml:"updated_at"`
	CompletedAt *timestamp.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// ObjectiveRecord is an objective as returned by the planner API
type ObjectiveRecord struct {
	ID             uuid.UUID       `json:"id" yaml:"id" validate:"required"`
	Title          string          `json:"title" yaml:"title" validate:"required,max=500"`
	Description    string          `json:"description" yaml:"description"`
	EstimatedHours float64         `json:"estimated_hours" yaml:"estimated_hours" validate:"gte=0"`
	Points         int             `json:"points" yaml:"points" validate:"gte=0"`
	Tier           string          `json:"tier" yaml:"tier"`
	Position       int             `json:"position" yaml:"position" validate:"gte=0"`
	Status         string          `json:"status" yaml:"status" validate:"required,objective_status"`
	CompletedAt    *timestamp.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// GoalRecord is a goal as returned by the planner API
type GoalRecord struct {
	ID         uuid.UUID         `json:"id" yaml:"id" validate:"required"`
	UserID     uuid.UUID         `json:"user_id" yaml:"user_id"`
	Title      string            `json:"title" yaml:"title" validate:"required,max=500"`
	IsPinned   bool              `json:"is_pinned" yaml:"is_pinned"`
	PinnedAt   *timestamp.Time   `json:"pinned_at,omitempty" yaml:"pinned_at,omitempty"`
	CreatedAt  *timestamp.Time   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Objectives []ObjectiveRecord `json:"objectives" yaml:"objectives" validate:"dive"`
}

// PlanVersionRecord is one generated plan for a goal. RawResponse is opaque and only
// inspected for the presence of keys.
type PlanVersionRecord struct {
	ID          uuid.UUID      `json:"id" yaml:"id" validate:"required"`
	GoalID      uuid.UUID      `json:"goal_id" yaml:"goal_id" validate:"required"`
	Version     int            `json:"version" yaml:"version" validate:"gte=1"`
	CreatedAt   timestamp.Time `json:"created_at" yaml:"created_at"`
	RawResponse map[string]any `json:"raw_response" yaml:"raw_response"`
}

// HasField reports whether the raw response carries key at the top level.
func (p *PlanVersionRecord) HasField(key string) bool {
	if p.RawResponse == nil {
		return false
	}
	_, ok := p.RawResponse[key]
	return ok
}

// JobStatus is the lifecycle state of an upstream plan-generation job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobStatusRecord reports the progress of an upstream job
type JobStatusRecord struct {
	JobID       uuid.UUID       `json:"job_id" yaml:"job_id" validate:"required"`
	GoalID      *uuid.UUID      `json:"goal_id,omitempty" yaml:"goal_id,omitempty"`
	Status      JobStatus       `json:"status" yaml:"status" validate:"required,oneof=pending running completed failed"`
	Error       string          `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt   timestamp.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   *timestamp.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	CompletedAt *timestamp.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// IsTerminal reports whether the job will not change state again
func (j *JobStatusRecord) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// ToModel converts the record into the domain task
func (t *TaskRecord) ToModel() *models.Task {
	return &models.Task{
		ID:          t.ID,
		Title:       t.Title,
		DueDate:     t.DueDate.Ptr(),
		CreatedAt:   t.CreatedAt.Time,
		UpdatedAt:   t.UpdatedAt.Time,
		CompletedAt: t.CompletedAt.Ptr(),
	}
}

// TasksToModels converts a batch of records, keeping input order.
func TasksToModels(records []TaskRecord) []*models.Task {
	tasks := make([]*models.Task, 0, len(records))
	for i := range records {
		tasks = append(tasks, records[i].ToModel())
	}
	return tasks
}

// GoalsToModels converts a batch of records, keeping input order.
func GoalsToModels(records []GoalRecord) []*models.Goal {
	goals := make([]*models.Goal, 0, len(records))
	for i := range records {
		goals = append(goals, records[i].ToModel())
	}
	return goals
}

// ToModel converts the record into the domain objective
func (o ObjectiveRecord) ToModel() models.Objective {
	return models.Objective{
		ID:             o.ID,
		Title:          o.Title,
		Description:    o.Description,
		EstimatedHours: o.EstimatedHours,
		Points:         o.Points,
		Tier:           o.Tier,
		Position:       o.Position,
		Status:         models.ObjectiveStatus(o.Status),
	}
}

// ToModel converts the record into the domain goal.
// A pin flag without a timestamp, or a timestamp without the flag, is normalized so that
// IsPinned is true exactly when PinnedAt is set.
func (g *GoalRecord) ToModel() *models.Goal {
	goal := &models.Goal{
		ID:         g.ID,
		UserID:     g.UserID,
		Title:      g.Title,
		CreatedAt:  g.CreatedAt.Ptr(),
		Objectives: make([]models.Objective, 0, len(g.Objectives)),
	}
	if pinnedAt := g.PinnedAt.Ptr(); g.IsPinned && pinnedAt != nil {
		goal.IsPinned = true
		goal.PinnedAt = pinnedAt
	}
	for _, o := range g.Objectives {
		goal.Objectives = append(goal.Objectives, o.ToModel())
	}
	return goal
}
