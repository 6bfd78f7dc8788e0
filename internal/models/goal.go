package models

import (
	"time"

	"github.com/google/uuid"
)

// ObjectiveStatus represents the status of an objective
type ObjectiveStatus string

const (
	ObjectiveStatusAvailable  ObjectiveStatus = "available"
	ObjectiveStatusInProgress ObjectiveStatus = "in_progress"
	ObjectiveStatusCompleted  ObjectiveStatus = "completed"
	ObjectiveStatusLocked     ObjectiveStatus = "locked"
	ObjectiveStatusSkipped    ObjectiveStatus = "skipped"
)

// Objective is one step of a goal's plan. It is owned by exactly one goal.
type Objective struct {
	ID             uuid.UUID       `json:"id" yaml:"id"`
	Title          string          `json:"title" yaml:"title"`
	Description    string          `json:"description" yaml:"description"`
	EstimatedHours float64         `json:"estimated_hours" yaml:"estimated_hours"`
	Points         int             `json:"points" yaml:"points"`
	Tier           string          `json:"tier" yaml:"tier"`
	Position       int             `json:"position" yaml:"position"`
	Status         ObjectiveStatus `json:"status" yaml:"status"`
}

// Goal represents a user goal and its ordered objectives.
// IsPinned and PinnedAt move together: a goal is pinned exactly when PinnedAt is set.
type Goal struct {
	ID         uuid.UUID   `json:"id" yaml:"id"`
	UserID     uuid.UUID   `json:"user_id" yaml:"user_id"`
	Title      string      `json:"title" yaml:"title"`
	IsPinned   bool        `json:"is_pinned" yaml:"is_pinned"`
	PinnedAt   *time.Time  `json:"pinned_at,omitempty" yaml:"pinned_at,omitempty"`
	CreatedAt  *time.Time  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Objectives []Objective `json:"objectives" yaml:"objectives"`
}

// IsActive reports whether the goal still has work left.
// A goal without objectives counts as active.
func (g *Goal) IsActive() bool {
	if len(g.Objectives) == 0 {
		return true
	}
	for _, o := range g.Objectives {
		if o.Status != ObjectiveStatusCompleted && o.Status != ObjectiveStatusSkipped {
			return true
		}
	}
	return false
}
