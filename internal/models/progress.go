package models

import (
	"time"

	"github.com/google/uuid"
)

// StreakState tracks consecutive calendar days with qualifying activity
type StreakState struct {
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// UserProgress is the persisted progression record for a user
type UserProgress struct {
	UserID      uuid.UUID   `json:"user_id"`
	TotalPoints int         `json:"total_points"`
	Streak      StreakState `json:"streak"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ProgressSummary is the derived level view of a point total
type ProgressSummary struct {
	Level              int     `json:"level"`
	TotalPoints        int     `json:"total_points"`
	CurrentLevelPoints int     `json:"current_level_points"`
	NextLevelPoints    int     `json:"next_level_points"`
	PointsToNextLevel  int     `json:"points_to_next_level"`
	LevelProgress      float64 `json:"level_progress"`
}
