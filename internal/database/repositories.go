package database

import (
	"context"
	"time"

	"github.com/benvon/smart-planner/internal/kvstore"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
)

// GoalRepositoryInterface defines the interface for goal repository operations
// This interface enables better testability by allowing mock implementations
type GoalRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Goal, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Goal, error)
	Upsert(ctx context.Context, goal *models.Goal) error
	SavePins(ctx context.Context, goals ...*models.Goal) error
}

// ProgressRepositoryInterface defines the interface for progress repository operations
type ProgressRepositoryInterface interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error)
	Update(ctx context.Context, userID uuid.UUID, completion *Completion, apply func(p *models.UserProgress)) (*models.UserProgress, bool, error)
}

// Completion is an objective completion that counts toward progress at most once
type Completion struct {
	ObjectiveID uuid.UUID
	Points      int
	CompletedAt time.Time
}

// Ensure concrete types implement the interfaces
var (
	_ GoalRepositoryInterface     = (*GoalRepository)(nil)
	_ ProgressRepositoryInterface = (*ProgressRepository)(nil)
	_ kvstore.Store               = (*KVRepository)(nil)
)
