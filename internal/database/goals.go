package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
)

// GoalRepository handles goal database operations
type GoalRepository struct {
	db *DB
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db *DB) *GoalRepository {
	return &GoalRepository{db: db}
}

const goalColumns = `id, user_id, title, is_pinned, pinned_at, created_at, objectives`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*models.Goal, error) {
	goal := &models.Goal{}
	var pinnedAt, createdAt sql.NullTime
	var objectivesJSON []byte

	if err := row.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Title,
		&goal.IsPinned,
		&pinnedAt,
		&createdAt,
		&objectivesJSON,
	); err != nil {
		return nil, err
	}

	goal.PinnedAt = timePtr(pinnedAt)
	goal.CreatedAt = timePtr(createdAt)

	objectives, err := decodeObjectives(objectivesJSON)
	if err != nil {
		return nil, err
	}
	goal.Objectives = objectives
	return goal, nil
}

func encodeObjectives(objectives []models.Objective) ([]byte, error) {
	if objectives == nil {
		objectives = []models.Objective{}
	}
	data, err := json.Marshal(objectives)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal objectives: %w", err)
	}
	return data, nil
}

func decodeObjectives(data []byte) ([]models.Objective, error) {
	objectives := []models.Objective{}
	if len(data) == 0 {
		return objectives, nil
	}
	if err := json.Unmarshal(data, &objectives); err != nil {
		return nil, fmt.Errorf("failed to unmarshal objectives: %w", err)
	}
	return objectives, nil
}

// GetByID retrieves a goal by ID
func (r *GoalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`

	goal, err := scanGoal(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return goal, nil
}

// ListByUser returns every goal owned by userID, newest first
func (r *GoalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Goal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM goals
		WHERE user_id = $1
		ORDER BY created_at DESC NULLS LAST, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []*models.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}
	return goals, nil
}

// Upsert inserts a goal or replaces its title, pin state and objectives
func (r *GoalRepository) Upsert(ctx context.Context, goal *models.Goal) error {
	objectivesJSON, err := encodeObjectives(goal.Objectives)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO goals (id, user_id, title, is_pinned, pinned_at, created_at, objectives, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    is_pinned = EXCLUDED.is_pinned,
		    pinned_at = EXCLUDED.pinned_at,
		    created_at = EXCLUDED.created_at,
		    objectives = EXCLUDED.objectives,
		    updated_at = EXCLUDED.updated_at
		WHERE goals.user_id = EXCLUDED.user_id
	`

	_, err = r.db.ExecContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.IsPinned,
		nullTime(goal.PinnedAt),
		nullTime(goal.CreatedAt),
		objectivesJSON,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert goal: %w", err)
	}
	return nil
}

// SavePins writes the pin state of goals in one transaction
func (r *GoalRepository) SavePins(ctx context.Context, goals ...*models.Goal) error {
	if len(goals) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `UPDATE goals SET is_pinned = $2, pinned_at = $3, updated_at = $4 WHERE id = $1`
	now := time.Now()
	for _, g := range goals {
		if g == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, g.ID, g.IsPinned, nullTime(g.PinnedAt), now); err != nil {
			return fmt.Errorf("failed to save pin for goal %s: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pins: %w", err)
	}
	return nil
}
