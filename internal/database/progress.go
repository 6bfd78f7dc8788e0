package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
)

// ProgressRepository handles user progress database operations
type ProgressRepository struct {
	db *DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get returns the user's progress, or a zero record when none is stored
func (r *ProgressRepository) Get(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error) {
	p, err := getProgress(ctx, r.db, userID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return p, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getProgress(ctx context.Context, db queryRower, userID uuid.UUID, forUpdate bool) (*models.UserProgress, error) {
	p := &models.UserProgress{UserID: userID}
	var lastActivity sql.NullTime

	query := `
		SELECT total_points, current_streak, longest_streak, last_activity_at, updated_at
		FROM user_progress
		WHERE user_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}
	err := db.QueryRowContext(ctx, query, userID).Scan(
		&p.TotalPoints,
		&p.Streak.CurrentStreak,
		&p.Streak.LongestStreak,
		&lastActivity,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	p.Streak.LastActivityAt = timePtr(lastActivity)
	return p, nil
}

const upsertProgressQuery = `
	INSERT INTO user_progress (user_id, total_points, current_streak, longest_streak, last_activity_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (user_id) DO UPDATE
	SET total_points = EXCLUDED.total_points,
	    current_streak = EXCLUDED.current_streak,
	    longest_streak = EXCLUDED.longest_streak,
	    last_activity_at = EXCLUDED.last_activity_at,
	    updated_at = EXCLUDED.updated_at
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveProgress(ctx context.Context, db execer, p *models.UserProgress) error {
	p.UpdatedAt = time.Now()
	_, err := db.ExecContext(ctx, upsertProgressQuery,
		p.UserID,
		p.TotalPoints,
		p.Streak.CurrentStreak,
		p.Streak.LongestStreak,
		nullTime(p.Streak.LastActivityAt),
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// Update locks the user's progress row, passes the stored progress to apply and saves
// the result, all in one transaction, so concurrent updates for a user serialize.
// When completion is set it is recorded in the same transaction; if it was already
// recorded, apply is not called, nothing is written and the stored progress is
// returned with applied set to false.
func (r *ProgressRepository) Update(ctx context.Context, userID uuid.UUID, completion *Completion, apply func(p *models.UserProgress)) (*models.UserProgress, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The row must exist before it can be locked.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_progress (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, false, fmt.Errorf("failed to create progress: %w", err)
	}

	p, err := getProgress(ctx, tx, userID, true)
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock progress: %w", err)
	}

	if completion != nil {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO objective_completions (objective_id, user_id, points, completed_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (objective_id) DO NOTHING
		`, completion.ObjectiveID, userID, completion.Points, completion.CompletedAt)
		if err != nil {
			return nil, false, fmt.Errorf("failed to record completion: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return nil, false, fmt.Errorf("failed to check completion: %w", err)
		}
		if n == 0 {
			return p, false, nil
		}
	}

	apply(p)
	if err := saveProgress(ctx, tx, p); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit progress: %w", err)
	}
	return p, true, nil
}
