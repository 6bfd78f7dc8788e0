package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/kvstore"
	"github.com/google/uuid"
)

// KVRepository stores per-user key-value pairs in postgres
type KVRepository struct {
	db *DB
}

// NewKVRepository creates a new key-value repository
func NewKVRepository(db *DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get returns the value for key, or kvstore.ErrNotFound
func (r *KVRepository) Get(ctx context.Context, userID uuid.UUID, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings_kv WHERE user_id = $1 AND key = $2`,
		userID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", kvstore.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key
func (r *KVRepository) Set(ctx context.Context, userID uuid.UUID, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings_kv (user_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, userID, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (r *KVRepository) Delete(ctx context.Context, userID uuid.UUID, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings_kv WHERE user_id = $1 AND key = $2`, userID, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
