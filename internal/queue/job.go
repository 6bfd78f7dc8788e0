package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/timestamp"
	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeObjectiveCompleted awards an objective's points and counts the day toward the streak
	JobTypeObjectiveCompleted JobType = "objective_completed"
	// JobTypeGoalsSynced runs the auto-pin pass after a user's goals were refreshed
	JobTypeGoalsSynced JobType = "goals_synced"
)

// Metadata keys for objective_completed jobs
const (
	MetadataObjectiveID = "objective_id"
	MetadataPoints      = "points"
	MetadataOccurredAt  = "occurred_at"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	NotBefore  *time.Time     `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// NewObjectiveCompletedJob creates a job that awards points for a completed objective
func NewObjectiveCompletedJob(userID, objectiveID uuid.UUID, points int, occurredAt time.Time) *Job {
	job := NewJob(JobTypeObjectiveCompleted, userID)
	job.Metadata[MetadataObjectiveID] = objectiveID.String()
	job.Metadata[MetadataPoints] = points
	job.Metadata[MetadataOccurredAt] = occurredAt.UTC().Format(time.RFC3339Nano)
	return job
}

// ObjectiveCompletion is the payload of an objective_completed job
type ObjectiveCompletion struct {
	ObjectiveID uuid.UUID
	Points      int
	OccurredAt  time.Time
}

// ObjectiveCompletion extracts the completion payload. Metadata that went through JSON
// carries numbers as float64; both that and native ints are accepted. A missing
// occurred_at falls back to the job's creation time.
func (j *Job) ObjectiveCompletion() (*ObjectiveCompletion, error) {
	if j.Type != JobTypeObjectiveCompleted {
		return nil, fmt.Errorf("job %s is %s, not %s", j.ID, j.Type, JobTypeObjectiveCompleted)
	}

	rawID, _ := j.Metadata[MetadataObjectiveID].(string)
	objectiveID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", MetadataObjectiveID, rawID, err)
	}

	points, err := metadataInt(j.Metadata[MetadataPoints])
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", MetadataPoints, err)
	}
	if points < 0 {
		return nil, fmt.Errorf("invalid %s: %d is negative", MetadataPoints, points)
	}

	occurredAt := j.CreatedAt
	if raw, ok := j.Metadata[MetadataOccurredAt].(string); ok && raw != "" {
		parsed, err := timestamp.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", MetadataOccurredAt, err)
		}
		occurredAt = parsed
	}

	return &ObjectiveCompletion{
		ObjectiveID: objectiveID,
		Points:      points,
		OccurredAt:  occurredAt,
	}, nil
}

func metadataInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case nil:
		return 0, fmt.Errorf("missing")
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
