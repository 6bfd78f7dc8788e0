package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/validation"
)

func decode[T any](data []byte, kind string) (*T, error) {
	var rec T
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode %s record: %w", kind, err)
	}
	if err := validation.Validate.Struct(&rec); err != nil {
		return nil, fmt.Errorf("invalid %s record: %s", kind, validation.FormatErrors(err))
	}
	return &rec, nil
}

// DecodeGoal decodes and validates a single goal record.
func DecodeGoal(data []byte) (*models.Goal, error) {
	rec, err := decode[GoalRecord](data, "goal")
	if err != nil {
		return nil, err
	}
	return rec.ToModel(), nil
}

// DecodeGoals decodes a JSON array of goal records. One bad record fails the batch.
func DecodeGoals(data []byte) ([]*models.Goal, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode goal list: %w", err)
	}
	goals := make([]*models.Goal, 0, len(raw))
	for i, item := range raw {
		g, err := DecodeGoal(item)
		if err != nil {
			return nil, fmt.Errorf("goal %d: %w", i, err)
		}
		goals = append(goals, g)
	}
	return goals, nil
}

// DecodeTasks decodes a JSON array of task records. One bad record fails the batch.
func DecodeTasks(data []byte) ([]*models.Task, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode task list: %w", err)
	}
	tasks := make([]*models.Task, 0, len(raw))
	for i, item := range raw {
		rec, err := decode[TaskRecord](item, "task")
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		tasks = append(tasks, rec.ToModel())
	}
	return tasks, nil
}

// DecodePlanVersion decodes and validates a plan-version record.
func DecodePlanVersion(data []byte) (*PlanVersionRecord, error) {
	return decode[PlanVersionRecord](data, "plan version")
}

// DecodeJobStatus decodes and validates a job-status record.
func DecodeJobStatus(data []byte) (*JobStatusRecord, error) {
	return decode[JobStatusRecord](data, "job status")
}
