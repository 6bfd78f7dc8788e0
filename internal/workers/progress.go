package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/calendar"
	"github.com/benvon/smart-planner/internal/database"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/pinning"
	"github.com/benvon/smart-planner/internal/progression"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/telemetry"
	"go.uber.org/zap"
)

// errMalformedJob marks jobs that can never succeed and go straight to the DLQ
var errMalformedJob = errors.New("malformed job")

// baseRetryDelay is the first retry delay; it doubles with every attempt
const baseRetryDelay = 5 * time.Second

// ProgressWorker applies objective completions to user progress and keeps goal pins in shape
type ProgressWorker struct {
	goalRepo     database.GoalRepositoryInterface
	progressRepo database.ProgressRepositoryInterface
	jobQueue     queue.JobQueue // For re-enqueueing jobs with delays
	pins         *pinning.Manager
	cal          calendar.Calendar
	logger       *zap.Logger
	now          func() time.Time
}

// NewProgressWorker creates a new progress worker
func NewProgressWorker(
	goalRepo database.GoalRepositoryInterface,
	progressRepo database.ProgressRepositoryInterface,
	jobQueue queue.JobQueue,
	pins *pinning.Manager,
	cal calendar.Calendar,
	logger *zap.Logger,
) *ProgressWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pins == nil {
		pins = pinning.NewManager(pinning.MaxPinnedGoals, logger)
	}
	return &ProgressWorker{
		goalRepo:     goalRepo,
		progressRepo: progressRepo,
		jobQueue:     jobQueue,
		pins:         pins,
		cal:          cal,
		logger:       logger,
		now:          time.Now,
	}
}

// ProcessJob dispatches a message by job type and acknowledges it
func (w *ProgressWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	ctx, span := telemetry.StartJobSpan(ctx, string(job.Type), job.ID.String(), job.UserID.String())
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	switch job.Type {
	case queue.JobTypeObjectiveCompleted:
		err = w.ProcessObjectiveCompleted(ctx, job)
	case queue.JobTypeGoalsSynced:
		err = w.ProcessGoalsSynced(ctx, job)
	default:
		err = fmt.Errorf("%w: unknown job type %s", errMalformedJob, job.Type)
	}

	if err != nil {
		return w.handleJobError(ctx, msg, job, err)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// ProcessObjectiveCompleted adds the objective's points and counts the activity day toward the streak.
// Completions are recorded once per objective; replays are acknowledged without changing progress.
func (w *ProgressWorker) ProcessObjectiveCompleted(ctx context.Context, job *queue.Job) error {
	completion, err := job.ObjectiveCompletion()
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedJob, err)
	}

	var change progression.LevelChange
	progress, applied, err := w.progressRepo.Update(ctx, job.UserID, &database.Completion{
		ObjectiveID: completion.ObjectiveID,
		Points:      completion.Points,
		CompletedAt: completion.OccurredAt,
	}, func(p *models.UserProgress) {
		change = progression.ApplyActivity(p, completion.Points, completion.OccurredAt, w.cal)
	})
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	if !applied {
		w.logger.Info("objective_completion_duplicate",
			zap.String("job_id", job.ID.String()),
			zap.String("objective_id", completion.ObjectiveID.String()),
		)
		return nil
	}

	w.logger.Info("progress_updated",
		zap.String("user_id", job.UserID.String()),
		zap.Int("points_awarded", completion.Points),
		zap.Int("total_points", progress.TotalPoints),
		zap.Int("level", change.To),
		zap.Int("current_streak", progress.Streak.CurrentStreak),
	)
	if change.LeveledUp() {
		w.logger.Info("level_up",
			zap.String("user_id", job.UserID.String()),
			zap.Int("from_level", change.From),
			zap.Int("to_level", change.To),
		)
	}
	return nil
}

// ProcessGoalsSynced pins the newest active goal when the user has no pinned goal.
func (w *ProgressWorker) ProcessGoalsSynced(ctx context.Context, job *queue.Job) error {
	goals, err := w.goalRepo.ListByUser(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to list goals: %w", err)
	}

	pinned := w.pins.AutoPinGoals(goals, w.now())
	if pinned == nil {
		return nil
	}
	if err := w.goalRepo.SavePins(ctx, pinned); err != nil {
		return fmt.Errorf("failed to save auto pin: %w", err)
	}
	w.logger.Info("goal_auto_pin_saved",
		zap.String("user_id", job.UserID.String()),
		zap.String("goal_id", pinned.ID.String()),
	)
	return nil
}

// handleJobError retries transient failures with exponential backoff and dead-letters the rest
func (w *ProgressWorker) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if errors.Is(err, errMalformedJob) || !job.CanRetry() {
		w.logger.Error("job_dead_lettered",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("job %s failed permanently: %w", job.ID, err)
	}

	delay := retryDelay(job.RetryCount)
	if w.jobQueue != nil {
		retry := *job
		notBefore := w.now().Add(delay)
		retry.NotBefore = &notBefore
		retry.RetryCount = job.RetryCount + 1

		enqueueErr := w.jobQueue.Enqueue(ctx, &retry)
		if enqueueErr == nil {
			if ackErr := msg.Ack(); ackErr != nil {
				w.logger.Warn("job_ack_failed", zap.String("job_id", job.ID.String()), zap.Error(ackErr))
			}
			w.logger.Warn("job_retry_scheduled",
				zap.String("job_id", job.ID.String()),
				zap.Int("attempt", retry.RetryCount),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			return fmt.Errorf("job %s will retry: %w", job.ID, err)
		}
		w.logger.Warn("job_reenqueue_failed", zap.String("job_id", job.ID.String()), zap.Error(enqueueErr))
	}

	// Without a queue to re-enqueue on, hand the message back to the broker
	if nackErr := msg.Nack(true); nackErr != nil {
		w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
	}
	return fmt.Errorf("job %s requeued: %w", job.ID, err)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 10 {
		attempt = 10
	}
	return baseRetryDelay << attempt
}
