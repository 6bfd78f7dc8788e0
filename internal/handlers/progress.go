package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/smart-planner/internal/calendar"
	"github.com/benvon/smart-planner/internal/database"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/progression"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/timestamp"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ProgressHandler serves level, points and streak progression
type ProgressHandler struct {
	progress database.ProgressRepositoryInterface
	jobs     JobEnqueuer
	cal      calendar.Calendar
	now      func() time.Time
	logger   *zap.Logger
}

// NewProgressHandler creates a progress handler. jobs may be nil, which disables
// asynchronous objective completion.
func NewProgressHandler(progress database.ProgressRepositoryInterface, jobs JobEnqueuer, cal calendar.Calendar, logger *zap.Logger) *ProgressHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressHandler{progress: progress, jobs: jobs, cal: cal, now: time.Now, logger: logger}
}

// RegisterRoutes registers progress routes on a router already prefixed with /progress
func (h *ProgressHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetProgress).Methods("GET")
	r.HandleFunc("/activity", h.RecordActivity).Methods("POST")
	r.HandleFunc("/objectives/{id}/complete", h.CompleteObjective).Methods("POST")
}

// ProgressResponse is the level and streak view of a user's progress
type ProgressResponse struct {
	Summary     models.ProgressSummary `json:"summary"`
	Streak      models.StreakState     `json:"streak"`
	StreakAlive bool                   `json:"streak_alive"`
	LeveledUp   bool                   `json:"leveled_up,omitempty"`
	Duplicate   bool                   `json:"duplicate,omitempty"`
}

// ActivityRequest records points earned at a point in time. When ObjectiveID is set
// the activity is recorded at most once per objective.
type ActivityRequest struct {
	Points      int             `json:"points" validate:"gte=0,lte=1000000"`
	OccurredAt  *timestamp.Time `json:"occurred_at,omitempty"`
	ObjectiveID *uuid.UUID      `json:"objective_id,omitempty"`
}

// CompleteObjectiveRequest carries the points of an objective completed upstream
type CompleteObjectiveRequest struct {
	Points     int             `json:"points" validate:"gte=0,lte=1000000"`
	OccurredAt *timestamp.Time `json:"occurred_at,omitempty"`
}

func (h *ProgressHandler) view(p *models.UserProgress) ProgressResponse {
	return ProgressResponse{
		Summary:     progression.Summarize(p.TotalPoints),
		Streak:      p.Streak,
		StreakAlive: progression.IsStreakAlive(p.Streak, h.now(), h.cal),
	}
}

// GetProgress returns the user's level summary and streak
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	p, err := h.progress.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("progress_load_failed", zap.String("user_id", userID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve progress")
		return
	}

	respondJSON(w, http.StatusOK, h.view(p))
}

// RecordActivity applies points and a streak day synchronously
func (h *ProgressHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ActivityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	at := nowOr(req.OccurredAt, h.now)

	var completion *database.Completion
	if req.ObjectiveID != nil {
		completion = &database.Completion{ObjectiveID: *req.ObjectiveID, Points: req.Points, CompletedAt: at}
	}

	var change progression.LevelChange
	p, applied, err := h.progress.Update(r.Context(), userID, completion, func(p *models.UserProgress) {
		change = progression.ApplyActivity(p, req.Points, at, h.cal)
	})
	if err != nil {
		h.logger.Error("progress_save_failed", zap.String("user_id", userID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save progress")
		return
	}

	resp := h.view(p)
	resp.Duplicate = !applied
	resp.LeveledUp = applied && change.LeveledUp()
	if resp.LeveledUp {
		h.logger.Info("level_up",
			zap.String("user_id", userID.String()),
			zap.Int("from", change.From),
			zap.Int("to", change.To),
		)
	}
	respondJSON(w, http.StatusOK, resp)
}

// CompleteObjective queues an objective completion for the progress worker
func (h *ProgressHandler) CompleteObjective(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	objectiveID, ok := pathID(w, r)
	if !ok {
		return
	}
	if h.jobs == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Job queue is not configured")
		return
	}

	var req CompleteObjectiveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	job := queue.NewObjectiveCompletedJob(userID, objectiveID, req.Points, nowOr(req.OccurredAt, h.now))
	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("objective_completion_enqueue_failed",
			zap.String("user_id", userID.String()),
			zap.String("objective_id", objectiveID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to queue objective completion")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"job_id":       job.ID,
		"objective_id": objectiveID,
	})
}
