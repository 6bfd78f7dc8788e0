package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/benvon/smart-planner/internal/database"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/pinning"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/upstream"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// JobEnqueuer publishes background jobs. queue.JobQueue satisfies it.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// GoalHandler serves goal listing, syncing and pinning
type GoalHandler struct {
	goals  database.GoalRepositoryInterface
	pins   *pinning.Manager
	jobs   JobEnqueuer
	now    func() time.Time
	logger *zap.Logger
}

// NewGoalHandler creates a goal handler. jobs may be nil, in which case the
// auto-pin pass after a sync runs inline.
func NewGoalHandler(goals database.GoalRepositoryInterface, pins *pinning.Manager, jobs JobEnqueuer, logger *zap.Logger) *GoalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoalHandler{goals: goals, pins: pins, jobs: jobs, now: time.Now, logger: logger}
}

// RegisterRoutes registers goal routes on a router already prefixed with /goals
func (h *GoalHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListGoals).Methods("GET")
	r.HandleFunc("/sync", h.SyncGoals).Methods("POST")
	r.HandleFunc("/autopin", h.AutoPin).Methods("POST")
	r.HandleFunc("/{id}/pin", h.PinGoal).Methods("POST")
	r.HandleFunc("/{id}/pin", h.UnpinGoal).Methods("DELETE")
}

// GoalsResponse lists a user's goals along with the pinned subset
type GoalsResponse struct {
	Goals     []*models.Goal `json:"goals"`
	Pinned    []*models.Goal `json:"pinned"`
	MaxPinned int            `json:"max_pinned"`
}

// PinResponse reports the goal that was pinned and the one evicted to make room, if any
type PinResponse struct {
	Goal    *models.Goal `json:"goal"`
	Evicted *models.Goal `json:"evicted,omitempty"`
}

// AutoPinResponse reports whether the auto-pin pass pinned a goal
type AutoPinResponse struct {
	Pinned bool         `json:"pinned"`
	Goal   *models.Goal `json:"goal,omitempty"`
}

// SyncResponse summarizes a goal sync
type SyncResponse struct {
	Synced     int          `json:"synced"`
	AutoPinned *models.Goal `json:"auto_pinned,omitempty"`
	Queued     bool         `json:"queued"`
}

func (h *GoalHandler) listGoals(w http.ResponseWriter, r *http.Request, userID uuid.UUID) ([]*models.Goal, bool) {
	goals, err := h.goals.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("goal_list_failed", zap.String("user_id", userID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve goals")
		return nil, false
	}
	return goals, true
}

func findGoal(goals []*models.Goal, id uuid.UUID) *models.Goal {
	for _, g := range goals {
		if g != nil && g.ID == id {
			return g
		}
	}
	return nil
}

// ListGoals lists the user's goals
func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	goals, ok := h.listGoals(w, r, userID)
	if !ok {
		return
	}
	if goals == nil {
		goals = []*models.Goal{}
	}

	respondJSON(w, http.StatusOK, GoalsResponse{
		Goals:     goals,
		Pinned:    h.pins.PinnedGoals(goals),
		MaxPinned: h.pins.MaxPinned(),
	})
}

// SyncGoals stores a batch of goal records from the planner API. Pin state is owned
// locally, so goals that already exist keep their pins.
func (h *GoalHandler) SyncGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body too large")
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	incoming, err := upstream.DecodeGoals(body)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	existing, ok := h.listGoals(w, r, userID)
	if !ok {
		return
	}

	ctx := r.Context()
	for _, g := range incoming {
		g.UserID = userID
		if prev := findGoal(existing, g.ID); prev != nil {
			g.IsPinned, g.PinnedAt = prev.IsPinned, prev.PinnedAt
		} else {
			g.IsPinned, g.PinnedAt = false, nil
		}
		if err := h.goals.Upsert(ctx, g); err != nil {
			h.logger.Error("goal_upsert_failed", zap.String("goal_id", g.ID.String()), zap.Error(err))
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store goals")
			return
		}
	}

	resp := SyncResponse{Synced: len(incoming)}
	if h.jobs != nil {
		err := h.jobs.Enqueue(ctx, queue.NewJob(queue.JobTypeGoalsSynced, userID))
		if err == nil {
			resp.Queued = true
			h.logger.Info("goals_synced", zap.String("user_id", userID.String()), zap.Int("count", len(incoming)), zap.Bool("queued", true))
			respondJSON(w, http.StatusOK, resp)
			return
		}
		h.logger.Warn("goals_synced_enqueue_failed", zap.String("user_id", userID.String()), zap.Error(err))
	}

	// Without a queue the auto-pin pass runs here.
	all, ok := h.listGoals(w, r, userID)
	if !ok {
		return
	}
	if pinned := h.pins.AutoPinGoals(all, h.now()); pinned != nil {
		if err := h.goals.SavePins(ctx, pinned); err != nil {
			h.logger.Error("goal_pin_save_failed", zap.String("goal_id", pinned.ID.String()), zap.Error(err))
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save pins")
			return
		}
		resp.AutoPinned = pinned
	}

	h.logger.Info("goals_synced", zap.String("user_id", userID.String()), zap.Int("count", len(incoming)), zap.Bool("queued", false))
	respondJSON(w, http.StatusOK, resp)
}

// PinGoal pins a goal, evicting the oldest pin when the cap is reached
func (h *GoalHandler) PinGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	goals, ok := h.listGoals(w, r, userID)
	if !ok {
		return
	}
	goal := findGoal(goals, id)
	if goal == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Goal not found")
		return
	}

	wasPinned := make(map[uuid.UUID]bool, len(goals))
	for _, g := range goals {
		wasPinned[g.ID] = g.IsPinned
	}

	evicted := h.pins.Pin(goal, goals, h.now())

	// Repairing an over-cap set can evict more than the one goal Pin returns.
	changed := []*models.Goal{goal}
	for _, g := range goals {
		if g != goal && wasPinned[g.ID] && !g.IsPinned {
			changed = append(changed, g)
		}
	}
	if err := h.goals.SavePins(r.Context(), changed...); err != nil {
		h.logger.Error("goal_pin_save_failed", zap.String("goal_id", id.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save pins")
		return
	}

	respondJSON(w, http.StatusOK, PinResponse{Goal: goal, Evicted: evicted})
}

// UnpinGoal removes the pin from a goal
func (h *GoalHandler) UnpinGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	goals, ok := h.listGoals(w, r, userID)
	if !ok {
		return
	}
	goal := findGoal(goals, id)
	if goal == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Goal not found")
		return
	}

	h.pins.Unpin(goal)
	if err := h.goals.SavePins(r.Context(), goal); err != nil {
		h.logger.Error("goal_pin_save_failed", zap.String("goal_id", id.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save pins")
		return
	}

	respondJSON(w, http.StatusOK, PinResponse{Goal: goal})
}

// AutoPin pins the newest active goal when the user has no pinned goal
func (h *GoalHandler) AutoPin(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	goals, ok := h.listGoals(w, r, userID)
	if !ok {
		return
	}

	pinned := h.pins.AutoPinGoals(goals, h.now())
	if pinned != nil {
		if err := h.goals.SavePins(r.Context(), pinned); err != nil {
			h.logger.Error("goal_pin_save_failed", zap.String("goal_id", pinned.ID.String()), zap.Error(err))
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save pins")
			return
		}
	}

	respondJSON(w, http.StatusOK, AutoPinResponse{Pinned: pinned != nil, Goal: pinned})
}
