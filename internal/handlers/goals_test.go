package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/pinning"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/google/uuid"
)

var goalsNow = time.Date(2025, 12, 13, 12, 0, 0, 0, time.UTC)

func newGoalHandlerForTest(repo *mockGoalRepo, jobs JobEnqueuer) *GoalHandler {
	h := NewGoalHandler(repo, pinning.NewManager(3, nil), jobs, nil)
	h.now = func() time.Time { return goalsNow }
	return h
}

func pinnedAt(title string, at time.Time) *models.Goal {
	return &models.Goal{ID: uuid.New(), Title: title, IsPinned: true, PinnedAt: timePtr(at)}
}

func TestGoalHandler_ListGoals(t *testing.T) {
	t.Parallel()

	older := pinnedAt("older", goalsNow.Add(-2*time.Hour))
	newer := pinnedAt("newer", goalsNow.Add(-time.Hour))
	plain := &models.Goal{ID: uuid.New(), Title: "plain"}
	repo := &mockGoalRepo{
		listByUserFunc: func(_ context.Context, _ uuid.UUID) ([]*models.Goal, error) {
			return []*models.Goal{older, plain, newer}, nil
		},
	}

	w := serve(t, newGoalHandlerForTest(repo, nil), "/goals", uuid.New(), httptest.NewRequest("GET", "/goals", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp GoalsResponse
	decodeEnvelope(t, w, &resp)
	if len(resp.Goals) != 3 {
		t.Errorf("Expected 3 goals, got %d", len(resp.Goals))
	}
	if len(resp.Pinned) != 2 || resp.Pinned[0].ID != newer.ID || resp.Pinned[1].ID != older.ID {
		t.Errorf("Expected pinned goals newest first, got %+v", resp.Pinned)
	}
	if resp.MaxPinned != 3 {
		t.Errorf("Expected max_pinned 3, got %d", resp.MaxPinned)
	}
}

func TestGoalHandler_RequiresUser(t *testing.T) {
	t.Parallel()

	w := serve(t, newGoalHandlerForTest(&mockGoalRepo{}, nil), "/goals", uuid.Nil, httptest.NewRequest("GET", "/goals", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestGoalHandler_PinEvictsOldest(t *testing.T) {
	t.Parallel()

	a := pinnedAt("a", goalsNow.Add(-3*time.Hour))
	b := pinnedAt("b", goalsNow.Add(-2*time.Hour))
	c := pinnedAt("c", goalsNow.Add(-time.Hour))
	d := &models.Goal{ID: uuid.New(), Title: "d"}

	var saved []*models.Goal
	repo := &mockGoalRepo{
		listByUserFunc: func(_ context.Context, _ uuid.UUID) ([]*models.Goal, error) {
			return []*models.Goal{a, b, c, d}, nil
		},
		savePinsFunc: func(_ context.Context, goals ...*models.Goal) error {
			saved = goals
			return nil
		},
	}

	w := serve(t, newGoalHandlerForTest(repo, nil), "/goals", uuid.New(),
		httptest.NewRequest("POST", "/goals/"+d.ID.String()+"/pin", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp PinResponse
	decodeEnvelope(t, w, &resp)
	if resp.Evicted == nil || resp.Evicted.ID != a.ID {
		t.Errorf("Expected oldest goal to be evicted, got %+v", resp.Evicted)
	}
	if !resp.Goal.IsPinned || resp.Goal.PinnedAt == nil || !resp.Goal.PinnedAt.Equal(goalsNow) {
		t.Errorf("Expected goal pinned at %v, got %+v", goalsNow, resp.Goal)
	}

	if len(saved) != 2 || saved[0].ID != d.ID || saved[1].ID != a.ID {
		t.Fatalf("Expected pinned and evicted goals to be saved, got %d goals", len(saved))
	}
	if saved[1].IsPinned || saved[1].PinnedAt != nil {
		t.Error("Expected evicted goal to be saved unpinned")
	}
}

func TestGoalHandler_PinBelowCap(t *testing.T) {
	t.Parallel()

	target := &models.Goal{ID: uuid.New(), Title: "target"}
	var saved []*models.Goal
	repo := &mockGoalRepo{
		listByUserFunc: func(_ context.Context, _ uuid.UUID) ([]*models.Goal, error) {
			return []*models.Goal{target}, nil
		},
		savePinsFunc: func(_ context.Context, goals ...*models.Goal) error {
			saved = goals
			return nil
		},
	}

	w := serve(t, newGoalHandlerForTest(repo, nil), "/goals", uuid.New(),
		httptest.NewRequest("POST", "/goals/"+target.ID.String()+"/pin", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp PinResponse
	decodeEnvelope(t, w, &resp)
	if resp.Evicted != nil {
		t.Errorf("Expected no eviction, got %+v", resp.Evicted)
	}
	if len(saved) != 1 {
		t.Errorf("Expected 1 saved goal, got %d", len(saved))
	}
}

func TestGoalHandler_PinErrors(t *testing.T) {
	t.Parallel()

	known := &models.Goal{ID: uuid.New(), Title: "known"}
	tests := []struct {
		name       string
		path       string
		repo       *mockGoalRepo
		wantStatus int
	}{
		{
			name:       "invalid id",
			path:       "/goals/not-a-uuid/pin",
			repo:       &mockGoalRepo{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "goal of another user",
			path:       "/goals/" + uuid.NewString() + "/pin",
			repo:       &mockGoalRepo{listByUserFunc: func(_ context.Context, _ uuid.UUID) ([]*models.Goal, error) { return []*models.Goal{known}, nil }},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "list fails",
			path:       "/goals/" + known.ID.String() + "/pin",
			repo:       &mockGoalRepo{listByUserFunc: func(_ context.Context, _ uuid.UUID) ([]*models.Goal, error) { return nil, errors.New("db down") }},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "save fails",
			path: "/goals/" + known.ID.String() + "/pin",
			repo: &mockGoalRepo{
				listByUserFunc: func(_ context.Context, _ uuid.UUID) ([]*models.Goal, error) {
					return []*models.Goal{{ID: known.ID, Title: "known"}}, nil
				},
				savePinsFunc: func(_ context.Context, _ ...*models.Goal) error { return errors.New("db down") },
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := serve(t, newGoalHandlerForTest(tt.repo, nil), "/goals", uuid.New(), httptest.NewRequest("POST", tt.path, nil))
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestGoalHandler_Unpin(t *testing.T) {
	t.Parallel()

	g := pinnedAt("g", goalsNow.Add(-time.Hour))
	var saved []*models.Goal
	repo := &mockGoalRepo{
		listByUserFunc: func(_ context.Context, _ uuid.UUID) ([]*models.Goal, error) {
			return []*models.Goal{g}, nil
		},
		savePinsFunc: func(_ context.Context, goals ...*models.Goal) error {
			saved = goals
			return nil
		},
	}

	w := serve(t, newGoalHandlerForTest(repo, nil), "/goals", uuid.New(),
		httptest.NewRequest("DELETE", "/goals/"+g.ID.String()+"/pin", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(saved) != 1 || saved[0].IsPinned || saved[0].PinnedAt != nil {
		t.Errorf("Expected goal saved unpinned, got %+v", saved)
	}
}

func TestGoalHandler_AutoPin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		goals      func() []*models.Goal
		wantPinned bool
	}{
		{
			name: "pins newest active goal",
			goals: func() []*models.Goal {
				return []*models.Goal{
					{ID: uuid.New(), Title: "old", CreatedAt: timePtr(goalsNow.Add(-48 * time.Hour))},
					{ID: uuid.New(), Title: "new", CreatedAt: timePtr(goalsNow.Add(-time.Hour))},
				}
			},
			wantPinned: true,
		},
		{
			name: "already pinned",
			goals: func() []*models.Goal {
				return []*models.Goal{pinnedAt("p", goalsNow.Add(-time.Hour)), {ID: uuid.New(), Title: "other"}}
			},
			wantPinned: false,
		},
		{
			name:       "no goals",
			goals:      func() []*models.Goal { return nil },
			wantPinned: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			goals := tt.goals()
			saves := 0
			repo := &mockGoalRepo{
				listByUserFunc: func(_ context.Context, _ uuid.UUID) ([]*models.Goal, error) { return goals, nil },
				savePinsFunc: func(_ context.Context, _ ...*models.Goal) error {
					saves++
					return nil
				},
			}

			w := serve(t, newGoalHandlerForTest(repo, nil), "/goals", uuid.New(), httptest.NewRequest("POST", "/goals/autopin", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp AutoPinResponse
			decodeEnvelope(t, w, &resp)
			if resp.Pinned != tt.wantPinned {
				t.Errorf("Expected pinned=%v, got %v", tt.wantPinned, resp.Pinned)
			}
			if tt.wantPinned {
				if resp.Goal == nil || resp.Goal.Title != "new" {
					t.Errorf("Expected newest goal to be pinned, got %+v", resp.Goal)
				}
				if saves != 1 {
					t.Errorf("Expected 1 save, got %d", saves)
				}
			} else if saves != 0 {
				t.Errorf("Expected no saves, got %d", saves)
			}
		})
	}
}

const syncBody = `[
	{"id": "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", "title": "Learn Go", "created_at": "2025-12-01T10:00:00.123456",
	 "objectives": [{"id": "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb", "title": "Tour", "points": 50, "status": "available"}]}
]`

func TestGoalHandler_SyncQueuesAutoPin(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var upserted []*models.Goal
	repo := &mockGoalRepo{
		upsertFunc: func(_ context.Context, g *models.Goal) error {
			upserted = append(upserted, g)
			return nil
		},
	}
	jobs := &mockEnqueuer{}

	w := serve(t, newGoalHandlerForTest(repo, jobs), "/goals", userID, jsonRequest("POST", "/goals/sync", syncBody))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp SyncResponse
	decodeEnvelope(t, w, &resp)
	if resp.Synced != 1 || !resp.Queued {
		t.Errorf("Expected 1 synced and queued, got %+v", resp)
	}
	if len(upserted) != 1 || upserted[0].UserID != userID {
		t.Fatalf("Expected goal upserted for caller, got %+v", upserted)
	}
	if len(jobs.jobs) != 1 || jobs.jobs[0].Type != queue.JobTypeGoalsSynced || jobs.jobs[0].UserID != userID {
		t.Errorf("Expected one goals_synced job, got %+v", jobs.jobs)
	}
}

func TestGoalHandler_SyncKeepsLocalPins(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	stored := &models.Goal{ID: id, Title: "Learn Go", IsPinned: true, PinnedAt: timePtr(goalsNow.Add(-time.Hour))}
	var upserted *models.Goal
	repo := &mockGoalRepo{
		listByUserFunc: func(_ context.Context, _ uuid.UUID) ([]*models.Goal, error) {
			return []*models.Goal{stored}, nil
		},
		upsertFunc: func(_ context.Context, g *models.Goal) error {
			upserted = g
			return nil
		},
	}

	w := serve(t, newGoalHandlerForTest(repo, nil), "/goals", uuid.New(), jsonRequest("POST", "/goals/sync", syncBody))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if upserted == nil || !upserted.IsPinned || !upserted.PinnedAt.Equal(*stored.PinnedAt) {
		t.Errorf("Expected stored pin to be kept, got %+v", upserted)
	}

	var resp SyncResponse
	decodeEnvelope(t, w, &resp)
	if resp.AutoPinned != nil {
		t.Errorf("Expected no auto-pin when a goal is pinned, got %+v", resp.AutoPinned)
	}
}

func TestGoalHandler_SyncAutoPinsInlineWhenQueueFails(t *testing.T) {
	t.Parallel()

	var stored []*models.Goal
	repo := &mockGoalRepo{
		listByUserFunc: func(_ context.Context, _ uuid.UUID) ([]*models.Goal, error) {
			return stored, nil
		},
		upsertFunc: func(_ context.Context, g *models.Goal) error {
			stored = append(stored, g)
			return nil
		},
	}
	jobs := &mockEnqueuer{enqueueFunc: func(_ context.Context, _ *queue.Job) error { return errors.New("broker down") }}

	w := serve(t, newGoalHandlerForTest(repo, jobs), "/goals", uuid.New(), jsonRequest("POST", "/goals/sync", syncBody))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp SyncResponse
	decodeEnvelope(t, w, &resp)
	if resp.Queued {
		t.Error("Expected queued=false")
	}
	if resp.AutoPinned == nil || resp.AutoPinned.Title != "Learn Go" {
		t.Errorf("Expected synced goal to be auto-pinned, got %+v", resp.AutoPinned)
	}
}

func TestGoalHandler_SyncRejectsBadRecords(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"bad timestamp": `[{"id": "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", "title": "x", "created_at": "soon"}]`,
		"bad status":    `[{"id": "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", "title": "x", "objectives": [{"id": "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb", "title": "o", "status": "done"}]}]`,
		"not an array":  `{"id": "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			upserts := 0
			repo := &mockGoalRepo{upsertFunc: func(_ context.Context, _ *models.Goal) error {
				upserts++
				return nil
			}}
			w := serve(t, newGoalHandlerForTest(repo, nil), "/goals", uuid.New(), jsonRequest("POST", "/goals/sync", body))
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
			if upserts != 0 {
				t.Errorf("Expected no upserts, got %d", upserts)
			}
		})
	}
}
