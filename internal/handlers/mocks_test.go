package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/benvon/smart-planner/internal/assistant"
	"github.com/benvon/smart-planner/internal/database"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/queue"
	"github.com/benvon/smart-planner/internal/request"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// mockGoalRepo is a mock implementation of GoalRepositoryInterface
type mockGoalRepo struct {
	listByUserFunc func(ctx context.Context, userID uuid.UUID) ([]*models.Goal, error)
	upsertFunc     func(ctx context.Context, goal *models.Goal) error
	savePinsFunc   func(ctx context.Context, goals ...*models.Goal) error
}

var _ database.GoalRepositoryInterface = (*mockGoalRepo)(nil)

func (m *mockGoalRepo) GetByID(_ context.Context, _ uuid.UUID) (*models.Goal, error) {
	return nil, database.ErrNotFound
}

func (m *mockGoalRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Goal, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockGoalRepo) Upsert(ctx context.Context, goal *models.Goal) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, goal)
	}
	return nil
}

func (m *mockGoalRepo) SavePins(ctx context.Context, goals ...*models.Goal) error {
	if m.savePinsFunc != nil {
		return m.savePinsFunc(ctx, goals...)
	}
	return nil
}

// mockProgressRepo is a mock implementation of ProgressRepositoryInterface.
// Update holds a lock across load, apply and store like the row lock in the
// real repository, and remembers which objectives were already recorded.
type mockProgressRepo struct {
	mu          sync.Mutex
	getFunc     func(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error)
	updateFunc  func(ctx context.Context, userID uuid.UUID, completion *database.Completion, apply func(p *models.UserProgress)) (*models.UserProgress, bool, error)
	stored      map[uuid.UUID]*models.UserProgress
	completed   map[uuid.UUID]bool
	completions []database.Completion
	saved       []*models.UserProgress
}

var _ database.ProgressRepositoryInterface = (*mockProgressRepo)(nil)

func (m *mockProgressRepo) Get(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx, userID)
}

func (m *mockProgressRepo) load(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error) {
	if p, ok := m.stored[userID]; ok {
		cp := *p
		return &cp, nil
	}
	if m.getFunc != nil {
		return m.getFunc(ctx, userID)
	}
	return &models.UserProgress{UserID: userID}, nil
}

func (m *mockProgressRepo) Update(ctx context.Context, userID uuid.UUID, completion *database.Completion, apply func(p *models.UserProgress)) (*models.UserProgress, bool, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, userID, completion, apply)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.load(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if completion != nil {
		if m.completed[completion.ObjectiveID] {
			return p, false, nil
		}
		if m.completed == nil {
			m.completed = make(map[uuid.UUID]bool)
		}
		m.completed[completion.ObjectiveID] = true
		m.completions = append(m.completions, *completion)
	}

	apply(p)
	if m.stored == nil {
		m.stored = make(map[uuid.UUID]*models.UserProgress)
	}
	cp := *p
	m.stored[userID] = &cp
	m.saved = append(m.saved, p)
	return p, true, nil
}

// lastSaved returns the most recently saved progress, or nil
func (m *mockProgressRepo) lastSaved() *models.UserProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

// mockEnqueuer records enqueued jobs
type mockEnqueuer struct {
	mu          sync.Mutex
	jobs        []*queue.Job
	enqueueFunc func(ctx context.Context, job *queue.Job) error
}

var _ JobEnqueuer = (*mockEnqueuer)(nil)

func (m *mockEnqueuer) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		if err := m.enqueueFunc(ctx, job); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

// mockSettingsService is a mock implementation of SettingsService
type mockSettingsService struct {
	loadFunc func(ctx context.Context, userID uuid.UUID) (models.Settings, error)
	saveFunc func(ctx context.Context, userID uuid.UUID, rec models.Settings) error
}

var _ SettingsService = (*mockSettingsService)(nil)

func (m *mockSettingsService) Load(ctx context.Context, userID uuid.UUID) (models.Settings, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, userID)
	}
	return models.Settings{}, nil
}

func (m *mockSettingsService) Save(ctx context.Context, userID uuid.UUID, rec models.Settings) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, userID, rec)
	}
	return nil
}

// mockChat is a mock implementation of ChatSender
type mockChat struct {
	sendFunc    func(ctx context.Context, userID uuid.UUID, content string) (*assistant.ChatResponse, error)
	historyFunc func(userID uuid.UUID) []assistant.ChatMessage
	closed      []uuid.UUID
}

var _ ChatSender = (*mockChat)(nil)

func (m *mockChat) Send(ctx context.Context, userID uuid.UUID, content string) (*assistant.ChatResponse, error) {
	if m.sendFunc != nil {
		return m.sendFunc(ctx, userID, content)
	}
	return &assistant.ChatResponse{Message: "ok"}, nil
}

func (m *mockChat) History(userID uuid.UUID) []assistant.ChatMessage {
	if m.historyFunc != nil {
		return m.historyFunc(userID)
	}
	return nil
}

func (m *mockChat) CloseSession(userID uuid.UUID) {
	m.closed = append(m.closed, userID)
}

// routeRegistrar is implemented by every handler with a RegisterRoutes method
type routeRegistrar interface {
	RegisterRoutes(r *mux.Router)
}

// serve routes req through a router with h mounted under prefix, attaching userID
// to the request context unless it is uuid.Nil.
func serve(t *testing.T, h routeRegistrar, prefix string, userID uuid.UUID, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix(prefix).Subrouter())

	if userID != uuid.Nil {
		req = req.WithContext(request.WithUserID(req.Context(), userID))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeEnvelope decodes a success envelope's data field into dst
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !env.Success {
		t.Fatalf("Expected success envelope, got %s", w.Body.String())
	}
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("Failed to decode data: %v", err)
		}
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
