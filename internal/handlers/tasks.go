package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/smart-planner/internal/bucketing"
	"github.com/benvon/smart-planner/internal/calendar"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/timestamp"
	"github.com/benvon/smart-planner/internal/upstream"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MaxTasksPerRequest bounds the number of tasks accepted in one classification request
const MaxTasksPerRequest = 5000

// TaskHandler classifies caller-supplied tasks into buckets and sections.
// It keeps no state; tasks are owned by the calling application.
type TaskHandler struct {
	cal    calendar.Calendar
	now    func() time.Time
	logger *zap.Logger
}

// NewTaskHandler creates a task handler that uses cal when a request names no timezone
func NewTaskHandler(cal calendar.Calendar, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{cal: cal, now: time.Now, logger: logger}
}

// RegisterRoutes registers task routes on a router already prefixed with /tasks
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sections", h.Sections).Methods("POST")
	r.HandleFunc("/bucket", h.Bucket).Methods("POST")
}

// TasksRequest carries the tasks to classify and the view parameters
type TasksRequest struct {
	Tasks    []upstream.TaskRecord    `json:"tasks" validate:"max=5000,dive"`
	Timezone string                   `json:"timezone,omitempty" validate:"omitempty,timezone"`
	Filter   string                   `json:"filter,omitempty" validate:"omitempty,task_filter"`
	Now      *timestamp.Time          `json:"now,omitempty"`
	Titles   *bucketing.SectionTitles `json:"titles,omitempty"`
}

// SectionsResponse is the grouped view of a task list
type SectionsResponse struct {
	Filter     models.TaskFilter    `json:"filter"`
	Timezone   string               `json:"timezone"`
	Boundaries bucketing.Boundaries `json:"boundaries"`
	Sections   []models.Section     `json:"sections"`
	Count      int                  `json:"count"`
}

// TaskBucket pairs a task ID with its bucket
type TaskBucket struct {
	TaskID uuid.UUID     `json:"task_id"`
	Bucket models.Bucket `json:"bucket"`
}

// BucketResponse lists the bucket of every task in input order
type BucketResponse struct {
	Timezone   string               `json:"timezone"`
	Boundaries bucketing.Boundaries `json:"boundaries"`
	Buckets    []TaskBucket         `json:"buckets"`
}

// parse decodes a TasksRequest and resolves its calendar and reference time.
func (h *TaskHandler) parse(w http.ResponseWriter, r *http.Request) (*TasksRequest, calendar.Calendar, time.Time, bool) {
	var req TasksRequest
	if !decodeAndValidate(w, r, &req) {
		return nil, calendar.Calendar{}, time.Time{}, false
	}

	cal := h.cal
	if req.Timezone != "" {
		loaded, err := calendar.Load(req.Timezone)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return nil, calendar.Calendar{}, time.Time{}, false
		}
		cal = loaded
	}
	return &req, cal, nowOr(req.Now, h.now), true
}

// Sections filters the tasks and groups them into ordered sections
func (h *TaskHandler) Sections(w http.ResponseWriter, r *http.Request) {
	req, cal, now, ok := h.parse(w, r)
	if !ok {
		return
	}

	filter, err := bucketing.ParseFilter(req.Filter)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	titles := bucketing.DefaultSectionTitles()
	if req.Titles != nil {
		titles = *req.Titles
	}

	tasks := bucketing.FilteredTasks(upstream.TasksToModels(req.Tasks), filter, now, cal)
	sections := bucketing.SectionsWithTitles(tasks, now, cal, titles)

	h.logger.Debug("task_sections_computed",
		zap.String("filter", string(filter)),
		zap.Int("task_count", len(tasks)),
		zap.Int("section_count", len(sections)),
	)

	respondJSON(w, http.StatusOK, SectionsResponse{
		Filter:     filter,
		Timezone:   cal.Location().String(),
		Boundaries: bucketing.ComputeBoundaries(now, cal),
		Sections:   sections,
		Count:      len(tasks),
	})
}

// Bucket classifies each task without filtering or grouping
func (h *TaskHandler) Bucket(w http.ResponseWriter, r *http.Request) {
	req, cal, now, ok := h.parse(w, r)
	if !ok {
		return
	}

	b := bucketing.ComputeBoundaries(now, cal)
	buckets := make([]TaskBucket, 0, len(req.Tasks))
	for _, task := range upstream.TasksToModels(req.Tasks) {
		buckets = append(buckets, TaskBucket{TaskID: task.ID, Bucket: b.Classify(task)})
	}

	respondJSON(w, http.StatusOK, BucketResponse{
		Timezone:   cal.Location().String(),
		Boundaries: b,
		Buckets:    buckets,
	})
}
