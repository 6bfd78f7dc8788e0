package bucketing

import (
	"fmt"
	"strings"
	"time"

	"github.com/benvon/smart-planner/internal/calendar"
	"github.com/benvon/smart-planner/internal/models"
)

var knownFilters = map[models.TaskFilter]bool{
	models.TaskFilterInbox:     true,
	models.TaskFilterToday:     true,
	models.TaskFilterUpcoming:  true,
	models.TaskFilterSomeday:   true,
	models.TaskFilterOpen:      true,
	models.TaskFilterCompleted: true,
}

// ParseFilter converts a user-supplied name into a TaskFilter. Empty means inbox.
func ParseFilter(name string) (models.TaskFilter, error) {
	f := models.TaskFilter(strings.TrimSpace(name))
	if f == "" {
		return models.TaskFilterInbox, nil
	}
	if !knownFilters[f] {
		return "", fmt.Errorf("unknown task filter %q", name)
	}
	return f, nil
}

// IsValidFilter reports whether f names a known filter.
func IsValidFilter(f models.TaskFilter) bool {
	return knownFilters[f]
}

// FilteredTasks returns the tasks that belong in a filter view, preserving input order.
// Filtering happens before bucketing and does not depend on it for inbox, open and completed.
// Unknown filters behave like inbox; validate user input with ParseFilter first.
func FilteredTasks(tasks []*models.Task, filter models.TaskFilter, now time.Time, cal calendar.Calendar) []*models.Task {
	b := ComputeBoundaries(now, cal)

	keep := func(t *models.Task) bool {
		switch filter {
		case models.TaskFilterToday:
			bucket := b.Classify(t)
			return bucket == models.BucketOverdue || bucket == models.BucketToday
		case models.TaskFilterUpcoming:
			bucket := b.Classify(t)
			return bucket == models.BucketNext7Days || bucket == models.BucketLater
		case models.TaskFilterSomeday:
			return !t.HasDueDate()
		case models.TaskFilterOpen:
			return !t.IsCompleted()
		case models.TaskFilterCompleted:
			return t.IsCompleted()
		default:
			return true
		}
	}

	out := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t != nil && keep(t) {
			out = append(out, t)
		}
	}
	return out
}
