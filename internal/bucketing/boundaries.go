// Package bucketing classifies tasks into time-relative buckets and groups them into
// ordered display sections.
package bucketing

import (
	"time"

	"github.com/benvon/smart-planner/internal/calendar"
	"github.com/benvon/smart-planner/internal/models"
)

// NextDaysWindow is the number of calendar days after today covered by the next7Days bucket.
const NextDaysWindow = 7

// Boundaries are the instants that split the timeline for one classification pass.
// All ranges are half-open: [StartOfToday, EndOfToday) is today and
// [EndOfToday, EndOfNext7Days) is the seven calendar days after it.
type Boundaries struct {
	StartOfToday   time.Time `json:"start_of_today"`
	EndOfToday     time.Time `json:"end_of_today"`
	EndOfNext7Days time.Time `json:"end_of_next_7_days"`
}

// ComputeBoundaries derives the day boundaries around now in cal.
func ComputeBoundaries(now time.Time, cal calendar.Calendar) Boundaries {
	start := cal.StartOfDay(now)
	return Boundaries{
		StartOfToday:   start,
		EndOfToday:     cal.StartOfDay(cal.AddDays(start, 1)),
		EndOfNext7Days: cal.StartOfDay(cal.AddDays(start, NextDaysWindow+1)),
	}
}

// Classify returns the bucket for task. It never returns BucketInbox.
func (b Boundaries) Classify(task *models.Task) models.Bucket {
	if task == nil || task.DueDate == nil {
		return models.BucketNoDate
	}
	due := *task.DueDate
	switch {
	case due.Before(b.StartOfToday):
		return models.BucketOverdue
	case due.Before(b.EndOfToday):
		return models.BucketToday
	case due.Before(b.EndOfNext7Days):
		return models.BucketNext7Days
	default:
		return models.BucketLater
	}
}

// BucketFor classifies a single task relative to now.
func BucketFor(task *models.Task, now time.Time, cal calendar.Calendar) models.Bucket {
	return ComputeBoundaries(now, cal).Classify(task)
}
