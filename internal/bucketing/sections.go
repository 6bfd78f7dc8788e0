package bucketing

import (
	"sort"
	"time"

	"github.com/benvon/smart-planner/internal/calendar"
	"github.com/benvon/smart-planner/internal/models"
)

// SectionOrder is the fixed display order of buckets.
var SectionOrder = []models.Bucket{
	models.BucketOverdue,
	models.BucketToday,
	models.BucketNext7Days,
	models.BucketLater,
	models.BucketNoDate,
}

// SectionTitles maps each bucket to the heading shown above its tasks
type SectionTitles struct {
	Overdue   string `json:"overdue" yaml:"overdue"`
	Today     string `json:"today" yaml:"today"`
	Next7Days string `json:"next_7_days" yaml:"next_7_days"`
	Later     string `json:"later" yaml:"later"`
	NoDate    string `json:"no_date" yaml:"no_date"`
}

// DefaultSectionTitles returns the default section headings
func DefaultSectionTitles() SectionTitles {
	return SectionTitles{
		Overdue:   "Overdue",
		Today:     "Today",
		Next7Days: "Next 7 days",
		Later:     "Later",
		NoDate:    "No date",
	}
}

// TitleFor returns the heading for bucket, falling back to the default when unset.
func (s SectionTitles) TitleFor(bucket models.Bucket) string {
	def := DefaultSectionTitles()
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	switch bucket {
	case models.BucketOverdue:
		return pick(s.Overdue, def.Overdue)
	case models.BucketToday:
		return pick(s.Today, def.Today)
	case models.BucketNext7Days:
		return pick(s.Next7Days, def.Next7Days)
	case models.BucketLater:
		return pick(s.Later, def.Later)
	case models.BucketNoDate:
		return pick(s.NoDate, def.NoDate)
	default:
		return string(bucket)
	}
}

// Sections groups tasks by bucket using the default titles.
func Sections(tasks []*models.Task, now time.Time, cal calendar.Calendar) []models.Section {
	return SectionsWithTitles(tasks, now, cal, DefaultSectionTitles())
}

// SectionsWithTitles groups tasks into sections in SectionOrder.
// Dated buckets sort by due date ascending, noDate by UpdatedAt descending.
// Sorting is stable and empty sections are omitted.
func SectionsWithTitles(tasks []*models.Task, now time.Time, cal calendar.Calendar, titles SectionTitles) []models.Section {
	b := ComputeBoundaries(now, cal)

	grouped := make(map[models.Bucket][]*models.Task, len(SectionOrder))
	for _, t := range tasks {
		if t == nil {
			continue
		}
		bucket := b.Classify(t)
		grouped[bucket] = append(grouped[bucket], t)
	}

	sections := make([]models.Section, 0, len(SectionOrder))
	for _, bucket := range SectionOrder {
		items := grouped[bucket]
		if len(items) == 0 {
			continue
		}
		if bucket == models.BucketNoDate {
			sort.SliceStable(items, func(i, j int) bool {
				return items[i].UpdatedAt.After(items[j].UpdatedAt)
			})
		} else {
			sort.SliceStable(items, func(i, j int) bool {
				return items[i].DueDate.Before(*items[j].DueDate)
			})
		}
		sections = append(sections, models.Section{
			Bucket: bucket,
			Title:  titles.TitleFor(bucket),
			Tasks:  items,
		})
	}
	return sections
}
