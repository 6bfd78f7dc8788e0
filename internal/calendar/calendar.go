package calendar

import (
	"fmt"
	"time"
)

// Calendar resolves calendar-day boundaries in a fixed location.
// All day arithmetic in the planner goes through a Calendar so that results never
// depend on the process-local timezone.
type Calendar struct {
	loc *time.Location
}

// New creates a calendar for the given location. A nil location means UTC.
func New(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// UTC returns a calendar whose days start at midnight UTC.
func UTC() Calendar {
	return Calendar{loc: time.UTC}
}

// Load creates a calendar from an IANA zone name such as "America/New_York".
func Load(name string) (Calendar, error) {
	if name == "" {
		return UTC(), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Calendar{}, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return New(loc), nil
}

// Location returns the calendar's location.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// StartOfDay returns midnight of the calendar day containing t.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	local := t.In(c.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location())
}

// AddDays moves t by n calendar days, keeping wall-clock time across DST changes.
func (c Calendar) AddDays(t time.Time, n int) time.Time {
	return t.In(c.Location()).AddDate(0, 0, n)
}

// IsSameDay reports whether a and b fall on the same calendar day.
func (c Calendar) IsSameDay(a, b time.Time) bool {
	return c.DaysBetween(a, b) == 0
}

// DaysBetween returns the number of calendar-day boundaries crossed going from a to b.
// It is negative when b is on an earlier day than a.
func (c Calendar) DaysBetween(a, b time.Time) int {
	ay, am, ad := a.In(c.Location()).Date()
	by, bm, bd := b.In(c.Location()).Date()
	// Civil dates compared at UTC noon are immune to DST-shortened days.
	da := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// DayKey formats the calendar day containing t as YYYY-MM-DD.
func (c Calendar) DayKey(t time.Time) string {
	return t.In(c.Location()).Format(time.DateOnly)
}
