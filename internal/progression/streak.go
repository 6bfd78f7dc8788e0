package progression

import (
	"time"

	"github.com/benvon/smart-planner/internal/calendar"
	"github.com/benvon/smart-planner/internal/models"
)

// UpdateStreak applies one qualifying activity at now to a streak.
//
// Day comparisons use cal, never the process timezone:
//   - no prior activity starts a streak of 1
//   - activity on the same calendar day changes nothing, including lastActivity
//   - activity on the next calendar day extends the streak
//   - a gap of two or more days restarts the streak at 1 and keeps longest
//
// A lastActivity later than now (clock skew) is treated like a same-day call.
func UpdateStreak(currentStreak, longestStreak int, lastActivity *time.Time, now time.Time, cal calendar.Calendar) (int, int, *time.Time) {
	if currentStreak < 0 {
		currentStreak = 0
	}
	if longestStreak < 0 {
		longestStreak = 0
	}

	if lastActivity == nil {
		return 1, max(longestStreak, 1), &now
	}

	days := cal.DaysBetween(*lastActivity, now)
	switch {
	case days <= 0:
		return currentStreak, longestStreak, lastActivity
	case days == 1:
		current := currentStreak + 1
		return current, max(longestStreak, current), &now
	default:
		return 1, longestStreak, &now
	}
}

// RecordActivity is UpdateStreak over a StreakState value.
func RecordActivity(state models.StreakState, now time.Time, cal calendar.Calendar) models.StreakState {
	current, longest, last := UpdateStreak(state.CurrentStreak, state.LongestStreak, state.LastActivityAt, now, cal)
	return models.StreakState{
		CurrentStreak:  current,
		LongestStreak:  longest,
		LastActivityAt: last,
	}
}

// IsStreakAlive reports whether the streak can still be extended today, i.e. the last
// activity happened today or yesterday.
func IsStreakAlive(state models.StreakState, now time.Time, cal calendar.Calendar) bool {
	if state.LastActivityAt == nil || state.CurrentStreak == 0 {
		return false
	}
	days := cal.DaysBetween(*state.LastActivityAt, now)
	return days <= 1
}
