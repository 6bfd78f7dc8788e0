package progression

import (
	"math"
	"time"

	"github.com/benvon/smart-planner/internal/calendar"
	"github.com/benvon/smart-planner/internal/models"
)

// AddPoints adds points to total, saturating at math.MaxInt. Negative awards are ignored.
func AddPoints(total, points int) int {
	if points <= 0 {
		return total
	}
	if total > math.MaxInt-points {
		return math.MaxInt
	}
	return total + points
}

// LevelChange reports the level before and after an activity was applied.
type LevelChange struct {
	From int
	To   int
}

// LeveledUp reports whether the activity crossed at least one level threshold.
func (c LevelChange) LeveledUp() bool {
	return c.To > c.From
}

// ApplyActivity awards points and counts at toward the streak, mutating p in place.
func ApplyActivity(p *models.UserProgress, points int, at time.Time, cal calendar.Calendar) LevelChange {
	change := LevelChange{From: LevelForTotalPoints(p.TotalPoints)}
	p.TotalPoints = AddPoints(p.TotalPoints, points)
	p.Streak = RecordActivity(p.Streak, at, cal)
	change.To = LevelForTotalPoints(p.TotalPoints)
	return change
}
