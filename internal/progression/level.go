// Package progression turns accumulated points into levels and tracks daily activity streaks.
//
// Every function here is total: out-of-range input is clamped rather than rejected so the
// curve stays monotone and safe to render.
package progression

import (
	"math"

	"github.com/benvon/smart-planner/internal/models"
)

const (
	// MinLevel is the floor level; every point total resolves to at least this level.
	MinLevel = 1
	// PointsPerLevelUnit scales the quadratic threshold curve: threshold(L) = 100 * L².
	PointsPerLevelUnit = 100

	// maxLevel is the largest level whose threshold fits in an int64.
	maxLevel = 303_700_049
)

func clampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > maxLevel {
		return maxLevel
	}
	return level
}

// PointsForLevel returns the cumulative points required to reach level.
// Levels below 1 are treated as level 1.
func PointsForLevel(level int) int {
	l := clampLevel(level)
	return PointsPerLevelUnit * l * l
}

// LevelForTotalPoints returns the highest level whose threshold is at most total.
// Totals below the level 2 threshold, including zero and negative totals, resolve to level 1.
func LevelForTotalPoints(total int) int {
	if total < PointsForLevel(MinLevel+1) {
		return MinLevel
	}

	level := clampLevel(int(math.Sqrt(float64(total) / PointsPerLevelUnit)))
	// Correct float rounding at exact thresholds.
	for level > MinLevel && PointsForLevel(level) > total {
		level--
	}
	for level < maxLevel && PointsForLevel(level+1) <= total {
		level++
	}
	return level
}

// PointsToNextLevel returns how many more points are needed to reach level+1.
// level must be consistent with totalPoints; a result that would be negative is clamped to 0.
func PointsToNextLevel(level, totalPoints int) int {
	remaining := PointsForLevel(clampLevel(level)+1) - totalPoints
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Summarize builds the level view of a point total.
// Level progress is the fraction of the way from the current level's floor to the next threshold.
func Summarize(totalPoints int) models.ProgressSummary {
	level := LevelForTotalPoints(totalPoints)
	current := PointsForLevel(level)
	next := PointsForLevel(level + 1)

	floor := current
	if level == MinLevel {
		floor = 0
	}

	progress := 1.0
	if next > floor {
		progress = float64(totalPoints-floor) / float64(next-floor)
		progress = math.Max(0, math.Min(1, progress))
	}

	return models.ProgressSummary{
		Level:              level,
		TotalPoints:        totalPoints,
		CurrentLevelPoints: current,
		NextLevelPoints:    next,
		PointsToNextLevel:  PointsToNextLevel(level, totalPoints),
		LevelProgress:      progress,
	}
}

// EarnedPoints sums the points of completed objectives. Negative point values count as zero.
func EarnedPoints(objectives []models.Objective) int {
	total := 0
	for _, o := range objectives {
		if o.Status != models.ObjectiveStatusCompleted || o.Points <= 0 {
			continue
		}
		total += o.Points
	}
	return total
}
