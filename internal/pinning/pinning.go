// Package pinning keeps the set of pinned goals bounded.
//
// Goals are mutated in place. During a call the manager assumes it is the only
// writer of every goal it is handed; callers that share goals across goroutines
// must serialize access themselves.
package pinning

import (
	"sort"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"go.uber.org/zap"
)

// MaxPinnedGoals is the default cap on simultaneously pinned goals.
const MaxPinnedGoals = 3

// Manager enforces the pinned-goal cap and picks eviction victims.
type Manager struct {
	maxPinned int
	logger    *zap.Logger
}

// NewManager creates a manager. A non-positive maxPinned falls back to MaxPinnedGoals.
func NewManager(maxPinned int, logger *zap.Logger) *Manager {
	if maxPinned <= 0 {
		maxPinned = MaxPinnedGoals
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{maxPinned: maxPinned, logger: logger}
}

// MaxPinned returns the configured cap.
func (m *Manager) MaxPinned() int {
	return m.maxPinned
}

// Pin marks goal as pinned at now. When the cap is already reached, the pinned goal
// with the oldest PinnedAt is unpinned first and returned.
//
// Eviction order: a pinned goal without PinnedAt is older than any timestamp, and
// equal timestamps resolve to the goal that appears first in all. If all already
// holds more pinned goals than the cap, extra goals are evicted until it fits and
// only the first victim is returned.
func (m *Manager) Pin(goal *models.Goal, all []*models.Goal, now time.Time) *models.Goal {
	if goal == nil || goal.IsPinned {
		return nil
	}

	var evicted *models.Goal
	for {
		others := pinnedExcluding(all, goal)
		if len(others) < m.maxPinned {
			break
		}
		victim := oldestPinned(others)
		unpin(victim)
		m.logger.Info("goal_unpinned_for_capacity",
			zap.String("evicted_goal_id", victim.ID.String()),
			zap.String("pinned_goal_id", goal.ID.String()),
			zap.Int("max_pinned", m.maxPinned),
		)
		if evicted == nil {
			evicted = victim
		}
	}

	pin(goal, now)
	m.logger.Debug("goal_pinned", zap.String("goal_id", goal.ID.String()))
	return evicted
}

// Unpin clears the pin on goal. Unpinning an unpinned goal is a no-op.
func (m *Manager) Unpin(goal *models.Goal) {
	if goal == nil {
		return
	}
	unpin(goal)
}

// PinnedGoals returns the pinned goals in all, most recently pinned first.
func (m *Manager) PinnedGoals(all []*models.Goal) []*models.Goal {
	return PinnedGoals(all)
}

// AutoPinIfNeeded pins the most recently created goal when none of active is pinned.
// It returns false, without touching any goal, when active is empty or already has a pin.
// Goals without CreatedAt rank below dated ones; ties go to the earlier goal in active.
func (m *Manager) AutoPinIfNeeded(active []*models.Goal, now time.Time) bool {
	var newest *models.Goal
	for _, g := range active {
		if g == nil {
			continue
		}
		if g.IsPinned {
			return false
		}
		if newest == nil || createdAfter(g, newest) {
			newest = g
		}
	}
	if newest == nil {
		return false
	}

	pin(newest, now)
	m.logger.Info("goal_auto_pinned", zap.String("goal_id", newest.ID.String()))
	return true
}

// AutoPinGoals runs AutoPinIfNeeded over the goals that still matter: those with work
// left plus any already pinned. It returns the goal that was pinned, or nil.
func (m *Manager) AutoPinGoals(all []*models.Goal, now time.Time) *models.Goal {
	candidates := make([]*models.Goal, 0, len(all))
	for _, g := range all {
		if g != nil && (g.IsPinned || g.IsActive()) {
			candidates = append(candidates, g)
		}
	}
	if !m.AutoPinIfNeeded(candidates, now) {
		return nil
	}
	for _, g := range candidates {
		if g.IsPinned {
			return g
		}
	}
	return nil
}

// PinnedGoals filters all to pinned goals, sorted by PinnedAt descending.
// Goals with equal timestamps keep their input order; a missing PinnedAt sorts last.
func PinnedGoals(all []*models.Goal) []*models.Goal {
	out := make([]*models.Goal, 0, len(all))
	for _, g := range all {
		if g != nil && g.IsPinned {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PinnedAt, out[j].PinnedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out
}

func pinnedExcluding(all []*models.Goal, goal *models.Goal) []*models.Goal {
	var out []*models.Goal
	for _, g := range all {
		if g == nil || g == goal {
			continue
		}
		if g.IsPinned {
			out = append(out, g)
		}
	}
	return out
}

func oldestPinned(goals []*models.Goal) *models.Goal {
	oldest := goals[0]
	for _, g := range goals[1:] {
		if pinnedBefore(g, oldest) {
			oldest = g
		}
	}
	return oldest
}

// pinnedBefore reports whether a was pinned strictly earlier than b.
func pinnedBefore(a, b *models.Goal) bool {
	switch {
	case b.PinnedAt == nil:
		return false
	case a.PinnedAt == nil:
		return true
	default:
		return a.PinnedAt.Before(*b.PinnedAt)
	}
}

// createdAfter reports whether a was created strictly later than b.
func createdAfter(a, b *models.Goal) bool {
	switch {
	case a.CreatedAt == nil:
		return false
	case b.CreatedAt == nil:
		return true
	default:
		return a.CreatedAt.After(*b.CreatedAt)
	}
}

func pin(g *models.Goal, now time.Time) {
	at := now
	g.IsPinned = true
	g.PinnedAt = &at
}

func unpin(g *models.Goal) {
	g.IsPinned = false
	g.PinnedAt = nil
}
