// Package taint decides which records are visible in attributed-only mode.
//
// Attribution is evaluated per fill, but contamination is a property of the
// whole lifecycle: one manual fill inside an otherwise bot-run lifecycle
// invalidates the entire interval, because partial attribution within one
// continuous position cannot be disentangled into an independent
// average-cost trajectory.
package taint

import (
	"time"

	"tradeaudit/internal/models"
)

// Tainted reports whether a lifecycle mixes builder-attributed and manual
// activity. Computed on read, never stored.
func Tainted(lc models.Lifecycle) bool {
	return lc.HasBuilderFills && lc.HasManualFills
}

// HasTaint reports whether any lifecycle in the set is tainted. Used by the
// leaderboard, which excludes a contaminated account entirely.
func HasTaint(lifecycles []models.Lifecycle) bool {
	for _, lc := range lifecycles {
		if Tainted(lc) {
			return true
		}
	}
	return false
}

// Interval is a lifecycle time range. A nil End means the lifecycle is still
// open and the interval extends forever. Both endpoints are inclusive: the
// opening and closing fills carry the boundary timestamps and belong to the
// lifecycle.
type Interval struct {
	Start time.Time
	End   *time.Time
}

func (iv Interval) Contains(t time.Time) bool {
	if t.Before(iv.Start) {
		return false
	}
	return iv.End == nil || !t.After(*iv.End)
}

func interval(lc models.Lifecycle) Interval {
	return Interval{Start: lc.StartTime, End: lc.EndTime}
}

// intervalsByCoin partitions lifecycle intervals by instrument, keeping only
// those for which keep returns true.
func intervalsByCoin(lifecycles []models.Lifecycle, keep func(models.Lifecycle) bool) map[string][]Interval {
	out := map[string][]Interval{}
	for _, lc := range lifecycles {
		if keep(lc) {
			out[lc.Coin] = append(out[lc.Coin], interval(lc))
		}
	}
	return out
}

func anyContains(intervals []Interval, t time.Time) bool {
	for _, iv := range intervals {
		if iv.Contains(t) {
			return true
		}
	}
	return false
}
