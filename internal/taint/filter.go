package taint

import (
	"tradeaudit/internal/models"
)

// FilterFills returns the subset of fills visible in attributed-only mode:
// the fill itself must carry a positive builder fee AND fall outside every
// tainted lifecycle interval for its instrument. Pure function of its
// inputs; output order follows input order.
func FilterFills(fills []models.Fill, lifecycles []models.Lifecycle) []models.Fill {
	excluded := intervalsByCoin(lifecycles, Tainted)
	out := make([]models.Fill, 0, len(fills))
	for _, f := range fills {
		if !f.Attributed() {
			continue
		}
		if anyContains(excluded[f.Coin], f.FilledAt) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// FilterSnapshots returns the position snapshots visible in attributed-only
// mode: a snapshot must fall inside some non-tainted lifecycle interval for
// its instrument. Snapshots between positions represent no open exposure and
// are excluded entirely.
func FilterSnapshots(snaps []models.PositionSnapshot, lifecycles []models.Lifecycle) []models.PositionSnapshot {
	clean := intervalsByCoin(lifecycles, func(lc models.Lifecycle) bool {
		return !Tainted(lc)
	})
	out := make([]models.PositionSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if anyContains(clean[s.Coin], s.SnapshotAt) {
			out = append(out, s)
		}
	}
	return out
}
