package recon

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tradeaudit/internal/models"
)

// State is the running reconstruction state for one (account, coin). Apply
// threads it through the sorted fill sequence as a pure fold; there is no
// shared mutable state, so independent keys can be rebuilt concurrently.
type State struct {
	NetSize       decimal.Decimal
	AvgEntryPrice decimal.Decimal

	// openStart is non-nil while a lifecycle is open.
	openStart       *time.Time
	hasBuilderFills bool
	hasManualFills  bool
}

// NewState returns the flat starting state.
func NewState() State {
	return State{
		NetSize:       decimal.Zero,
		AvgEntryPrice: decimal.Zero,
	}
}

// Result is the full derived output of one reconstruction pass.
type Result struct {
	Snapshots  []models.PositionSnapshot
	Lifecycles []models.Lifecycle
}

// SortFills returns the fills ordered by timestamp ascending. Ties keep the
// input order (stable sort): the venue reports fills in execution order and
// storage reads order by (filled_at, id), so input order is the fixed
// secondary key. The tie-break matters — it determines avg entry price and
// lifecycle boundaries.
func SortFills(fills []models.Fill) []models.Fill {
	out := make([]models.Fill, len(fills))
	copy(out, fills)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FilledAt.Before(out[j].FilledAt)
	})
	return out
}

// Apply folds one fill into the state and returns the new state, the
// position snapshot after the fill, and the lifecycle record when this fill
// closed one. Average-cost method:
//
//   - flat after the fill: entry price resets to zero
//   - opening from flat: entry price is the fill price
//   - growing (same sign): size-weighted average
//   - partial reduction (sign unchanged): entry price unchanged
//   - flip through zero in one fill: entry price is the fill price
func Apply(st State, fill models.Fill) (State, models.PositionSnapshot, *models.Lifecycle) {
	signed := fill.Size
	if !fill.IsBuy() {
		signed = fill.Size.Neg()
	}
	oldSize := st.NetSize
	newSize := oldSize.Add(signed)
	attributed := fill.Attributed()

	if oldSize.IsZero() && !newSize.IsZero() {
		start := fill.FilledAt
		st.openStart = &start
		st.hasBuilderFills = attributed
		st.hasManualFills = !attributed
	} else if st.openStart != nil {
		st.hasBuilderFills = st.hasBuilderFills || attributed
		st.hasManualFills = st.hasManualFills || !attributed
	}

	switch {
	case newSize.IsZero():
		st.AvgEntryPrice = decimal.Zero
	case oldSize.IsZero():
		st.AvgEntryPrice = fill.Price
	case oldSize.Sign() == signed.Sign():
		st.AvgEntryPrice = oldSize.Abs().Mul(st.AvgEntryPrice).
			Add(signed.Abs().Mul(fill.Price)).
			Div(newSize.Abs())
	case newSize.Sign() == oldSize.Sign():
		// Partial reduction keeps the entry price.
	default:
		st.AvgEntryPrice = fill.Price
	}

	snap := models.PositionSnapshot{
		Account:       fill.Account,
		Coin:          fill.Coin,
		SnapshotAt:    fill.FilledAt,
		NetSize:       newSize,
		AvgEntryPrice: st.AvgEntryPrice,
	}
	st.NetSize = newSize

	var closed *models.Lifecycle
	if !oldSize.IsZero() && newSize.IsZero() && st.openStart != nil {
		end := fill.FilledAt
		closed = &models.Lifecycle{
			Account:         fill.Account,
			Coin:            fill.Coin,
			StartTime:       *st.openStart,
			EndTime:         &end,
			HasBuilderFills: st.hasBuilderFills,
			HasManualFills:  st.hasManualFills,
		}
		st.openStart = nil
		st.hasBuilderFills = false
		st.hasManualFills = false
	}

	return st, snap, closed
}

// Rebuild replays the fill set for one (account, coin) and returns the
// derived snapshots and lifecycles. Replaying an identical fill set yields
// an identical result; snapshots sharing a timestamp collapse to the last
// fill's state so upserts stay deterministic.
func Rebuild(account, coin string, fills []models.Fill) Result {
	sorted := SortFills(fills)
	st := NewState()

	var res Result
	snapIdx := map[int64]int{}
	for _, fill := range sorted {
		if fill.Account != account || fill.Coin != coin {
			continue
		}
		var snap models.PositionSnapshot
		var closed *models.Lifecycle
		st, snap, closed = Apply(st, fill)

		key := snap.SnapshotAt.UnixMilli()
		if i, ok := snapIdx[key]; ok {
			res.Snapshots[i] = snap
		} else {
			snapIdx[key] = len(res.Snapshots)
			res.Snapshots = append(res.Snapshots, snap)
		}

		if closed != nil {
			res.Lifecycles = append(res.Lifecycles, *closed)
		}
	}

	if st.openStart != nil {
		res.Lifecycles = append(res.Lifecycles, models.Lifecycle{
			Account:         account,
			Coin:            coin,
			StartTime:       *st.openStart,
			EndTime:         nil,
			HasBuilderFills: st.hasBuilderFills,
			HasManualFills:  st.hasManualFills,
		})
	}

	return res
}
