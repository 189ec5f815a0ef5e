package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradeaudit/internal/models"
	"tradeaudit/internal/repository"
	"tradeaudit/internal/venue"
)

// stubRepo is an in-memory AuditRepository for service tests. Upserts mimic
// the natural-key semantics of the real store.
type stubRepo struct {
	fills      map[string]models.Fill             // by external id
	snapshots  map[string]models.PositionSnapshot // by account|coin|ts
	lifecycles map[string]models.Lifecycle        // by account|coin|start
	equity     []models.EquitySnapshot
	deposits   map[string]models.Deposit // by external id
	syncStates map[string]models.SyncState
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		fills:      map[string]models.Fill{},
		snapshots:  map[string]models.PositionSnapshot{},
		lifecycles: map[string]models.Lifecycle{},
		deposits:   map[string]models.Deposit{},
		syncStates: map[string]models.SyncState{},
	}
}

var _ repository.AuditRepository = (*stubRepo)(nil)

func snapKey(account, coin string, at time.Time) string {
	return account + "|" + coin + "|" + at.UTC().Format(time.RFC3339Nano)
}

func (r *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (r *stubRepo) UpsertFillsTx(ctx context.Context, tx *gorm.DB, items []models.Fill) error {
	for _, f := range items {
		r.fills[f.ExternalID] = f
	}
	return nil
}

func (r *stubRepo) ListFills(ctx context.Context, params repository.ListFillsParams) ([]models.Fill, error) {
	out := make([]models.Fill, 0)
	for _, f := range r.fills {
		if !matchFill(f, params) {
			continue
		}
		out = append(out, f)
	}
	asc := params.Asc != nil && *params.Asc
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return out[i].FilledAt.Before(out[j].FilledAt)
		}
		return out[j].FilledAt.Before(out[i].FilledAt)
	})
	return slicePage(out, params.Limit, params.Offset), nil
}

func (r *stubRepo) CountFills(ctx context.Context, params repository.ListFillsParams) (int64, error) {
	var total int64
	for _, f := range r.fills {
		if matchFill(f, params) {
			total++
		}
	}
	return total, nil
}

func matchFill(f models.Fill, params repository.ListFillsParams) bool {
	if params.Account != nil && f.Account != *params.Account {
		return false
	}
	if params.Coin != nil && strings.TrimSpace(*params.Coin) != "" && f.Coin != *params.Coin {
		return false
	}
	if params.Since != nil && f.FilledAt.Before(*params.Since) {
		return false
	}
	if params.Until != nil && f.FilledAt.After(*params.Until) {
		return false
	}
	return true
}

func (r *stubRepo) ListFillsForKey(ctx context.Context, account, coin string) ([]models.Fill, error) {
	out := make([]models.Fill, 0)
	for _, f := range r.fills {
		if f.Account == account && f.Coin == coin {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FilledAt.Before(out[j].FilledAt)
	})
	return out, nil
}

func (r *stubRepo) ListFillCoins(ctx context.Context, account string) ([]string, error) {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, f := range r.fills {
		if f.Account != account {
			continue
		}
		if _, ok := seen[f.Coin]; ok {
			continue
		}
		seen[f.Coin] = struct{}{}
		out = append(out, f.Coin)
	}
	sort.Strings(out)
	return out, nil
}

func (r *stubRepo) ListFillAccounts(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, f := range r.fills {
		if _, ok := seen[f.Account]; ok {
			continue
		}
		seen[f.Account] = struct{}{}
		out = append(out, f.Account)
	}
	sort.Strings(out)
	return out, nil
}

func (r *stubRepo) UpsertPositionSnapshotsTx(ctx context.Context, tx *gorm.DB, items []models.PositionSnapshot) error {
	for _, s := range items {
		r.snapshots[snapKey(s.Account, s.Coin, s.SnapshotAt)] = s
	}
	return nil
}

func (r *stubRepo) ListPositionSnapshots(ctx context.Context, params repository.ListPositionSnapshotsParams) ([]models.PositionSnapshot, error) {
	out := make([]models.PositionSnapshot, 0)
	for _, s := range r.snapshots {
		if params.Account != nil && s.Account != *params.Account {
			continue
		}
		if params.Coin != nil && strings.TrimSpace(*params.Coin) != "" && s.Coin != *params.Coin {
			continue
		}
		if params.Since != nil && s.SnapshotAt.Before(*params.Since) {
			continue
		}
		if params.Until != nil && s.SnapshotAt.After(*params.Until) {
			continue
		}
		out = append(out, s)
	}
	asc := params.Asc != nil && *params.Asc
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return out[i].SnapshotAt.Before(out[j].SnapshotAt)
		}
		return out[j].SnapshotAt.Before(out[i].SnapshotAt)
	})
	return slicePage(out, params.Limit, params.Offset), nil
}

func (r *stubRepo) CountPositionSnapshots(ctx context.Context, params repository.ListPositionSnapshotsParams) (int64, error) {
	items, err := r.ListPositionSnapshots(ctx, repository.ListPositionSnapshotsParams{
		Limit:   500,
		Account: params.Account,
		Coin:    params.Coin,
		Since:   params.Since,
		Until:   params.Until,
	})
	return int64(len(items)), err
}

func (r *stubRepo) UpsertLifecyclesTx(ctx context.Context, tx *gorm.DB, items []models.Lifecycle) error {
	for _, lc := range items {
		r.lifecycles[snapKey(lc.Account, lc.Coin, lc.StartTime)] = lc
	}
	return nil
}

func (r *stubRepo) DeleteStaleLifecyclesTx(ctx context.Context, tx *gorm.DB, account, coin string, keep []time.Time) (int64, error) {
	keepSet := map[string]struct{}{}
	for _, t := range keep {
		keepSet[snapKey(account, coin, t)] = struct{}{}
	}
	var removed int64
	for key, lc := range r.lifecycles {
		if lc.Account != account || lc.Coin != coin {
			continue
		}
		if _, ok := keepSet[key]; !ok {
			delete(r.lifecycles, key)
			removed++
		}
	}
	return removed, nil
}

func (r *stubRepo) ListLifecycles(ctx context.Context, params repository.ListLifecyclesParams) ([]models.Lifecycle, error) {
	out := make([]models.Lifecycle, 0)
	for _, lc := range r.lifecycles {
		if params.Account != nil && lc.Account != *params.Account {
			continue
		}
		if params.Coin != nil && strings.TrimSpace(*params.Coin) != "" && lc.Coin != *params.Coin {
			continue
		}
		if params.Open != nil && lc.Open() != *params.Open {
			continue
		}
		out = append(out, lc)
	}
	asc := params.Asc != nil && *params.Asc
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[j].StartTime.Before(out[i].StartTime)
	})
	return slicePage(out, params.Limit, params.Offset), nil
}

func (r *stubRepo) CountLifecycles(ctx context.Context, params repository.ListLifecyclesParams) (int64, error) {
	items, err := r.ListLifecycles(ctx, repository.ListLifecyclesParams{
		Limit:   500,
		Account: params.Account,
		Coin:    params.Coin,
		Open:    params.Open,
	})
	return int64(len(items)), err
}

func (r *stubRepo) UpsertEquitySnapshot(ctx context.Context, item *models.EquitySnapshot) error {
	if item == nil {
		return nil
	}
	for i, existing := range r.equity {
		if existing.Account == item.Account && existing.SnapshotAt.Equal(item.SnapshotAt) {
			r.equity[i] = *item
			return nil
		}
	}
	r.equity = append(r.equity, *item)
	return nil
}

func (r *stubRepo) GetEquityAt(ctx context.Context, account string, at time.Time) (*models.EquitySnapshot, error) {
	var best *models.EquitySnapshot
	for i := range r.equity {
		snap := r.equity[i]
		if snap.Account != account || snap.SnapshotAt.After(at) {
			continue
		}
		if best == nil || snap.SnapshotAt.After(best.SnapshotAt) {
			best = &r.equity[i]
		}
	}
	return best, nil
}

func (r *stubRepo) ListEquitySnapshots(ctx context.Context, params repository.ListEquitySnapshotsParams) ([]models.EquitySnapshot, error) {
	out := make([]models.EquitySnapshot, 0)
	for _, snap := range r.equity {
		if params.Account != nil && snap.Account != *params.Account {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func (r *stubRepo) UpsertDepositsTx(ctx context.Context, tx *gorm.DB, items []models.Deposit) error {
	for _, d := range items {
		r.deposits[d.ExternalID] = d
	}
	return nil
}

func (r *stubRepo) ListDeposits(ctx context.Context, params repository.ListDepositsParams) ([]models.Deposit, error) {
	out := make([]models.Deposit, 0)
	for _, d := range r.deposits {
		if params.Account != nil && d.Account != *params.Account {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].DepositedAt.Before(out[i].DepositedAt)
	})
	return slicePage(out, params.Limit, params.Offset), nil
}

func (r *stubRepo) CountDeposits(ctx context.Context, params repository.ListDepositsParams) (int64, error) {
	items, err := r.ListDeposits(ctx, repository.ListDepositsParams{Limit: 500, Account: params.Account})
	return int64(len(items)), err
}

func (r *stubRepo) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	state, ok := r.syncStates[scope]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (r *stubRepo) SaveSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.SyncState) error {
	if state == nil {
		return nil
	}
	r.syncStates[state.Scope] = *state
	return nil
}

func (r *stubRepo) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	out := make([]models.SyncState, 0, len(r.syncStates))
	for _, state := range r.syncStates {
		out = append(out, state)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Scope < out[j].Scope })
	return out, nil
}

func slicePage[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	if limit <= 0 {
		limit = 200
	}
	if limit > 500 {
		limit = 500
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// stubSource is a canned venue.DataSource.
type stubSource struct {
	fills    map[string][]models.Fill
	deposits map[string][]models.Deposit
	equity   map[string]decimal.Decimal

	// equityErr simulates an equity endpoint outage.
	equityErr error
}

var _ venue.DataSource = (*stubSource)(nil)

func (s *stubSource) FetchFills(ctx context.Context, account string, q venue.FillQuery) ([]models.Fill, error) {
	out := make([]models.Fill, 0)
	for _, f := range s.fills[account] {
		if q.From != nil && f.FilledAt.Before(*q.From) {
			continue
		}
		if q.Coin != "" && f.Coin != q.Coin {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *stubSource) FetchEquityAt(ctx context.Context, account string, at time.Time) (decimal.Decimal, error) {
	if s.equityErr != nil {
		return decimal.Zero, s.equityErr
	}
	if eq, ok := s.equity[account]; ok {
		return eq, nil
	}
	return decimal.Zero, nil
}

func (s *stubSource) FetchDeposits(ctx context.Context, account string, q venue.DepositQuery) ([]models.Deposit, error) {
	return s.deposits[account], nil
}

func (s *stubSource) HealthCheck(ctx context.Context) error {
	return nil
}
