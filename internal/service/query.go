package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradeaudit/internal/metrics"
	"tradeaudit/internal/models"
	"tradeaudit/internal/repository"
	"tradeaudit/internal/taint"
)

// AuditQueryService answers the read side: trades, position history,
// lifecycles, PnL summaries and the leaderboard. Every read supports an
// attributed-only view that drops manual fills and everything inside a
// tainted lifecycle.
type AuditQueryService struct {
	Store  repository.AuditRepository
	Equity *EquitySnapshotService
	Logger *zap.Logger

	// CapitalCap bounds the return-percentage base. Nil means uncapped.
	CapitalCap *decimal.Decimal
	// MaxAccounts bounds a single leaderboard request.
	MaxAccounts int
}

type TradeQuery struct {
	Account        string
	Coin           *string
	Since          *time.Time
	Until          *time.Time
	AttributedOnly bool
	Limit          int
	Offset         int
	Asc            *bool
}

type TradesResult struct {
	Items []models.Fill
	Total int64
}

// ListTrades returns fills for an account. In attributed-only mode the
// filter runs over the complete range before pagination, so page boundaries
// stay stable as taint changes.
func (s *AuditQueryService) ListTrades(ctx context.Context, q TradeQuery) (TradesResult, error) {
	if s == nil || s.Store == nil {
		return TradesResult{}, fmt.Errorf("query service unavailable")
	}
	account := strings.TrimSpace(q.Account)
	if account == "" {
		return TradesResult{}, fmt.Errorf("account is required")
	}
	params := repository.ListFillsParams{
		Limit:   q.Limit,
		Offset:  q.Offset,
		Account: &account,
		Coin:    q.Coin,
		Since:   q.Since,
		Until:   q.Until,
		Asc:     q.Asc,
	}
	if !q.AttributedOnly {
		total, err := s.Store.CountFills(ctx, params)
		if err != nil {
			return TradesResult{}, err
		}
		items, err := s.Store.ListFills(ctx, params)
		if err != nil {
			return TradesResult{}, err
		}
		return TradesResult{Items: items, Total: total}, nil
	}

	fills, err := s.collectFills(ctx, account, q.Coin, q.Since, q.Until)
	if err != nil {
		return TradesResult{}, err
	}
	lifecycles, err := s.collectLifecycles(ctx, account, q.Coin)
	if err != nil {
		return TradesResult{}, err
	}
	filtered := taint.FilterFills(fills, lifecycles)
	if q.Asc == nil || !*q.Asc {
		reverseFills(filtered)
	}
	page := paginate(filtered, q.Limit, q.Offset)
	return TradesResult{Items: page, Total: int64(len(filtered))}, nil
}

type PositionQuery struct {
	Account        string
	Coin           *string
	Since          *time.Time
	Until          *time.Time
	AttributedOnly bool
	Limit          int
	Offset         int
	Asc            *bool
}

type PositionsResult struct {
	Items []models.PositionSnapshot
	Total int64
}

// PositionHistory returns the derived snapshots. Attributed-only keeps only
// snapshots inside clean attributed lifecycles.
func (s *AuditQueryService) PositionHistory(ctx context.Context, q PositionQuery) (PositionsResult, error) {
	if s == nil || s.Store == nil {
		return PositionsResult{}, fmt.Errorf("query service unavailable")
	}
	account := strings.TrimSpace(q.Account)
	if account == "" {
		return PositionsResult{}, fmt.Errorf("account is required")
	}
	params := repository.ListPositionSnapshotsParams{
		Limit:   q.Limit,
		Offset:  q.Offset,
		Account: &account,
		Coin:    q.Coin,
		Since:   q.Since,
		Until:   q.Until,
		Asc:     q.Asc,
	}
	if !q.AttributedOnly {
		total, err := s.Store.CountPositionSnapshots(ctx, params)
		if err != nil {
			return PositionsResult{}, err
		}
		items, err := s.Store.ListPositionSnapshots(ctx, params)
		if err != nil {
			return PositionsResult{}, err
		}
		return PositionsResult{Items: items, Total: total}, nil
	}

	snaps, err := s.collectSnapshots(ctx, account, q.Coin, q.Since, q.Until)
	if err != nil {
		return PositionsResult{}, err
	}
	lifecycles, err := s.collectLifecycles(ctx, account, q.Coin)
	if err != nil {
		return PositionsResult{}, err
	}
	filtered := taint.FilterSnapshots(snaps, lifecycles)
	if q.Asc == nil || !*q.Asc {
		reverseSnapshots(filtered)
	}
	page := paginate(filtered, q.Limit, q.Offset)
	return PositionsResult{Items: page, Total: int64(len(filtered))}, nil
}

type LifecycleQuery struct {
	Account string
	Coin    *string
	Open    *bool
	Limit   int
	Offset  int
	Asc     *bool
}

// LifecycleView is a lifecycle with the derived taint verdict attached. The
// verdict is computed on read so a later manual fill retroactively taints
// past listings.
type LifecycleView struct {
	models.Lifecycle
	Tainted bool `json:"tainted"`
}

type LifecyclesResult struct {
	Items []LifecycleView
	Total int64
}

func (s *AuditQueryService) ListLifecycles(ctx context.Context, q LifecycleQuery) (LifecyclesResult, error) {
	if s == nil || s.Store == nil {
		return LifecyclesResult{}, fmt.Errorf("query service unavailable")
	}
	account := strings.TrimSpace(q.Account)
	if account == "" {
		return LifecyclesResult{}, fmt.Errorf("account is required")
	}
	params := repository.ListLifecyclesParams{
		Limit:   q.Limit,
		Offset:  q.Offset,
		Account: &account,
		Coin:    q.Coin,
		Open:    q.Open,
		Asc:     q.Asc,
	}
	total, err := s.Store.CountLifecycles(ctx, params)
	if err != nil {
		return LifecyclesResult{}, err
	}
	items, err := s.Store.ListLifecycles(ctx, params)
	if err != nil {
		return LifecyclesResult{}, err
	}
	views := make([]LifecycleView, 0, len(items))
	for _, lc := range items {
		views = append(views, LifecycleView{Lifecycle: lc, Tainted: taint.Tainted(lc)})
	}
	return LifecyclesResult{Items: views, Total: total}, nil
}

type PnLQuery struct {
	Account        string
	Coin           *string
	Since          *time.Time
	Until          *time.Time
	AttributedOnly bool
	// CapitalCap overrides the service-level cap for this request.
	CapitalCap *decimal.Decimal
}

// PnLSummary computes the metrics over the (optionally filtered) fill set.
// The equity base is resolved at the range start, or at the first fill when
// the range is open at the left.
func (s *AuditQueryService) PnLSummary(ctx context.Context, q PnLQuery) (metrics.Summary, error) {
	if s == nil || s.Store == nil {
		return metrics.Summary{}, fmt.Errorf("query service unavailable")
	}
	account := strings.TrimSpace(q.Account)
	if account == "" {
		return metrics.Summary{}, fmt.Errorf("account is required")
	}
	fills, err := s.collectFills(ctx, account, q.Coin, q.Since, q.Until)
	if err != nil {
		return metrics.Summary{}, err
	}
	if q.AttributedOnly {
		lifecycles, err := s.collectLifecycles(ctx, account, q.Coin)
		if err != nil {
			return metrics.Summary{}, err
		}
		fills = taint.FilterFills(fills, lifecycles)
	}

	base := decimal.Zero
	at := rangeStart(q.Since, fills)
	if at != nil && s.Equity != nil {
		equity, err := s.Equity.EquityAt(ctx, account, *at)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("equity lookup failed", zap.String("account", account), zap.Error(err))
			}
		} else {
			base = equity
		}
	}
	return metrics.Compute(fills, base, s.capitalCap(q.CapitalCap)), nil
}

type LeaderboardQuery struct {
	Accounts       []string
	Metric         metrics.Metric
	Coin           *string
	Since          *time.Time
	Until          *time.Time
	AttributedOnly bool
	// CapitalCap overrides the service-level cap for this request.
	CapitalCap *decimal.Decimal
}

// Leaderboard computes summaries for each account concurrently and ranks
// them. In attributed-only mode an account with any tainted lifecycle is
// excluded entirely: one contaminated cycle makes the whole account's
// attribution unverifiable.
func (s *AuditQueryService) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]metrics.Entry, error) {
	if s == nil || s.Store == nil {
		return nil, fmt.Errorf("query service unavailable")
	}
	accounts := cleanAccounts(q.Accounts)
	if len(accounts) == 0 {
		var err error
		accounts, err = s.Store.ListFillAccounts(ctx)
		if err != nil {
			return nil, err
		}
	}
	max := s.MaxAccounts
	if max <= 0 {
		max = 200
	}
	if len(accounts) > max {
		return nil, fmt.Errorf("too many accounts: %d (max %d)", len(accounts), max)
	}

	type slot struct {
		summary metrics.AccountSummary
		skip    bool
		err     error
	}
	slots := make([]slot, len(accounts))
	var wg sync.WaitGroup
	for i, account := range accounts {
		wg.Add(1)
		go func(i int, account string) {
			defer wg.Done()
			summary, skip, err := s.accountSummary(ctx, account, q)
			slots[i] = slot{summary: summary, skip: skip, err: err}
		}(i, account)
	}
	wg.Wait()

	// Merge in input order so ties rank deterministically.
	rows := make([]metrics.AccountSummary, 0, len(accounts))
	for i := range slots {
		if slots[i].err != nil {
			return nil, fmt.Errorf("%s: %w", accounts[i], slots[i].err)
		}
		if slots[i].skip {
			continue
		}
		rows = append(rows, slots[i].summary)
	}
	return metrics.Rank(rows, q.Metric), nil
}

func (s *AuditQueryService) accountSummary(ctx context.Context, account string, q LeaderboardQuery) (metrics.AccountSummary, bool, error) {
	fills, err := s.collectFills(ctx, account, q.Coin, q.Since, q.Until)
	if err != nil {
		return metrics.AccountSummary{}, false, err
	}
	if q.AttributedOnly {
		lifecycles, err := s.collectLifecycles(ctx, account, q.Coin)
		if err != nil {
			return metrics.AccountSummary{}, false, err
		}
		if taint.HasTaint(lifecycles) {
			return metrics.AccountSummary{}, true, nil
		}
		fills = taint.FilterFills(fills, lifecycles)
	}

	base := decimal.Zero
	at := rangeStart(q.Since, fills)
	if at != nil && s.Equity != nil {
		// An unavailable equity source must surface, not rank the account
		// as break-even: silent zero is reserved for a genuinely
		// non-positive capital base.
		equity, err := s.Equity.EquityAt(ctx, account, *at)
		if err != nil {
			return metrics.AccountSummary{}, false, fmt.Errorf("equity lookup: %w", err)
		}
		base = equity
	}
	return metrics.AccountSummary{
		Account: account,
		Summary: metrics.Compute(fills, base, s.capitalCap(q.CapitalCap)),
	}, false, nil
}

func (s *AuditQueryService) capitalCap(override *decimal.Decimal) *decimal.Decimal {
	if override != nil {
		return override
	}
	return s.CapitalCap
}

type DepositQueryParams struct {
	Account string
	Since   *time.Time
	Until   *time.Time
	Limit   int
	Offset  int
	Asc     *bool
}

type DepositsResult struct {
	Items []models.Deposit
	Total int64
}

func (s *AuditQueryService) ListDeposits(ctx context.Context, q DepositQueryParams) (DepositsResult, error) {
	if s == nil || s.Store == nil {
		return DepositsResult{}, fmt.Errorf("query service unavailable")
	}
	account := strings.TrimSpace(q.Account)
	if account == "" {
		return DepositsResult{}, fmt.Errorf("account is required")
	}
	params := repository.ListDepositsParams{
		Limit:   q.Limit,
		Offset:  q.Offset,
		Account: &account,
		Since:   q.Since,
		Until:   q.Until,
		Asc:     q.Asc,
	}
	total, err := s.Store.CountDeposits(ctx, params)
	if err != nil {
		return DepositsResult{}, err
	}
	items, err := s.Store.ListDeposits(ctx, params)
	if err != nil {
		return DepositsResult{}, err
	}
	return DepositsResult{Items: items, Total: total}, nil
}

func (s *AuditQueryService) SyncStates(ctx context.Context) ([]models.SyncState, error) {
	if s == nil || s.Store == nil {
		return nil, fmt.Errorf("query service unavailable")
	}
	return s.Store.ListSyncStates(ctx)
}

// --- range collection -------------------------------------------------------

const collectPageSize = 500

// collectFills walks the store in ascending pages until the range is
// exhausted. Taint filtering is defined over the whole range, so reads that
// feed it cannot stop at one page.
func (s *AuditQueryService) collectFills(ctx context.Context, account string, coin *string, since, until *time.Time) ([]models.Fill, error) {
	asc := true
	var out []models.Fill
	offset := 0
	for {
		items, err := s.Store.ListFills(ctx, repository.ListFillsParams{
			Limit:   collectPageSize,
			Offset:  offset,
			Account: &account,
			Coin:    coin,
			Since:   since,
			Until:   until,
			Asc:     &asc,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if len(items) < collectPageSize {
			return out, nil
		}
		offset += len(items)
	}
}

func (s *AuditQueryService) collectSnapshots(ctx context.Context, account string, coin *string, since, until *time.Time) ([]models.PositionSnapshot, error) {
	asc := true
	var out []models.PositionSnapshot
	offset := 0
	for {
		items, err := s.Store.ListPositionSnapshots(ctx, repository.ListPositionSnapshotsParams{
			Limit:   collectPageSize,
			Offset:  offset,
			Account: &account,
			Coin:    coin,
			Since:   since,
			Until:   until,
			Asc:     &asc,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if len(items) < collectPageSize {
			return out, nil
		}
		offset += len(items)
	}
}

// collectLifecycles always reads the account's full lifecycle set, ignoring
// the query range: a tainted lifecycle excludes fills inside it even when
// the lifecycle started before the requested window.
func (s *AuditQueryService) collectLifecycles(ctx context.Context, account string, coin *string) ([]models.Lifecycle, error) {
	asc := true
	var out []models.Lifecycle
	offset := 0
	for {
		items, err := s.Store.ListLifecycles(ctx, repository.ListLifecyclesParams{
			Limit:   collectPageSize,
			Offset:  offset,
			Account: &account,
			Coin:    coin,
			Asc:     &asc,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if len(items) < collectPageSize {
			return out, nil
		}
		offset += len(items)
	}
}

func rangeStart(since *time.Time, fills []models.Fill) *time.Time {
	if since != nil && !since.IsZero() {
		t := since.UTC()
		return &t
	}
	if len(fills) == 0 {
		return nil
	}
	first := fills[0].FilledAt
	for _, f := range fills[1:] {
		if f.FilledAt.Before(first) {
			first = f.FilledAt
		}
	}
	return &first
}

func paginate[T any](items []T, limit, offset int) []T {
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

func reverseFills(items []models.Fill) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[j].FilledAt.Before(items[i].FilledAt)
	})
}

func reverseSnapshots(items []models.PositionSnapshot) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[j].SnapshotAt.Before(items[i].SnapshotAt)
	})
}
