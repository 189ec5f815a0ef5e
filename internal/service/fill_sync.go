package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tradeaudit/internal/models"
	"tradeaudit/internal/recon"
	"tradeaudit/internal/repository"
	"tradeaudit/internal/venue"
)

// FillSyncService pulls fills and deposits from the venue and rebuilds the
// derived position state for every touched (account, coin).
type FillSyncService struct {
	Store  repository.AuditRepository
	Source venue.DataSource
	Logger *zap.Logger

	// LookbackDays bounds the first fetch for an account with no watermark.
	LookbackDays int
}

type SyncOptions struct {
	Accounts []string
	Coin     string
	// Full ignores the stored watermark and refetches the whole lookback
	// window.
	Full bool
}

type SyncResult struct {
	RunID      string              `json:"run_id"`
	Accounts   int                 `json:"accounts"`
	Fills      int                 `json:"fills"`
	Deposits   int                 `json:"deposits"`
	Snapshots  int                 `json:"snapshots"`
	Lifecycles int                 `json:"lifecycles"`
	Stale      int64               `json:"stale_lifecycles_removed"`
	Errors     []string            `json:"errors,omitempty"`
	PerAccount []AccountSyncResult `json:"per_account,omitempty"`
}

type AccountSyncResult struct {
	Account    string `json:"account"`
	Fills      int    `json:"fills"`
	Deposits   int    `json:"deposits"`
	Coins      int    `json:"coins"`
	Snapshots  int    `json:"snapshots"`
	Lifecycles int    `json:"lifecycles"`
	Stale      int64  `json:"stale_lifecycles_removed"`
}

// Sync runs one ingestion pass over the configured accounts. Account failures
// are collected rather than aborting the run; one bad account must not stall
// the rest of the competition.
func (s *FillSyncService) Sync(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	if s == nil || s.Store == nil || s.Source == nil {
		return SyncResult{}, fmt.Errorf("fill sync unavailable")
	}
	accounts := cleanAccounts(opts.Accounts)
	if len(accounts) == 0 {
		return SyncResult{}, fmt.Errorf("no accounts to sync")
	}
	result := SyncResult{RunID: uuid.NewString()}
	for _, account := range accounts {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		acct, err := s.syncAccount(ctx, result.RunID, account, opts)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", account, err))
			if s.Logger != nil {
				s.Logger.Warn("account sync failed",
					zap.String("run_id", result.RunID),
					zap.String("account", account),
					zap.Error(err))
			}
			continue
		}
		result.Accounts++
		result.Fills += acct.Fills
		result.Deposits += acct.Deposits
		result.Snapshots += acct.Snapshots
		result.Lifecycles += acct.Lifecycles
		result.Stale += acct.Stale
		result.PerAccount = append(result.PerAccount, acct)
	}
	if s.Logger != nil {
		s.Logger.Info("fill sync finished",
			zap.String("run_id", result.RunID),
			zap.Int("accounts", result.Accounts),
			zap.Int("fills", result.Fills),
			zap.Int("errors", len(result.Errors)))
	}
	return result, nil
}

func (s *FillSyncService) syncAccount(ctx context.Context, runID, account string, opts SyncOptions) (AccountSyncResult, error) {
	result := AccountSyncResult{Account: account}
	scope := syncScope(account)
	now := time.Now().UTC()

	from := s.windowStart(now)
	if !opts.Full {
		state, err := s.Store.GetSyncState(ctx, scope)
		if err != nil {
			return result, err
		}
		if state != nil && state.WatermarkTS != nil && state.WatermarkTS.After(from) {
			from = *state.WatermarkTS
		}
	}

	fills, err := s.Source.FetchFills(ctx, account, venue.FillQuery{Coin: opts.Coin, From: &from})
	if err != nil {
		s.writeSyncError(ctx, scope, now, err)
		return result, err
	}
	deposits, err := s.Source.FetchDeposits(ctx, account, venue.DepositQuery{From: &from})
	if err != nil {
		s.writeSyncError(ctx, scope, now, err)
		return result, err
	}
	result.Fills = len(fills)
	result.Deposits = len(deposits)

	watermark := from
	for _, f := range fills {
		if f.FilledAt.After(watermark) {
			watermark = f.FilledAt
		}
	}

	err = s.Store.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Store.UpsertFillsTx(ctx, tx, fills); err != nil {
			return err
		}
		return s.Store.UpsertDepositsTx(ctx, tx, deposits)
	})
	if err != nil {
		s.writeSyncError(ctx, scope, now, err)
		return result, err
	}

	coins := touchedCoins(fills)
	if opts.Full {
		all, err := s.Store.ListFillCoins(ctx, account)
		if err != nil {
			s.writeSyncError(ctx, scope, now, err)
			return result, err
		}
		coins = all
	}
	for _, coin := range coins {
		snaps, lifecycles, stale, err := s.rebuildKey(ctx, account, coin)
		if err != nil {
			s.writeSyncError(ctx, scope, now, err)
			return result, err
		}
		result.Coins++
		result.Snapshots += snaps
		result.Lifecycles += lifecycles
		result.Stale += stale
	}

	err = s.Store.InTx(ctx, func(tx *gorm.DB) error {
		state := &models.SyncState{
			Scope:         scope,
			WatermarkTS:   &watermark,
			LastAttemptAt: &now,
			LastSuccessAt: &now,
			LastError:     nil,
			StatsJSON: syncStats(map[string]any{
				"run_id":     runID,
				"fills":      result.Fills,
				"deposits":   result.Deposits,
				"coins":      result.Coins,
				"snapshots":  result.Snapshots,
				"lifecycles": result.Lifecycles,
			}),
		}
		return s.Store.SaveSyncStateTx(ctx, tx, state)
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// rebuildKey replays the full stored fill history for one (account, coin)
// and replaces the derived rows atomically. The rebuild always starts from
// the complete history: incremental folding over a partial window would
// misplace lifecycle boundaries.
func (s *FillSyncService) rebuildKey(ctx context.Context, account, coin string) (int, int, int64, error) {
	fills, err := s.Store.ListFillsForKey(ctx, account, coin)
	if err != nil {
		return 0, 0, 0, err
	}
	res := recon.Rebuild(account, coin, fills)

	keep := make([]time.Time, 0, len(res.Lifecycles))
	for _, lc := range res.Lifecycles {
		keep = append(keep, lc.StartTime)
	}

	var stale int64
	err = s.Store.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Store.UpsertPositionSnapshotsTx(ctx, tx, res.Snapshots); err != nil {
			return err
		}
		if err := s.Store.UpsertLifecyclesTx(ctx, tx, res.Lifecycles); err != nil {
			return err
		}
		removed, err := s.Store.DeleteStaleLifecyclesTx(ctx, tx, account, coin, keep)
		if err != nil {
			return err
		}
		stale = removed
		return nil
	})
	if err != nil {
		return 0, 0, 0, err
	}
	return len(res.Snapshots), len(res.Lifecycles), stale, nil
}

func (s *FillSyncService) windowStart(now time.Time) time.Time {
	days := s.LookbackDays
	if days <= 0 {
		days = 90
	}
	return now.AddDate(0, 0, -days)
}

// writeSyncError records the failure without discarding earlier progress:
// the watermark and last success survive so the next pass resumes where the
// last good one stopped.
func (s *FillSyncService) writeSyncError(ctx context.Context, scope string, now time.Time, syncErr error) {
	state := &models.SyncState{Scope: scope}
	if prev, err := s.Store.GetSyncState(ctx, scope); err == nil && prev != nil {
		state = prev
	}
	msg := syncErr.Error()
	state.LastAttemptAt = &now
	state.LastError = &msg
	_ = s.Store.InTx(ctx, func(tx *gorm.DB) error {
		return s.Store.SaveSyncStateTx(ctx, tx, state)
	})
}

func syncScope(account string) string {
	return "fills:" + account
}

func touchedCoins(fills []models.Fill) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, f := range fills {
		if _, ok := seen[f.Coin]; ok {
			continue
		}
		seen[f.Coin] = struct{}{}
		out = append(out, f.Coin)
	}
	return out
}

func cleanAccounts(items []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(items))
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}

func syncStats(stats map[string]any) datatypes.JSON {
	payload, err := json.Marshal(stats)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(payload)
}
