package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradeaudit/internal/models"
	"tradeaudit/internal/repository"
	"tradeaudit/internal/venue"
)

// EquitySnapshotService records point-in-time account equity so return
// percentage has a stable base even after the venue stops serving history.
type EquitySnapshotService struct {
	Store  repository.AuditRepository
	Source venue.DataSource
	Logger *zap.Logger
}

type EquitySnapshotResult struct {
	Accounts int      `json:"accounts"`
	Errors   []string `json:"errors,omitempty"`
}

// Snapshot fetches and stores current equity for each account.
func (s *EquitySnapshotService) Snapshot(ctx context.Context, accounts []string) (EquitySnapshotResult, error) {
	if s == nil || s.Store == nil || s.Source == nil {
		return EquitySnapshotResult{}, fmt.Errorf("equity snapshot unavailable")
	}
	accounts = cleanAccounts(accounts)
	if len(accounts) == 0 {
		return EquitySnapshotResult{}, fmt.Errorf("no accounts to snapshot")
	}
	now := time.Now().UTC().Truncate(time.Minute)
	result := EquitySnapshotResult{}
	for _, account := range accounts {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		equity, err := s.Source.FetchEquityAt(ctx, account, now)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", account, err))
			if s.Logger != nil {
				s.Logger.Warn("equity fetch failed", zap.String("account", account), zap.Error(err))
			}
			continue
		}
		item := &models.EquitySnapshot{
			Account:    account,
			SnapshotAt: now,
			Equity:     equity,
		}
		if err := s.Store.UpsertEquitySnapshot(ctx, item); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", account, err))
			continue
		}
		result.Accounts++
	}
	return result, nil
}

// EquityAt resolves the equity base for an account at an instant. Stored
// snapshots win; the venue is only consulted when none covers the instant.
func (s *EquitySnapshotService) EquityAt(ctx context.Context, account string, at time.Time) (decimal.Decimal, error) {
	if s == nil || s.Store == nil {
		return decimal.Zero, fmt.Errorf("equity snapshot unavailable")
	}
	snap, err := s.Store.GetEquityAt(ctx, account, at)
	if err != nil {
		return decimal.Zero, err
	}
	if snap != nil {
		return snap.Equity, nil
	}
	if s.Source == nil {
		return decimal.Zero, nil
	}
	return s.Source.FetchEquityAt(ctx, account, at)
}
