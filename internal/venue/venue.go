// Package venue defines the contract against the upstream trading venue.
// The reconstruction and aggregation core never depends on which backend
// implements it.
package venue

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tradeaudit/internal/models"
)

// FillQuery narrows a fill fetch. Zero fields mean "no bound".
type FillQuery struct {
	Coin string
	From *time.Time
	To   *time.Time
}

// DepositQuery narrows a deposit fetch.
type DepositQuery struct {
	From *time.Time
}

// DataSource is the swappable acquisition backend. Implementations own
// pagination and must return fills deduplicated by external id, in
// execution order, normalized to the canonical decimal shape.
type DataSource interface {
	FetchFills(ctx context.Context, account string, q FillQuery) ([]models.Fill, error)
	FetchEquityAt(ctx context.Context, account string, at time.Time) (decimal.Decimal, error)
	FetchDeposits(ctx context.Context, account string, q DepositQuery) ([]models.Deposit, error)
	HealthCheck(ctx context.Context) error
}
