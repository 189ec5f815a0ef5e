package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tradeaudit/internal/models"
)

// AuditRepository is the storage contract for the audit service. Upserts are
// idempotent on the natural key of each table so re-ingestion never
// duplicates rows.
type AuditRepository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Fills
	UpsertFillsTx(ctx context.Context, tx *gorm.DB, items []models.Fill) error
	ListFills(ctx context.Context, params ListFillsParams) ([]models.Fill, error)
	CountFills(ctx context.Context, params ListFillsParams) (int64, error)
	ListFillsForKey(ctx context.Context, account, coin string) ([]models.Fill, error)
	ListFillCoins(ctx context.Context, account string) ([]string, error)
	ListFillAccounts(ctx context.Context) ([]string, error)

	// Position snapshots
	UpsertPositionSnapshotsTx(ctx context.Context, tx *gorm.DB, items []models.PositionSnapshot) error
	ListPositionSnapshots(ctx context.Context, params ListPositionSnapshotsParams) ([]models.PositionSnapshot, error)
	CountPositionSnapshots(ctx context.Context, params ListPositionSnapshotsParams) (int64, error)

	// Lifecycles
	UpsertLifecyclesTx(ctx context.Context, tx *gorm.DB, items []models.Lifecycle) error
	DeleteStaleLifecyclesTx(ctx context.Context, tx *gorm.DB, account, coin string, keep []time.Time) (int64, error)
	ListLifecycles(ctx context.Context, params ListLifecyclesParams) ([]models.Lifecycle, error)
	CountLifecycles(ctx context.Context, params ListLifecyclesParams) (int64, error)

	// Equity snapshots
	UpsertEquitySnapshot(ctx context.Context, item *models.EquitySnapshot) error
	GetEquityAt(ctx context.Context, account string, at time.Time) (*models.EquitySnapshot, error)
	ListEquitySnapshots(ctx context.Context, params ListEquitySnapshotsParams) ([]models.EquitySnapshot, error)

	// Deposits
	UpsertDepositsTx(ctx context.Context, tx *gorm.DB, items []models.Deposit) error
	ListDeposits(ctx context.Context, params ListDepositsParams) ([]models.Deposit, error)
	CountDeposits(ctx context.Context, params ListDepositsParams) (int64, error)

	// Sync bookkeeping
	GetSyncState(ctx context.Context, scope string) (*models.SyncState, error)
	SaveSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.SyncState) error
	ListSyncStates(ctx context.Context) ([]models.SyncState, error)
}

type ListFillsParams struct {
	Limit   int
	Offset  int
	Account *string
	Coin    *string
	Since   *time.Time
	Until   *time.Time
	OrderBy string
	Asc     *bool
}

type ListPositionSnapshotsParams struct {
	Limit   int
	Offset  int
	Account *string
	Coin    *string
	Since   *time.Time
	Until   *time.Time
	OrderBy string
	Asc     *bool
}

type ListLifecyclesParams struct {
	Limit   int
	Offset  int
	Account *string
	Coin    *string
	Open    *bool
	Since   *time.Time
	Until   *time.Time
	OrderBy string
	Asc     *bool
}

type ListEquitySnapshotsParams struct {
	Limit   int
	Offset  int
	Account *string
	Since   *time.Time
	Until   *time.Time
}

type ListDepositsParams struct {
	Limit   int
	Offset  int
	Account *string
	Since   *time.Time
	Until   *time.Time
	OrderBy string
	Asc     *bool
}
