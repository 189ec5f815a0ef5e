package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradeaudit/internal/models"
	"tradeaudit/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ repository.AuditRepository = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Fills ------------------------------------------------------------------

func (s *Store) UpsertFillsTx(ctx context.Context, tx *gorm.DB, items []models.Fill) error {
	if s == nil || tx == nil || len(items) == 0 {
		return nil
	}
	db := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account",
			"coin",
			"direction",
			"price",
			"size",
			"fee",
			"closed_pnl",
			"builder_fee",
			"filled_at",
		}),
	})
	return createInBatches(db, items, 200)
}

func (s *Store) ListFills(ctx context.Context, params repository.ListFillsParams) ([]models.Fill, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyFillFilters(s.db.WithContext(ctx).Model(&models.Fill{}), params)
	// Secondary order on id pins same-timestamp fills to insertion order so
	// reconstruction is deterministic.
	column := strings.TrimSpace(params.OrderBy)
	if column == "" || column == "filled_at" {
		direction := "desc"
		if params.Asc != nil && *params.Asc {
			direction = "asc"
		}
		query = query.Order("filled_at " + direction + ", id " + direction)
	} else {
		query = applyOrder(query, column, params.Asc, "filled_at")
	}
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Fill
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountFills(ctx context.Context, params repository.ListFillsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := applyFillFilters(s.db.WithContext(ctx).Model(&models.Fill{}), params)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListFillsForKey returns every fill for the key in replay order, no paging.
// Reconstruction needs the complete history; a truncated read would corrupt
// the derived state.
func (s *Store) ListFillsForKey(ctx context.Context, account, coin string) ([]models.Fill, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	account = strings.TrimSpace(account)
	coin = strings.TrimSpace(coin)
	if account == "" || coin == "" {
		return nil, nil
	}
	var items []models.Fill
	if err := s.db.WithContext(ctx).
		Model(&models.Fill{}).
		Where("account = ?", account).
		Where("coin = ?", coin).
		Order("filled_at asc, id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListFillCoins(ctx context.Context, account string) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, nil
	}
	var coins []string
	err := s.db.WithContext(ctx).
		Model(&models.Fill{}).
		Where("account = ?", account).
		Distinct("coin").
		Order("coin asc").
		Pluck("coin", &coins).Error
	return coins, err
}

func (s *Store) ListFillAccounts(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var accounts []string
	err := s.db.WithContext(ctx).
		Model(&models.Fill{}).
		Distinct("account").
		Order("account asc").
		Pluck("account", &accounts).Error
	return accounts, err
}

func applyFillFilters(query *gorm.DB, params repository.ListFillsParams) *gorm.DB {
	if params.Account != nil && strings.TrimSpace(*params.Account) != "" {
		query = query.Where("account = ?", strings.TrimSpace(*params.Account))
	}
	if params.Coin != nil && strings.TrimSpace(*params.Coin) != "" {
		query = query.Where("coin = ?", strings.TrimSpace(*params.Coin))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("filled_at >= ?", params.Since.UTC())
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("filled_at <= ?", params.Until.UTC())
	}
	return query
}

// --- Position snapshots -----------------------------------------------------

func (s *Store) UpsertPositionSnapshotsTx(ctx context.Context, tx *gorm.DB, items []models.PositionSnapshot) error {
	if s == nil || tx == nil || len(items) == 0 {
		return nil
	}
	db := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}, {Name: "coin"}, {Name: "snapshot_at"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"net_size",
			"avg_entry_price",
			"updated_at",
		}),
	})
	return createInBatches(db, items, 200)
}

func (s *Store) ListPositionSnapshots(ctx context.Context, params repository.ListPositionSnapshotsParams) ([]models.PositionSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applySnapshotFilters(s.db.WithContext(ctx).Model(&models.PositionSnapshot{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "snapshot_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.PositionSnapshot
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountPositionSnapshots(ctx context.Context, params repository.ListPositionSnapshotsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := applySnapshotFilters(s.db.WithContext(ctx).Model(&models.PositionSnapshot{}), params)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func applySnapshotFilters(query *gorm.DB, params repository.ListPositionSnapshotsParams) *gorm.DB {
	if params.Account != nil && strings.TrimSpace(*params.Account) != "" {
		query = query.Where("account = ?", strings.TrimSpace(*params.Account))
	}
	if params.Coin != nil && strings.TrimSpace(*params.Coin) != "" {
		query = query.Where("coin = ?", strings.TrimSpace(*params.Coin))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("snapshot_at >= ?", params.Since.UTC())
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("snapshot_at <= ?", params.Until.UTC())
	}
	return query
}

// --- Lifecycles -------------------------------------------------------------

func (s *Store) UpsertLifecyclesTx(ctx context.Context, tx *gorm.DB, items []models.Lifecycle) error {
	if s == nil || tx == nil || len(items) == 0 {
		return nil
	}
	db := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}, {Name: "coin"}, {Name: "start_time"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"end_time",
			"has_builder_fills",
			"has_manual_fills",
			"updated_at",
		}),
	})
	return createInBatches(db, items, 200)
}

// DeleteStaleLifecyclesTx removes lifecycles for the key whose start time is
// not in the rebuilt set. A full rebuild can merge or split lifecycles, so
// rows left over from an earlier pass would otherwise linger.
func (s *Store) DeleteStaleLifecyclesTx(ctx context.Context, tx *gorm.DB, account, coin string, keep []time.Time) (int64, error) {
	if s == nil || tx == nil {
		return 0, nil
	}
	account = strings.TrimSpace(account)
	coin = strings.TrimSpace(coin)
	if account == "" || coin == "" {
		return 0, nil
	}
	query := tx.WithContext(ctx).
		Where("account = ?", account).
		Where("coin = ?", coin)
	if len(keep) > 0 {
		query = query.Where("start_time NOT IN ?", keep)
	}
	res := query.Delete(&models.Lifecycle{})
	return res.RowsAffected, res.Error
}

func (s *Store) ListLifecycles(ctx context.Context, params repository.ListLifecyclesParams) ([]models.Lifecycle, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyLifecycleFilters(s.db.WithContext(ctx).Model(&models.Lifecycle{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "start_time")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Lifecycle
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountLifecycles(ctx context.Context, params repository.ListLifecyclesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := applyLifecycleFilters(s.db.WithContext(ctx).Model(&models.Lifecycle{}), params)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func applyLifecycleFilters(query *gorm.DB, params repository.ListLifecyclesParams) *gorm.DB {
	if params.Account != nil && strings.TrimSpace(*params.Account) != "" {
		query = query.Where("account = ?", strings.TrimSpace(*params.Account))
	}
	if params.Coin != nil && strings.TrimSpace(*params.Coin) != "" {
		query = query.Where("coin = ?", strings.TrimSpace(*params.Coin))
	}
	if params.Open != nil {
		if *params.Open {
			query = query.Where("end_time IS NULL")
		} else {
			query = query.Where("end_time IS NOT NULL")
		}
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("start_time >= ?", params.Since.UTC())
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("start_time <= ?", params.Until.UTC())
	}
	return query
}

// --- Equity snapshots -------------------------------------------------------

func (s *Store) UpsertEquitySnapshot(ctx context.Context, item *models.EquitySnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Account) == "" || item.SnapshotAt.IsZero() {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account"}, {Name: "snapshot_at"}},
		DoUpdates: clause.AssignmentColumns([]string{"equity"}),
	}).Create(item).Error
}

// GetEquityAt returns the latest snapshot at or before the given instant, or
// nil when no snapshot covers it.
func (s *Store) GetEquityAt(ctx context.Context, account string, at time.Time) (*models.EquitySnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, nil
	}
	var item models.EquitySnapshot
	err := s.db.WithContext(ctx).
		Model(&models.EquitySnapshot{}).
		Where("account = ?", account).
		Where("snapshot_at <= ?", at.UTC()).
		Order("snapshot_at desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListEquitySnapshots(ctx context.Context, params repository.ListEquitySnapshotsParams) ([]models.EquitySnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.EquitySnapshot{})
	if params.Account != nil && strings.TrimSpace(*params.Account) != "" {
		query = query.Where("account = ?", strings.TrimSpace(*params.Account))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("snapshot_at >= ?", params.Since.UTC())
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("snapshot_at <= ?", params.Until.UTC())
	}
	limit := normalizeLimit(params.Limit, 500)
	offset := normalizeOffset(params.Offset)
	var items []models.EquitySnapshot
	if err := query.Order("snapshot_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Deposits ---------------------------------------------------------------

func (s *Store) UpsertDepositsTx(ctx context.Context, tx *gorm.DB, items []models.Deposit) error {
	if s == nil || tx == nil || len(items) == 0 {
		return nil
	}
	db := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account",
			"amount",
			"deposited_at",
		}),
	})
	return createInBatches(db, items, 200)
}

func (s *Store) ListDeposits(ctx context.Context, params repository.ListDepositsParams) ([]models.Deposit, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyDepositFilters(s.db.WithContext(ctx).Model(&models.Deposit{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "deposited_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Deposit
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountDeposits(ctx context.Context, params repository.ListDepositsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := applyDepositFilters(s.db.WithContext(ctx).Model(&models.Deposit{}), params)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func applyDepositFilters(query *gorm.DB, params repository.ListDepositsParams) *gorm.DB {
	if params.Account != nil && strings.TrimSpace(*params.Account) != "" {
		query = query.Where("account = ?", strings.TrimSpace(*params.Account))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("deposited_at >= ?", params.Since.UTC())
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("deposited_at <= ?", params.Until.UTC())
	}
	return query
}

// --- Sync bookkeeping -------------------------------------------------------

func (s *Store) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, nil
	}
	var item models.SyncState
	err := s.db.WithContext(ctx).Model(&models.SyncState{}).Where("scope = ?", scope).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.SyncState) error {
	if s == nil || tx == nil || state == nil {
		return nil
	}
	state.Scope = strings.TrimSpace(state.Scope)
	if state.Scope == "" {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cursor",
			"watermark_ts",
			"last_success_at",
			"last_attempt_at",
			"last_error",
			"stats_json",
		}),
	}).Create(state).Error
}

func (s *Store) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SyncState
	if err := s.db.WithContext(ctx).
		Model(&models.SyncState{}).
		Order("scope asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func createInBatches[T any](db *gorm.DB, items []T, batchSize int) error {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := db.CreateInBatches(items[i:end], batchSize).Error; err != nil {
			return err
		}
	}
	return nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
