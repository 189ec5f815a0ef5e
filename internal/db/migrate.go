package db

import (
	"tradeaudit/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Fill{},
		&models.PositionSnapshot{},
		&models.Lifecycle{},
		&models.EquitySnapshot{},
		&models.Deposit{},
		&models.SyncState{},
	)
}
