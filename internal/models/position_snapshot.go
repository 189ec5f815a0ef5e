package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionSnapshot is the derived position state after one fill. One row per
// (account, coin, fill timestamp); re-ingestion overwrites on that key.
type PositionSnapshot struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Account string `gorm:"type:varchar(100);not null;uniqueIndex:uq_pos_snapshots_key,priority:1"`
	Coin    string `gorm:"type:varchar(50);not null;uniqueIndex:uq_pos_snapshots_key,priority:2"`

	SnapshotAt time.Time `gorm:"type:timestamptz;not null;uniqueIndex:uq_pos_snapshots_key,priority:3;index"`

	// NetSize is signed: positive long, negative short.
	NetSize       decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	AvgEntryPrice decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (PositionSnapshot) TableName() string {
	return "position_snapshots"
}
