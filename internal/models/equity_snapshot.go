package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquitySnapshot is a point-in-time account value used to normalize return
// percentage at a range start.
type EquitySnapshot struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Account string `gorm:"type:varchar(100);not null;uniqueIndex:uq_equity_snapshots_key,priority:1"`

	SnapshotAt time.Time       `gorm:"type:timestamptz;not null;uniqueIndex:uq_equity_snapshots_key,priority:2"`
	Equity     decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (EquitySnapshot) TableName() string {
	return "equity_snapshots"
}
