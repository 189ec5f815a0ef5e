package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
)

// Fill is one execution reported by the venue, normalized to the canonical
// audit shape. ExternalID is the venue trade id and the idempotency key.
type Fill struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Account string `gorm:"type:varchar(100);not null;index:idx_fills_account_coin_time,priority:1"`
	Coin    string `gorm:"type:varchar(50);not null;index:idx_fills_account_coin_time,priority:2"`

	Direction string `gorm:"type:varchar(10);not null"`

	Price decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Size  decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Fee   decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	// ClosedPnL is present only on fills that reduced or closed a position.
	ClosedPnL *decimal.Decimal `gorm:"column:closed_pnl;type:numeric(30,10)"`
	// BuilderFee marks bot attribution: a positive value means the fill was
	// routed through the competition builder.
	BuilderFee *decimal.Decimal `gorm:"type:numeric(30,10)"`

	ExternalID string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	FilledAt   time.Time `gorm:"type:timestamptz;not null;index:idx_fills_account_coin_time,priority:3"`
	CreatedAt  time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Fill) TableName() string {
	return "fills"
}

// IsBuy reports whether the fill increases net size.
func (f Fill) IsBuy() bool {
	return f.Direction == DirectionBuy
}

// Attributed reports whether the fill carried a positive builder fee.
func (f Fill) Attributed() bool {
	return f.BuilderFee != nil && f.BuilderFee.IsPositive()
}
