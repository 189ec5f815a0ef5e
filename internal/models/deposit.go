package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deposit is a venue-reported account funding event. Listed as-is for
// organizers; the audit core never interprets deposits beyond display.
type Deposit struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Account string `gorm:"type:varchar(100);not null;index"`

	Amount decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	ExternalID  string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	DepositedAt time.Time `gorm:"type:timestamptz;not null;index"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Deposit) TableName() string {
	return "deposits"
}
