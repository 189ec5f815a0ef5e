package models

import (
	"time"
)

// Lifecycle is one contiguous interval during which net size is non-zero for
// an (account, coin). EndTime is nil while the position is still open.
// Taint is derived on read, never stored: a lifecycle mixing builder and
// manual fills is contaminated as a whole.
type Lifecycle struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Account string `gorm:"type:varchar(100);not null;uniqueIndex:uq_lifecycles_key,priority:1"`
	Coin    string `gorm:"type:varchar(50);not null;uniqueIndex:uq_lifecycles_key,priority:2"`

	StartTime time.Time  `gorm:"type:timestamptz;not null;uniqueIndex:uq_lifecycles_key,priority:3"`
	EndTime   *time.Time `gorm:"type:timestamptz;index"`

	HasBuilderFills bool `gorm:"not null;default:false"`
	HasManualFills  bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Lifecycle) TableName() string {
	return "lifecycles"
}

// Open reports whether the lifecycle has not closed within the observed
// fill window.
func (l Lifecycle) Open() bool {
	return l.EndTime == nil
}
