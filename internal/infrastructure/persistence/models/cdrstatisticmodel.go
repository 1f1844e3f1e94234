package models

import (
	"time"

	"vossync/internal/shared/constants"
)

// CdrStatisticModel holds one roll-up row per (instance, dimension, date, period).
// StatisticType is vos, account or gateway; DimensionValue is empty for the
// vos dimension. StatisticDate is the business-day the window is keyed on.
type CdrStatisticModel struct {
	ID             uint      `gorm:"primarykey"`
	VosInstanceID  uint      `gorm:"not null;index"`
	VosUUID        string    `gorm:"not null;size:36;uniqueIndex:idx_stat_unique"`
	StatisticType  string    `gorm:"not null;size:20;uniqueIndex:idx_stat_unique"`
	DimensionValue string    `gorm:"not null;size:200;default:'';uniqueIndex:idx_stat_unique"`
	StatisticDate  time.Time `gorm:"not null;type:date;uniqueIndex:idx_stat_unique"`
	PeriodType     string    `gorm:"not null;size:10;uniqueIndex:idx_stat_unique"`
	TotalCalls     int64     `gorm:"not null;default:0"`
	ConnectedCalls int64     `gorm:"not null;default:0"`
	TotalDuration  int64     `gorm:"not null;default:0"`
	TotalFee       float64   `gorm:"type:numeric(15,4);not null;default:0"`
	ConnectionRate float64   `gorm:"type:numeric(5,2);not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Instance *VosInstanceModel `gorm:"foreignKey:VosInstanceID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (CdrStatisticModel) TableName() string {
	return constants.TableCdrStatistics
}
