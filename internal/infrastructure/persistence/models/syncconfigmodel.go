package models

import (
	"time"

	"vossync/internal/shared/constants"
)

// SyncConfigModel is one named scheduled job with its cron expression and
// last-run bookkeeping. The scheduler re-reads these rows when re-armed.
type SyncConfigModel struct {
	ID             uint   `gorm:"primarykey"`
	Name           string `gorm:"uniqueIndex;not null;size:100"`
	SyncType       string `gorm:"not null;size:50;index"`
	CronExpression string `gorm:"not null;size:100"`
	Enabled        bool   `gorm:"not null;index"`
	LastRunAt      *time.Time
	LastStatus     string `gorm:"size:20"`
	LastError      string `gorm:"size:1000"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for GORM
func (SyncConfigModel) TableName() string {
	return constants.TableSyncConfigs
}
