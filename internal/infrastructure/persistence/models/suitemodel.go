package models

import (
	"time"

	"gorm.io/datatypes"

	"vossync/internal/shared/constants"
)

// SuiteModel mirrors upstream package/suite configuration per instance.
type SuiteModel struct {
	ID            uint   `gorm:"primarykey"`
	VosInstanceID uint   `gorm:"not null;uniqueIndex:idx_suite_instance_sid;index"`
	SuiteID       int64  `gorm:"not null;uniqueIndex:idx_suite_instance_sid"`
	Name          string `gorm:"size:200"`
	RawData       datatypes.JSON
	SyncedAt      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Instance *VosInstanceModel `gorm:"foreignKey:VosInstanceID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (SuiteModel) TableName() string {
	return constants.TableSuites
}
