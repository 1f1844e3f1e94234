package models

import (
	"time"

	"gorm.io/datatypes"

	"vossync/internal/shared/constants"
)

// FeeRateGroupModel mirrors upstream rate group configuration per instance.
type FeeRateGroupModel struct {
	ID            uint   `gorm:"primarykey"`
	VosInstanceID uint   `gorm:"not null;uniqueIndex:idx_frg_instance_name;index"`
	Name          string `gorm:"not null;size:100;uniqueIndex:idx_frg_instance_name"`
	RawData       datatypes.JSON
	SyncedAt      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Instance *VosInstanceModel `gorm:"foreignKey:VosInstanceID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (FeeRateGroupModel) TableName() string {
	return constants.TableFeeRateGroups
}
