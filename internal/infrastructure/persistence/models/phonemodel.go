package models

import (
	"time"

	"gorm.io/datatypes"

	"vossync/internal/shared/constants"
)

// PhoneModel mirrors the upstream online-phone registry per instance.
// Reconciliation marks all rows offline, then marks the returned set online.
type PhoneModel struct {
	ID            uint   `gorm:"primarykey"`
	VosInstanceID uint   `gorm:"not null;uniqueIndex:idx_phone_instance_e164;index"`
	E164          string `gorm:"not null;size:64;uniqueIndex:idx_phone_instance_e164"`
	IsOnline      bool   `gorm:"not null;default:false;index"`
	LastOnlineAt  *time.Time
	RawData       datatypes.JSON
	SyncedAt      time.Time `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Instance *VosInstanceModel `gorm:"foreignKey:VosInstanceID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (PhoneModel) TableName() string {
	return constants.TablePhones
}
