package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vossync/internal/shared/constants"
)

// VosInstanceModel represents an upstream softswitch endpoint.
// APIPassword is credential material: it is sent verbatim to the upstream
// and must never appear in logs or API responses.
type VosInstanceModel struct {
	ID          uint   `gorm:"primarykey"`
	UUID        string `gorm:"uniqueIndex;not null;size:36"`
	Name        string `gorm:"uniqueIndex;not null;size:100"`
	APIURL      string `gorm:"not null;size:255"`
	APIUser     string `gorm:"size:100"`
	APIPassword string `gorm:"size:255"`
	SyncEnabled bool   `gorm:"not null;index"`
	Remark      string `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM
func (VosInstanceModel) TableName() string {
	return constants.TableVosInstances
}

// BeforeCreate hook for GORM
func (m *VosInstanceModel) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == "" {
		m.UUID = uuid.NewString()
	}
	return nil
}
