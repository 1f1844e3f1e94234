package models

import (
	"time"

	"vossync/internal/shared/constants"
)

// VosHealthCheckModel holds the latest health probe result per instance.
type VosHealthCheckModel struct {
	ID                  uint   `gorm:"primarykey"`
	VosInstanceID       uint   `gorm:"not null;uniqueIndex"`
	Status              string `gorm:"not null;size:20;default:unknown;index"`
	LastCheckAt         time.Time
	ResponseTimeMs      int64
	APISuccess          bool   `gorm:"not null;default:false"`
	ErrorMessage        string `gorm:"size:500"`
	ConsecutiveFailures int    `gorm:"not null;default:0"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Instance *VosInstanceModel `gorm:"foreignKey:VosInstanceID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (VosHealthCheckModel) TableName() string {
	return constants.TableVosHealthChecks
}
