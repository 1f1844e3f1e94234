package models

import (
	"time"

	"gorm.io/datatypes"

	"vossync/internal/shared/constants"
)

// VosDataCacheModel is the durable tier of the reference cache.
// CacheKey is the md5 hex of the api path and canonical parameters, so one
// row exists per distinct upstream query. Failed fetches are recorded with
// IsValid=false and are never served to readers.
type VosDataCacheModel struct {
	ID            uint   `gorm:"primarykey"`
	VosInstanceID uint   `gorm:"not null;uniqueIndex:idx_cache_instance_path_key;index"`
	APIPath       string `gorm:"not null;size:100;uniqueIndex:idx_cache_instance_path_key"`
	CacheKey      string `gorm:"not null;size:32;uniqueIndex:idx_cache_instance_path_key"`
	Data          datatypes.JSON
	RetCode       int       `gorm:"not null;default:0"`
	IsValid       bool      `gorm:"not null;index"`
	ErrorMessage  string    `gorm:"size:500"`
	SyncedAt      time.Time `gorm:"not null"`
	ExpiresAt     time.Time `gorm:"not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Instance *VosInstanceModel `gorm:"foreignKey:VosInstanceID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (VosDataCacheModel) TableName() string {
	return constants.TableVosDataCache
}
