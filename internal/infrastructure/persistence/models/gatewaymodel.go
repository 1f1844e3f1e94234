package models

import (
	"time"

	"gorm.io/datatypes"

	"vossync/internal/shared/constants"
)

// GatewayModel mirrors one upstream gateway (mapping or routing) per instance.
// The flat columns are advisory projections; RawData is authoritative.
type GatewayModel struct {
	ID              uint    `gorm:"primarykey"`
	VosInstanceID   uint    `gorm:"not null;uniqueIndex:idx_gateway_instance_name;index"`
	Name            string  `gorm:"not null;size:100;uniqueIndex:idx_gateway_instance_name"`
	GatewayType     string  `gorm:"not null;size:20;index"` // mapping, routing
	IsOnline        bool    `gorm:"not null;default:false;index"`
	RemoteIP        string  `gorm:"size:100"`
	Asr             float64 `gorm:"type:numeric(5,2);not null;default:0"`
	Acd             float64 `gorm:"type:numeric(10,2);not null;default:0"`
	ConcurrentCalls int     `gorm:"not null;default:0"`
	RawData         datatypes.JSON
	SyncedAt        time.Time `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Instance *VosInstanceModel `gorm:"foreignKey:VosInstanceID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (GatewayModel) TableName() string {
	return constants.TableGateways
}
