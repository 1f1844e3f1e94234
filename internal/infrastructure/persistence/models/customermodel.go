package models

import (
	"time"

	"gorm.io/datatypes"

	"vossync/internal/shared/constants"
)

// CustomerModel mirrors one upstream billing account per instance.
// RawData keeps the upstream record verbatim; the flat columns are a
// projection for queries and the dashboard.
type CustomerModel struct {
	ID            uint    `gorm:"primarykey"`
	VosInstanceID uint    `gorm:"not null;uniqueIndex:idx_customer_instance_account;index"`
	Account       string  `gorm:"not null;size:100;uniqueIndex:idx_customer_instance_account"`
	Name          string  `gorm:"size:200"`
	Money         float64 `gorm:"type:numeric(15,4);not null;default:0"`
	LimitMoney    float64 `gorm:"type:numeric(15,4);not null;default:0"`
	IsInDebt      bool    `gorm:"not null;default:false;index"`
	RawData       datatypes.JSON
	SyncedAt      time.Time `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Instance *VosInstanceModel `gorm:"foreignKey:VosInstanceID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (CustomerModel) TableName() string {
	return constants.TableCustomers
}
