package models

import (
	"time"

	"vossync/internal/shared/constants"
)

// AccountDetailReportModel mirrors one upstream per-account fee report row.
// Fee columns are verbatim upstream values at 4-decimal precision; no local
// arithmetic is performed on them.
type AccountDetailReportModel struct {
	ID            uint      `gorm:"primarykey"`
	VosInstanceID uint      `gorm:"not null;uniqueIndex:idx_report_unique;index"`
	VosUUID       string    `gorm:"not null;size:36;uniqueIndex:idx_report_unique"`
	Account       string    `gorm:"not null;size:100;uniqueIndex:idx_report_unique"`
	AccountName   string    `gorm:"size:200"`
	BeginTime     time.Time `gorm:"not null;uniqueIndex:idx_report_unique"`
	EndTime       time.Time `gorm:"not null;uniqueIndex:idx_report_unique"`

	CdrCount          int64   `gorm:"not null;default:0"`
	TotalFee          float64 `gorm:"type:numeric(15,4);not null;default:0"`
	TotalTime         int64   `gorm:"not null;default:0"`
	TotalSuiteFee     float64 `gorm:"type:numeric(15,4);not null;default:0"`
	TotalSuiteFeeTime int64   `gorm:"not null;default:0"`

	NetFee   float64 `gorm:"type:numeric(15,4);not null;default:0"`
	NetTime  int64   `gorm:"not null;default:0"`
	NetCount int64   `gorm:"not null;default:0"`

	LocalFee   float64 `gorm:"type:numeric(15,4);not null;default:0"`
	LocalTime  int64   `gorm:"not null;default:0"`
	LocalCount int64   `gorm:"not null;default:0"`

	DomesticFee   float64 `gorm:"type:numeric(15,4);not null;default:0"`
	DomesticTime  int64   `gorm:"not null;default:0"`
	DomesticCount int64   `gorm:"not null;default:0"`

	InternationalFee   float64 `gorm:"type:numeric(15,4);not null;default:0"`
	InternationalTime  int64   `gorm:"not null;default:0"`
	InternationalCount int64   `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Instance *VosInstanceModel `gorm:"foreignKey:VosInstanceID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (AccountDetailReportModel) TableName() string {
	return constants.TableAccountDetailReports
}
