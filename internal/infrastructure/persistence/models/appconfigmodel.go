package models

import (
	"time"

	"vossync/internal/shared/constants"
)

// AppConfigModel is a key/value row for operator-tunable settings such as
// the daily sync times and lookback day counts.
type AppConfigModel struct {
	ID          uint   `gorm:"primarykey"`
	ConfigKey   string `gorm:"column:config_key;uniqueIndex;not null;size:100"`
	ConfigValue string `gorm:"column:config_value;not null;size:500"`
	Description string `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM
func (AppConfigModel) TableName() string {
	return constants.TableAppConfigs
}
