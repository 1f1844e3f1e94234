package migration

import (
	"vossync/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.VosInstanceModel{},
		&models.CustomerModel{},
		&models.GatewayModel{},
		&models.PhoneModel{},
		&models.FeeRateGroupModel{},
		&models.SuiteModel{},
		&models.VosDataCacheModel{},
		&models.CdrStatisticModel{},
		&models.AccountDetailReportModel{},
		&models.SyncConfigModel{},
		&models.AppConfigModel{},
		&models.VosHealthCheckModel{},
	}
}
