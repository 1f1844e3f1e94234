package constants

const (
	// Database table names
	TableVosInstances         = "vos_instances"
	TableCustomers            = "customers"
	TableGateways             = "gateways"
	TablePhones               = "phones"
	TableFeeRateGroups        = "fee_rate_groups"
	TableSuites               = "suites"
	TableVosDataCache         = "vos_data_cache"
	TableCdrStatistics        = "cdr_statistics"
	TableAccountDetailReports = "account_detail_reports"
	TableSyncConfigs          = "sync_configs"
	TableAppConfigs           = "app_configs"
	TableVosHealthChecks      = "vos_health_checks"

	// Redis keys for ephemeral pipeline state
	RedisKeySyncProgress  = "cdr_sync_progress"
	RedisKeyHealthSummary = "vos_health_summary"

	// App config keys
	ConfigKeyCdrSyncTime      = "cdr_sync_time"
	ConfigKeyCustomerSyncTime = "customer_sync_time"
	ConfigKeyCdrSyncDays      = "cdr_sync_days"
	ConfigKeyReportSyncDays   = "account_detail_report_sync_days"

	// Sync job status values
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"

	// Statistic period types
	PeriodDay     = "day"
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"

	// Statistic dimensions
	StatTypeVos     = "vos"
	StatTypeAccount = "account"
	StatTypeGateway = "gateway"

	// Health status values
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
	HealthStatusUnknown   = "unknown"
)
