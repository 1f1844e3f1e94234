package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"vossync/internal/shared/logger"
)

// DashboardRepository refreshes and reads the materialized dashboard view.
type DashboardRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// DashboardRow is one instance summary from mv_dashboard_statistics.
type DashboardRow struct {
	InstanceID         uint       `json:"instance_id"`
	InstanceUUID       string     `json:"instance_uuid"`
	InstanceName       string     `json:"instance_name"`
	SyncEnabled        bool       `json:"sync_enabled"`
	CustomerCount      int64      `json:"customer_count"`
	InDebtCount        int64      `json:"in_debt_count"`
	TotalBalance       float64    `json:"total_balance"`
	TotalCreditLimit   float64    `json:"total_credit_limit"`
	LastSyncedAt       *time.Time `json:"last_synced_at"`
	GatewayCount       int64      `json:"gateway_count"`
	GatewayOnlineCount int64      `json:"gateway_online_count"`
	PhoneOnlineCount   int64      `json:"phone_online_count"`
	HealthStatus       string     `json:"health_status"`
	HealthCheckedAt    *time.Time `json:"health_checked_at"`
}

// NewDashboardRepository creates a new dashboard repository.
func NewDashboardRepository(db *gorm.DB, logger logger.Interface) *DashboardRepository {
	return &DashboardRepository{db: db, logger: logger}
}

// Refresh rebuilds the materialized view. A concurrent refresh needs at least
// one committed row under the unique index; when that precondition is not met
// yet it falls back to a plain refresh.
func (r *DashboardRepository) Refresh(ctx context.Context) error {
	err := r.db.WithContext(ctx).Exec("SELECT refresh_dashboard_statistics()").Error
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "CONCURRENTLY") || strings.Contains(err.Error(), "not been populated") {
		r.logger.Warnw("concurrent refresh unavailable, falling back", "error", err.Error())
		if err := r.db.WithContext(ctx).Exec("REFRESH MATERIALIZED VIEW mv_dashboard_statistics").Error; err != nil {
			return fmt.Errorf("failed to refresh dashboard view: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to refresh dashboard view: %w", err)
}

// List returns the dashboard summary rows.
func (r *DashboardRepository) List(ctx context.Context) ([]DashboardRow, error) {
	var rows []DashboardRow
	err := r.db.WithContext(ctx).
		Table("mv_dashboard_statistics").
		Order("instance_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboard rows: %w", err)
	}
	return rows, nil
}
