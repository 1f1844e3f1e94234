package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/logger"
)

// ReportRepository manages per-account fee report mirrors.
type ReportRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *gorm.DB, logger logger.Interface) *ReportRepository {
	return &ReportRepository{db: db, logger: logger}
}

// BatchUpsert inserts or replaces report rows keyed by
// (vos_instance_id, vos_uuid, account, begin_time, end_time).
func (r *ReportRepository) BatchUpsert(ctx context.Context, reports []models.AccountDetailReportModel) error {
	if len(reports) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "vos_instance_id"},
			{Name: "vos_uuid"},
			{Name: "account"},
			{Name: "begin_time"},
			{Name: "end_time"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_name", "cdr_count", "total_fee", "total_time",
			"total_suite_fee", "total_suite_fee_time",
			"net_fee", "net_time", "net_count",
			"local_fee", "local_time", "local_count",
			"domestic_fee", "domestic_time", "domestic_count",
			"international_fee", "international_time", "international_count",
			"updated_at",
		}),
	}).Create(&reports)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert account reports: %w", result.Error)
	}

	r.logger.Debugw("account reports upserted", "count", len(reports))
	return nil
}

// ListByInstance returns report rows overlapping the given window.
func (r *ReportRepository) ListByInstance(ctx context.Context, instanceID uint, from, to time.Time) ([]models.AccountDetailReportModel, error) {
	var reports []models.AccountDetailReportModel
	query := r.db.WithContext(ctx).Where("vos_instance_id = ?", instanceID)
	if !from.IsZero() {
		query = query.Where("end_time >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("begin_time <= ?", to)
	}
	if err := query.Order("begin_time, account").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list account reports: %w", err)
	}
	return reports, nil
}
