package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vossync/internal/infrastructure/persistence/models"
	sharedDB "vossync/internal/shared/db"
	"vossync/internal/shared/logger"
)

// StatisticsRepository manages roll-up rows in the config store.
type StatisticsRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewStatisticsRepository creates a new statistics repository.
func NewStatisticsRepository(db *gorm.DB, logger logger.Interface) *StatisticsRepository {
	return &StatisticsRepository{db: db, logger: logger}
}

// BatchUpsert inserts or replaces roll-up rows keyed by
// (vos_uuid, statistic_type, dimension_value, statistic_date, period_type).
func (r *StatisticsRepository) BatchUpsert(ctx context.Context, stats []models.CdrStatisticModel) error {
	if len(stats) == 0 {
		return nil
	}

	result := sharedDB.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "vos_uuid"},
			{Name: "statistic_type"},
			{Name: "dimension_value"},
			{Name: "statistic_date"},
			{Name: "period_type"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_calls", "connected_calls", "total_duration",
			"total_fee", "connection_rate", "updated_at",
		}),
	}).Create(&stats)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert statistics: %w", result.Error)
	}

	r.logger.Debugw("statistics upserted", "count", len(stats))
	return nil
}

// ListByInstance returns roll-up rows filtered by period and date range.
func (r *StatisticsRepository) ListByInstance(ctx context.Context, instanceID uint, periodType string, from, to time.Time) ([]models.CdrStatisticModel, error) {
	var stats []models.CdrStatisticModel
	query := r.db.WithContext(ctx).Where("vos_instance_id = ?", instanceID)
	if periodType != "" {
		query = query.Where("period_type = ?", periodType)
	}
	if !from.IsZero() {
		query = query.Where("statistic_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("statistic_date <= ?", to)
	}
	if err := query.Order("statistic_date").Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to list statistics: %w", err)
	}
	return stats, nil
}
