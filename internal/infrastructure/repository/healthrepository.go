package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/logger"
)

// HealthRepository manages the latest health probe result per instance.
type HealthRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewHealthRepository creates a new health repository.
func NewHealthRepository(db *gorm.DB, logger logger.Interface) *HealthRepository {
	return &HealthRepository{db: db, logger: logger}
}

// Get returns the health row for an instance, or nil when never probed.
func (r *HealthRepository) Get(ctx context.Context, instanceID uint) (*models.VosHealthCheckModel, error) {
	var check models.VosHealthCheckModel
	err := r.db.WithContext(ctx).Where("vos_instance_id = ?", instanceID).First(&check).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get health check: %w", err)
	}
	return &check, nil
}

// Upsert replaces the health row keyed by instance.
func (r *HealthRepository) Upsert(ctx context.Context, check *models.VosHealthCheckModel) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "vos_instance_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "last_check_at", "response_time_ms", "api_success",
			"error_message", "consecutive_failures", "updated_at",
		}),
	}).Create(check)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert health check: %w", result.Error)
	}
	return nil
}

// List returns every health row.
func (r *HealthRepository) List(ctx context.Context) ([]models.VosHealthCheckModel, error) {
	var checks []models.VosHealthCheckModel
	if err := r.db.WithContext(ctx).Order("vos_instance_id").Find(&checks).Error; err != nil {
		return nil, fmt.Errorf("failed to list health checks: %w", err)
	}
	return checks, nil
}
