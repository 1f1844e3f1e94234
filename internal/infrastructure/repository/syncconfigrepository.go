package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/logger"
)

// SyncConfigRepository manages named scheduled-job rows.
type SyncConfigRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewSyncConfigRepository creates a new sync config repository.
func NewSyncConfigRepository(db *gorm.DB, logger logger.Interface) *SyncConfigRepository {
	return &SyncConfigRepository{db: db, logger: logger}
}

func (r *SyncConfigRepository) GetByName(ctx context.Context, name string) (*models.SyncConfigModel, error) {
	var cfg models.SyncConfigModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync config: %w", err)
	}
	return &cfg, nil
}

func (r *SyncConfigRepository) List(ctx context.Context) ([]models.SyncConfigModel, error) {
	var configs []models.SyncConfigModel
	if err := r.db.WithContext(ctx).Order("name").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync configs: %w", err)
	}
	return configs, nil
}

// Upsert inserts or updates a job row keyed by name.
func (r *SyncConfigRepository) Upsert(ctx context.Context, cfg *models.SyncConfigModel) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sync_type", "cron_expression", "enabled", "updated_at",
		}),
	}).Create(cfg)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert sync config: %w", result.Error)
	}
	return nil
}

// RecordRun stores the outcome of the latest execution of a named job.
func (r *SyncConfigRepository) RecordRun(ctx context.Context, name, status, errMsg string) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Model(&models.SyncConfigModel{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"last_run_at": now,
			"last_status": status,
			"last_error":  errMsg,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}
