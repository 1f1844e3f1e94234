package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/logger"
)

// AppConfigRepository manages operator-tunable key/value settings.
type AppConfigRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewAppConfigRepository creates a new app config repository.
func NewAppConfigRepository(db *gorm.DB, logger logger.Interface) *AppConfigRepository {
	return &AppConfigRepository{db: db, logger: logger}
}

// GetValue returns the stored value for key, or defaultValue when absent.
func (r *AppConfigRepository) GetValue(ctx context.Context, key, defaultValue string) (string, error) {
	var cfg models.AppConfigModel
	err := r.db.WithContext(ctx).Where("config_key = ?", key).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultValue, nil
		}
		return defaultValue, fmt.Errorf("failed to get config %s: %w", key, err)
	}
	return cfg.ConfigValue, nil
}

// GetIntClamped returns the stored integer for key clamped to [min, max].
// Absent or unparsable values fall back to defaultValue.
func (r *AppConfigRepository) GetIntClamped(ctx context.Context, key string, defaultValue, min, max int) (int, error) {
	raw, err := r.GetValue(ctx, key, strconv.Itoa(defaultValue))
	if err != nil {
		return defaultValue, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.logger.Warnw("non-numeric config value, using default", "key", key, "value", raw)
		v = defaultValue
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v, nil
}

// SetValue inserts or updates the value for key.
func (r *AppConfigRepository) SetValue(ctx context.Context, key, value, description string) error {
	cfg := models.AppConfigModel{
		ConfigKey:   key,
		ConfigValue: value,
		Description: description,
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"config_value", "updated_at"}),
	}).Create(&cfg)
	if result.Error != nil {
		return fmt.Errorf("failed to set config %s: %w", key, result.Error)
	}
	return nil
}

// List returns all config rows.
func (r *AppConfigRepository) List(ctx context.Context) ([]models.AppConfigModel, error) {
	var configs []models.AppConfigModel
	if err := r.db.WithContext(ctx).Order("config_key").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list configs: %w", err)
	}
	return configs, nil
}
