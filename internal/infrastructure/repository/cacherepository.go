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

// CacheRepository manages the durable tier of the reference cache.
type CacheRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// CacheStats summarizes the durable cache rows for one instance.
type CacheStats struct {
	Total   int64 `json:"total"`
	Valid   int64 `json:"valid"`
	Expired int64 `json:"expired"`
}

// NewCacheRepository creates a new cache repository.
func NewCacheRepository(db *gorm.DB, logger logger.Interface) *CacheRepository {
	return &CacheRepository{db: db, logger: logger}
}

// Get returns the cache row for the given key, or nil when absent.
func (r *CacheRepository) Get(ctx context.Context, instanceID uint, apiPath, cacheKey string) (*models.VosDataCacheModel, error) {
	var entry models.VosDataCacheModel
	err := r.db.WithContext(ctx).
		Where("vos_instance_id = ? AND api_path = ? AND cache_key = ?", instanceID, apiPath, cacheKey).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return &entry, nil
}

// Upsert inserts or replaces the row keyed by (instance, api_path, cache_key).
func (r *CacheRepository) Upsert(ctx context.Context, entry *models.VosDataCacheModel) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "vos_instance_id"},
			{Name: "api_path"},
			{Name: "cache_key"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"data", "ret_code", "is_valid", "error_message", "synced_at", "expires_at", "updated_at",
		}),
	}).Create(entry)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", result.Error)
	}
	return nil
}

// Invalidate marks rows invalid. An empty apiPath invalidates the whole instance.
func (r *CacheRepository) Invalidate(ctx context.Context, instanceID uint, apiPath string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.VosDataCacheModel{}).
		Where("vos_instance_id = ?", instanceID)
	if apiPath != "" {
		query = query.Where("api_path = ?", apiPath)
	}
	result := query.Update("is_valid", false)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to invalidate cache entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteOlderThan removes rows last touched before the cutoff.
func (r *CacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&models.VosDataCacheModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete stale cache entries: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		r.logger.Infow("stale cache entries removed", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// Stats returns row counts for an instance.
func (r *CacheRepository) Stats(ctx context.Context, instanceID uint) (*CacheStats, error) {
	var stats CacheStats
	base := r.db.WithContext(ctx).Model(&models.VosDataCacheModel{}).
		Where("vos_instance_id = ?", instanceID)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count cache entries: %w", err)
	}
	if err := base.Session(&gorm.Session{}).Where("is_valid = ?", true).Count(&stats.Valid).Error; err != nil {
		return nil, fmt.Errorf("failed to count valid cache entries: %w", err)
	}
	if err := base.Session(&gorm.Session{}).Where("expires_at < ?", time.Now().UTC()).Count(&stats.Expired).Error; err != nil {
		return nil, fmt.Errorf("failed to count expired cache entries: %w", err)
	}
	return &stats, nil
}
