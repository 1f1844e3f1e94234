package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/logger"
)

// InstanceRepository manages upstream instance rows.
type InstanceRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewInstanceRepository creates a new instance repository.
func NewInstanceRepository(db *gorm.DB, logger logger.Interface) *InstanceRepository {
	return &InstanceRepository{db: db, logger: logger}
}

func (r *InstanceRepository) Create(ctx context.Context, instance *models.VosInstanceModel) error {
	if err := r.db.WithContext(ctx).Create(instance).Error; err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}
	return nil
}

func (r *InstanceRepository) Update(ctx context.Context, instance *models.VosInstanceModel) error {
	if err := r.db.WithContext(ctx).Save(instance).Error; err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}
	return nil
}

// Delete removes the instance row. Child rows go with it via FK cascade.
func (r *InstanceRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.VosInstanceModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete instance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *InstanceRepository) GetByID(ctx context.Context, id uint) (*models.VosInstanceModel, error) {
	var instance models.VosInstanceModel
	err := r.db.WithContext(ctx).First(&instance, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get instance by id: %w", err)
	}
	return &instance, nil
}

func (r *InstanceRepository) GetByUUID(ctx context.Context, uuid string) (*models.VosInstanceModel, error) {
	var instance models.VosInstanceModel
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&instance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get instance by uuid: %w", err)
	}
	return &instance, nil
}

func (r *InstanceRepository) List(ctx context.Context) ([]models.VosInstanceModel, error) {
	var instances []models.VosInstanceModel
	if err := r.db.WithContext(ctx).Order("id").Find(&instances).Error; err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	return instances, nil
}

// ListEnabled returns instances that participate in scheduled syncs.
func (r *InstanceRepository) ListEnabled(ctx context.Context) ([]models.VosInstanceModel, error) {
	var instances []models.VosInstanceModel
	err := r.db.WithContext(ctx).Where("sync_enabled = ?", true).Order("id").Find(&instances).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled instances: %w", err)
	}
	return instances, nil
}
