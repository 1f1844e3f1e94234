package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vossync/internal/infrastructure/persistence/models"
	sharedDB "vossync/internal/shared/db"
	"vossync/internal/shared/logger"
)

// PhoneRepository manages the online-phone registry.
type PhoneRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewPhoneRepository creates a new phone repository.
func NewPhoneRepository(db *gorm.DB, logger logger.Interface) *PhoneRepository {
	return &PhoneRepository{db: db, logger: logger}
}

// MarkAllOffline clears the online flag for every phone of the instance.
// Runs inside the reconcile transaction so readers never observe the
// all-offline intermediate state.
func (r *PhoneRepository) MarkAllOffline(ctx context.Context, instanceID uint) error {
	err := sharedDB.GetTxFromContext(ctx, r.db).Model(&models.PhoneModel{}).
		Where("vos_instance_id = ? AND is_online = ?", instanceID, true).
		Update("is_online", false).Error
	if err != nil {
		return fmt.Errorf("failed to mark phones offline: %w", err)
	}
	return nil
}

// BatchUpsertOnline inserts or refreshes the returned online set keyed by
// (instance, e164), marking each row online.
func (r *PhoneRepository) BatchUpsertOnline(ctx context.Context, phones []models.PhoneModel) error {
	if len(phones) == 0 {
		return nil
	}

	result := sharedDB.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "vos_instance_id"},
			{Name: "e164"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_online", "last_online_at", "raw_data", "synced_at", "updated_at",
		}),
	}).Create(&phones)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert phones: %w", result.Error)
	}

	r.logger.Debugw("online phones upserted", "count", len(phones))
	return nil
}

func (r *PhoneRepository) CountOnline(ctx context.Context, instanceID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PhoneModel{}).
		Where("vos_instance_id = ? AND is_online = ?", instanceID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count online phones: %w", err)
	}
	return count, nil
}
