package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/logger"
)

// ReferenceDataRepository manages the config-class upstream mirrors
// (fee rate groups and suites).
type ReferenceDataRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewReferenceDataRepository creates a new reference data repository.
func NewReferenceDataRepository(db *gorm.DB, logger logger.Interface) *ReferenceDataRepository {
	return &ReferenceDataRepository{db: db, logger: logger}
}

// BatchUpsertFeeRateGroups inserts or refreshes rate groups keyed by (instance, name).
func (r *ReferenceDataRepository) BatchUpsertFeeRateGroups(ctx context.Context, groups []models.FeeRateGroupModel) error {
	if len(groups) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "vos_instance_id"},
			{Name: "name"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"raw_data", "synced_at", "updated_at"}),
	}).Create(&groups)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert fee rate groups: %w", result.Error)
	}
	return nil
}

// BatchUpsertSuites inserts or refreshes suites keyed by (instance, suite_id).
func (r *ReferenceDataRepository) BatchUpsertSuites(ctx context.Context, suites []models.SuiteModel) error {
	if len(suites) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "vos_instance_id"},
			{Name: "suite_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"name", "raw_data", "synced_at", "updated_at"}),
	}).Create(&suites)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert suites: %w", result.Error)
	}
	return nil
}
