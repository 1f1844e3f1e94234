package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/logger"
)

// GatewayRepository manages synced gateway rows.
type GatewayRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewGatewayRepository creates a new gateway repository.
func NewGatewayRepository(db *gorm.DB, logger logger.Interface) *GatewayRepository {
	return &GatewayRepository{db: db, logger: logger}
}

// BatchUpsert inserts or refreshes gateways keyed by (instance, name).
func (r *GatewayRepository) BatchUpsert(ctx context.Context, gateways []models.GatewayModel) error {
	if len(gateways) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "vos_instance_id"},
			{Name: "name"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"gateway_type", "is_online", "remote_ip", "asr", "acd",
			"concurrent_calls", "raw_data", "synced_at", "updated_at",
		}),
	}).Create(&gateways)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert gateways: %w", result.Error)
	}

	r.logger.Debugw("gateways upserted", "count", len(gateways))
	return nil
}

func (r *GatewayRepository) ListByInstance(ctx context.Context, instanceID uint) ([]models.GatewayModel, error) {
	var gateways []models.GatewayModel
	err := r.db.WithContext(ctx).Where("vos_instance_id = ?", instanceID).Order("name").Find(&gateways).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list gateways: %w", err)
	}
	return gateways, nil
}
