package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/logger"
)

// CustomerRepository manages synced billing accounts.
type CustomerRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewCustomerRepository creates a new customer repository.
func NewCustomerRepository(db *gorm.DB, logger logger.Interface) *CustomerRepository {
	return &CustomerRepository{db: db, logger: logger}
}

// BatchUpsert inserts or refreshes customers keyed by (instance, account).
func (r *CustomerRepository) BatchUpsert(ctx context.Context, customers []models.CustomerModel) error {
	if len(customers) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "vos_instance_id"},
			{Name: "account"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "money", "limit_money", "is_in_debt", "raw_data", "synced_at", "updated_at",
		}),
	}).Create(&customers)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert customers: %w", result.Error)
	}

	r.logger.Debugw("customers upserted", "count", len(customers))
	return nil
}

func (r *CustomerRepository) ListByInstance(ctx context.Context, instanceID uint) ([]models.CustomerModel, error) {
	var customers []models.CustomerModel
	err := r.db.WithContext(ctx).Where("vos_instance_id = ?", instanceID).Order("account").Find(&customers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

// ListAccounts returns the account names for an instance, for report chunking
// and per-customer CDR fan-out.
func (r *CustomerRepository) ListAccounts(ctx context.Context, instanceID uint) ([]string, error) {
	var accounts []string
	err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("vos_instance_id = ?", instanceID).
		Order("account").
		Pluck("account", &accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list customer accounts: %w", err)
	}
	return accounts, nil
}

func (r *CustomerRepository) CountByInstance(ctx context.Context, instanceID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("vos_instance_id = ?", instanceID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}
