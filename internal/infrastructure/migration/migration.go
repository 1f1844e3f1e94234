// Package migration manages the config store schema. Table schemas come from
// gorm AutoMigrate over the persistence models; the dashboard views and the
// materialized view live in embedded SQL migrations applied with goose.
package migration

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"vossync/internal/shared/logger"
)

//go:embed scripts/*.sql
var migrationScripts embed.FS

// Manager runs schema migrations against the config store.
type Manager struct {
	db  *gorm.DB
	log logger.Interface
}

// NewManager creates a new migration manager.
func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		db:  db,
		log: logger.NewLogger().Named("migration"),
	}
}

// Migrate applies the model schemas, then the SQL migrations for views.
func (m *Manager) Migrate() error {
	mdls := AutoMigrateModels()
	m.log.Info("starting database migration", "models_count", len(mdls))

	if err := m.db.AutoMigrate(mdls...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	if err := m.applySQLMigrations(); err != nil {
		return fmt.Errorf("sql migrations failed: %w", err)
	}

	m.log.Info("database migration completed")
	return nil
}

func (m *Manager) applySQLMigrations() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	goose.SetBaseFS(migrationScripts)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(sqlDB, "scripts")
}
