// Package migrate holds the schema migration command.
package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vossync/internal/infrastructure/config"
	"vossync/internal/infrastructure/database"
	"vossync/internal/infrastructure/migration"
	"vossync/internal/infrastructure/warehouse"
	"vossync/internal/shared/logger"
)

var (
	env           string
	withWarehouse bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the config store schema",
		Long:  `Apply the config store table schemas and the dashboard view migrations. With --warehouse, also create the warehouse detail table.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "default", "Environment")
	cmd.Flags().BoolVar(&withWarehouse, "warehouse", false, "Also ensure the warehouse schema")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to connect to config store: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Warnw("failed to close config store connection", "error", err)
		}
	}()

	if err := migration.NewManager(database.Get()).Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("config store schema is up to date")

	if !withWarehouse {
		return nil
	}

	if err := warehouse.Init(&cfg.Warehouse); err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer func() {
		if err := warehouse.Close(); err != nil {
			log.Warnw("failed to close warehouse connection", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := warehouse.NewCDRStore(warehouse.Get(), cfg.Warehouse.Database, log)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure warehouse schema: %w", err)
	}
	log.Info("warehouse schema is up to date")
	return nil
}
