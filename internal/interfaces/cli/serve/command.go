// Package serve holds the long-running service command: scheduler plus
// the ops API.
package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"vossync/internal/infrastructure/migration"
	"vossync/internal/interfaces/cli"
	httpRouter "vossync/internal/interfaces/http"
	"vossync/internal/interfaces/http/handlers"
	"vossync/internal/interfaces/http/middleware"
	"vossync/internal/shared/goroutine"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync scheduler and the ops API",
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "default", "Environment")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Apply schema migrations on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	app, err := cli.Bootstrap(env)
	if err != nil {
		return err
	}
	defer app.Close()
	log := app.Logger

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if autoMigrate {
		if err := migration.NewManager(app.DB).Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	if err := app.CDRStore.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure warehouse schema: %w", err)
	}

	if err := app.Registry.Refresh(ctx, app.Instances); err != nil {
		return fmt.Errorf("failed to load instance registry: %w", err)
	}
	log.Infow("instance registry loaded", "instances", app.Registry.Len())

	if err := app.Scheduler.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed job schedules: %w", err)
	}
	if err := app.Scheduler.RegisterFixedJobs(); err != nil {
		return fmt.Errorf("failed to register jobs: %w", err)
	}
	if err := app.Scheduler.RegisterDailyJobs(ctx); err != nil {
		return fmt.Errorf("failed to register jobs: %w", err)
	}
	app.Scheduler.Start()

	gin.DefaultWriter = io.Discard
	router := httpRouter.NewRouter(httpRouter.RouterDeps{
		Status: handlers.NewStatusHandler(app.Scheduler),
		Sync: handlers.NewSyncHandler(
			app.Progress, app.Summary, app.Registry,
			app.Sync, app.Sync, app.Reports,
			log,
		),
		Config: handlers.NewConfigHandler(app.AppConfig, app.SyncConfigs, app.Scheduler, log),
		Auth:   middleware.NewAuthMiddleware(app.Tokens, log),
		Logger: log,
		Server: &app.Cfg.Server,
	})

	server := &http.Server{
		Addr:         app.Cfg.Server.GetAddr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	goroutine.SafeGo(log, "http-server", func() {
		log.Infow("ops API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("http server stopped", "error", err)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infow("shutting down", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http server shutdown failed", "error", err)
	}
	if err := app.Scheduler.Stop(); err != nil {
		log.Warnw("scheduler shutdown failed", "error", err)
	}
	app.Sync.Pool().Wait()

	log.Info("shutdown complete")
	return nil
}
