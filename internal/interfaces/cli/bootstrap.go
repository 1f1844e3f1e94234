// Package cli wires the application for the cobra commands: configuration,
// logging, stores, services and the scheduler.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"vossync/internal/health"
	"vossync/internal/infrastructure/auth"
	"vossync/internal/infrastructure/cache"
	"vossync/internal/infrastructure/config"
	"vossync/internal/infrastructure/database"
	"vossync/internal/infrastructure/email"
	"vossync/internal/infrastructure/repository"
	"vossync/internal/infrastructure/warehouse"
	"vossync/internal/refcache"
	"vossync/internal/reports"
	"vossync/internal/scheduler"
	"vossync/internal/shared/biztime"
	sharedConfig "vossync/internal/shared/config"
	sharedDB "vossync/internal/shared/db"
	"vossync/internal/shared/logger"
	"vossync/internal/stats"
	"vossync/internal/sync"
	"vossync/internal/vos"
)

// App holds every wired component a command may need.
type App struct {
	Cfg    *config.Config
	Logger logger.Interface

	DB       *gorm.DB
	Redis    *redis.Client
	CDRStore *warehouse.CDRStore

	Instances   *repository.InstanceRepository
	AppConfig   *repository.AppConfigRepository
	SyncConfigs *repository.SyncConfigRepository
	Checks      *repository.HealthRepository

	Progress *cache.ProgressStore
	Summary  *cache.HealthSummaryStore

	Sync     *sync.Service
	Stats    *stats.Service
	Reports  *reports.Service
	Health   *health.Monitor
	RefCache *refcache.Service
	Registry *sync.Registry

	Scheduler *scheduler.Manager
	Tokens    *auth.TokenService
}

// Bootstrap loads configuration and wires the full dependency graph.
func Bootstrap(env string) (*App, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Sync.Timezone); err != nil {
		return nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to connect to config store: %w", err)
	}
	db := database.Get()

	if err := warehouse.Init(&cfg.Warehouse); err != nil {
		return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	cdrStore := warehouse.NewCDRStore(warehouse.Get(), cfg.Warehouse.Database, log)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	instances := repository.NewInstanceRepository(db, log)
	customers := repository.NewCustomerRepository(db, log)
	phones := repository.NewPhoneRepository(db, log)
	gateways := repository.NewGatewayRepository(db, log)
	refData := repository.NewReferenceDataRepository(db, log)
	dashboard := repository.NewDashboardRepository(db, log)
	appConfig := repository.NewAppConfigRepository(db, log)
	syncConfigs := repository.NewSyncConfigRepository(db, log)
	reportRepo := repository.NewReportRepository(db, log)
	statsRepo := repository.NewStatisticsRepository(db, log)
	checks := repository.NewHealthRepository(db, log)
	cacheRepo := repository.NewCacheRepository(db, log)

	progress := cache.NewProgressStore(rdb)
	summary := cache.NewHealthSummaryStore(rdb)
	tx := sharedDB.NewTransactionManager(db)

	refCache := refcache.NewService(
		instances, cacheRepo,
		func(baseURL string) refcache.Fetcher { return vos.NewClient(baseURL, log) },
		log,
	)

	syncSvc := sync.NewService(
		instances, customers, phones, gateways, refData, dashboard, appConfig,
		cdrStore, progress, tx,
		func(baseURL string) sync.Caller { return vos.NewClient(baseURL, log) },
		refCache,
		sync.OptionsFromConfig(&cfg.Sync),
		log,
	)

	statsSvc := stats.NewService(instances, statsRepo, tx, cdrStore, log)

	reportsSvc := reports.NewService(
		instances, customers, reportRepo, appConfig,
		func(baseURL string) reports.Caller {
			return vos.NewClient(baseURL, log, vos.WithTimeout(vos.ReportTimeout))
		},
		reportOptions(&cfg.Sync),
		log,
	)

	mailer := email.NewAlertMailer(&cfg.Email)
	var notifier health.Notifier
	if mailer.Enabled() {
		notifier = mailer
	}
	healthMon := health.NewMonitor(
		instances, checks, summary,
		func(baseURL string) health.Caller { return vos.NewClient(baseURL, log) },
		notifier,
		log,
	)

	registry := sync.NewRegistry()

	sched, err := scheduler.NewManager(
		appConfig, syncConfigs,
		syncSvc, statsSvc, reportsSvc, healthMon, refCache, cdrStore,
		cfg.Sync.CacheCleanupDays, cfg.Sync.CdrRetentionMonths,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &App{
		Cfg:         cfg,
		Logger:      log,
		DB:          db,
		Redis:       rdb,
		CDRStore:    cdrStore,
		Instances:   instances,
		AppConfig:   appConfig,
		SyncConfigs: syncConfigs,
		Checks:      checks,
		Progress:    progress,
		Summary:     summary,
		Sync:        syncSvc,
		Stats:       statsSvc,
		Reports:     reportsSvc,
		Health:      healthMon,
		RefCache:    refCache,
		Registry:    registry,
		Scheduler:   sched,
		Tokens:      auth.NewTokenService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes),
	}, nil
}

// Close releases the connections in reverse order of acquisition.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warnw("failed to close redis client", "error", err)
		}
	}
	if err := warehouse.Close(); err != nil {
		a.Logger.Warnw("failed to close warehouse connection", "error", err)
	}
	if err := database.Close(); err != nil {
		a.Logger.Warnw("failed to close config store connection", "error", err)
	}
}

func reportOptions(cfg *sharedConfig.SyncConfig) reports.Options {
	opts := reports.DefaultOptions()
	if cfg.ReportChunkSize > 0 {
		opts.ChunkSize = cfg.ReportChunkSize
	}
	if d, err := time.ParseDuration(cfg.ReportChunkDelay); err == nil && d >= 0 {
		opts.ChunkDelay = d
	}
	return opts
}
