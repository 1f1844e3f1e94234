// Package sync pulls upstream softswitch state into the local stores: the
// reference tables in Postgres and the detail record stream in ClickHouse.
// Jobs run on a bounded worker pool with per-instance serialization and
// deliberate pacing between upstream calls.
package sync

import (
	"context"

	"vossync/internal/infrastructure/cache"
	"vossync/internal/infrastructure/repository"
	"vossync/internal/refcache"
	sharedDB "vossync/internal/shared/db"
	"vossync/internal/shared/logger"
	"vossync/internal/vos"
)

// Caller is the upstream call surface a sync job needs.
type Caller interface {
	Post(ctx context.Context, path string, payload map[string]any) vos.Response
}

// ClientFactory builds a caller for an instance base URL.
type ClientFactory func(baseURL string) Caller

// ReferenceReader resolves upstream reads through the reference cache, so
// every catalog fetch leaves a fresh durable cache row behind.
type ReferenceReader interface {
	Get(ctx context.Context, instanceID uint, apiPath string, params map[string]any, forceRefresh bool) (vos.Response, refcache.Source, error)
}

// DetailStore is the warehouse write surface for detail records.
type DetailStore interface {
	InsertCDRs(ctx context.Context, vosID uint, vosUUID string, cdrs []map[string]any) (int, error)
}

// Service owns all pull-based synchronization against upstream instances.
type Service struct {
	instances *repository.InstanceRepository
	customers *repository.CustomerRepository
	phones    *repository.PhoneRepository
	gateways  *repository.GatewayRepository
	refData   *repository.ReferenceDataRepository
	dashboard *repository.DashboardRepository
	appConfig *repository.AppConfigRepository
	cdrs      DetailStore
	progress  *cache.ProgressStore
	tx        *sharedDB.TransactionManager
	newClient ClientFactory
	refCache  ReferenceReader
	pool      *WorkerPool
	opts      Options
	logger    logger.Interface
}

// NewService creates the sync service with its own worker pool.
func NewService(
	instances *repository.InstanceRepository,
	customers *repository.CustomerRepository,
	phones *repository.PhoneRepository,
	gateways *repository.GatewayRepository,
	refData *repository.ReferenceDataRepository,
	dashboard *repository.DashboardRepository,
	appConfig *repository.AppConfigRepository,
	cdrs DetailStore,
	progress *cache.ProgressStore,
	tx *sharedDB.TransactionManager,
	newClient ClientFactory,
	refCache ReferenceReader,
	opts Options,
	log logger.Interface,
) *Service {
	return &Service{
		instances: instances,
		customers: customers,
		phones:    phones,
		gateways:  gateways,
		refData:   refData,
		dashboard: dashboard,
		appConfig: appConfig,
		cdrs:      cdrs,
		progress:  progress,
		tx:        tx,
		newClient: newClient,
		refCache:  refCache,
		pool:      NewWorkerPool(opts.WorkerPoolSize, log),
		opts:      opts,
		logger:    log.Named("sync"),
	}
}

// Pool exposes the worker pool for callers that need to wait for
// outstanding jobs during shutdown.
func (s *Service) Pool() *WorkerPool {
	return s.pool
}
