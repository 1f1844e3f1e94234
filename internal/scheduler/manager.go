// Package scheduler wires the recurring jobs using gocron v2. Cron
// expressions evaluate in the business timezone; job schedules come from
// the runtime configuration tables and can be re-armed without a restart.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/infrastructure/repository"
	"vossync/internal/shared/biztime"
	"vossync/internal/shared/constants"
	"vossync/internal/shared/logger"
)

// Job names. Also the keys of sync_configs rows that override schedules.
const (
	JobPhoneSync    = "phone_sync"
	JobCustomerSync = "customer_sync"
	JobCdrSync      = "cdr_sync"
	JobStatistics   = "statistics"
	JobReports      = "account_reports"
	JobCacheCleanup = "cache_cleanup"
	JobHealthCheck  = "health_check"
)

// Default daily schedules, as HH:MM in the business timezone.
const (
	defaultCustomerSyncTime = "01:00"
	defaultCdrSyncTime      = "01:30"
	defaultStatisticsTime   = "02:30"
	defaultReportsTime      = "03:00"
	defaultCacheCleanupTime = "04:00"
)

// rearmTag marks jobs whose schedule is configuration-driven; Rearm
// replaces exactly these.
const rearmTag = "configurable"

// Syncer is the pull-sync surface the scheduler drives.
type Syncer interface {
	SyncAllPhones(ctx context.Context) error
	SyncAllCustomers(ctx context.Context) error
	SyncReferenceData(ctx context.Context) error
	SyncAllCDRs(ctx context.Context) error
}

// Rollup runs the nightly statistics aggregation.
type Rollup interface {
	RollupAll(ctx context.Context) error
}

// ReportPuller runs the nightly account report pull.
type ReportPuller interface {
	SyncAllReports(ctx context.Context) error
}

// HealthChecker runs one probe round over the fleet.
type HealthChecker interface {
	CheckAll(ctx context.Context) error
}

// CacheCleaner expires old cache rows.
type CacheCleaner interface {
	Cleanup(ctx context.Context, days int) (int64, error)
}

// RetentionStore drops warehouse partitions past the retention horizon.
type RetentionStore interface {
	DropPartitionsOlderThan(ctx context.Context, monthsToKeep int) ([]string, error)
}

// Manager owns the gocron scheduler and the job registry.
type Manager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	appConfig   *repository.AppConfigRepository
	syncConfigs *repository.SyncConfigRepository

	syncer    Syncer
	rollup    Rollup
	reports   ReportPuller
	health    HealthChecker
	cleaner   CacheCleaner
	retention RetentionStore

	cacheCleanupDays   int
	cdrRetentionMonths int

	started   bool
	startedMu sync.RWMutex
}

// NewManager creates the manager. The scheduler evaluates cron
// expressions in the business timezone.
func NewManager(
	appConfig *repository.AppConfigRepository,
	syncConfigs *repository.SyncConfigRepository,
	syncer Syncer,
	rollup Rollup,
	reports ReportPuller,
	health HealthChecker,
	cleaner CacheCleaner,
	retention RetentionStore,
	cacheCleanupDays int,
	cdrRetentionMonths int,
	log logger.Interface,
) (*Manager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &Manager{
		scheduler:          scheduler,
		logger:             log.Named("scheduler"),
		appConfig:          appConfig,
		syncConfigs:        syncConfigs,
		syncer:             syncer,
		rollup:             rollup,
		reports:            reports,
		health:             health,
		cleaner:            cleaner,
		retention:          retention,
		cacheCleanupDays:   cacheCleanupDays,
		cdrRetentionMonths: cdrRetentionMonths,
	}, nil
}

// timeToCron converts an HH:MM wall time to a daily cron expression.
// Malformed values fall back to the provided default, then to midnight.
func timeToCron(hhmm, fallback string) string {
	if expr, ok := wallTimeCron(hhmm); ok {
		return expr
	}
	if expr, ok := wallTimeCron(fallback); ok {
		return expr
	}
	return "0 0 * * *"
}

func wallTimeCron(hhmm string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(hhmm), ":", 2)
	if len(parts) != 2 {
		return "", false
	}
	hour, errH := strconv.Atoi(parts[0])
	minute, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), true
}

// resolveCron picks the schedule for a daily job: an enabled sync_configs
// row with a cron expression wins, then the app_configs HH:MM key, then
// the built-in default. A disabled sync_configs row returns empty,
// meaning the job is not scheduled.
func (m *Manager) resolveCron(ctx context.Context, jobName, appConfigKey, defaultTime string) string {
	if row, err := m.syncConfigs.GetByName(ctx, jobName); err != nil {
		m.logger.Warnw("failed to read sync config", "job", jobName, "error", err)
	} else if row != nil {
		if !row.Enabled {
			return ""
		}
		if row.CronExpression != "" {
			return row.CronExpression
		}
	}

	if appConfigKey != "" {
		hhmm, err := m.appConfig.GetValue(ctx, appConfigKey, defaultTime)
		if err != nil {
			m.logger.Warnw("failed to read app config", "key", appConfigKey, "error", err)
			hhmm = defaultTime
		}
		return timeToCron(hhmm, defaultTime)
	}
	return timeToCron(defaultTime, defaultTime)
}

// run wraps a job body with a timeout, run recording and logging.
func (m *Manager) run(name string, timeout time.Duration, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		m.logger.Infow("job started", "job", name)

		err := fn(ctx)
		status := constants.SyncStatusCompleted
		errMsg := ""
		if err != nil {
			status = constants.SyncStatusFailed
			errMsg = err.Error()
			m.logger.Errorw("job failed", "job", name, "duration", time.Since(start), "error", err)
		} else {
			m.logger.Infow("job finished", "job", name, "duration", time.Since(start))
		}

		if recErr := m.syncConfigs.RecordRun(context.Background(), name, status, errMsg); recErr != nil {
			m.logger.Warnw("failed to record job run", "job", name, "error", recErr)
		}
	}
}

// RegisterFixedJobs registers the jobs whose cadence is not
// configuration-driven: the phone reconcile loop and the health probe.
func (m *Manager) RegisterFixedJobs() error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(m.run(JobPhoneSync, 5*time.Minute, m.syncer.SyncAllPhones)),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(JobPhoneSync),
	)
	if err != nil {
		return err
	}

	_, err = m.scheduler.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(m.run(JobHealthCheck, time.Minute, m.health.CheckAll)),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(JobHealthCheck),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered fixed jobs", "phone_interval", "5m", "health_interval", "1m")
	return nil
}

// dailyJobs describes every configuration-driven daily job.
func (m *Manager) dailyJobs() []struct {
	name         string
	appConfigKey string
	defaultTime  string
	timeout      time.Duration
	fn           func(ctx context.Context) error
} {
	return []struct {
		name         string
		appConfigKey string
		defaultTime  string
		timeout      time.Duration
		fn           func(ctx context.Context) error
	}{
		{JobCustomerSync, constants.ConfigKeyCustomerSyncTime, defaultCustomerSyncTime, time.Hour, func(ctx context.Context) error {
			if err := m.syncer.SyncAllCustomers(ctx); err != nil {
				return err
			}
			return m.syncer.SyncReferenceData(ctx)
		}},
		{JobCdrSync, constants.ConfigKeyCdrSyncTime, defaultCdrSyncTime, 6 * time.Hour, m.syncer.SyncAllCDRs},
		{JobStatistics, "", defaultStatisticsTime, time.Hour, m.rollup.RollupAll},
		{JobReports, "", defaultReportsTime, 2 * time.Hour, m.reports.SyncAllReports},
		{JobCacheCleanup, "", defaultCacheCleanupTime, 30 * time.Minute, func(ctx context.Context) error {
			if _, err := m.cleaner.Cleanup(ctx, m.cacheCleanupDays); err != nil {
				return err
			}
			if m.retention != nil && m.cdrRetentionMonths > 0 {
				dropped, err := m.retention.DropPartitionsOlderThan(ctx, m.cdrRetentionMonths)
				if err != nil {
					return err
				}
				if len(dropped) > 0 {
					m.logger.Infow("dropped expired detail partitions", "partitions", dropped)
				}
			}
			return nil
		}},
	}
}

// RegisterDailyJobs resolves each daily schedule and registers the jobs.
func (m *Manager) RegisterDailyJobs(ctx context.Context) error {
	for _, job := range m.dailyJobs() {
		cronExpr := m.resolveCron(ctx, job.name, job.appConfigKey, job.defaultTime)
		if cronExpr == "" {
			m.logger.Infow("job disabled by configuration", "job", job.name)
			continue
		}

		_, err := m.scheduler.NewJob(
			gocron.CronJob(cronExpr, false),
			gocron.NewTask(m.run(job.name, job.timeout, job.fn)),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithName(job.name),
			gocron.WithTags(rearmTag),
		)
		if err != nil {
			return fmt.Errorf("failed to register job %s: %w", job.name, err)
		}
		m.logger.Infow("registered daily job", "job", job.name, "cron", cronExpr)
	}
	return nil
}

// Rearm drops every configuration-driven job and re-registers it with
// freshly resolved schedules. Fixed-cadence jobs are untouched.
func (m *Manager) Rearm(ctx context.Context) error {
	m.scheduler.RemoveByTags(rearmTag)
	if err := m.RegisterDailyJobs(ctx); err != nil {
		return err
	}
	m.logger.Infow("schedules re-armed")
	return nil
}

// Start begins executing registered jobs. Idempotent.
func (m *Manager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()
	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started", "jobs", len(m.scheduler.Jobs()))
}

// Stop shuts the scheduler down, waiting for running jobs.
func (m *Manager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false
	return m.scheduler.Shutdown()
}

// IsStarted reports whether Start has been called.
func (m *Manager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs exposes the registered jobs for the ops API.
func (m *Manager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}

// JobSchedules summarizes the live registry for the ops API.
func (m *Manager) JobSchedules() []JobSchedule {
	jobs := m.scheduler.Jobs()
	out := make([]JobSchedule, 0, len(jobs))
	for _, j := range jobs {
		s := JobSchedule{Name: j.Name()}
		if next, err := j.NextRun(); err == nil {
			s.NextRun = next.UTC()
		}
		if last, err := j.LastRun(); err == nil && !last.IsZero() {
			lastUTC := last.UTC()
			s.LastRun = &lastUTC
		}
		out = append(out, s)
	}
	return out
}

// JobSchedule is one entry of the live job registry.
type JobSchedule struct {
	Name    string     `json:"name"`
	NextRun time.Time  `json:"next_run"`
	LastRun *time.Time `json:"last_run,omitempty"`
}

// SeedDefaults inserts missing sync_configs rows so operators can see and
// edit every schedule. Existing rows are left alone.
func (m *Manager) SeedDefaults(ctx context.Context) error {
	for _, job := range m.dailyJobs() {
		row, err := m.syncConfigs.GetByName(ctx, job.name)
		if err != nil {
			return err
		}
		if row != nil {
			continue
		}
		cronExpr := timeToCron(job.defaultTime, job.defaultTime)
		if err := m.syncConfigs.Upsert(ctx, &models.SyncConfigModel{
			Name:           job.name,
			SyncType:       job.name,
			CronExpression: cronExpr,
			Enabled:        true,
		}); err != nil {
			return err
		}
	}
	return nil
}
