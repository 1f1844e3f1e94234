package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/infrastructure/repository"
	"vossync/internal/shared/biztime"
	"vossync/internal/shared/constants"
	"vossync/internal/shared/logger"
)

// nopLogger is a no-op logger for testing.
type nopLogger struct{}

func newNopLogger() logger.Interface { return &nopLogger{} }

func (l *nopLogger) Debug(msg string, args ...any)                   {}
func (l *nopLogger) Info(msg string, args ...any)                    {}
func (l *nopLogger) Warn(msg string, args ...any)                    {}
func (l *nopLogger) Error(msg string, args ...any)                   {}
func (l *nopLogger) Fatal(msg string, args ...any)                   {}
func (l *nopLogger) With(args ...any) logger.Interface               { return l }
func (l *nopLogger) Named(name string) logger.Interface              { return l }
func (l *nopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) Fatalw(msg string, keysAndValues ...interface{}) {}

type stubSyncer struct{ runs []string }

func (s *stubSyncer) SyncAllPhones(context.Context) error    { s.runs = append(s.runs, "phones"); return nil }
func (s *stubSyncer) SyncAllCustomers(context.Context) error { s.runs = append(s.runs, "customers"); return nil }
func (s *stubSyncer) SyncReferenceData(context.Context) error {
	s.runs = append(s.runs, "reference")
	return nil
}
func (s *stubSyncer) SyncAllCDRs(context.Context) error { s.runs = append(s.runs, "cdrs"); return nil }

type stubRollup struct{ runs int }

func (s *stubRollup) RollupAll(context.Context) error { s.runs++; return nil }

type stubReports struct{ runs int }

func (s *stubReports) SyncAllReports(context.Context) error { s.runs++; return nil }

type stubHealth struct{ runs int }

func (s *stubHealth) CheckAll(context.Context) error { s.runs++; return nil }

type stubCleaner struct{ days []int }

func (s *stubCleaner) Cleanup(_ context.Context, days int) (int64, error) {
	s.days = append(s.days, days)
	return 0, nil
}

func setupManager(t *testing.T) (*Manager, *gorm.DB, *stubSyncer) {
	t.Helper()
	biztime.MustInit("Asia/Shanghai")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AppConfigModel{}, &models.SyncConfigModel{}))

	log := newNopLogger()
	syncer := &stubSyncer{}
	m, err := NewManager(
		repository.NewAppConfigRepository(db, log),
		repository.NewSyncConfigRepository(db, log),
		syncer,
		&stubRollup{},
		&stubReports{},
		&stubHealth{},
		&stubCleaner{},
		nil,
		7,
		6,
		log,
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Stop() })
	return m, db, syncer
}

func TestTimeToCron(t *testing.T) {
	assert.Equal(t, "30 1 * * *", timeToCron("01:30", "00:00"))
	assert.Equal(t, "0 23 * * *", timeToCron("23:00", "00:00"))
	assert.Equal(t, "5 4 * * *", timeToCron(" 04:05 ", "00:00"))

	t.Run("malformed values fall back", func(t *testing.T) {
		assert.Equal(t, "15 2 * * *", timeToCron("not-a-time", "02:15"))
		assert.Equal(t, "15 2 * * *", timeToCron("25:00", "02:15"))
		assert.Equal(t, "15 2 * * *", timeToCron("10:61", "02:15"))
		assert.Equal(t, "15 2 * * *", timeToCron("", "02:15"))
	})
}

func TestResolveCron(t *testing.T) {
	m, db, _ := setupManager(t)
	ctx := context.Background()

	t.Run("defaults when nothing is configured", func(t *testing.T) {
		assert.Equal(t, "0 1 * * *", m.resolveCron(ctx, JobCustomerSync, constants.ConfigKeyCustomerSyncTime, defaultCustomerSyncTime))
	})

	t.Run("app config wall time wins over the default", func(t *testing.T) {
		require.NoError(t, db.Create(&models.AppConfigModel{
			ConfigKey:   constants.ConfigKeyCustomerSyncTime,
			ConfigValue: "05:45",
		}).Error)
		assert.Equal(t, "45 5 * * *", m.resolveCron(ctx, JobCustomerSync, constants.ConfigKeyCustomerSyncTime, defaultCustomerSyncTime))
	})

	t.Run("sync config cron overrides everything", func(t *testing.T) {
		require.NoError(t, db.Create(&models.SyncConfigModel{
			Name:           JobCustomerSync,
			SyncType:       JobCustomerSync,
			CronExpression: "*/15 * * * *",
			Enabled:        true,
		}).Error)
		assert.Equal(t, "*/15 * * * *", m.resolveCron(ctx, JobCustomerSync, constants.ConfigKeyCustomerSyncTime, defaultCustomerSyncTime))
	})

	t.Run("disabled row suppresses the job", func(t *testing.T) {
		require.NoError(t, db.Model(&models.SyncConfigModel{}).
			Where("name = ?", JobCustomerSync).
			Update("enabled", false).Error)
		assert.Empty(t, m.resolveCron(ctx, JobCustomerSync, constants.ConfigKeyCustomerSyncTime, defaultCustomerSyncTime))
	})
}

func TestRegisterAndRearm(t *testing.T) {
	m, db, _ := setupManager(t)
	ctx := context.Background()

	require.NoError(t, m.RegisterFixedJobs())
	require.NoError(t, m.RegisterDailyJobs(ctx))
	assert.Len(t, m.Jobs(), 7)

	names := make(map[string]bool)
	for _, j := range m.Jobs() {
		names[j.Name()] = true
	}
	for _, want := range []string{JobPhoneSync, JobHealthCheck, JobCustomerSync, JobCdrSync, JobStatistics, JobReports, JobCacheCleanup} {
		assert.True(t, names[want], "missing job %s", want)
	}

	t.Run("rearm drops disabled jobs and keeps fixed ones", func(t *testing.T) {
		require.NoError(t, db.Create(&models.SyncConfigModel{
			Name:     JobCdrSync,
			SyncType: JobCdrSync,
			Enabled:  false,
		}).Error)
		require.NoError(t, m.Rearm(ctx))

		rearmed := make(map[string]bool)
		for _, j := range m.Jobs() {
			rearmed[j.Name()] = true
		}
		assert.False(t, rearmed[JobCdrSync])
		assert.True(t, rearmed[JobPhoneSync])
		assert.True(t, rearmed[JobHealthCheck])
		assert.True(t, rearmed[JobCustomerSync])
		assert.Len(t, m.Jobs(), 6)
	})
}

func TestStartStop(t *testing.T) {
	m, _, _ := setupManager(t)

	assert.False(t, m.IsStarted())
	m.Start()
	assert.True(t, m.IsStarted())
	m.Start()
	assert.True(t, m.IsStarted())

	require.NoError(t, m.Stop())
	assert.False(t, m.IsStarted())
	require.NoError(t, m.Stop())
}

func TestRunRecordsOutcome(t *testing.T) {
	m, db, syncer := setupManager(t)
	require.NoError(t, m.SeedDefaults(context.Background()))

	m.run(JobCustomerSync, time.Minute, func(ctx context.Context) error {
		return m.syncer.SyncAllCustomers(ctx)
	})()
	assert.Equal(t, []string{"customers"}, syncer.runs)

	var row models.SyncConfigModel
	require.NoError(t, db.Where("name = ?", JobCustomerSync).First(&row).Error)
	assert.Equal(t, constants.SyncStatusCompleted, row.LastStatus)
	require.NotNil(t, row.LastRunAt)
	assert.Empty(t, row.LastError)

	t.Run("failure is recorded with its message", func(t *testing.T) {
		m.run(JobStatistics, time.Minute, func(context.Context) error {
			return assert.AnError
		})()

		var failed models.SyncConfigModel
		require.NoError(t, db.Where("name = ?", JobStatistics).First(&failed).Error)
		assert.Equal(t, constants.SyncStatusFailed, failed.LastStatus)
		assert.Contains(t, failed.LastError, "assert.AnError")
	})
}

func TestSeedDefaults(t *testing.T) {
	m, db, _ := setupManager(t)
	ctx := context.Background()

	require.NoError(t, m.SeedDefaults(ctx))

	var rows []models.SyncConfigModel
	require.NoError(t, db.Order("name").Find(&rows).Error)
	require.Len(t, rows, 5)
	byName := make(map[string]models.SyncConfigModel, len(rows))
	for _, r := range rows {
		byName[r.Name] = r
	}
	assert.Equal(t, "0 1 * * *", byName[JobCustomerSync].CronExpression)
	assert.Equal(t, "30 1 * * *", byName[JobCdrSync].CronExpression)
	assert.True(t, byName[JobStatistics].Enabled)

	t.Run("existing rows are untouched", func(t *testing.T) {
		require.NoError(t, db.Model(&models.SyncConfigModel{}).
			Where("name = ?", JobCdrSync).
			Update("cron_expression", "0 2 * * *").Error)

		require.NoError(t, m.SeedDefaults(ctx))

		var row models.SyncConfigModel
		require.NoError(t, db.Where("name = ?", JobCdrSync).First(&row).Error)
		assert.Equal(t, "0 2 * * *", row.CronExpression)
	})
}
