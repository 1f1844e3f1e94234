package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/logger"
)

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

func setupDB(t *testing.T, dst ...interface{}) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(dst...))
	return db
}

func seedInstance(t *testing.T, db *gorm.DB, name string) *models.VosInstanceModel {
	t.Helper()
	inst := &models.VosInstanceModel{
		Name:        name,
		APIURL:      "http://" + name + ".example.com",
		SyncEnabled: true,
	}
	require.NoError(t, db.Create(inst).Error)
	return inst
}

func TestAppConfigRepository(t *testing.T) {
	db := setupDB(t, &models.AppConfigModel{})
	repo := NewAppConfigRepository(db, newNopLogger())
	ctx := context.Background()

	t.Run("absent key returns default", func(t *testing.T) {
		v, err := repo.GetValue(ctx, "cdr_sync_days", "3")
		require.NoError(t, err)
		assert.Equal(t, "3", v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, repo.SetValue(ctx, "cdr_sync_days", "7", "days of cdrs per run"))
		v, err := repo.GetValue(ctx, "cdr_sync_days", "3")
		require.NoError(t, err)
		assert.Equal(t, "7", v)
	})

	t.Run("set replaces existing value", func(t *testing.T) {
		require.NoError(t, repo.SetValue(ctx, "cdr_sync_days", "14", ""))
		v, err := repo.GetValue(ctx, "cdr_sync_days", "3")
		require.NoError(t, err)
		assert.Equal(t, "14", v)

		var count int64
		require.NoError(t, db.Model(&models.AppConfigModel{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("int clamped", func(t *testing.T) {
		require.NoError(t, repo.SetValue(ctx, "cdr_sync_days", "90", ""))
		v, err := repo.GetIntClamped(ctx, "cdr_sync_days", 1, 1, 30)
		require.NoError(t, err)
		assert.Equal(t, 30, v)

		require.NoError(t, repo.SetValue(ctx, "cdr_sync_days", "not-a-number", ""))
		v, err = repo.GetIntClamped(ctx, "cdr_sync_days", 5, 1, 30)
		require.NoError(t, err)
		assert.Equal(t, 5, v)

		v, err = repo.GetIntClamped(ctx, "never_set", 10, 1, 30)
		require.NoError(t, err)
		assert.Equal(t, 10, v)
	})

	t.Run("list is ordered by key", func(t *testing.T) {
		require.NoError(t, repo.SetValue(ctx, "account_detail_report_sync_days", "2", ""))
		configs, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, configs, 2)
		assert.Equal(t, "account_detail_report_sync_days", configs[0].ConfigKey)
	})
}

func TestSyncConfigRepository(t *testing.T) {
	db := setupDB(t, &models.SyncConfigModel{})
	repo := NewSyncConfigRepository(db, newNopLogger())
	ctx := context.Background()

	t.Run("get absent returns nil", func(t *testing.T) {
		cfg, err := repo.GetByName(ctx, "cdr_sync")
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("upsert inserts then updates by name", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, &models.SyncConfigModel{
			Name:           "cdr_sync",
			SyncType:       "cdr",
			CronExpression: "0 2 * * *",
			Enabled:        true,
		}))
		require.NoError(t, repo.Upsert(ctx, &models.SyncConfigModel{
			Name:           "cdr_sync",
			SyncType:       "cdr",
			CronExpression: "30 2 * * *",
			Enabled:        false,
		}))

		cfg, err := repo.GetByName(ctx, "cdr_sync")
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "30 2 * * *", cfg.CronExpression)
		assert.False(t, cfg.Enabled)

		configs, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, configs, 1)
	})

	t.Run("record run updates bookkeeping", func(t *testing.T) {
		require.NoError(t, repo.RecordRun(ctx, "cdr_sync", "failed", "upstream timeout"))

		cfg, err := repo.GetByName(ctx, "cdr_sync")
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "failed", cfg.LastStatus)
		assert.Equal(t, "upstream timeout", cfg.LastError)
		require.NotNil(t, cfg.LastRunAt)
		assert.WithinDuration(t, time.Now().UTC(), *cfg.LastRunAt, 5*time.Second)
	})
}

func TestStatisticsRepositoryBatchUpsert(t *testing.T) {
	db := setupDB(t, &models.VosInstanceModel{}, &models.CdrStatisticModel{})
	repo := NewStatisticsRepository(db, newNopLogger())
	ctx := context.Background()
	inst := seedInstance(t, db, "vos1")

	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	rows := []models.CdrStatisticModel{
		{
			VosInstanceID:  inst.ID,
			VosUUID:        inst.UUID,
			StatisticType:  "vos",
			StatisticDate:  day,
			PeriodType:     "day",
			TotalCalls:     100,
			ConnectedCalls: 60,
			TotalDuration:  3600,
			TotalFee:       12.5,
			ConnectionRate: 60,
		},
		{
			VosInstanceID:  inst.ID,
			VosUUID:        inst.UUID,
			StatisticType:  "account",
			DimensionValue: "C001",
			StatisticDate:  day,
			PeriodType:     "day",
			TotalCalls:     40,
		},
	}
	require.NoError(t, repo.BatchUpsert(ctx, rows))

	t.Run("reinsert replaces instead of duplicating", func(t *testing.T) {
		rows[0].ID = 0
		rows[0].TotalCalls = 120
		require.NoError(t, repo.BatchUpsert(ctx, rows[:1]))

		var count int64
		require.NoError(t, db.Model(&models.CdrStatisticModel{}).Count(&count).Error)
		assert.Equal(t, int64(2), count)

		stats, err := repo.ListByInstance(ctx, inst.ID, "day", time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, stats, 2)
		for _, s := range stats {
			if s.StatisticType == "vos" {
				assert.Equal(t, int64(120), s.TotalCalls)
			}
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, repo.BatchUpsert(ctx, nil))
	})

	t.Run("date range filter", func(t *testing.T) {
		stats, err := repo.ListByInstance(ctx, inst.ID, "day", day.AddDate(0, 0, 1), time.Time{})
		require.NoError(t, err)
		assert.Empty(t, stats)
	})
}

func TestReportRepositoryBatchUpsert(t *testing.T) {
	db := setupDB(t, &models.VosInstanceModel{}, &models.AccountDetailReportModel{})
	repo := NewReportRepository(db, newNopLogger())
	ctx := context.Background()
	inst := seedInstance(t, db, "vos1")

	begin := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	end := begin.AddDate(0, 0, 1)
	report := models.AccountDetailReportModel{
		VosInstanceID: inst.ID,
		VosUUID:       inst.UUID,
		Account:       "C001",
		AccountName:   "Acme Telecom",
		BeginTime:     begin,
		EndTime:       end,
		CdrCount:      500,
		TotalFee:      42.1234,
		TotalTime:     18000,
	}
	require.NoError(t, repo.BatchUpsert(ctx, []models.AccountDetailReportModel{report}))

	t.Run("same window replaces", func(t *testing.T) {
		report.ID = 0
		report.CdrCount = 510
		report.TotalFee = 43.5
		require.NoError(t, repo.BatchUpsert(ctx, []models.AccountDetailReportModel{report}))

		reports, err := repo.ListByInstance(ctx, inst.ID, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, int64(510), reports[0].CdrCount)
		assert.Equal(t, 43.5, reports[0].TotalFee)
	})

	t.Run("window overlap filter", func(t *testing.T) {
		reports, err := repo.ListByInstance(ctx, inst.ID, begin, end)
		require.NoError(t, err)
		assert.Len(t, reports, 1)

		reports, err = repo.ListByInstance(ctx, inst.ID, end.AddDate(0, 0, 1), time.Time{})
		require.NoError(t, err)
		assert.Empty(t, reports)
	})
}

func TestHealthRepositoryUpsert(t *testing.T) {
	db := setupDB(t, &models.VosInstanceModel{}, &models.VosHealthCheckModel{})
	repo := NewHealthRepository(db, newNopLogger())
	ctx := context.Background()
	inst := seedInstance(t, db, "vos1")

	require.NoError(t, repo.Upsert(ctx, &models.VosHealthCheckModel{
		VosInstanceID:  inst.ID,
		Status:         "healthy",
		LastCheckAt:    time.Now().UTC(),
		ResponseTimeMs: 42,
		APISuccess:     true,
	}))

	t.Run("one row per instance", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, &models.VosHealthCheckModel{
			VosInstanceID:       inst.ID,
			Status:              "unhealthy",
			LastCheckAt:         time.Now().UTC(),
			APISuccess:          false,
			ErrorMessage:        "connect timeout",
			ConsecutiveFailures: 3,
		}))

		checks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, checks, 1)
		assert.Equal(t, "unhealthy", checks[0].Status)
		assert.Equal(t, 3, checks[0].ConsecutiveFailures)
	})

	t.Run("get absent returns nil", func(t *testing.T) {
		check, err := repo.Get(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, check)
	})
}
