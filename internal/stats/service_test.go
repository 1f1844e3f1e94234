package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/infrastructure/repository"
	"vossync/internal/infrastructure/warehouse"
	"vossync/internal/shared/biztime"
	"vossync/internal/shared/constants"
	sharedDB "vossync/internal/shared/db"
	appErrors "vossync/internal/shared/errors"
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

// fakeAggregator replies per dimension and records the windows it was
// asked for.
type fakeAggregator struct {
	rows    map[string][]warehouse.AggregateRow
	windows []aggWindow
	err     error
}

type aggWindow struct {
	dimension  string
	start, end time.Time
}

func (f *fakeAggregator) Aggregate(_ context.Context, _ uint, _ string, start, end time.Time, dimension string) ([]warehouse.AggregateRow, error) {
	f.windows = append(f.windows, aggWindow{dimension: dimension, start: start, end: end})
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[dimension], nil
}

func setupService(t *testing.T, agg *fakeAggregator) (*Service, *gorm.DB) {
	t.Helper()
	biztime.MustInit("Asia/Shanghai")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.VosInstanceModel{}, &models.CdrStatisticModel{}))

	log := newNopLogger()
	svc := NewService(
		repository.NewInstanceRepository(db, log),
		repository.NewStatisticsRepository(db, log),
		sharedDB.NewTransactionManager(db),
		agg,
		log,
	)
	return svc, db
}

func TestConnectionRate(t *testing.T) {
	assert.Equal(t, 0.0, ConnectionRate(0, 0))
	assert.Equal(t, 50.0, ConnectionRate(2, 1))
	assert.Equal(t, 33.33, ConnectionRate(3, 1))
	assert.Equal(t, 66.67, ConnectionRate(3, 2))
	assert.Equal(t, 100.0, ConnectionRate(7, 7))
}

func TestPeriodWindow(t *testing.T) {
	biztime.MustInit("Asia/Shanghai")
	// 2026-05-15 in Shanghai.
	statDate := time.Date(2026, 5, 15, 4, 0, 0, 0, time.UTC)

	day := PeriodWindow(statDate, constants.PeriodDay)
	assert.Equal(t, 24*time.Hour, day.End.Sub(day.Start))

	month := PeriodWindow(statDate, constants.PeriodMonth)
	assert.True(t, month.Start.Before(day.Start) || month.Start.Equal(day.Start))
	assert.Equal(t, time.May, month.Start.In(biztime.Location()).Month())
	assert.Equal(t, 1, month.Start.In(biztime.Location()).Day())

	quarter := PeriodWindow(statDate, constants.PeriodQuarter)
	assert.Equal(t, time.April, quarter.Start.In(biztime.Location()).Month())

	year := PeriodWindow(statDate, constants.PeriodYear)
	assert.Equal(t, time.January, year.Start.In(biztime.Location()).Month())
	assert.Equal(t, 2026, year.Start.In(biztime.Location()).Year())
}

func TestRollupInstance(t *testing.T) {
	ctx := context.Background()
	statDate := time.Date(2026, 5, 15, 4, 0, 0, 0, time.UTC)

	t.Run("writes rows for every period and dimension", func(t *testing.T) {
		agg := &fakeAggregator{rows: map[string][]warehouse.AggregateRow{
			warehouse.DimensionNone: {
				{TotalCalls: 10, ConnectedCalls: 4, TotalDuration: 600, TotalFee: 12.5},
			},
			warehouse.DimensionAccount: {
				{Dimension: "alice", TotalCalls: 6, ConnectedCalls: 3, TotalDuration: 400, TotalFee: 8},
				{Dimension: "bob", TotalCalls: 4, ConnectedCalls: 1, TotalDuration: 200, TotalFee: 4.5},
			},
			warehouse.DimensionGateway: {
				{Dimension: "gw-a", TotalCalls: 10, ConnectedCalls: 4, TotalDuration: 600, TotalFee: 12.5},
			},
		}}
		svc, db := setupService(t, agg)

		inst := &models.VosInstanceModel{Name: "vos1", APIURL: "http://vos1", SyncEnabled: true}
		require.NoError(t, db.Create(inst).Error)

		count, err := svc.RollupInstance(ctx, inst, statDate)
		require.NoError(t, err)
		// 4 periods x (1 vos + 2 accounts + 1 gateway).
		assert.Equal(t, 16, count)

		// 4 periods x 3 dimensions aggregation calls.
		assert.Len(t, agg.windows, 12)

		var row models.CdrStatisticModel
		require.NoError(t, db.Where(
			"statistic_type = ? AND dimension_value = ? AND period_type = ?",
			constants.StatTypeAccount, "alice", constants.PeriodDay,
		).First(&row).Error)
		assert.Equal(t, int64(6), row.TotalCalls)
		assert.Equal(t, int64(3), row.ConnectedCalls)
		assert.Equal(t, 50.0, row.ConnectionRate)
	})

	t.Run("rerun replaces instead of duplicating", func(t *testing.T) {
		agg := &fakeAggregator{rows: map[string][]warehouse.AggregateRow{
			warehouse.DimensionNone: {{TotalCalls: 10, ConnectedCalls: 5}},
		}}
		svc, db := setupService(t, agg)
		inst := &models.VosInstanceModel{Name: "vos1", APIURL: "http://vos1", SyncEnabled: true}
		require.NoError(t, db.Create(inst).Error)

		_, err := svc.RollupInstance(ctx, inst, statDate)
		require.NoError(t, err)

		agg.rows[warehouse.DimensionNone] = []warehouse.AggregateRow{{TotalCalls: 12, ConnectedCalls: 6}}
		_, err = svc.RollupInstance(ctx, inst, statDate)
		require.NoError(t, err)

		var rows []models.CdrStatisticModel
		require.NoError(t, db.Where("period_type = ?", constants.PeriodDay).Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(12), rows[0].TotalCalls)
	})

	t.Run("warehouse failure surfaces as storage error", func(t *testing.T) {
		agg := &fakeAggregator{err: errors.New("connection refused")}
		svc, db := setupService(t, agg)
		inst := &models.VosInstanceModel{Name: "vos1", APIURL: "http://vos1", SyncEnabled: true}
		require.NoError(t, db.Create(inst).Error)

		_, err := svc.RollupInstance(ctx, inst, statDate)
		require.Error(t, err)
		assert.True(t, appErrors.IsStorageError(err))
	})
}

func TestRollupAll(t *testing.T) {
	ctx := context.Background()
	agg := &fakeAggregator{rows: map[string][]warehouse.AggregateRow{
		warehouse.DimensionNone: {{TotalCalls: 1, ConnectedCalls: 1}},
	}}
	svc, db := setupService(t, agg)

	require.NoError(t, db.Create(&models.VosInstanceModel{Name: "a", APIURL: "http://a", SyncEnabled: true}).Error)
	require.NoError(t, db.Create(&models.VosInstanceModel{Name: "b", APIURL: "http://b", SyncEnabled: false}).Error)

	require.NoError(t, svc.RollupAll(ctx))

	var count int64
	require.NoError(t, db.Model(&models.CdrStatisticModel{}).Count(&count).Error)
	// Only the enabled instance: 4 periods x 1 vos row.
	assert.Equal(t, int64(4), count)
}
