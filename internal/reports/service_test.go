package reports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/infrastructure/repository"
	"vossync/internal/shared/biztime"
	"vossync/internal/shared/logger"
	"vossync/internal/vos"
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

type fakeCaller struct {
	handler func(payload map[string]any) vos.Response
	calls   []map[string]any
}

func (f *fakeCaller) Post(_ context.Context, _ string, payload map[string]any) vos.Response {
	f.calls = append(f.calls, payload)
	return f.handler(payload)
}

func setupService(t *testing.T, caller *fakeCaller, opts Options) (*Service, *gorm.DB) {
	t.Helper()
	biztime.MustInit("Asia/Shanghai")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.VosInstanceModel{},
		&models.CustomerModel{},
		&models.AccountDetailReportModel{},
		&models.AppConfigModel{},
	))

	log := newNopLogger()
	svc := NewService(
		repository.NewInstanceRepository(db, log),
		repository.NewCustomerRepository(db, log),
		repository.NewReportRepository(db, log),
		repository.NewAppConfigRepository(db, log),
		func(string) Caller { return caller },
		opts,
		log,
	)
	return svc, db
}

func seedInstanceWithAccounts(t *testing.T, db *gorm.DB, n int) *models.VosInstanceModel {
	t.Helper()
	inst := &models.VosInstanceModel{Name: "vos1", APIURL: "http://vos1", SyncEnabled: true}
	require.NoError(t, db.Create(inst).Error)
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&models.CustomerModel{
			VosInstanceID: inst.ID,
			Account:       fmt.Sprintf("acct-%03d", i),
		}).Error)
	}
	return inst
}

func reportRecord(account string, beginMs int64) map[string]any {
	return map[string]any{
		"account":     account,
		"accountName": "Account " + account,
		"beginTime":   float64(beginMs),
		"endTime":     float64(beginMs + 86400000),
		"cdrCount":    float64(12),
		"totalFee":    float64(3.1415),
		"totalTime":   float64(720),
		"netFee":      float64(1.25),
	}
}

func TestChunkAccounts(t *testing.T) {
	accounts := []string{"a", "b", "c", "d", "e"}
	chunks := chunkAccounts(accounts, 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"a", "b"}, chunks[0])
	assert.Equal(t, []string{"e"}, chunks[2])

	assert.Len(t, chunkAccounts(accounts, 10), 1)
	assert.Empty(t, chunkAccounts(nil, 10))
}

func TestNormalizeReport(t *testing.T) {
	t.Run("fees are kept verbatim", func(t *testing.T) {
		r, ok := NormalizeReport(reportRecord("alice", 1700000000000), 3, "uuid-1")
		require.True(t, ok)
		assert.Equal(t, "alice", r.Account)
		assert.Equal(t, 3.1415, r.TotalFee)
		assert.Equal(t, 1.25, r.NetFee)
		assert.Equal(t, int64(12), r.CdrCount)
		assert.Equal(t, time.UnixMilli(1700000000000).UTC(), r.BeginTime)
	})

	t.Run("missing account is skipped", func(t *testing.T) {
		_, ok := NormalizeReport(map[string]any{"totalFee": float64(1)}, 1, "u")
		assert.False(t, ok)
	})
}

func TestSyncInstanceReports(t *testing.T) {
	ctx := context.Background()
	targetDate := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

	t.Run("chunks account list and stores rows", func(t *testing.T) {
		caller := &fakeCaller{handler: func(payload map[string]any) vos.Response {
			accounts := payload["accounts"].([]string)
			items := make([]any, 0, len(accounts))
			for _, a := range accounts {
				items = append(items, reportRecord(a, 1700000000000))
			}
			return vos.Response{"retCode": float64(0), "infoReportCustomerFees": items}
		}}
		svc, db := setupService(t, caller, Options{ChunkSize: 50, ChunkDelay: 0})
		inst := seedInstanceWithAccounts(t, db, 120)

		count, err := svc.SyncInstanceReports(ctx, inst.ID, targetDate)
		require.NoError(t, err)
		assert.Equal(t, 120, count)

		require.Len(t, caller.calls, 3)
		assert.Len(t, caller.calls[0]["accounts"].([]string), 50)
		assert.Len(t, caller.calls[2]["accounts"].([]string), 20)
		assert.Equal(t, 1, caller.calls[0]["period"])
		assert.Equal(t, "20260410", caller.calls[0]["beginTime"])

		var rows int64
		require.NoError(t, db.Model(&models.AccountDetailReportModel{}).Count(&rows).Error)
		assert.Equal(t, int64(120), rows)
	})

	t.Run("failed chunk is skipped, rest is kept", func(t *testing.T) {
		var n int
		caller := &fakeCaller{handler: func(payload map[string]any) vos.Response {
			n++
			if n == 1 {
				return vos.Response{"retCode": float64(-2), "exception": "timeout"}
			}
			accounts := payload["accounts"].([]string)
			items := make([]any, 0, len(accounts))
			for _, a := range accounts {
				items = append(items, reportRecord(a, 1700000000000))
			}
			return vos.Response{"retCode": float64(0), "infoReportCustomerFees": items}
		}}
		svc, db := setupService(t, caller, Options{ChunkSize: 50, ChunkDelay: 0})
		inst := seedInstanceWithAccounts(t, db, 120)

		count, err := svc.SyncInstanceReports(ctx, inst.ID, targetDate)
		require.NoError(t, err)
		assert.Equal(t, 70, count)
	})

	t.Run("rerun replaces rows", func(t *testing.T) {
		fee := 1.0
		caller := &fakeCaller{}
		caller.handler = func(payload map[string]any) vos.Response {
			rec := reportRecord("alice", 1700000000000)
			rec["totalFee"] = fee
			return vos.Response{"retCode": float64(0), "infoReportCustomerFees": []any{rec}}
		}
		svc, db := setupService(t, caller, Options{ChunkSize: 50, ChunkDelay: 0})
		inst := seedInstanceWithAccounts(t, db, 1)

		_, err := svc.SyncInstanceReports(ctx, inst.ID, targetDate)
		require.NoError(t, err)

		fee = 2.5
		_, err = svc.SyncInstanceReports(ctx, inst.ID, targetDate)
		require.NoError(t, err)

		var rows []models.AccountDetailReportModel
		require.NoError(t, db.Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, 2.5, rows[0].TotalFee)
	})

	t.Run("no accounts is a no-op", func(t *testing.T) {
		caller := &fakeCaller{handler: func(map[string]any) vos.Response {
			return vos.Response{"retCode": float64(0)}
		}}
		svc, db := setupService(t, caller, Options{ChunkSize: 50})
		inst := seedInstanceWithAccounts(t, db, 0)

		count, err := svc.SyncInstanceReports(ctx, inst.ID, targetDate)
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, caller.calls)
	})
}
