package refcache

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
	appErrors "vossync/internal/shared/errors"
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

type fakeFetcher struct {
	calls    int
	response vos.Response
}

func (f *fakeFetcher) Post(ctx context.Context, path string, payload map[string]any) vos.Response {
	f.calls++
	return f.response
}

type cacheEnv struct {
	svc     *Service
	db      *gorm.DB
	fetcher *fakeFetcher
	inst    *models.VosInstanceModel
}

func setupCacheEnv(t *testing.T) *cacheEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.VosInstanceModel{}, &models.VosDataCacheModel{}))

	inst := &models.VosInstanceModel{
		Name:        "vos1",
		APIURL:      "http://vos1.example.com",
		SyncEnabled: true,
	}
	require.NoError(t, db.Create(inst).Error)

	log := newNopLogger()
	fetcher := &fakeFetcher{response: vos.Response{
		"retCode":    float64(0),
		"infoSuites": []any{map[string]any{"name": "basic"}},
	}}
	svc := NewService(
		repository.NewInstanceRepository(db, log),
		repository.NewCacheRepository(db, log),
		func(string) Fetcher { return fetcher },
		log,
	)
	return &cacheEnv{svc: svc, db: db, fetcher: fetcher, inst: inst}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey(vos.PathGetSuite, map[string]any{"b": 2, "a": 1})
	b := CacheKey(vos.PathGetSuite, map[string]any{"a": 1, "b": 2})
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	assert.NotEqual(t, a, CacheKey(vos.PathGetSuite, map[string]any{"a": 2}))
	assert.NotEqual(t, a, CacheKey(vos.PathGetFeeRate, map[string]any{"b": 2, "a": 1}))
	assert.Equal(t, CacheKey(vos.PathGetSuite, nil), CacheKey(vos.PathGetSuite, map[string]any{}))
}

func TestGetTierOrder(t *testing.T) {
	env := setupCacheEnv(t)
	ctx := context.Background()

	data, source, err := env.svc.Get(ctx, env.inst.ID, vos.PathGetSuite, nil, false)
	require.NoError(t, err)
	assert.Equal(t, SourceUpstream, source)
	assert.True(t, data.IsSuccess())
	assert.Equal(t, 1, env.fetcher.calls)

	_, source, err = env.svc.Get(ctx, env.inst.ID, vos.PathGetSuite, nil, false)
	require.NoError(t, err)
	assert.Equal(t, SourceMemory, source)
	assert.Equal(t, 1, env.fetcher.calls)

	t.Run("fresh process serves from durable tier", func(t *testing.T) {
		cold := NewService(
			repository.NewInstanceRepository(env.db, newNopLogger()),
			repository.NewCacheRepository(env.db, newNopLogger()),
			func(string) Fetcher { return env.fetcher },
			newNopLogger(),
		)
		data, source, err := cold.Get(ctx, env.inst.ID, vos.PathGetSuite, nil, false)
		require.NoError(t, err)
		assert.Equal(t, SourceDatabase, source)
		assert.True(t, data.IsSuccess())
		assert.Equal(t, 1, env.fetcher.calls)
	})
}

func TestGetForceRefresh(t *testing.T) {
	env := setupCacheEnv(t)
	ctx := context.Background()

	_, _, err := env.svc.Get(ctx, env.inst.ID, vos.PathGetSuite, nil, false)
	require.NoError(t, err)

	_, source, err := env.svc.Get(ctx, env.inst.ID, vos.PathGetSuite, nil, true)
	require.NoError(t, err)
	assert.Equal(t, SourceUpstream, source)
	assert.Equal(t, 2, env.fetcher.calls)
}

func TestGetUnknownInstance(t *testing.T) {
	env := setupCacheEnv(t)

	_, _, err := env.svc.Get(context.Background(), 999, vos.PathGetSuite, nil, false)
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFoundError(err))
}

func TestFailedFetchRecordedButNeverServed(t *testing.T) {
	env := setupCacheEnv(t)
	ctx := context.Background()
	env.fetcher.response = vos.Response{"retCode": float64(99), "exception": "nope"}

	_, _, err := env.svc.Get(ctx, env.inst.ID, vos.PathGetSuite, nil, false)
	require.Error(t, err)
	assert.True(t, appErrors.IsProtocolError(err))

	var entry models.VosDataCacheModel
	require.NoError(t, env.db.Where("vos_instance_id = ?", env.inst.ID).First(&entry).Error)
	assert.False(t, entry.IsValid)
	assert.Equal(t, 99, entry.RetCode)
	assert.Contains(t, entry.ErrorMessage, "retCode=99")

	// The invalid row stays invisible: the next read goes upstream again.
	env.fetcher.response = vos.Response{"retCode": float64(0)}
	_, source, err := env.svc.Get(ctx, env.inst.ID, vos.PathGetSuite, nil, false)
	require.NoError(t, err)
	assert.Equal(t, SourceUpstream, source)
	assert.Equal(t, 2, env.fetcher.calls)
}

func TestFetchRecordsSyncMetadata(t *testing.T) {
	env := setupCacheEnv(t)
	ctx := context.Background()

	_, _, err := env.svc.Get(ctx, env.inst.ID, vos.PathGetSuite, nil, false)
	require.NoError(t, err)

	var entry models.VosDataCacheModel
	require.NoError(t, env.db.First(&entry).Error)
	assert.Equal(t, 0, entry.RetCode)
	assert.WithinDuration(t, time.Now().UTC(), entry.SyncedAt, 5*time.Second)
	assert.Equal(t, vos.TTLFor(vos.PathGetSuite), entry.ExpiresAt.Sub(entry.SyncedAt))

	firstSynced := entry.SyncedAt
	time.Sleep(10 * time.Millisecond)
	_, _, err = env.svc.Get(ctx, env.inst.ID, vos.PathGetSuite, nil, true)
	require.NoError(t, err)

	require.NoError(t, env.db.First(&entry).Error)
	assert.True(t, entry.SyncedAt.After(firstSynced))
}

func TestInvalidate(t *testing.T) {
	env := setupCacheEnv(t)
	ctx := context.Background()

	_, _, err := env.svc.Get(ctx, env.inst.ID, vos.PathGetSuite, nil, false)
	require.NoError(t, err)
	_, _, err = env.svc.Get(ctx, env.inst.ID, vos.PathGetFeeRate, nil, false)
	require.NoError(t, err)

	t.Run("single path", func(t *testing.T) {
		count, err := env.svc.Invalidate(ctx, env.inst.ID, vos.PathGetSuite)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		_, source, err := env.svc.Get(ctx, env.inst.ID, vos.PathGetSuite, nil, false)
		require.NoError(t, err)
		assert.Equal(t, SourceUpstream, source)

		_, source, err = env.svc.Get(ctx, env.inst.ID, vos.PathGetFeeRate, nil, false)
		require.NoError(t, err)
		assert.Equal(t, SourceMemory, source)
	})

	t.Run("whole instance", func(t *testing.T) {
		count, err := env.svc.Invalidate(ctx, env.inst.ID, "")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, int64(1))

		_, source, err := env.svc.Get(ctx, env.inst.ID, vos.PathGetFeeRate, nil, false)
		require.NoError(t, err)
		assert.Equal(t, SourceUpstream, source)
	})
}

func TestCleanup(t *testing.T) {
	env := setupCacheEnv(t)
	ctx := context.Background()

	_, _, err := env.svc.Get(ctx, env.inst.ID, vos.PathGetSuite, nil, false)
	require.NoError(t, err)

	stale := time.Now().UTC().AddDate(0, 0, -30)
	require.NoError(t, env.db.Model(&models.VosDataCacheModel{}).
		Where("vos_instance_id = ?", env.inst.ID).
		Update("updated_at", stale).Error)

	removed, err := env.svc.Cleanup(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var count int64
	require.NoError(t, env.db.Model(&models.VosDataCacheModel{}).Count(&count).Error)
	assert.Zero(t, count)
}
