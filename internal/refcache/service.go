package refcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/infrastructure/repository"
	appErrors "vossync/internal/shared/errors"
	"vossync/internal/shared/logger"
	"vossync/internal/vos"
)

// Source tells a caller which tier answered.
type Source string

const (
	SourceMemory   Source = "memory"
	SourceDatabase Source = "database"
	SourceUpstream Source = "upstream"
)

// Fetcher is the upstream call surface the cache needs.
type Fetcher interface {
	Post(ctx context.Context, path string, payload map[string]any) vos.Response
}

// ClientFactory builds a fetcher for an instance base URL.
type ClientFactory func(baseURL string) Fetcher

// Service resolves upstream reads through the cache tiers.
type Service struct {
	instances *repository.InstanceRepository
	cacheRepo *repository.CacheRepository
	mem       *memoryCache
	newClient ClientFactory
	logger    logger.Interface
}

// NewService creates the cache service.
func NewService(
	instances *repository.InstanceRepository,
	cacheRepo *repository.CacheRepository,
	newClient ClientFactory,
	log logger.Interface,
) *Service {
	return &Service{
		instances: instances,
		cacheRepo: cacheRepo,
		mem:       newMemoryCache(),
		newClient: newClient,
		logger:    log,
	}
}

// Get returns the reply for one upstream query, trying the process cache,
// then the durable rows, then the upstream. forceRefresh skips straight to
// the upstream. Expired and invalid rows are never served.
func (s *Service) Get(ctx context.Context, instanceID uint, apiPath string, params map[string]any, forceRefresh bool) (vos.Response, Source, error) {
	cacheKey := CacheKey(apiPath, params)
	mk := memKey(instanceID, apiPath, cacheKey)

	if !forceRefresh {
		if data, ok := s.mem.get(mk); ok {
			return data, SourceMemory, nil
		}

		entry, err := s.cacheRepo.Get(ctx, instanceID, apiPath, cacheKey)
		if err != nil {
			return nil, "", appErrors.NewStorageError("cache lookup failed", err.Error())
		}
		if entry != nil && entry.IsValid && time.Now().UTC().Before(entry.ExpiresAt) {
			var data vos.Response
			if err := json.Unmarshal(entry.Data, &data); err == nil {
				s.mem.set(mk, data, time.Until(entry.ExpiresAt))
				return data, SourceDatabase, nil
			}
			s.logger.Warnw("undecodable cache row, refetching",
				"api_path", apiPath, "cache_key", cacheKey[:8])
		}
	}

	return s.fetchUpstream(ctx, instanceID, apiPath, params, cacheKey, mk)
}

func (s *Service) fetchUpstream(ctx context.Context, instanceID uint, apiPath string, params map[string]any, cacheKey, mk string) (vos.Response, Source, error) {
	instance, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, "", appErrors.NewNotFoundError("instance not found", fmt.Sprintf("id=%d", instanceID))
	}

	client := s.newClient(instance.APIURL)
	result := client.Post(ctx, apiPath, params)

	ttl := vos.TTLFor(apiPath)
	now := time.Now().UTC()
	entry := &models.VosDataCacheModel{
		VosInstanceID: instanceID,
		APIPath:       apiPath,
		CacheKey:      cacheKey,
		RetCode:       result.RetCode(),
		IsValid:       result.IsSuccess(),
		ErrorMessage:  result.ErrorMessage(),
		SyncedAt:      now,
		ExpiresAt:     now.Add(ttl),
	}
	if data, err := json.Marshal(result); err == nil {
		entry.Data = datatypes.JSON(data)
	}

	// Write-through happens for failures too, so the row records what went
	// wrong; the IsValid flag keeps it from ever being served.
	if err := s.cacheRepo.Upsert(ctx, entry); err != nil {
		s.logger.Errorw("cache write-through failed",
			"api_path", apiPath, "error", err.Error())
	}

	if callErr := result.Err(); callErr != nil {
		return nil, "", callErr
	}

	s.mem.set(mk, result, ttl)
	return result, SourceUpstream, nil
}

// Invalidate marks cached rows invalid and drops process-tier entries.
// An empty apiPath invalidates everything for the instance.
func (s *Service) Invalidate(ctx context.Context, instanceID uint, apiPath string) (int64, error) {
	prefix := fmt.Sprintf("%d:", instanceID)
	if apiPath != "" {
		prefix = fmt.Sprintf("%d:%s:", instanceID, apiPath)
	}
	s.mem.deletePrefix(prefix)

	count, err := s.cacheRepo.Invalidate(ctx, instanceID, apiPath)
	if err != nil {
		return 0, appErrors.NewStorageError("cache invalidation failed", err.Error())
	}
	return count, nil
}

// Cleanup removes durable rows untouched for the given number of days and
// purges dead process-tier entries.
func (s *Service) Cleanup(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = 7
	}
	purged := s.mem.purgeExpired()
	if purged > 0 {
		s.logger.Debugw("process cache purged", "count", purged)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	removed, err := s.cacheRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, appErrors.NewStorageError("cache cleanup failed", err.Error())
	}
	return removed, nil
}

// Stats reports durable-row counts for one instance.
func (s *Service) Stats(ctx context.Context, instanceID uint) (*repository.CacheStats, error) {
	return s.cacheRepo.Stats(ctx, instanceID)
}
