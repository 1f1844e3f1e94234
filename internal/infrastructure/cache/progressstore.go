package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vossync/internal/shared/constants"
)

// SyncProgress is the live progress record of a CDR ingestion job.
// It is ephemeral: one record under a fixed key, expiring two hours after
// the last write so a crashed job cannot leave a stale "running" state.
type SyncProgress struct {
	Status               string    `json:"status"`
	CurrentInstance      string    `json:"current_instance"`
	CurrentInstanceID    uint      `json:"current_instance_id"`
	CurrentCustomer      string    `json:"current_customer"`
	CurrentCustomerIndex int       `json:"current_customer_index"`
	TotalCustomers       int       `json:"total_customers"`
	SyncedCount          int       `json:"synced_count"`
	StartTime            time.Time `json:"start_time"`
	SyncDate             string    `json:"sync_date"`
}

// ProgressStore persists the progress record in Redis.
type ProgressStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewProgressStore creates a new progress store with the standard key and TTL.
func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{
		client: client,
		key:    constants.RedisKeySyncProgress,
		ttl:    2 * time.Hour,
	}
}

// Set writes the progress record, resetting its TTL.
func (s *ProgressStore) Set(ctx context.Context, progress *SyncProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal sync progress: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store sync progress: %w", err)
	}
	return nil
}

// Get returns the current progress record, or nil when no job is running.
func (s *ProgressStore) Get(ctx context.Context) (*SyncProgress, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync progress: %w", err)
	}

	var progress SyncProgress
	if err := json.Unmarshal([]byte(data), &progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync progress: %w", err)
	}
	return &progress, nil
}

// Clear removes the progress record. Called when a job exits.
func (s *ProgressStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear sync progress: %w", err)
	}
	return nil
}
