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

// InstanceHealth is one instance's latest probe result in the summary.
type InstanceHealth struct {
	InstanceID          uint      `json:"instance_id"`
	InstanceName        string    `json:"instance_name"`
	Status              string    `json:"status"`
	ResponseTimeMs      int64     `json:"response_time_ms"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastCheckAt         time.Time `json:"last_check_at"`
	ErrorMessage        string    `json:"error_message,omitempty"`
}

// HealthSummary is the fleet-wide health snapshot written after each probe round.
type HealthSummary struct {
	CheckedAt time.Time        `json:"checked_at"`
	Healthy   int              `json:"healthy"`
	Unhealthy int              `json:"unhealthy"`
	Instances []InstanceHealth `json:"instances"`
}

// HealthSummaryStore keeps the latest snapshot in Redis under a fixed key.
type HealthSummaryStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewHealthSummaryStore creates a new health summary store.
func NewHealthSummaryStore(client *redis.Client) *HealthSummaryStore {
	return &HealthSummaryStore{
		client: client,
		key:    constants.RedisKeyHealthSummary,
		ttl:    2 * time.Hour,
	}
}

// Set writes the snapshot, resetting its TTL.
func (s *HealthSummaryStore) Set(ctx context.Context, summary *HealthSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal health summary: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store health summary: %w", err)
	}
	return nil
}

// Get returns the latest snapshot, or nil when no round has completed.
func (s *HealthSummaryStore) Get(ctx context.Context) (*HealthSummary, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get health summary: %w", err)
	}

	var summary HealthSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal health summary: %w", err)
	}
	return &summary, nil
}
