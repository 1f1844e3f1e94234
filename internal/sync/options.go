package sync

import (
	"time"

	sharedConfig "vossync/internal/shared/config"
)

// Options carries the pacing knobs for the ingestion fan-out.
type Options struct {
	// WorkerPoolSize bounds concurrent sync jobs across all instances.
	WorkerPoolSize int
	// CustomerDelay paces consecutive per-customer detail record fetches.
	CustomerDelay time.Duration
	// DayStagger spaces per-day fan-out batches.
	DayStagger time.Duration
	// InstanceStagger spaces instances within one day batch.
	InstanceStagger time.Duration
}

// DefaultOptions returns the stock pacing profile.
func DefaultOptions() Options {
	return Options{
		WorkerPoolSize:  4,
		CustomerDelay:   500 * time.Millisecond,
		DayStagger:      30 * time.Second,
		InstanceStagger: 5 * time.Second,
	}
}

// OptionsFromConfig builds Options from the loaded configuration, falling
// back to defaults for unset or unparsable values.
func OptionsFromConfig(cfg *sharedConfig.SyncConfig) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.WorkerPoolSize > 0 {
		opts.WorkerPoolSize = cfg.WorkerPoolSize
	}
	if d, err := time.ParseDuration(cfg.CustomerDelay); err == nil && d >= 0 {
		opts.CustomerDelay = d
	}
	if d, err := time.ParseDuration(cfg.DayStagger); err == nil && d >= 0 {
		opts.DayStagger = d
	}
	if d, err := time.ParseDuration(cfg.InstanceStagger); err == nil && d >= 0 {
		opts.InstanceStagger = d
	}
	return opts
}
