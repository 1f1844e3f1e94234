// Package health probes upstream instances and tracks their availability.
package health

import (
	"context"
	"time"

	"vossync/internal/infrastructure/cache"
	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/infrastructure/repository"
	"vossync/internal/shared/constants"
	"vossync/internal/shared/logger"
	"vossync/internal/vos"
)

// ProbeTimeout bounds one health probe. Shorter than the regular client
// timeout; a slow answer is itself a signal.
const ProbeTimeout = 10 * time.Second

// Caller is the upstream call surface a probe needs.
type Caller interface {
	Post(ctx context.Context, path string, payload map[string]any) vos.Response
}

// ClientFactory builds a caller for an instance base URL.
type ClientFactory func(baseURL string) Caller

// Notifier delivers transition alerts. Implementations decide whether
// delivery is actually enabled.
type Notifier interface {
	SendInstanceDown(instanceName, apiURL string, failures int, lastError string) error
	SendInstanceRecovered(instanceName, apiURL string, responseMs int64) error
}

// Monitor runs the probe rounds.
type Monitor struct {
	instances *repository.InstanceRepository
	checks    *repository.HealthRepository
	summary   *cache.HealthSummaryStore
	newClient ClientFactory
	notifier  Notifier
	logger    logger.Interface
}

// NewMonitor creates the health monitor. notifier may be nil.
func NewMonitor(
	instances *repository.InstanceRepository,
	checks *repository.HealthRepository,
	summary *cache.HealthSummaryStore,
	newClient ClientFactory,
	notifier Notifier,
	log logger.Interface,
) *Monitor {
	return &Monitor{
		instances: instances,
		checks:    checks,
		summary:   summary,
		newClient: newClient,
		notifier:  notifier,
		logger:    log.Named("health"),
	}
}

// CheckInstance probes one instance and persists the result. Consecutive
// failures accumulate across rounds; a status transition fires an alert.
func (m *Monitor) CheckInstance(ctx context.Context, inst *models.VosInstanceModel) (*models.VosHealthCheckModel, error) {
	prev, err := m.checks.Get(ctx, inst.ID)
	if err != nil {
		return nil, err
	}

	probeCtx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	start := time.Now()
	resp := m.newClient(inst.APIURL).Post(probeCtx, vos.PathGetPerformance, map[string]any{})
	elapsed := time.Since(start).Milliseconds()

	check := &models.VosHealthCheckModel{
		VosInstanceID:  inst.ID,
		LastCheckAt:    time.Now().UTC(),
		ResponseTimeMs: elapsed,
	}

	if probeErr := resp.Err(); probeErr != nil {
		check.Status = constants.HealthStatusUnhealthy
		check.APISuccess = false
		check.ErrorMessage = truncate(probeErr.Error(), 500)
		if prev != nil {
			check.ConsecutiveFailures = prev.ConsecutiveFailures + 1
		} else {
			check.ConsecutiveFailures = 1
		}
	} else {
		check.Status = constants.HealthStatusHealthy
		check.APISuccess = true
	}

	if err := m.checks.Upsert(ctx, check); err != nil {
		return nil, err
	}

	m.notifyTransition(prev, check, inst)
	return check, nil
}

// notifyTransition alerts on healthy-to-unhealthy and back. The first
// probe ever (prev == nil) never alerts.
func (m *Monitor) notifyTransition(prev, cur *models.VosHealthCheckModel, inst *models.VosInstanceModel) {
	if m.notifier == nil || prev == nil || prev.Status == cur.Status {
		return
	}

	switch cur.Status {
	case constants.HealthStatusUnhealthy:
		if prev.Status != constants.HealthStatusHealthy {
			return
		}
		m.logger.Warnw("instance went unhealthy", "instance", inst.Name, "error", cur.ErrorMessage)
		if err := m.notifier.SendInstanceDown(inst.Name, inst.APIURL, cur.ConsecutiveFailures, cur.ErrorMessage); err != nil {
			m.logger.Errorw("failed to send down alert", "instance", inst.Name, "error", err)
		}
	case constants.HealthStatusHealthy:
		if prev.Status != constants.HealthStatusUnhealthy {
			return
		}
		m.logger.Infow("instance recovered", "instance", inst.Name)
		if err := m.notifier.SendInstanceRecovered(inst.Name, inst.APIURL, cur.ResponseTimeMs); err != nil {
			m.logger.Errorw("failed to send recovery alert", "instance", inst.Name, "error", err)
		}
	}
}

// CheckAll probes every enabled instance and publishes the fleet summary.
func (m *Monitor) CheckAll(ctx context.Context) error {
	instances, err := m.instances.ListEnabled(ctx)
	if err != nil {
		return err
	}

	summary := &cache.HealthSummary{
		CheckedAt: time.Now().UTC(),
		Instances: make([]cache.InstanceHealth, 0, len(instances)),
	}

	for i := range instances {
		inst := &instances[i]
		check, err := m.CheckInstance(ctx, inst)
		if err != nil {
			m.logger.Errorw("health check failed", "instance", inst.Name, "error", err)
			continue
		}

		if check.Status == constants.HealthStatusHealthy {
			summary.Healthy++
		} else {
			summary.Unhealthy++
		}
		summary.Instances = append(summary.Instances, cache.InstanceHealth{
			InstanceID:          inst.ID,
			InstanceName:        inst.Name,
			Status:              check.Status,
			ResponseTimeMs:      check.ResponseTimeMs,
			ConsecutiveFailures: check.ConsecutiveFailures,
			LastCheckAt:         check.LastCheckAt,
			ErrorMessage:        check.ErrorMessage,
		})
	}

	if err := m.summary.Set(ctx, summary); err != nil {
		m.logger.Warnw("failed to publish health summary", "error", err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
