package sync

import (
	"context"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/biztime"
	appErrors "vossync/internal/shared/errors"
	"vossync/internal/vos"
)

// SyncCustomers pulls the full billing account list for one instance and
// upserts it, then refreshes the dashboard rollup. Returns the number of
// accounts written.
func (s *Service) SyncCustomers(ctx context.Context, instanceID uint) (int, error) {
	inst, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return 0, err
	}

	client := s.newClient(inst.APIURL)
	resp := client.Post(ctx, vos.PathGetAllCustomers, map[string]any{"type": 1})
	if err := resp.Err(); err != nil {
		return 0, err
	}

	recs := vos.ExtractListFor(resp, vos.PathGetAllCustomers)
	now := biztime.NowUTC()
	batch := make([]models.CustomerModel, 0, len(recs))
	for _, rec := range recs {
		if c, ok := NormalizeCustomer(rec, inst.ID, now); ok {
			batch = append(batch, c)
		}
	}

	if err := s.customers.BatchUpsert(ctx, batch); err != nil {
		return 0, appErrors.NewStorageError("failed to store customers", err.Error())
	}

	// Rollup refresh is best effort; the next sync catches up.
	if err := s.dashboard.Refresh(ctx); err != nil {
		s.logger.Warnw("dashboard refresh failed", "instance", inst.Name, "error", err)
	}

	s.logger.Infow("customers synced", "instance", inst.Name, "count", len(batch))
	return len(batch), nil
}

// SyncAllCustomers runs the customer pull for every enabled instance.
// Failures are isolated per instance.
func (s *Service) SyncAllCustomers(ctx context.Context) error {
	instances, err := s.instances.ListEnabled(ctx)
	if err != nil {
		return err
	}

	var failed int
	for i := range instances {
		if _, err := s.SyncCustomers(ctx, instances[i].ID); err != nil {
			failed++
			s.logger.Errorw("customer sync failed", "instance", instances[i].Name, "error", err)
		}
	}
	if failed == len(instances) && failed > 0 {
		return appErrors.NewInternalError("customer sync failed for all instances")
	}
	return nil
}
