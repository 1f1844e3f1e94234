package sync

import (
	"context"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/biztime"
	appErrors "vossync/internal/shared/errors"
	"vossync/internal/vos"
)

// SyncFeeRateGroups pulls the rate group catalog for one instance.
func (s *Service) SyncFeeRateGroups(ctx context.Context, instanceID uint) (int, error) {
	inst, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return 0, err
	}

	resp, _, err := s.refCache.Get(ctx, inst.ID, vos.PathGetFeeRateGroup, map[string]any{"names": []string{}}, true)
	if err != nil {
		return 0, err
	}

	now := biztime.NowUTC()
	recs := vos.ExtractListFor(resp, vos.PathGetFeeRateGroup)
	batch := make([]models.FeeRateGroupModel, 0, len(recs))
	for _, rec := range recs {
		if g, ok := NormalizeFeeRateGroup(rec, inst.ID, now); ok {
			batch = append(batch, g)
		}
	}

	if err := s.refData.BatchUpsertFeeRateGroups(ctx, batch); err != nil {
		return 0, appErrors.NewStorageError("failed to store fee rate groups", err.Error())
	}

	s.logger.Infow("fee rate groups synced", "instance", inst.Name, "count", len(batch))
	return len(batch), nil
}

// SyncSuites pulls the suite catalog for one instance.
func (s *Service) SyncSuites(ctx context.Context, instanceID uint) (int, error) {
	inst, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return 0, err
	}

	resp, _, err := s.refCache.Get(ctx, inst.ID, vos.PathGetSuite, map[string]any{"ids": []int64{}}, true)
	if err != nil {
		return 0, err
	}

	now := biztime.NowUTC()
	recs := vos.ExtractListFor(resp, vos.PathGetSuite)
	batch := make([]models.SuiteModel, 0, len(recs))
	for _, rec := range recs {
		if st, ok := NormalizeSuite(rec, inst.ID, now); ok {
			batch = append(batch, st)
		}
	}

	if err := s.refData.BatchUpsertSuites(ctx, batch); err != nil {
		return 0, appErrors.NewStorageError("failed to store suites", err.Error())
	}

	s.logger.Infow("suites synced", "instance", inst.Name, "count", len(batch))
	return len(batch), nil
}

// SyncReferenceData refreshes gateways, rate groups and suites for every
// enabled instance. Failures are isolated per instance and per catalog.
func (s *Service) SyncReferenceData(ctx context.Context) error {
	instances, err := s.instances.ListEnabled(ctx)
	if err != nil {
		return err
	}
	for i := range instances {
		id, name := instances[i].ID, instances[i].Name
		if _, err := s.SyncGateways(ctx, id); err != nil {
			s.logger.Errorw("gateway sync failed", "instance", name, "error", err)
		}
		if _, err := s.SyncFeeRateGroups(ctx, id); err != nil {
			s.logger.Errorw("fee rate group sync failed", "instance", name, "error", err)
		}
		if _, err := s.SyncSuites(ctx, id); err != nil {
			s.logger.Errorw("suite sync failed", "instance", name, "error", err)
		}
	}
	return nil
}
