package sync

import (
	"context"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/biztime"
	appErrors "vossync/internal/shared/errors"
	"vossync/internal/vos"
)

// SyncPhones reconciles the online-phone registry for one instance against
// the upstream snapshot, fetched through the reference cache so the raw
// reply is recorded there too. Every phone is marked offline, then the
// returned set is upserted online, inside one transaction.
func (s *Service) SyncPhones(ctx context.Context, instanceID uint) (int, error) {
	inst, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return 0, err
	}

	resp, _, err := s.refCache.Get(ctx, inst.ID, vos.PathGetAllPhoneOnline, map[string]any{}, true)
	if err != nil {
		return 0, err
	}

	recs := vos.ExtractListFor(resp, vos.PathGetAllPhoneOnline)
	now := biztime.NowUTC()
	batch := make([]models.PhoneModel, 0, len(recs))
	for _, rec := range recs {
		if p, ok := NormalizePhone(rec, inst.ID, now); ok {
			batch = append(batch, p)
		}
	}

	err = s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.phones.MarkAllOffline(txCtx, inst.ID); err != nil {
			return err
		}
		return s.phones.BatchUpsertOnline(txCtx, batch)
	})
	if err != nil {
		return 0, appErrors.NewStorageError("failed to reconcile phones", err.Error())
	}

	s.logger.Infow("phones reconciled", "instance", inst.Name, "online", len(batch))
	return len(batch), nil
}

// SyncAllPhones reconciles phones for every enabled instance.
func (s *Service) SyncAllPhones(ctx context.Context) error {
	instances, err := s.instances.ListEnabled(ctx)
	if err != nil {
		return err
	}
	for i := range instances {
		if _, err := s.SyncPhones(ctx, instances[i].ID); err != nil {
			s.logger.Errorw("phone sync failed", "instance", instances[i].Name, "error", err)
		}
	}
	return nil
}
