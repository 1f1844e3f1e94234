package sync

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"vossync/internal/infrastructure/cache"
	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/biztime"
	"vossync/internal/shared/constants"
	appErrors "vossync/internal/shared/errors"
	"vossync/internal/vos"
)

// compactDateLayout is the date format the upstream CDR endpoint expects.
const compactDateLayout = "20060102"

// SyncInstanceCDRDay pulls detail records for one instance and one business
// day, fetching per customer so a single oversized reply cannot time out
// the whole day. An absent or disabled instance is a no-op.
func (s *Service) SyncInstanceCDRDay(ctx context.Context, instanceID uint, day time.Time) (int, error) {
	inst, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warnw("cdr sync skipped, unknown instance", "instance_id", instanceID)
			return 0, nil
		}
		return 0, err
	}
	if !inst.SyncEnabled {
		s.logger.Infow("cdr sync skipped, instance disabled", "instance", inst.Name)
		return 0, nil
	}
	return s.syncCDRDay(ctx, inst, day, "")
}

// SyncCustomerCDRs pulls detail records for a single customer over the last
// N days, most recent first.
func (s *Service) SyncCustomerCDRs(ctx context.Context, instanceID uint, account string, days int) (int, error) {
	inst, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return 0, err
	}
	if days < 1 {
		days = 1
	}

	total := 0
	today := biztime.NowUTC()
	for d := 0; d < days; d++ {
		n, err := s.syncCDRDay(ctx, inst, today.AddDate(0, 0, -d), account)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// syncCDRDay is the per-(instance, day) ingestion job. Upstream failures
// for one customer are logged and skipped; only warehouse write failures
// fail the job. The live progress record tracks the customer loop and is
// cleared on exit.
func (s *Service) syncCDRDay(ctx context.Context, inst *models.VosInstanceModel, day time.Time, onlyAccount string) (int, error) {
	dateStr := biztime.FormatInBizTimezone(day, compactDateLayout)

	var accounts []string
	if onlyAccount != "" {
		accounts = []string{onlyAccount}
	} else {
		var err error
		accounts, err = s.customers.ListAccounts(ctx, inst.ID)
		if err != nil {
			return 0, appErrors.NewStorageError("failed to list accounts", err.Error())
		}
	}

	progress := &cache.SyncProgress{
		Status:            constants.SyncStatusRunning,
		CurrentInstance:   inst.Name,
		CurrentInstanceID: inst.ID,
		TotalCustomers:    len(accounts),
		StartTime:         time.Now().UTC(),
		SyncDate:          dateStr,
	}
	defer func() {
		if err := s.progress.Clear(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warnw("failed to clear sync progress", "error", err)
		}
	}()

	client := s.newClient(inst.APIURL)
	synced := 0
	failed := 0

	for i, account := range accounts {
		// Pace every upstream call, including after a failed customer.
		if i > 0 && s.opts.CustomerDelay > 0 {
			select {
			case <-ctx.Done():
				return synced, ctx.Err()
			case <-time.After(s.opts.CustomerDelay):
			}
		}

		select {
		case <-ctx.Done():
			return synced, ctx.Err()
		default:
		}

		progress.CurrentCustomer = account
		progress.CurrentCustomerIndex = i + 1
		progress.SyncedCount = synced
		if err := s.progress.Set(ctx, progress); err != nil {
			s.logger.Warnw("failed to update sync progress", "error", err)
		}

		resp := client.Post(ctx, vos.PathGetCdr, map[string]any{
			"accounts":      []string{account},
			"callerE164":    nil,
			"calleeE164":    nil,
			"callerGateway": nil,
			"calleeGateway": nil,
			"beginTime":     dateStr,
			"endTime":       dateStr,
		})
		if err := resp.Err(); err != nil {
			failed++
			s.logger.Warnw("cdr fetch failed, skipping customer",
				"instance", inst.Name, "account", account, "date", dateStr, "error", err)
			continue
		}

		recs := vos.ExtractListFor(resp, vos.PathGetCdr)
		if len(recs) > 0 {
			n, err := s.cdrs.InsertCDRs(ctx, inst.ID, inst.UUID, recs)
			if err != nil {
				return synced, appErrors.NewStorageError("failed to store detail records", err.Error())
			}
			synced += n
		}
	}

	s.logger.Infow("cdr day synced",
		"instance", inst.Name, "date", dateStr,
		"customers", len(accounts), "failed_customers", failed, "records", synced)
	return synced, nil
}
