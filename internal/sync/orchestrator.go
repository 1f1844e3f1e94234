package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"vossync/internal/shared/biztime"
	"vossync/internal/shared/constants"
	"vossync/internal/shared/goroutine"
)

// backfillDays is how far back a freshly registered instance is seeded.
const backfillDays = 7

// syncDaysWindow reads the lookback window for the nightly CDR pull from
// the runtime configuration table, clamped to [1, 30] days.
func (s *Service) syncDaysWindow(ctx context.Context) int {
	days, err := s.appConfig.GetIntClamped(ctx, constants.ConfigKeyCdrSyncDays, 1, 1, 30)
	if err != nil {
		s.logger.Warnw("failed to read cdr sync window, using 1 day", "error", err)
		return 1
	}
	return days
}

// SyncAllCDRs fans out one job per (instance, day) over the configured
// lookback window and blocks until all of them finish. Day batches are
// staggered, and instances within a batch are offset from each other, so
// the fleet is never hit at once.
func (s *Service) SyncAllCDRs(ctx context.Context) error {
	instances, err := s.instances.ListEnabled(ctx)
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		s.logger.Infow("no enabled instances, skipping cdr sync")
		return nil
	}

	days := s.syncDaysWindow(ctx)
	today := biztime.NowUTC()

	var wg stdsync.WaitGroup
	for d := 0; d < days; d++ {
		day := today.AddDate(0, 0, -d)
		for i := range instances {
			inst := instances[i]
			delay := time.Duration(d)*s.opts.DayStagger + time.Duration(i+1)*s.opts.InstanceStagger
			name := fmt.Sprintf("cdr-sync:%s:%s", inst.Name, biztime.FormatInBizTimezone(day, compactDateLayout))

			wg.Add(1)
			goroutine.SafeGo(s.logger, name, func() {
				defer wg.Done()
				if !sleepCtx(ctx, delay) {
					return
				}
				_ = s.pool.Run(ctx, inst.ID, name, func(ctx context.Context) error {
					_, err := s.syncCDRDay(ctx, &inst, day, "")
					return err
				})
			})
		}
	}
	wg.Wait()
	return nil
}

// BackfillInstance seeds a freshly registered instance: customers first,
// then the last week of detail records one day per job, staggered to keep
// the load on the new upstream gentle. Blocks until the backfill finishes.
func (s *Service) BackfillInstance(ctx context.Context, instanceID uint) error {
	inst, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return err
	}

	if _, err := s.SyncCustomers(ctx, inst.ID); err != nil {
		return err
	}

	today := biztime.NowUTC()
	var wg stdsync.WaitGroup
	for d := 0; d < backfillDays; d++ {
		day := today.AddDate(0, 0, -d)
		delay := time.Duration(d) * s.opts.DayStagger
		name := fmt.Sprintf("cdr-backfill:%s:%s", inst.Name, biztime.FormatInBizTimezone(day, compactDateLayout))

		wg.Add(1)
		goroutine.SafeGo(s.logger, name, func() {
			defer wg.Done()
			if !sleepCtx(ctx, delay) {
				return
			}
			_ = s.pool.Run(ctx, inst.ID, name, func(ctx context.Context) error {
				_, err := s.syncCDRDay(ctx, inst, day, "")
				return err
			})
		})
	}
	wg.Wait()

	s.logger.Infow("instance backfill finished", "instance", inst.Name, "days", backfillDays)
	return nil
}

// sleepCtx waits for d, returning false when the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
