// Package stats rolls the warehouse detail records up into per-period
// statistics rows in the config store. The nightly run keys everything on
// yesterday's business day: the day period covers just that day, while
// month, quarter and year cover the period containing it, so on a period's
// first day the previous period is written out closed.
package stats

import (
	"context"
	"math"
	"time"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/infrastructure/repository"
	"vossync/internal/infrastructure/warehouse"
	"vossync/internal/shared/biztime"
	"vossync/internal/shared/constants"
	sharedDB "vossync/internal/shared/db"
	appErrors "vossync/internal/shared/errors"
	"vossync/internal/shared/logger"
)

// Aggregator is the warehouse read surface the roll-up needs.
type Aggregator interface {
	Aggregate(ctx context.Context, vosID uint, vosUUID string, start, end time.Time, dimension string) ([]warehouse.AggregateRow, error)
}

// periodTypes lists every period computed on each nightly run.
var periodTypes = []string{
	constants.PeriodDay,
	constants.PeriodMonth,
	constants.PeriodQuarter,
	constants.PeriodYear,
}

// dimensionStatTypes maps a warehouse aggregation dimension to the
// statistic type stored with its rows.
var dimensionStatTypes = map[string]string{
	warehouse.DimensionNone:    constants.StatTypeVos,
	warehouse.DimensionAccount: constants.StatTypeAccount,
	warehouse.DimensionGateway: constants.StatTypeGateway,
}

// Service computes and stores the roll-ups.
type Service struct {
	instances  *repository.InstanceRepository
	stats      *repository.StatisticsRepository
	tx         *sharedDB.TransactionManager
	aggregator Aggregator
	logger     logger.Interface
}

// NewService creates the roll-up service.
func NewService(
	instances *repository.InstanceRepository,
	stats *repository.StatisticsRepository,
	tx *sharedDB.TransactionManager,
	aggregator Aggregator,
	log logger.Interface,
) *Service {
	return &Service{
		instances:  instances,
		stats:      stats,
		tx:         tx,
		aggregator: aggregator,
		logger:     log.Named("stats"),
	}
}

// ConnectionRate is connected calls as a percentage of total, rounded to
// two decimals. Zero totals yield zero.
func ConnectionRate(total, connected int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(connected)/float64(total)*100*100) / 100
}

// PeriodWindow returns the aggregation window for a statistic date: the
// day itself, or the month, quarter or year containing it.
func PeriodWindow(statDate time.Time, periodType string) biztime.Window {
	switch periodType {
	case constants.PeriodMonth:
		return biztime.MonthWindow(statDate)
	case constants.PeriodQuarter:
		return biztime.QuarterWindow(statDate)
	case constants.PeriodYear:
		return biztime.YearWindow(statDate)
	default:
		return biztime.DayWindow(statDate)
	}
}

// RollupInstance computes every period and dimension for one instance and
// statistic date, writing all rows in one transaction. Returns the number
// of rows written.
func (s *Service) RollupInstance(ctx context.Context, inst *models.VosInstanceModel, statDate time.Time) (int, error) {
	dateUTC := biztime.StartOfDayUTC(statDate)
	var batch []models.CdrStatisticModel

	for _, periodType := range periodTypes {
		window := PeriodWindow(statDate, periodType)
		for _, dimension := range []string{warehouse.DimensionNone, warehouse.DimensionAccount, warehouse.DimensionGateway} {
			rows, err := s.aggregator.Aggregate(ctx, inst.ID, inst.UUID, window.Start, window.End, dimension)
			if err != nil {
				return 0, appErrors.NewStorageError("failed to aggregate detail records", err.Error())
			}
			for _, row := range rows {
				total := int64(row.TotalCalls)
				connected := int64(row.ConnectedCalls)
				batch = append(batch, models.CdrStatisticModel{
					VosInstanceID:  inst.ID,
					VosUUID:        inst.UUID,
					StatisticType:  dimensionStatTypes[dimension],
					DimensionValue: row.Dimension,
					StatisticDate:  dateUTC,
					PeriodType:     periodType,
					TotalCalls:     total,
					ConnectedCalls: connected,
					TotalDuration:  row.TotalDuration,
					TotalFee:       row.TotalFee,
					ConnectionRate: ConnectionRate(total, connected),
				})
			}
		}
	}

	err := s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.stats.BatchUpsert(txCtx, batch)
	})
	if err != nil {
		return 0, appErrors.NewStorageError("failed to store statistics", err.Error())
	}

	s.logger.Infow("statistics rolled up",
		"instance", inst.Name, "date", dateUTC.Format("2006-01-02"), "rows", len(batch))
	return len(batch), nil
}

// RollupAll runs the nightly roll-up for every enabled instance, keyed on
// yesterday's business day. Failures are isolated per instance.
func (s *Service) RollupAll(ctx context.Context) error {
	instances, err := s.instances.ListEnabled(ctx)
	if err != nil {
		return err
	}

	statDate := biztime.NowUTC().AddDate(0, 0, -1)
	var failed int
	for i := range instances {
		if _, err := s.RollupInstance(ctx, &instances[i], statDate); err != nil {
			failed++
			s.logger.Errorw("rollup failed", "instance", instances[i].Name, "error", err)
		}
	}
	if failed == len(instances) && failed > 0 {
		return appErrors.NewInternalError("rollup failed for all instances")
	}
	return nil
}
