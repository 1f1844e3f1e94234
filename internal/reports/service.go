// Package reports pulls per-account fee reports from upstream instances.
// Fee figures are upstream-computed and stored verbatim; nothing here does
// money arithmetic.
package reports

import (
	"context"
	"time"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/infrastructure/repository"
	"vossync/internal/shared/biztime"
	"vossync/internal/shared/constants"
	appErrors "vossync/internal/shared/errors"
	"vossync/internal/shared/logger"
	"vossync/internal/vos"
)

const compactDateLayout = "20060102"

// Caller is the upstream call surface the report pull needs.
type Caller interface {
	Post(ctx context.Context, path string, payload map[string]any) vos.Response
}

// ClientFactory builds a caller for an instance base URL. Report queries
// are heavy upstream, so the factory should hand out clients with a longer
// timeout than the sync default.
type ClientFactory func(baseURL string) Caller

// Options paces the per-instance account chunking.
type Options struct {
	ChunkSize  int
	ChunkDelay time.Duration
}

// DefaultOptions returns the stock chunking profile.
func DefaultOptions() Options {
	return Options{ChunkSize: 50, ChunkDelay: time.Second}
}

// Service owns account detail report synchronization.
type Service struct {
	instances *repository.InstanceRepository
	customers *repository.CustomerRepository
	reports   *repository.ReportRepository
	appConfig *repository.AppConfigRepository
	newClient ClientFactory
	opts      Options
	logger    logger.Interface
}

// NewService creates the report service.
func NewService(
	instances *repository.InstanceRepository,
	customers *repository.CustomerRepository,
	reports *repository.ReportRepository,
	appConfig *repository.AppConfigRepository,
	newClient ClientFactory,
	opts Options,
	log logger.Interface,
) *Service {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultOptions().ChunkSize
	}
	return &Service{
		instances: instances,
		customers: customers,
		reports:   reports,
		appConfig: appConfig,
		newClient: newClient,
		opts:      opts,
		logger:    log.Named("reports"),
	}
}

// msToTime converts an upstream millisecond epoch to UTC.
func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// NormalizeReport maps one upstream report record to a model. Records
// without an account are skipped.
func NormalizeReport(rec map[string]any, instanceID uint, vosUUID string) (models.AccountDetailReportModel, bool) {
	account := vos.GetString(rec, "account")
	if account == "" {
		return models.AccountDetailReportModel{}, false
	}
	return models.AccountDetailReportModel{
		VosInstanceID: instanceID,
		VosUUID:       vosUUID,
		Account:       account,
		AccountName:   vos.GetString(rec, "accountName"),
		BeginTime:     msToTime(vos.GetInt(rec, "beginTime")),
		EndTime:       msToTime(vos.GetInt(rec, "endTime")),

		CdrCount:          vos.GetInt(rec, "cdrCount"),
		TotalFee:          vos.GetFloat(rec, "totalFee"),
		TotalTime:         vos.GetInt(rec, "totalTime"),
		TotalSuiteFee:     vos.GetFloat(rec, "totalSuiteFee"),
		TotalSuiteFeeTime: vos.GetInt(rec, "totalSuiteFeeTime"),

		NetFee:   vos.GetFloat(rec, "netFee"),
		NetTime:  vos.GetInt(rec, "netTime"),
		NetCount: vos.GetInt(rec, "netCount"),

		LocalFee:   vos.GetFloat(rec, "localFee"),
		LocalTime:  vos.GetInt(rec, "localTime"),
		LocalCount: vos.GetInt(rec, "localCount"),

		DomesticFee:   vos.GetFloat(rec, "domesticFee"),
		DomesticTime:  vos.GetInt(rec, "domesticTime"),
		DomesticCount: vos.GetInt(rec, "domesticCount"),

		InternationalFee:   vos.GetFloat(rec, "internationalFee"),
		InternationalTime:  vos.GetInt(rec, "internationalTime"),
		InternationalCount: vos.GetInt(rec, "internationalCount"),
	}, true
}

// chunkAccounts splits the account list into request-sized chunks.
func chunkAccounts(accounts []string, size int) [][]string {
	var chunks [][]string
	for len(accounts) > size {
		chunks = append(chunks, accounts[:size])
		accounts = accounts[size:]
	}
	if len(accounts) > 0 {
		chunks = append(chunks, accounts)
	}
	return chunks
}

// SyncInstanceReports pulls daily fee reports for one instance and target
// date, chunking the account list so a single oversized request cannot
// time out. A failed chunk is logged and skipped; only storage failures
// fail the job. Returns the number of report rows written.
func (s *Service) SyncInstanceReports(ctx context.Context, instanceID uint, targetDate time.Time) (int, error) {
	inst, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return 0, err
	}

	accounts, err := s.customers.ListAccounts(ctx, inst.ID)
	if err != nil {
		return 0, appErrors.NewStorageError("failed to list accounts", err.Error())
	}
	if len(accounts) == 0 {
		s.logger.Infow("no accounts, skipping report sync", "instance", inst.Name)
		return 0, nil
	}

	dateStr := biztime.FormatInBizTimezone(targetDate, compactDateLayout)
	client := s.newClient(inst.APIURL)
	chunks := chunkAccounts(accounts, s.opts.ChunkSize)

	var batch []models.AccountDetailReportModel
	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		resp := client.Post(ctx, vos.PathGetReportCustomerFee, map[string]any{
			"accounts":  chunk,
			"period":    1,
			"beginTime": dateStr,
			"endTime":   dateStr,
		})
		if err := resp.Err(); err != nil {
			s.logger.Errorw("report chunk failed, skipping",
				"instance", inst.Name, "chunk", i+1, "of", len(chunks), "error", err)
			continue
		}

		for _, rec := range vos.ExtractListFor(resp, vos.PathGetReportCustomerFee) {
			if r, ok := NormalizeReport(rec, inst.ID, inst.UUID); ok {
				batch = append(batch, r)
			}
		}

		if i < len(chunks)-1 && s.opts.ChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(s.opts.ChunkDelay):
			}
		}
	}

	if err := s.reports.BatchUpsert(ctx, batch); err != nil {
		return 0, appErrors.NewStorageError("failed to store account reports", err.Error())
	}

	s.logger.Infow("account reports synced",
		"instance", inst.Name, "date", dateStr, "rows", len(batch))
	return len(batch), nil
}

// SyncAllReports pulls reports for every enabled instance over the
// configured lookback window, most recent date first. Failures are
// isolated per instance and date.
func (s *Service) SyncAllReports(ctx context.Context) error {
	instances, err := s.instances.ListEnabled(ctx)
	if err != nil {
		return err
	}

	days, err := s.appConfig.GetIntClamped(ctx, constants.ConfigKeyReportSyncDays, 1, 1, 30)
	if err != nil {
		s.logger.Warnw("failed to read report sync window, using 1 day", "error", err)
		days = 1
	}

	today := biztime.NowUTC()
	for i := range instances {
		for d := 0; d < days; d++ {
			if _, err := s.SyncInstanceReports(ctx, instances[i].ID, today.AddDate(0, 0, -d)); err != nil {
				s.logger.Errorw("report sync failed",
					"instance", instances[i].Name, "days_back", d, "error", err)
			}
		}
	}
	return nil
}
