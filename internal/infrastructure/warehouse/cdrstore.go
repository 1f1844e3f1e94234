package warehouse

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"vossync/internal/shared/logger"
)

const cdrTable = "cdrs"

// createTableDDL keeps one row per id: ReplacingMergeTree collapses
// re-ingested records by the newest updated_at. Month partitions allow
// dropping history wholesale.
const createTableDDL = `
CREATE TABLE IF NOT EXISTS cdrs (
    id                 UInt64,
    vos_id             UInt32,
    vos_uuid           String,
    flow_no            String,
    account_name       String,
    account            String,
    caller_e164        String,
    caller_access_e164 String,
    callee_e164        String,
    callee_access_e164 String,
    start              DateTime,
    stop               Nullable(DateTime),
    hold_time          Int32,
    fee_time           Int32,
    fee                Float64,
    end_reason         String,
    end_direction      Int32,
    callee_gateway     String,
    callee_ip          String,
    raw                String,
    created_at         DateTime,
    updated_at         DateTime
) ENGINE = ReplacingMergeTree(updated_at)
PARTITION BY toYYYYMM(start)
ORDER BY (vos_id, start, id)
`

// CDRStore is the warehouse gateway for call detail records.
type CDRStore struct {
	conn     driver.Conn
	database string
	logger   logger.Interface
}

// QueryFilter narrows a CDR query. Caller and callee numbers match as
// substrings; the gateway matches exactly. Accounts is an exact-member set.
type QueryFilter struct {
	VosID         uint
	Start         time.Time
	End           time.Time
	Accounts      []string
	CallerE164    string
	CalleeE164    string
	CalleeGateway string
	Limit         int
	Offset        int
}

// AggregateRow is one dimension bucket of an aggregation query.
type AggregateRow struct {
	Dimension      string
	TotalCalls     uint64
	ConnectedCalls uint64
	TotalDuration  int64
	TotalFee       float64
}

// Aggregation dimensions.
const (
	DimensionNone    = ""
	DimensionAccount = "account_name"
	DimensionGateway = "callee_gateway"
)

// NewCDRStore creates a CDR store over an established connection.
func NewCDRStore(conn driver.Conn, database string, logger logger.Interface) *CDRStore {
	return &CDRStore{conn: conn, database: database, logger: logger}
}

// EnsureSchema creates the CDR table when absent.
func (s *CDRStore) EnsureSchema(ctx context.Context) error {
	if err := s.conn.Exec(ctx, createTableDDL); err != nil {
		return fmt.Errorf("failed to create cdr table: %w", err)
	}
	return nil
}

// InsertCDRs normalizes and batch-inserts upstream records. Records sharing
// a flow number with existing rows are replaced on merge, so reinsertion of
// the same day is idempotent. Returns the number of rows appended.
func (s *CDRStore) InsertCDRs(ctx context.Context, vosID uint, vosUUID string, cdrs []map[string]any) (int, error) {
	if len(cdrs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO "+cdrTable)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare cdr batch: %w", err)
	}

	for _, rec := range cdrs {
		row := NormalizeCDR(rec, vosID, vosUUID, now)
		if err := batch.AppendStruct(&row); err != nil {
			return 0, fmt.Errorf("failed to append cdr row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send cdr batch: %w", err)
	}

	s.logger.Infow("cdrs inserted", "count", len(cdrs), "vos_id", vosID)
	return len(cdrs), nil
}

// QueryCDRs returns matching rows ordered by start descending, plus the
// total match count. All filter values are bound as query parameters.
func (s *CDRStore) QueryCDRs(ctx context.Context, filter QueryFilter) ([]CDRRow, uint64, error) {
	where := "vos_id = ? AND start >= ? AND start < ?"
	args := []any{uint32(filter.VosID), filter.Start, filter.End}

	if len(filter.Accounts) > 0 {
		where += " AND account IN (?)"
		args = append(args, filter.Accounts)
	}
	if filter.CallerE164 != "" {
		where += " AND (caller_e164 LIKE ? OR caller_access_e164 LIKE ?)"
		pattern := "%" + filter.CallerE164 + "%"
		args = append(args, pattern, pattern)
	}
	if filter.CalleeE164 != "" {
		where += " AND callee_access_e164 LIKE ?"
		args = append(args, "%"+filter.CalleeE164+"%")
	}
	if filter.CalleeGateway != "" {
		where += " AND callee_gateway = ?"
		args = append(args, filter.CalleeGateway)
	}

	var total uint64
	countQuery := "SELECT count() FROM " + cdrTable + " WHERE " + where
	if err := s.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cdrs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query := `SELECT id, vos_id, vos_uuid, flow_no, account_name, account,
		caller_e164, caller_access_e164, callee_e164, callee_access_e164,
		start, stop, hold_time, fee_time, fee, end_reason, end_direction,
		callee_gateway, callee_ip, raw, created_at, updated_at
		FROM ` + cdrTable + ` WHERE ` + where + `
		ORDER BY start DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query cdrs: %w", err)
	}
	defer rows.Close()

	var result []CDRRow
	for rows.Next() {
		var r CDRRow
		if err := rows.ScanStruct(&r); err != nil {
			return nil, 0, fmt.Errorf("failed to scan cdr row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("cdr query iteration failed: %w", err)
	}
	return result, total, nil
}

// aggregateWhere binds the half-open window instants directly. The bounds
// carry the business-timezone offset, so truncating them to calendar dates
// would shift the aggregated span.
func aggregateWhere(vosID uint, vosUUID string, start, end time.Time) (string, []any) {
	return "vos_id = ? AND vos_uuid = ? AND start >= ? AND start < ?",
		[]any{uint32(vosID), vosUUID, start, end}
}

// Aggregate rolls up calls in [start, end) for an instance, grouped by the
// given dimension. Connected means hold_time > 0; empty dimension values are
// excluded when grouping.
func (s *CDRStore) Aggregate(ctx context.Context, vosID uint, vosUUID string, start, end time.Time, dimension string) ([]AggregateRow, error) {
	switch dimension {
	case DimensionNone, DimensionAccount, DimensionGateway:
	default:
		return nil, fmt.Errorf("unknown aggregation dimension %q", dimension)
	}

	where, args := aggregateWhere(vosID, vosUUID, start, end)

	var query string
	if dimension == DimensionNone {
		query = `SELECT count() AS total_calls,
			countIf(hold_time > 0) AS connected_calls,
			sumIf(hold_time, hold_time > 0) AS total_duration,
			sum(fee) AS total_fee
			FROM ` + cdrTable + ` WHERE ` + where
	} else {
		query = `SELECT ` + dimension + ` AS dim,
			count() AS total_calls,
			countIf(hold_time > 0) AS connected_calls,
			sumIf(hold_time, hold_time > 0) AS total_duration,
			sum(fee) AS total_fee
			FROM ` + cdrTable + ` WHERE ` + where + `
			AND ` + dimension + ` != ''
			GROUP BY ` + dimension
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate cdrs: %w", err)
	}
	defer rows.Close()

	var result []AggregateRow
	for rows.Next() {
		var r AggregateRow
		if dimension == DimensionNone {
			err = rows.Scan(&r.TotalCalls, &r.ConnectedCalls, &r.TotalDuration, &r.TotalFee)
		} else {
			err = rows.Scan(&r.Dimension, &r.TotalCalls, &r.ConnectedCalls, &r.TotalDuration, &r.TotalFee)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregate iteration failed: %w", err)
	}
	return result, nil
}

// SyncStatus returns row count and newest ingestion time for one instance.
func (s *CDRStore) SyncStatus(ctx context.Context, vosID uint) (uint64, *time.Time, error) {
	var count uint64
	var last time.Time
	query := "SELECT count(), max(created_at) FROM " + cdrTable + " WHERE vos_id = ?"
	if err := s.conn.QueryRow(ctx, query, uint32(vosID)).Scan(&count, &last); err != nil {
		return 0, nil, fmt.Errorf("failed to get sync status: %w", err)
	}
	if count == 0 {
		return 0, nil, nil
	}
	return count, &last, nil
}

var partitionPattern = regexp.MustCompile(`^\d{6}$`)

// DropPartitionsOlderThan drops month partitions older than the retention
// horizon. Returns the partitions that were dropped.
func (s *CDRStore) DropPartitionsOlderThan(ctx context.Context, monthsToKeep int) ([]string, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -monthsToKeep*30).Format("200601")

	rows, err := s.conn.Query(ctx, `SELECT DISTINCT partition FROM system.parts
		WHERE database = ? AND table = ? AND partition < ? AND active`,
		s.database, cdrTable, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list old partitions: %w", err)
	}
	defer rows.Close()

	var partitions []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan partition: %w", err)
		}
		partitions = append(partitions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("partition listing failed: %w", err)
	}

	var dropped []string
	for _, p := range partitions {
		// Partition ids are not bindable; accept only toYYYYMM values.
		if !partitionPattern.MatchString(p) {
			s.logger.Warnw("skipping unexpected partition id", "partition", p)
			continue
		}
		if err := s.conn.Exec(ctx, fmt.Sprintf("ALTER TABLE %s DROP PARTITION '%s'", cdrTable, p)); err != nil {
			s.logger.Errorw("failed to drop partition", "partition", p, "error", err.Error())
			continue
		}
		s.logger.Infow("partition dropped", "partition", p)
		dropped = append(dropped, p)
	}
	return dropped, nil
}
