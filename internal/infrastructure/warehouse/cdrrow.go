package warehouse

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/json"
	"time"

	"vossync/internal/vos"
)

// CDRRow is one call detail record in the warehouse table.
// String columns default to "" and numeric columns to 0 so rows are always
// fully populated; Raw keeps the upstream record verbatim.
type CDRRow struct {
	ID               uint64     `ch:"id"`
	VosID            uint32     `ch:"vos_id"`
	VosUUID          string     `ch:"vos_uuid"`
	FlowNo           string     `ch:"flow_no"`
	AccountName      string     `ch:"account_name"`
	Account          string     `ch:"account"`
	CallerE164       string     `ch:"caller_e164"`
	CallerAccessE164 string     `ch:"caller_access_e164"`
	CalleeE164       string     `ch:"callee_e164"`
	CalleeAccessE164 string     `ch:"callee_access_e164"`
	Start            time.Time  `ch:"start"`
	Stop             *time.Time `ch:"stop"`
	HoldTime         int32      `ch:"hold_time"`
	FeeTime          int32      `ch:"fee_time"`
	Fee              float64    `ch:"fee"`
	EndReason        string     `ch:"end_reason"`
	EndDirection     int32      `ch:"end_direction"`
	CalleeGateway    string     `ch:"callee_gateway"`
	CalleeIP         string     `ch:"callee_ip"`
	Raw              string     `ch:"raw"`
	CreatedAt        time.Time  `ch:"created_at"`
	UpdatedAt        time.Time  `ch:"updated_at"`
}

// GenerateID derives the deterministic row id from the upstream flow number:
// the first 8 bytes of md5(flow_no) read big-endian. Empty flow numbers map
// to id 0 so reinserting the same record replaces rather than duplicates.
func GenerateID(flowNo string) uint64 {
	if flowNo == "" {
		return 0
	}
	sum := md5.Sum([]byte(flowNo))
	return binary.BigEndian.Uint64(sum[:8])
}

// NormalizeCDR maps one upstream camelCase record to a warehouse row.
// Millisecond epochs become timestamps; a missing start falls back to now
// and a missing stop stays NULL.
func NormalizeCDR(rec map[string]any, vosID uint, vosUUID string, now time.Time) CDRRow {
	flowNo := vos.GetString(rec, "flowNo")

	start := now
	if ms := vos.GetInt(rec, "start"); ms > 0 {
		start = time.UnixMilli(ms).UTC()
	}
	var stop *time.Time
	if ms := vos.GetInt(rec, "stop"); ms > 0 {
		t := time.UnixMilli(ms).UTC()
		stop = &t
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		raw = []byte("{}")
	}

	return CDRRow{
		ID:               GenerateID(flowNo),
		VosID:            uint32(vosID),
		VosUUID:          vosUUID,
		FlowNo:           flowNo,
		AccountName:      vos.GetString(rec, "accountName"),
		Account:          vos.GetString(rec, "account"),
		CallerE164:       vos.GetString(rec, "callerE164"),
		CallerAccessE164: vos.GetString(rec, "callerAccessE164"),
		CalleeE164:       vos.GetString(rec, "calleeE164"),
		CalleeAccessE164: vos.GetString(rec, "calleeAccessE164"),
		Start:            start,
		Stop:             stop,
		HoldTime:         int32(vos.GetInt(rec, "holdTime")),
		FeeTime:          int32(vos.GetInt(rec, "feeTime")),
		Fee:              vos.GetFloat(rec, "fee"),
		EndReason:        vos.GetString(rec, "endReason"),
		EndDirection:     int32(vos.GetInt(rec, "endDirection")),
		CalleeGateway:    vos.GetString(rec, "calleeGateway"),
		CalleeIP:         vos.GetString(rec, "calleeip"),
		Raw:              string(raw),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
