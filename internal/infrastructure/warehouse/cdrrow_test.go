package warehouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := GenerateID("20260115001234567")
		b := GenerateID("20260115001234567")
		assert.Equal(t, a, b)
		assert.NotZero(t, a)
	})

	t.Run("distinct flow numbers collide only by accident", func(t *testing.T) {
		assert.NotEqual(t, GenerateID("20260115001234567"), GenerateID("20260115001234568"))
	})

	t.Run("empty flow number maps to zero", func(t *testing.T) {
		assert.Equal(t, uint64(0), GenerateID(""))
	})
}

func TestNormalizeCDR(t *testing.T) {
	now := time.Date(2026, 1, 16, 3, 0, 0, 0, time.UTC)

	t.Run("full record", func(t *testing.T) {
		startMs := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC).UnixMilli()
		stopMs := time.Date(2026, 1, 15, 10, 32, 5, 0, time.UTC).UnixMilli()
		rec := map[string]any{
			"flowNo":           "20260115001234567",
			"accountName":      "Acme Telecom",
			"account":          "C001",
			"callerE164":       "8613800000001",
			"callerAccessE164": "1001",
			"calleeE164":       "442071234567",
			"calleeAccessE164": "00442071234567",
			"start":            float64(startMs),
			"stop":             float64(stopMs),
			"holdTime":         float64(125),
			"feeTime":          float64(180),
			"fee":              float64(0.75),
			"endReason":        "normal",
			"endDirection":     float64(1),
			"calleeGateway":    "gw-uk-01",
			"calleeip":         "10.0.0.5",
		}

		row := NormalizeCDR(rec, 3, "uuid-3", now)

		assert.Equal(t, GenerateID("20260115001234567"), row.ID)
		assert.Equal(t, uint32(3), row.VosID)
		assert.Equal(t, "uuid-3", row.VosUUID)
		assert.Equal(t, "Acme Telecom", row.AccountName)
		assert.Equal(t, "C001", row.Account)
		assert.Equal(t, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC), row.Start)
		require.NotNil(t, row.Stop)
		assert.Equal(t, time.Date(2026, 1, 15, 10, 32, 5, 0, time.UTC), *row.Stop)
		assert.Equal(t, int32(125), row.HoldTime)
		assert.Equal(t, int32(180), row.FeeTime)
		assert.Equal(t, 0.75, row.Fee)
		assert.Equal(t, int32(1), row.EndDirection)
		assert.Equal(t, "gw-uk-01", row.CalleeGateway)
		assert.Equal(t, "10.0.0.5", row.CalleeIP)
		assert.Contains(t, row.Raw, `"flowNo":"20260115001234567"`)
		assert.Equal(t, now, row.CreatedAt)
		assert.Equal(t, now, row.UpdatedAt)
	})

	t.Run("missing start falls back to now, missing stop stays nil", func(t *testing.T) {
		row := NormalizeCDR(map[string]any{"flowNo": "f1"}, 1, "u", now)
		assert.Equal(t, now, row.Start)
		assert.Nil(t, row.Stop)
	})

	t.Run("zero values for absent fields", func(t *testing.T) {
		row := NormalizeCDR(map[string]any{}, 1, "u", now)
		assert.Equal(t, uint64(0), row.ID)
		assert.Empty(t, row.Account)
		assert.Zero(t, row.HoldTime)
		assert.Zero(t, row.Fee)
	})

	t.Run("string-typed numbers are tolerated", func(t *testing.T) {
		rec := map[string]any{
			"flowNo":   "f2",
			"holdTime": "60",
			"fee":      "1.25",
		}
		row := NormalizeCDR(rec, 1, "u", now)
		assert.Equal(t, int32(60), row.HoldTime)
		assert.Equal(t, 1.25, row.Fee)
	})
}

func TestAggregationDimensions(t *testing.T) {
	assert.Equal(t, "account_name", DimensionAccount)
	assert.Equal(t, "callee_gateway", DimensionGateway)
	assert.Empty(t, DimensionNone)
}
