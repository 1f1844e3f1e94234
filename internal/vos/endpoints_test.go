package vos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLFor(t *testing.T) {
	assert.Equal(t, RealtimeTTL, TTLFor(PathGetPhoneOnline))
	assert.Equal(t, SemiRealtimeTTL, TTLFor(PathGetAllCustomers))
	assert.Equal(t, HistoricalTTL, TTLFor(PathGetCdr))
	assert.Equal(t, ConfigTTL, TTLFor(PathGetFeeRate))
	assert.Equal(t, DefaultTTL, TTLFor("/external/server/SomethingNew"))
}

func TestExtractList(t *testing.T) {
	t.Run("canonical field", func(t *testing.T) {
		resp := Response{
			"retCode":       float64(0),
			"infoCustomers": []any{map[string]any{"account": "C001"}, map[string]any{"account": "C002"}},
		}
		records := ExtractListFor(resp, PathGetCustomer)
		assert.Len(t, records, 2)
		assert.Equal(t, "C001", records[0]["account"])
	})

	t.Run("fallback to any list field", func(t *testing.T) {
		resp := Response{
			"retCode":      float64(0),
			"customerList": []any{map[string]any{"account": "C003"}},
		}
		records := ExtractListFor(resp, PathGetCustomer)
		assert.Len(t, records, 1)
		assert.Equal(t, "C003", records[0]["account"])
	})

	t.Run("skips non-object items", func(t *testing.T) {
		resp := Response{
			"retCode":    float64(0),
			"infoPhones": []any{"junk", map[string]any{"e164": "861380000"}, float64(7)},
		}
		records := ExtractListFor(resp, PathGetPhone)
		assert.Len(t, records, 1)
	})

	t.Run("no list field", func(t *testing.T) {
		resp := Response{"retCode": float64(0), "exception": ""}
		records := ExtractListFor(resp, PathGetCdr)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("never falls back to retCode or exception", func(t *testing.T) {
		resp := Response{"retCode": float64(0), "exception": "ok"}
		assert.Empty(t, ExtractList(resp, ""))
	})
}

func TestFieldAccessors(t *testing.T) {
	rec := map[string]any{
		"account":      "C001",
		"money":        float64(15.5),
		"moneyStr":     "99.25",
		"flowNo":       float64(123456789),
		"flowNoStr":    "987654321",
		"lockType":     float64(1),
		"enabledStr":   "true",
		"disabledBool": false,
		"nilField":     nil,
	}

	t.Run("string with alias fallback", func(t *testing.T) {
		assert.Equal(t, "C001", GetString(rec, "Account", "account"))
		assert.Equal(t, "15.5", GetString(rec, "money"))
		assert.Equal(t, "", GetString(rec, "missing", "nilField"))
	})

	t.Run("float", func(t *testing.T) {
		assert.Equal(t, 15.5, GetFloat(rec, "money"))
		assert.Equal(t, 99.25, GetFloat(rec, "moneyStr"))
		assert.Equal(t, float64(0), GetFloat(rec, "missing"))
	})

	t.Run("int", func(t *testing.T) {
		assert.Equal(t, int64(123456789), GetInt(rec, "flowNo"))
		assert.Equal(t, int64(987654321), GetInt(rec, "flowNoStr"))
		assert.Equal(t, int64(0), GetInt(rec, "missing"))
	})

	t.Run("bool", func(t *testing.T) {
		assert.True(t, GetBool(rec, "lockType"))
		assert.True(t, GetBool(rec, "enabledStr"))
		assert.False(t, GetBool(rec, "disabledBool"))
		assert.False(t, GetBool(rec, "missing"))
	})
}

func TestTTLClasses(t *testing.T) {
	assert.Less(t, RealtimeTTL, SemiRealtimeTTL)
	assert.Less(t, SemiRealtimeTTL, HistoricalTTL)
	assert.Less(t, HistoricalTTL, ConfigTTL)
	assert.Equal(t, 30*time.Second, RealtimeTTL)
}
