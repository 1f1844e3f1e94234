package vos

import "time"

// Upstream API paths. All endpoints live under /external/server/.
const (
	PathGetAllCustomers         = "/external/server/GetAllCustomers"
	PathGetCustomer             = "/external/server/GetCustomer"
	PathGetPhone                = "/external/server/GetPhone"
	PathGetPhoneOnline          = "/external/server/GetPhoneOnline"
	PathGetAllPhoneOnline       = "/external/server/GetAllPhoneOnline"
	PathGetCurrentCall          = "/external/server/GetCurrentCall"
	PathGetCdr                  = "/external/server/GetCdr"
	PathGetPayHistory           = "/external/server/GetPayHistory"
	PathGetConsumption          = "/external/server/GetConsumption"
	PathGetGatewayMapping       = "/external/server/GetGatewayMapping"
	PathGetGatewayRouting       = "/external/server/GetGatewayRouting"
	PathGetGatewayMappingOnline = "/external/server/GetGatewayMappingOnline"
	PathGetGatewayRoutingOnline = "/external/server/GetGatewayRoutingOnline"
	PathGetFeeRateGroup         = "/external/server/GetFeeRateGroup"
	PathGetFeeRate              = "/external/server/GetFeeRate"
	PathGetSuite                = "/external/server/GetSuite"
	PathGetSoftSwitch           = "/external/server/GetSoftSwitch"
	PathGetE164Convert          = "/external/server/GetE164Convert"
	PathGetIvrAudio             = "/external/server/GetIvrAudio"
	PathGetPerformance          = "/external/server/GetPerformance"
	PathGetAlarmCurrent         = "/external/server/GetAlarmCurrent"
	PathGetReportCustomerFee    = "/external/server/GetReportCustomerFee"
)

// Cache TTL classes. Endpoints not listed fall back to DefaultTTL.
const (
	RealtimeTTL     = 30 * time.Second
	SemiRealtimeTTL = 5 * time.Minute
	HistoricalTTL   = time.Hour
	ConfigTTL       = 24 * time.Hour
	DefaultTTL      = 5 * time.Minute
)

var endpointTTLs = map[string]time.Duration{
	PathGetPhoneOnline:          RealtimeTTL,
	PathGetAllPhoneOnline:       RealtimeTTL,
	PathGetCurrentCall:          RealtimeTTL,
	PathGetGatewayMappingOnline: RealtimeTTL,
	PathGetGatewayRoutingOnline: RealtimeTTL,
	PathGetPerformance:          RealtimeTTL,
	PathGetAlarmCurrent:         RealtimeTTL,

	PathGetAllCustomers: SemiRealtimeTTL,
	PathGetCustomer:     SemiRealtimeTTL,
	PathGetPhone:        SemiRealtimeTTL,

	PathGetCdr:         HistoricalTTL,
	PathGetPayHistory:  HistoricalTTL,
	PathGetConsumption: HistoricalTTL,

	PathGetGatewayMapping: ConfigTTL,
	PathGetGatewayRouting: ConfigTTL,
	PathGetFeeRateGroup:   ConfigTTL,
	PathGetFeeRate:        ConfigTTL,
	PathGetSuite:          ConfigTTL,
	PathGetSoftSwitch:     ConfigTTL,
	PathGetE164Convert:    ConfigTTL,
	PathGetIvrAudio:       ConfigTTL,
}

// TTLFor returns the cache TTL class for an endpoint path.
func TTLFor(path string) time.Duration {
	if ttl, ok := endpointTTLs[path]; ok {
		return ttl
	}
	return DefaultTTL
}

// Canonical list field per endpoint. Replies name their payload list after
// the record type; some deployments vary, so extraction falls back to any
// list-valued field when the canonical one is missing.
var listFields = map[string]string{
	PathGetAllCustomers:         "infoCustomerBriefs",
	PathGetCustomer:             "infoCustomers",
	PathGetPhone:                "infoPhones",
	PathGetPhoneOnline:          "infoPhoneOnlines",
	PathGetAllPhoneOnline:       "infoPhoneOnlines",
	PathGetCurrentCall:          "infoCurrentCalls",
	PathGetCdr:                  "infoCdrs",
	PathGetGatewayMapping:       "infoGatewayMappings",
	PathGetGatewayRouting:       "infoGatewayRoutings",
	PathGetGatewayMappingOnline: "infoGatewayMappingOnlines",
	PathGetGatewayRoutingOnline: "infoGatewayRoutingOnlines",
	PathGetFeeRateGroup:         "infoFeeRateGroups",
	PathGetFeeRate:              "infoFeeRates",
	PathGetSuite:                "infoSuites",
	PathGetReportCustomerFee:    "infoReportCustomerFees",
}

// ListField returns the canonical payload list field for an endpoint path.
func ListField(path string) string {
	return listFields[path]
}

// ExtractList returns the payload records of a reply. It prefers the named
// field, then any list-valued field, and returns an empty slice otherwise.
// Items that are not objects are skipped.
func ExtractList(resp Response, field string) []map[string]any {
	if field != "" {
		if items, ok := resp[field].([]any); ok {
			return toRecords(items)
		}
	}
	for key, v := range resp {
		if key == "retCode" || key == "exception" {
			continue
		}
		if items, ok := v.([]any); ok {
			return toRecords(items)
		}
	}
	return []map[string]any{}
}

// ExtractListFor is ExtractList keyed by endpoint path.
func ExtractListFor(resp Response, path string) []map[string]any {
	return ExtractList(resp, ListField(path))
}

func toRecords(items []any) []map[string]any {
	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records
}
