package sync

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/vos"
)

// rawJSON keeps the upstream record verbatim. The flat model columns are
// projections; RawData is the source of truth for anything not projected.
func rawJSON(rec map[string]any) datatypes.JSON {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// NormalizeCustomer maps one upstream billing account record to a model.
// Records without an account name are skipped.
func NormalizeCustomer(rec map[string]any, instanceID uint, now time.Time) (models.CustomerModel, bool) {
	account := vos.GetString(rec, "account", "Account")
	if account == "" {
		return models.CustomerModel{}, false
	}
	money := vos.GetFloat(rec, "money", "Money")
	return models.CustomerModel{
		VosInstanceID: instanceID,
		Account:       account,
		Name:          vos.GetString(rec, "name", "Name"),
		Money:         money,
		LimitMoney:    vos.GetFloat(rec, "limitMoney", "LimitMoney"),
		IsInDebt:      money < 0,
		RawData:       rawJSON(rec),
		SyncedAt:      now,
	}, true
}

// NormalizePhone maps one upstream online-phone record to a model marked
// online. Records without an E164 are skipped.
func NormalizePhone(rec map[string]any, instanceID uint, now time.Time) (models.PhoneModel, bool) {
	e164 := vos.GetString(rec, "e164", "E164", "account")
	if e164 == "" {
		return models.PhoneModel{}, false
	}
	online := now
	return models.PhoneModel{
		VosInstanceID: instanceID,
		E164:          e164,
		IsOnline:      true,
		LastOnlineAt:  &online,
		RawData:       rawJSON(rec),
		SyncedAt:      now,
	}, true
}

// NormalizeGateway merges one gateway configuration record with its online
// status record (which may be nil when the gateway is offline).
func NormalizeGateway(cfg, online map[string]any, gatewayType string, instanceID uint, now time.Time) (models.GatewayModel, bool) {
	name := vos.GetString(cfg, "name", "Name")
	if name == "" {
		return models.GatewayModel{}, false
	}

	merged := make(map[string]any, len(cfg)+len(online))
	for k, v := range cfg {
		merged[k] = v
	}
	for k, v := range online {
		merged[k] = v
	}

	return models.GatewayModel{
		VosInstanceID:   instanceID,
		Name:            name,
		GatewayType:     gatewayType,
		IsOnline:        vos.GetBool(online, "isOnline", "online"),
		RemoteIP:        vos.GetString(merged, "remoteIp", "ipAddress", "ip"),
		Asr:             vos.GetFloat(online, "asr"),
		Acd:             vos.GetFloat(online, "acd"),
		ConcurrentCalls: int(vos.GetInt(online, "concurrentCalls")),
		RawData:         rawJSON(merged),
		SyncedAt:        now,
	}, true
}

// NormalizeFeeRateGroup maps one rate group record. Unnamed groups are skipped.
func NormalizeFeeRateGroup(rec map[string]any, instanceID uint, now time.Time) (models.FeeRateGroupModel, bool) {
	name := vos.GetString(rec, "name", "Name")
	if name == "" {
		return models.FeeRateGroupModel{}, false
	}
	return models.FeeRateGroupModel{
		VosInstanceID: instanceID,
		Name:          name,
		RawData:       rawJSON(rec),
		SyncedAt:      now,
	}, true
}

// NormalizeSuite maps one suite record. Records without an id are skipped.
func NormalizeSuite(rec map[string]any, instanceID uint, now time.Time) (models.SuiteModel, bool) {
	id := vos.GetInt(rec, "id", "suiteId")
	if id == 0 {
		return models.SuiteModel{}, false
	}
	return models.SuiteModel{
		VosInstanceID: instanceID,
		SuiteID:       id,
		Name:          vos.GetString(rec, "name", "Name"),
		RawData:       rawJSON(rec),
		SyncedAt:      now,
	}, true
}
