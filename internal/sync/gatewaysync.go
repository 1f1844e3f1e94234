package sync

import (
	"context"

	"vossync/internal/infrastructure/persistence/models"
	"vossync/internal/shared/biztime"
	appErrors "vossync/internal/shared/errors"
	"vossync/internal/vos"
)

// Gateway type discriminators, matching the upstream endpoint split.
const (
	GatewayTypeMapping = "mapping"
	GatewayTypeRouting = "routing"
)

var gatewayPaths = map[string]struct {
	config string
	online string
}{
	GatewayTypeMapping: {vos.PathGetGatewayMapping, vos.PathGetGatewayMappingOnline},
	GatewayTypeRouting: {vos.PathGetGatewayRouting, vos.PathGetGatewayRoutingOnline},
}

// SyncGateways pulls mapping and routing gateways for one instance through
// the reference cache. The configuration call is authoritative; the
// online-status call enriches it and its failure only degrades the snapshot
// to all-offline.
func (s *Service) SyncGateways(ctx context.Context, instanceID uint) (int, error) {
	inst, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, gwType := range []string{GatewayTypeMapping, GatewayTypeRouting} {
		n, err := s.syncGatewayType(ctx, inst, gwType)
		if err != nil {
			return total, err
		}
		total += n
	}

	s.logger.Infow("gateways synced", "instance", inst.Name, "count", total)
	return total, nil
}

func (s *Service) syncGatewayType(ctx context.Context, inst *models.VosInstanceModel, gwType string) (int, error) {
	paths := gatewayPaths[gwType]

	cfgResp, _, err := s.refCache.Get(ctx, inst.ID, paths.config, map[string]any{"names": []string{}}, true)
	if err != nil {
		return 0, err
	}

	onlineByName := map[string]map[string]any{}
	onlineResp, _, err := s.refCache.Get(ctx, inst.ID, paths.online, map[string]any{"names": []string{}}, true)
	if err != nil {
		s.logger.Warnw("gateway online status unavailable",
			"instance", inst.Name, "type", gwType, "error", err)
	} else {
		for _, rec := range vos.ExtractListFor(onlineResp, paths.online) {
			if name := vos.GetString(rec, "name", "Name"); name != "" {
				onlineByName[name] = rec
			}
		}
	}

	now := biztime.NowUTC()
	recs := vos.ExtractListFor(cfgResp, paths.config)
	batch := make([]models.GatewayModel, 0, len(recs))
	for _, rec := range recs {
		name := vos.GetString(rec, "name", "Name")
		if gw, ok := NormalizeGateway(rec, onlineByName[name], gwType, inst.ID, now); ok {
			batch = append(batch, gw)
		}
	}

	if err := s.gateways.BatchUpsert(ctx, batch); err != nil {
		return 0, appErrors.NewStorageError("failed to store gateways", err.Error())
	}
	return len(batch), nil
}

// SyncAllGateways syncs gateways for every enabled instance.
func (s *Service) SyncAllGateways(ctx context.Context) error {
	instances, err := s.instances.ListEnabled(ctx)
	if err != nil {
		return err
	}
	for i := range instances {
		if _, err := s.SyncGateways(ctx, instances[i].ID); err != nil {
			s.logger.Errorw("gateway sync failed", "instance", instances[i].Name, "error", err)
		}
	}
	return nil
}
