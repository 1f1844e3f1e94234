package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"vossync/internal/infrastructure/repository"
	"vossync/internal/shared/constants"
	"vossync/internal/shared/logger"
	"vossync/internal/shared/utils"
)

// Rearmer re-reads the stored schedules and updates the live jobs.
type Rearmer interface {
	Rearm(ctx context.Context) error
}

// editableConfigKeys maps each writable app config key to its value check.
var editableConfigKeys = map[string]func(string) bool{
	constants.ConfigKeyCdrSyncTime:      isWallTime,
	constants.ConfigKeyCustomerSyncTime: isWallTime,
	constants.ConfigKeyCdrSyncDays:      isDayCount,
	constants.ConfigKeyReportSyncDays:   isDayCount,
}

func isWallTime(v string) bool {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return false
	}
	hour, errH := strconv.Atoi(parts[0])
	minute, errM := strconv.Atoi(parts[1])
	return errH == nil && errM == nil && hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

func isDayCount(v string) bool {
	n, err := strconv.Atoi(v)
	return err == nil && n >= 1 && n <= 30
}

// ConfigHandler serves the runtime configuration surface.
type ConfigHandler struct {
	appConfig   *repository.AppConfigRepository
	syncConfigs *repository.SyncConfigRepository
	rearmer     Rearmer
	logger      logger.Interface
}

func NewConfigHandler(
	appConfig *repository.AppConfigRepository,
	syncConfigs *repository.SyncConfigRepository,
	rearmer Rearmer,
	logger logger.Interface,
) *ConfigHandler {
	return &ConfigHandler{
		appConfig:   appConfig,
		syncConfigs: syncConfigs,
		rearmer:     rearmer,
		logger:      logger,
	}
}

// GetConfig handles GET /api/sync/config
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	ctx := c.Request.Context()

	appConfigs, err := h.appConfig.List(ctx)
	if err != nil {
		h.logger.Errorw("failed to list app configs", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	jobs, err := h.syncConfigs.List(ctx)
	if err != nil {
		h.logger.Errorw("failed to list sync configs", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	configs := make(map[string]string, len(appConfigs))
	for _, cfg := range appConfigs {
		configs[cfg.ConfigKey] = cfg.ConfigValue
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"app_configs": configs,
		"jobs":        jobs,
	})
}

// AppConfigEntry is one key/value pair in an update request.
type AppConfigEntry struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// JobConfigEntry updates one named job row.
type JobConfigEntry struct {
	Name           string `json:"name" binding:"required"`
	CronExpression string `json:"cron_expression"`
	Enabled        *bool  `json:"enabled"`
}

// UpdateConfigRequest is the body of POST /api/sync/config.
type UpdateConfigRequest struct {
	AppConfigs []AppConfigEntry `json:"app_configs" binding:"omitempty,dive"`
	Jobs       []JobConfigEntry `json:"jobs" binding:"omitempty,dive"`
}

// UpdateConfig handles POST /api/sync/config. Saved changes take effect
// immediately: the scheduler is re-armed before the reply.
func (h *ConfigHandler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.AppConfigs) == 0 && len(req.Jobs) == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx := c.Request.Context()

	for _, entry := range req.AppConfigs {
		check, ok := editableConfigKeys[entry.Key]
		if !ok {
			utils.ErrorResponse(c, http.StatusBadRequest, "unknown config key: "+entry.Key)
			return
		}
		if !check(entry.Value) {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid value for "+entry.Key)
			return
		}
		if err := h.appConfig.SetValue(ctx, entry.Key, entry.Value, ""); err != nil {
			h.logger.Errorw("failed to save app config", "key", entry.Key, "error", err)
			utils.ErrorResponseWithError(c, err)
			return
		}
	}

	for _, entry := range req.Jobs {
		row, err := h.syncConfigs.GetByName(ctx, entry.Name)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		if row == nil {
			utils.ErrorResponse(c, http.StatusNotFound, "unknown job: "+entry.Name)
			return
		}
		if entry.CronExpression != "" {
			row.CronExpression = entry.CronExpression
		}
		if entry.Enabled != nil {
			row.Enabled = *entry.Enabled
		}
		if err := h.syncConfigs.Upsert(ctx, row); err != nil {
			h.logger.Errorw("failed to save sync config", "job", entry.Name, "error", err)
			utils.ErrorResponseWithError(c, err)
			return
		}
	}

	if h.rearmer != nil {
		if err := h.rearmer.Rearm(ctx); err != nil {
			h.logger.Errorw("failed to re-arm scheduler", "error", err)
			utils.ErrorResponseWithError(c, err)
			return
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "configuration updated", nil)
}
