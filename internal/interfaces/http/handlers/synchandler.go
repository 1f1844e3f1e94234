package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vossync/internal/infrastructure/cache"
	"vossync/internal/shared/goroutine"
	"vossync/internal/shared/logger"
	"vossync/internal/shared/utils"
	"vossync/internal/sync"
)

// CDRSyncer dispatches detail-record pulls.
type CDRSyncer interface {
	SyncAllCDRs(ctx context.Context) error
	SyncCustomerCDRs(ctx context.Context, instanceID uint, account string, days int) (int, error)
	BackfillInstance(ctx context.Context, instanceID uint) error
}

// CustomerSyncer dispatches customer and reference-data pulls.
type CustomerSyncer interface {
	SyncAllCustomers(ctx context.Context) error
	SyncReferenceData(ctx context.Context) error
}

// ReportSyncer dispatches account report pulls.
type ReportSyncer interface {
	SyncAllReports(ctx context.Context) error
}

// manualJobTimeout bounds a manually triggered background job.
const manualJobTimeout = 6 * time.Hour

// SyncHandler serves the sync progress surface and the manual triggers.
// Triggers run in the background and reply 202; progress is observable
// through GET /api/sync/progress.
type SyncHandler struct {
	progress  *cache.ProgressStore
	summary   *cache.HealthSummaryStore
	registry  *sync.Registry
	cdrs      CDRSyncer
	customers CustomerSyncer
	reports   ReportSyncer
	logger    logger.Interface
}

func NewSyncHandler(
	progress *cache.ProgressStore,
	summary *cache.HealthSummaryStore,
	registry *sync.Registry,
	cdrs CDRSyncer,
	customers CustomerSyncer,
	reports ReportSyncer,
	logger logger.Interface,
) *SyncHandler {
	return &SyncHandler{
		progress:  progress,
		summary:   summary,
		registry:  registry,
		cdrs:      cdrs,
		customers: customers,
		reports:   reports,
		logger:    logger,
	}
}

// GetProgress handles GET /api/sync/progress
func (h *SyncHandler) GetProgress(c *gin.Context) {
	progress, err := h.progress.Get(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to read sync progress", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	if progress == nil {
		utils.SuccessResponse(c, http.StatusOK, "", gin.H{"running": false})
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"running": true, "progress": progress})
}

// GetHealthSummary handles GET /api/sync/health
func (h *SyncHandler) GetHealthSummary(c *gin.Context) {
	summary, err := h.summary.Get(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to read health summary", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	if summary == nil {
		utils.SuccessResponse(c, http.StatusOK, "no probe round has completed yet", gin.H{"instances": []any{}})
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", summary)
}

// ManualCDRRequest narrows a manual CDR pull to one instance account.
type ManualCDRRequest struct {
	InstanceID uint   `json:"instance_id"`
	Account    string `json:"account"`
	Days       int    `json:"days" binding:"omitempty,min=1,max=30"`
}

// TriggerCDRSync handles POST /api/sync/manual/cdr
func (h *SyncHandler) TriggerCDRSync(c *gin.Context) {
	var req ManualCDRRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	if req.InstanceID != 0 {
		if _, ok := h.registry.UUIDFor(req.InstanceID); !ok {
			utils.ErrorResponse(c, http.StatusNotFound, "unknown instance")
			return
		}
	}

	switch {
	case req.InstanceID != 0 && req.Account != "":
		days := req.Days
		if days <= 0 {
			days = 1
		}
		h.dispatch("manual-cdr-account", func(ctx context.Context) error {
			_, err := h.cdrs.SyncCustomerCDRs(ctx, req.InstanceID, req.Account, days)
			return err
		})
	case req.InstanceID != 0:
		h.dispatch("manual-backfill", func(ctx context.Context) error {
			return h.cdrs.BackfillInstance(ctx, req.InstanceID)
		})
	default:
		h.dispatch("manual-cdr", h.cdrs.SyncAllCDRs)
	}

	utils.AcceptedResponse(c, "sync job dispatched")
}

// TriggerCustomerSync handles POST /api/sync/manual/customer
func (h *SyncHandler) TriggerCustomerSync(c *gin.Context) {
	h.dispatch("manual-customer", func(ctx context.Context) error {
		if err := h.customers.SyncAllCustomers(ctx); err != nil {
			return err
		}
		return h.customers.SyncReferenceData(ctx)
	})
	utils.AcceptedResponse(c, "sync job dispatched")
}

// TriggerReportSync handles POST /api/sync/manual/reports
func (h *SyncHandler) TriggerReportSync(c *gin.Context) {
	h.dispatch("manual-reports", h.reports.SyncAllReports)
	utils.AcceptedResponse(c, "sync job dispatched")
}

func (h *SyncHandler) dispatch(name string, fn func(ctx context.Context) error) {
	goroutine.SafeGo(h.logger, name, func() {
		ctx, cancel := context.WithTimeout(context.Background(), manualJobTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			h.logger.Errorw("manual sync job failed", "job", name, "error", err)
		}
	})
}
