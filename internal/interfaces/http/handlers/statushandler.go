package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vossync/internal/scheduler"
	"vossync/internal/shared/utils"
)

// SchedulerStatus is the slice of the scheduler the liveness endpoint reads.
type SchedulerStatus interface {
	IsStarted() bool
	JobSchedules() []scheduler.JobSchedule
}

// StatusHandler serves the liveness endpoint.
type StatusHandler struct {
	scheduler SchedulerStatus
	startedAt time.Time
}

func NewStatusHandler(sched SchedulerStatus) *StatusHandler {
	return &StatusHandler{
		scheduler: sched,
		startedAt: time.Now().UTC(),
	}
}

// Liveness handles GET /api/health
func (h *StatusHandler) Liveness(c *gin.Context) {
	data := gin.H{
		"status":     "ok",
		"time":       time.Now().UTC(),
		"uptime_sec": int64(time.Since(h.startedAt).Seconds()),
	}
	if h.scheduler != nil {
		data["scheduler_started"] = h.scheduler.IsStarted()
		data["jobs"] = h.scheduler.JobSchedules()
	}
	utils.SuccessResponse(c, http.StatusOK, "", data)
}
