package handler

import (
	"context"
	"net/http"

	"poolvault/internal/scheduler"
	"poolvault/internal/service"
	"poolvault/internal/ws"

	"github.com/gin-gonic/gin"
)

// OpsHandler exposes the operator controls: job status, manual triggers and
// bounded deposit rescans.
type OpsHandler struct {
	sched   *scheduler.Scheduler
	scanner *service.DepositScanner
	hub     *ws.Hub
}

func NewOpsHandler(sched *scheduler.Scheduler, scanner *service.DepositScanner, hub *ws.Hub) *OpsHandler {
	return &OpsHandler{sched: sched, scanner: scanner, hub: hub}
}

// ListJobs returns every registered background job with its last run outcome.
func (h *OpsHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"jobs":       h.sched.Status(),
		"ws_clients": h.hub.ClientCount(),
	})
}

// TriggerJob fires a job out of schedule. The run is asynchronous; poll
// ListJobs for the outcome.
func (h *OpsHandler) TriggerJob(c *gin.Context) {
	name := c.Param("name")
	if !h.sched.Trigger(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": name, "status": "triggered"})
}

type rescanRequest struct {
	FromBlock uint64 `json:"from_block" binding:"required"`
	ToBlock   uint64 `json:"to_block" binding:"required"`
}

// RescanDeposits re-runs deposit discovery over an explicit block range.
// Idempotent crediting makes replays safe; the scan cursor is untouched. Runs
// synchronously under the scan job's overlap guard.
func (h *OpsHandler) RescanDeposits(c *gin.Context) {
	var req rescanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from_block and to_block required"})
		return
	}
	if req.ToBlock < req.FromBlock {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to_block must be >= from_block"})
		return
	}
	ran, err := h.sched.TryRun("deposit_scan", func(ctx context.Context) error {
		return h.scanner.Scan(ctx, &service.ScanRange{From: req.FromBlock, To: req.ToBlock})
	})
	if !ran && err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "a deposit scan is already running"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"from_block": req.FromBlock, "to_block": req.ToBlock, "status": "completed"})
}
