package handler

import (
	"net/http"

	"poolvault/internal/repository"

	"github.com/gin-gonic/gin"
)

// SweepHandler serves the operator view of the consolidation pipeline.
type SweepHandler struct {
	positions *repository.PositionRepository
}

func NewSweepHandler(positions *repository.PositionRepository) *SweepHandler {
	return &SweepHandler{positions: positions}
}

// ListPending returns positions still waiting for consolidation.
func (h *SweepHandler) ListPending(c *gin.Context) {
	positions, err := h.positions.PendingSweeps()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "position error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

// ListFailed returns positions flagged for manual resolution, with the
// recorded leg hashes so the operator can check chain state before acting.
func (h *SweepHandler) ListFailed(c *gin.Context) {
	positions, err := h.positions.SweepFailed()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "position error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}
