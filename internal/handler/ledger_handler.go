package handler

import (
	"errors"
	"net/http"
	"strconv"

	"poolvault/internal/models"
	"poolvault/internal/repository"
	"poolvault/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// LedgerHandler serves ledger reads and the entry insertion endpoint used by
// the fee, PNL and reward modules.
type LedgerHandler struct {
	ledger *service.LedgerService
	vaults *repository.VaultRepository
}

func NewLedgerHandler(ledger *service.LedgerService, vaults *repository.VaultRepository) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, vaults: vaults}
}

// ListVaults returns the active vaults collaborating modules may target.
func (h *LedgerHandler) ListVaults(c *gin.Context) {
	vaults, err := h.vaults.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "vault error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vaults": vaults})
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}

// GetBalance returns a user's capital in one vault, the signed sum of their
// ledger entries.
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	userID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	vaultID, err := strconv.ParseUint(c.Query("vault_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vault_id query parameter required"})
		return
	}
	balance, err := h.ledger.Balance(userID, uint(vaultID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "vault_id": vaultID, "balance": balance})
}

func (h *LedgerHandler) ListEntries(c *gin.Context) {
	userID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.ledger.History(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type insertEntryRequest struct {
	UserID    uint            `json:"user_id" binding:"required"`
	VaultID   uint            `json:"vault_id" binding:"required"`
	EntryType string          `json:"entry_type" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Status    string          `json:"status" binding:"required"`
}

// InsertEntry appends a ledger entry on behalf of a collaborating module.
// Type and status outside the enumerated set are rejected.
func (h *LedgerHandler) InsertEntry(c *gin.Context) {
	var req insertEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	entry := &models.LedgerEntry{
		UserID:    req.UserID,
		VaultID:   req.VaultID,
		EntryType: req.EntryType,
		Amount:    req.Amount,
		Status:    req.Status,
	}
	if err := h.ledger.InsertEntry(entry); err != nil {
		if errors.Is(err, repository.ErrInvalidEntryType) || errors.Is(err, repository.ErrInvalidStatus) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// ActivateEntry moves a pending deposit into the trading pool without a
// sweep, for capital consolidated out of band.
func (h *LedgerHandler) ActivateEntry(c *gin.Context) {
	entryID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.ActivateDeposit(entryID); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry_id": entryID, "status": "activated"})
}

type vaultTransferRequest struct {
	UserID    uint            `json:"user_id" binding:"required"`
	FromVault uint            `json:"from_vault" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// RequestVaultTransfer places a hold against the source vault pending
// approval.
func (h *LedgerHandler) RequestVaultTransfer(c *gin.Context) {
	var req vaultTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	hold, err := h.ledger.RequestVaultTransfer(req.UserID, req.FromVault, req.Amount)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"hold": hold})
}

type finalizeTransferRequest struct {
	ToVault uint `json:"to_vault" binding:"required"`
}

func (h *LedgerHandler) FinalizeVaultTransfer(c *gin.Context) {
	holdID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var req finalizeTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to_vault required"})
		return
	}
	if vault, err := h.vaults.GetByID(req.ToVault); err != nil || !vault.Active {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "destination vault not active"})
		return
	}
	if err := h.ledger.FinalizeVaultTransfer(holdID, req.ToVault); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hold_id": holdID, "status": "finalized"})
}

func (h *LedgerHandler) RejectVaultTransfer(c *gin.Context) {
	holdID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.RejectVaultTransfer(holdID); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hold_id": holdID, "status": "reversed"})
}
