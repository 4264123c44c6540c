package handler

import (
	"errors"
	"net/http"

	"poolvault/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// WalletHandler serves operator lookups of custodial wallet metadata.
type WalletHandler struct {
	wallets *repository.WalletRepository
}

func NewWalletHandler(wallets *repository.WalletRepository) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// Get resolves a custodial wallet by its on-chain address, for checking which
// user and purpose an observed transfer belongs to.
func (h *WalletHandler) Get(c *gin.Context) {
	addr := c.Param("address")
	if !common.IsHexAddress(addr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}
	wallet, err := h.wallets.ByAddress(common.HexToAddress(addr).Hex())
	if errors.Is(err, repository.ErrWalletNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}
