package handler

import (
	"net/http"

	"poolvault/config"
	"poolvault/internal/models"
	"poolvault/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// WithdrawalHandler accepts payout requests into the queue. Settlement itself
// is asynchronous; the processor drains the queue on its own cadence.
type WithdrawalHandler struct {
	withdrawals *repository.WithdrawalRepository
	users       *repository.UserRepository
	token       string
}

func NewWithdrawalHandler(withdrawals *repository.WithdrawalRepository, users *repository.UserRepository, chainCfg config.ChainConfig) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals, users: users, token: chainCfg.TokenAddress}
}

type withdrawalRequest struct {
	UserID             uint            `json:"user_id" binding:"required"`
	DestinationAddress string          `json:"destination_address" binding:"required"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
}

// Enqueue places a payout request in the queue. The balance is checked here
// for fast feedback and again, under a row lock, at settlement time.
func (h *WithdrawalHandler) Enqueue(c *gin.Context) {
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Amount.Sign() <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "amount must be positive"})
		return
	}
	if !common.IsHexAddress(req.DestinationAddress) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid destination address"})
		return
	}
	user, err := h.users.GetByID(req.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
		return
	}
	if user.AvailableBalance.LessThan(req.Amount) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient available balance"})
		return
	}
	item := &models.WithdrawalQueueItem{
		UserID:             req.UserID,
		DestinationAddress: common.HexToAddress(req.DestinationAddress).Hex(),
		Amount:             req.Amount,
		Token:              h.token,
	}
	if err := h.withdrawals.Enqueue(item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "queue error"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"item": item})
}
