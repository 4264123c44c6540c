package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryCreated struct {
	EntryID   uint            `json:"entry_id"`
	UserID    uint            `json:"user_id"`
	VaultID   uint            `json:"vault_id"`
	EntryType string          `json:"entry_type"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type DepositCredited struct {
	UserID      uint            `json:"user_id"`
	TxHash      string          `json:"tx_hash"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	BlockNumber uint64          `json:"block_number"`
}

type SweepCompleted struct {
	PositionID uint   `json:"position_id"`
	EntryID    uint   `json:"entry_id"`
	UserID     uint   `json:"user_id"`
	Leg1TxHash string `json:"leg1_tx_hash"`
	Leg2TxHash string `json:"leg2_tx_hash"`
}

type SweepFailed struct {
	PositionID uint   `json:"position_id"`
	EntryID    uint   `json:"entry_id"`
	UserID     uint   `json:"user_id"`
	Leg1TxHash string `json:"leg1_tx_hash,omitempty"`
	Reason     string `json:"reason"`
}

type WithdrawalSettled struct {
	UserID  uint            `json:"user_id"`
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
	TxHash  string          `json:"tx_hash"`
}
