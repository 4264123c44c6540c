package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalQueueItem is a pending payout request. It is consumed and deleted
// by the withdrawal processor once the on-chain broadcast succeeds, replaced by
// a permanent Withdrawal record. BroadcastTxHash is stamped before deletion so
// a crash in the delete window can be reconciled by hash.
type WithdrawalQueueItem struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	DestinationAddress string          `gorm:"size:42;not null" json:"destination_address"`
	Amount             decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"amount"`
	Token              string          `gorm:"size:42;not null" json:"token"`
	Status             string          `gorm:"size:20;not null;index" json:"status"`
	GasFunded          bool            `gorm:"not null;default:false" json:"gas_funded"`
	LastGasFundAttempt *time.Time      `json:"last_gas_fund_attempt,omitempty"`
	Retries            int             `gorm:"not null;default:0" json:"retries"`
	BroadcastTxHash    *string         `gorm:"size:66" json:"broadcast_tx_hash,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (WithdrawalQueueItem) TableName() string {
	return "withdrawal_queue_items"
}
