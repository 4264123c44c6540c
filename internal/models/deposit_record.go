package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositRecord is one row per on-chain transaction hash credited to a user.
// The unique index on TxHash is the idempotency guard that makes rescans and
// webhook retries safe: a duplicate insert fails, a duplicate lookup is a no-op.
type DepositRecord struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	TxHash       string          `gorm:"size:66;uniqueIndex;not null" json:"tx_hash"`
	TokenAddress string          `gorm:"size:42;not null" json:"token_address"`
	Amount       decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"amount"`
	BlockNumber  uint64          `gorm:"not null" json:"block_number"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (DepositRecord) TableName() string {
	return "deposit_records"
}
