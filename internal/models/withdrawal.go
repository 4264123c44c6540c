package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Withdrawal struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	OrderID            string          `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	DestinationAddress string          `gorm:"size:42;not null" json:"destination_address"`
	Amount             decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"amount"`
	Token              string          `gorm:"size:42;not null" json:"token"`
	TxHash             string          `gorm:"size:66;index;not null" json:"tx_hash"`
	Status             string          `gorm:"size:20;not null;index" json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}
