package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the atomic unit of custodial accounting. Entries are
// append-only: the signed sum of a user's entries for a vault is their current
// capital in that vault, and corrections are new offsetting entries, never
// in-place edits. Only Status ever changes after creation.
type LedgerEntry struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index:idx_ledger_user_vault" json:"user_id"`
	VaultID   uint            `gorm:"not null;index:idx_ledger_user_vault" json:"vault_id"`
	EntryType string          `gorm:"size:30;not null;index" json:"entry_type"`
	Amount    decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"amount"`
	FeeAmount decimal.Decimal `gorm:"type:decimal(38,18);not null;default:0" json:"fee_amount"`
	Status    string          `gorm:"size:30;not null;index" json:"status"`
	TxHash    *string         `gorm:"size:66;index" json:"tx_hash,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
