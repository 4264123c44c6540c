package models

import (
	"time"
)

// Position tracks a deposit's journey from the user's custodial wallet into
// the pooled wallets. A failed sweep marks the position SWEEP_FAILED for
// operator attention while the ledger entry itself stays PENDING_SWEEP.
type Position struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	VaultID       uint       `gorm:"not null;index" json:"vault_id"`
	EntryID       uint       `gorm:"not null;uniqueIndex" json:"entry_id"`
	Status        string     `gorm:"size:20;not null;index" json:"status"`
	Leg1TxHash    *string    `gorm:"size:66" json:"leg1_tx_hash,omitempty"`
	Leg2TxHash    *string    `gorm:"size:66" json:"leg2_tx_hash,omitempty"`
	FailureReason string     `gorm:"size:255" json:"failure_reason,omitempty"`
	SweptAt       *time.Time `json:"swept_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Entry LedgerEntry `gorm:"foreignKey:EntryID" json:"entry"`
}

func (Position) TableName() string {
	return "positions"
}
