package models

import (
	"time"

	"gorm.io/gorm"
)

// CustodialWallet is a chain address whose private key the platform holds.
// The key is stored encrypted at rest and decrypted only for a single signing
// operation. Ownership is exclusive: a wallet belongs to one user or one vault,
// or is a shared operational wallet (HOT/TRADING/OPERATIONS).
type CustodialWallet struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Address      string         `gorm:"size:42;uniqueIndex;not null" json:"address"`
	EncryptedKey []byte         `gorm:"type:varbinary(512);not null" json:"-"`
	Purpose      string         `gorm:"size:20;not null;index" json:"purpose"`
	UserID       *uint          `gorm:"uniqueIndex" json:"user_id,omitempty"`
	VaultID      *uint          `gorm:"index" json:"vault_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CustodialWallet) TableName() string {
	return "custodial_wallets"
}
