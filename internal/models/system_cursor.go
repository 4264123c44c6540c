package models

import (
	"time"
)

// SystemCursor persists the last fully processed block per scanner. It only
// moves forward, and only after a scan range has been fully processed, giving
// at-least-once scanning that DepositRecord uniqueness upgrades to
// effectively-once crediting.
type SystemCursor struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	BlockNumber uint64    `gorm:"not null" json:"block_number"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (SystemCursor) TableName() string {
	return "system_cursors"
}
