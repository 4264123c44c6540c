package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Email            string          `gorm:"size:255;uniqueIndex;not null" json:"email"`
	AvailableBalance decimal.Decimal `gorm:"type:decimal(38,18);not null;default:0" json:"available_balance"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
