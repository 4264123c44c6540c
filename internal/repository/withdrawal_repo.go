package repository

import (
	"errors"
	"time"

	"poolvault/internal/domain"
	"poolvault/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientBalance = errors.New("insufficient available balance")

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Enqueue creates a queue item for a payout request, debiting nothing yet.
func (r *WithdrawalRepository) Enqueue(item *models.WithdrawalQueueItem) error {
	item.Status = domain.QueueStatusQueued
	return r.db.Create(item).Error
}

// Dequeue atomically claims the single oldest queued item, marking it
// processing under a row lock. Returns (nil, nil) when the queue is empty.
func (r *WithdrawalRepository) Dequeue() (*models.WithdrawalQueueItem, error) {
	var item models.WithdrawalQueueItem
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ?", domain.QueueStatusQueued).
			Order("created_at ASC, id ASC").
			First(&item).Error
		if err != nil {
			return err
		}
		return tx.Model(&item).Update("status", domain.QueueStatusProcessing).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Requeue puts a processing item back in the queue, persisting any gas
// bookkeeping the processor updated.
func (r *WithdrawalRepository) Requeue(item *models.WithdrawalQueueItem) error {
	return r.db.Model(item).Updates(map[string]interface{}{
		"status":                domain.QueueStatusQueued,
		"gas_funded":            item.GasFunded,
		"last_gas_fund_attempt": item.LastGasFundAttempt,
		"retries":               item.Retries,
	}).Error
}

// StampBroadcast records the broadcast transaction hash on the queue item
// before settlement deletes it, so the crash window between broadcast and
// deletion can be reconciled by hash.
func (r *WithdrawalRepository) StampBroadcast(itemID uint, txHash string) error {
	return r.db.Model(&models.WithdrawalQueueItem{}).Where("id = ?", itemID).
		Update("broadcast_tx_hash", txHash).Error
}

// Settle finalizes a broadcast withdrawal: the permanent Withdrawal record,
// the balance debit and the queue item deletion commit atomically.
func (r *WithdrawalRepository) Settle(item *models.WithdrawalQueueItem, w *models.Withdrawal) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, item.UserID).Error; err != nil {
			return err
		}
		if user.AvailableBalance.LessThan(item.Amount) {
			return ErrInsufficientBalance
		}
		now := time.Now()
		w.CompletedAt = &now
		if err := tx.Create(w).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).
			Update("available_balance", gorm.Expr("available_balance - ?", item.Amount)).Error; err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
}
