package repository

import (
	"errors"

	"poolvault/internal/models"

	"gorm.io/gorm"
)

var ErrDuplicateDeposit = errors.New("deposit already credited for transaction hash")

type DepositRepository struct {
	db *gorm.DB
}

func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

func (r *DepositRepository) ExistsByTxHash(txHash string) (bool, error) {
	var count int64
	err := r.db.Model(&models.DepositRecord{}).Where("tx_hash = ?", txHash).Count(&count).Error
	return count > 0, err
}

// Credit applies one on-chain deposit as a single atomic step: the
// DepositRecord, the DEPOSIT ledger entry, the sweep position and the user's
// available-balance increment all commit together or not at all. The unique
// index on tx_hash turns a concurrent double-credit into ErrDuplicateDeposit.
func (r *DepositRepository) Credit(rec *models.DepositRecord, entry *models.LedgerEntry, pos *models.Position) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.DepositRecord{}).Where("tx_hash = ?", rec.TxHash).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateDeposit
		}
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		pos.EntryID = entry.ID
		if err := tx.Create(pos).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", rec.UserID).
			Update("available_balance", gorm.Expr("available_balance + ?", entry.Amount)).Error
	})
}
