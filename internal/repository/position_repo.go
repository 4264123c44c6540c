package repository

import (
	"fmt"
	"time"

	"poolvault/internal/domain"
	"poolvault/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// PendingSweeps returns active positions whose ledger entry still awaits
// consolidation, oldest first.
func (r *PositionRepository) PendingSweeps() ([]models.Position, error) {
	var positions []models.Position
	err := r.db.Preload("Entry").
		Joins("JOIN ledger_entries ON ledger_entries.id = positions.entry_id").
		Where("positions.status = ? AND ledger_entries.status = ?", domain.PositionActive, domain.StatusPendingSweep).
		Order("positions.created_at ASC").
		Find(&positions).Error
	return positions, err
}

// SweepFailed returns positions needing operator attention.
func (r *PositionRepository) SweepFailed() ([]models.Position, error) {
	var positions []models.Position
	err := r.db.Preload("Entry").
		Where("status = ?", domain.PositionSweepFailed).
		Order("updated_at DESC").
		Find(&positions).Error
	return positions, err
}

// StampLeg1 records the first-leg transaction hash as soon as it is
// broadcast, before any confirmation wait, so the hash survives a crash.
func (r *PositionRepository) StampLeg1(positionID uint, txHash string) error {
	return r.db.Model(&models.Position{}).Where("id = ?", positionID).
		Update("leg1_tx_hash", txHash).Error
}

// MarkSwept finalizes a fully confirmed sweep: the ledger entry moves to
// SWEPT and the position is closed, in one transaction.
func (r *PositionRepository) MarkSwept(positionID uint, leg2TxHash string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var pos models.Position
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&pos, positionID).Error; err != nil {
			return err
		}
		var entry models.LedgerEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, pos.EntryID).Error; err != nil {
			return err
		}
		if !domain.CanTransition(entry.EntryType, entry.Status, domain.StatusSwept) {
			return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, entry.EntryType, entry.Status, domain.StatusSwept)
		}
		if err := tx.Model(&entry).Update("status", domain.StatusSwept).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&pos).Updates(map[string]interface{}{
			"status":       domain.PositionSwept,
			"leg2_tx_hash": leg2TxHash,
			"swept_at":     now,
		}).Error
	})
}

// MarkSweepFailed flags the position for operator attention. The ledger entry
// is left untouched (still PENDING_SWEEP) until an operator resolves it.
func (r *PositionRepository) MarkSweepFailed(positionID uint, reason string) error {
	return r.db.Model(&models.Position{}).Where("id = ?", positionID).
		Updates(map[string]interface{}{
			"status":         domain.PositionSweepFailed,
			"failure_reason": reason,
		}).Error
}
