package repository

import (
	"errors"
	"fmt"

	"poolvault/internal/domain"
	"poolvault/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidEntryType  = errors.New("invalid ledger entry type")
	ErrInvalidStatus     = errors.New("invalid status for entry type")
	ErrInvalidTransition = errors.New("invalid ledger status transition")
)

// LedgerRepository is the single write path for ledger entries. It enforces
// the entry-type enumeration and the status state machine centrally so the
// invariants are checked once, not at every call site.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// InsertEntry appends a new ledger entry after validating its type and status
// against the enumerated set.
func (r *LedgerRepository) InsertEntry(e *models.LedgerEntry) error {
	if !domain.ValidEntryType(e.EntryType) {
		return fmt.Errorf("%w: %s", ErrInvalidEntryType, e.EntryType)
	}
	if !domain.ValidInsertStatus(e.EntryType, e.Status) {
		return fmt.Errorf("%w: %s/%s", ErrInvalidStatus, e.EntryType, e.Status)
	}
	return r.db.Create(e).Error
}

// TransitionStatus advances an entry's status under a row lock. Transitions
// are monotonic; anything not allowed by the state machine is rejected.
func (r *LedgerRepository) TransitionStatus(entryID uint, to string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var e models.LedgerEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&e, entryID).Error; err != nil {
			return err
		}
		if !domain.CanTransition(e.EntryType, e.Status, to) {
			return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, e.EntryType, e.Status, to)
		}
		return tx.Model(&e).Update("status", to).Error
	})
}

// SumEntries returns the signed sum of a user's entries for a vault, i.e.
// their current capital in that vault.
func (r *LedgerRepository) SumEntries(userID, vaultID uint) (decimal.Decimal, error) {
	var out decimal.Decimal
	err := r.db.Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND vault_id = ?", userID, vaultID).
		Scan(&out).Error
	return out, err
}

func (r *LedgerRepository) EntriesByUser(userID uint, limit int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&entries).Error
	return entries, err
}

// HoldVaultTransfer records a negative hold against the source vault at
// transfer request time.
func (r *LedgerRepository) HoldVaultTransfer(userID, fromVault uint, amount decimal.Decimal) (*models.LedgerEntry, error) {
	hold := &models.LedgerEntry{
		UserID:    userID,
		VaultID:   fromVault,
		EntryType: domain.EntryTypeTransferFundsHeld,
		Amount:    amount.Neg(),
		Status:    domain.StatusHeld,
	}
	if err := r.InsertEntry(hold); err != nil {
		return nil, err
	}
	return hold, nil
}

// FinalizeVaultTransfer completes a held transfer: the hold becomes a
// VAULT_TRANSFER_OUT and the destination vault is credited with a
// VAULT_TRANSFER_IN, in one atomic transaction.
func (r *LedgerRepository) FinalizeVaultTransfer(holdID, toVault uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var hold models.LedgerEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&hold, holdID).Error; err != nil {
			return err
		}
		if !domain.CanTransition(hold.EntryType, hold.Status, domain.StatusCompleted) {
			return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, hold.EntryType, hold.Status, domain.StatusCompleted)
		}
		if err := tx.Model(&hold).Updates(map[string]interface{}{
			"entry_type": domain.EntryTypeVaultTransferOut,
			"status":     domain.StatusCompleted,
		}).Error; err != nil {
			return err
		}
		in := &models.LedgerEntry{
			UserID:    hold.UserID,
			VaultID:   toVault,
			EntryType: domain.EntryTypeVaultTransferIn,
			Amount:    hold.Amount.Neg(),
			Status:    domain.StatusCompleted,
		}
		return tx.Create(in).Error
	})
}

// ReverseVaultTransfer rejects a held transfer. The hold is marked REVERSED
// and an offsetting entry restores the source vault; historical amounts are
// never edited.
func (r *LedgerRepository) ReverseVaultTransfer(holdID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var hold models.LedgerEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&hold, holdID).Error; err != nil {
			return err
		}
		if !domain.CanTransition(hold.EntryType, hold.Status, domain.StatusReversed) {
			return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, hold.EntryType, hold.Status, domain.StatusReversed)
		}
		if err := tx.Model(&hold).Update("status", domain.StatusReversed).Error; err != nil {
			return err
		}
		offset := &models.LedgerEntry{
			UserID:    hold.UserID,
			VaultID:   hold.VaultID,
			EntryType: domain.EntryTypeTransferFundsHeld,
			Amount:    hold.Amount.Neg(),
			Status:    domain.StatusCompleted,
		}
		return tx.Create(offset).Error
	})
}
