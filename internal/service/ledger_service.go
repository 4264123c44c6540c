package service

import (
	"errors"
	"log"

	"poolvault/internal/domain"
	"poolvault/internal/events"
	"poolvault/internal/models"

	"github.com/shopspring/decimal"
)

var ErrNonPositiveAmount = errors.New("amount must be positive")

// LedgerStore is the typed ledger access contract. All invariants (type
// enumeration, monotonic transitions, append-only amounts) are enforced by
// the implementation, once, behind this interface.
type LedgerStore interface {
	InsertEntry(e *models.LedgerEntry) error
	TransitionStatus(entryID uint, to string) error
	SumEntries(userID, vaultID uint) (decimal.Decimal, error)
	EntriesByUser(userID uint, limit int) ([]models.LedgerEntry, error)
	HoldVaultTransfer(userID, fromVault uint, amount decimal.Decimal) (*models.LedgerEntry, error)
	FinalizeVaultTransfer(holdID, toVault uint) error
	ReverseVaultTransfer(holdID uint) error
}

// LedgerService is the surface exposed to collaborating modules: ledger reads
// for reporting/admin, and entry insertion for the fee/PNL/reward modules.
type LedgerService struct {
	store LedgerStore
	pub   events.Publisher
}

func NewLedgerService(store LedgerStore, pub events.Publisher) *LedgerService {
	return &LedgerService{store: store, pub: pub}
}

// InsertEntry appends an entry on behalf of an external module. Type and
// status must come from the enumerated set; the store rejects anything else.
func (s *LedgerService) InsertEntry(e *models.LedgerEntry) error {
	if err := s.store.InsertEntry(e); err != nil {
		return err
	}
	if err := s.pub.Publish(events.TypeEntryCreated, events.EntryCreated{
		EntryID:   e.ID,
		UserID:    e.UserID,
		VaultID:   e.VaultID,
		EntryType: e.EntryType,
		Amount:    e.Amount,
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
	}); err != nil {
		log.Printf("[ledger] publish event: %v", err)
	}
	return nil
}

// ActivateDeposit is the administrative activation moving a deposit into the
// trading pool without an on-chain sweep.
func (s *LedgerService) ActivateDeposit(entryID uint) error {
	return s.store.TransitionStatus(entryID, domain.StatusActiveInPool)
}

// Balance returns a user's current capital in a vault: the signed sum of
// their ledger entries.
func (s *LedgerService) Balance(userID, vaultID uint) (decimal.Decimal, error) {
	return s.store.SumEntries(userID, vaultID)
}

func (s *LedgerService) History(userID uint, limit int) ([]models.LedgerEntry, error) {
	return s.store.EntriesByUser(userID, limit)
}

// RequestVaultTransfer places a negative hold on the source vault. The hold
// stays until the transfer is finalized or rejected.
func (s *LedgerService) RequestVaultTransfer(userID, fromVault uint, amount decimal.Decimal) (*models.LedgerEntry, error) {
	if amount.Sign() <= 0 {
		return nil, ErrNonPositiveAmount
	}
	balance, err := s.store.SumEntries(userID, fromVault)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(amount) {
		return nil, errors.New("insufficient vault capital for transfer")
	}
	return s.store.HoldVaultTransfer(userID, fromVault, amount)
}

// FinalizeVaultTransfer completes a held transfer, crediting the destination
// vault in the same transaction that closes the hold.
func (s *LedgerService) FinalizeVaultTransfer(holdID, toVault uint) error {
	return s.store.FinalizeVaultTransfer(holdID, toVault)
}

// RejectVaultTransfer reverses a held transfer with an offsetting entry.
func (s *LedgerService) RejectVaultTransfer(holdID uint) error {
	return s.store.ReverseVaultTransfer(holdID)
}
