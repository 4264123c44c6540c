package service

import (
	"testing"

	"poolvault/internal/domain"
	"poolvault/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeLedgerStore struct {
	entries     []*models.LedgerEntry
	balances    map[[2]uint]decimal.Decimal
	transitions []struct {
		entryID uint
		to      string
	}
	holds     []*models.LedgerEntry
	finalized [][2]uint // holdID, toVault
	reversed  []uint
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{balances: make(map[[2]uint]decimal.Decimal)}
}

func (f *fakeLedgerStore) InsertEntry(e *models.LedgerEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeLedgerStore) TransitionStatus(entryID uint, to string) error {
	f.transitions = append(f.transitions, struct {
		entryID uint
		to      string
	}{entryID, to})
	return nil
}

func (f *fakeLedgerStore) SumEntries(userID, vaultID uint) (decimal.Decimal, error) {
	return f.balances[[2]uint{userID, vaultID}], nil
}

func (f *fakeLedgerStore) EntriesByUser(uint, int) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (f *fakeLedgerStore) HoldVaultTransfer(userID, fromVault uint, amount decimal.Decimal) (*models.LedgerEntry, error) {
	hold := &models.LedgerEntry{
		UserID:    userID,
		VaultID:   fromVault,
		EntryType: domain.EntryTypeTransferFundsHeld,
		Amount:    amount.Neg(),
		Status:    domain.StatusHeld,
	}
	f.holds = append(f.holds, hold)
	return hold, nil
}

func (f *fakeLedgerStore) FinalizeVaultTransfer(holdID, toVault uint) error {
	f.finalized = append(f.finalized, [2]uint{holdID, toVault})
	return nil
}

func (f *fakeLedgerStore) ReverseVaultTransfer(holdID uint) error {
	f.reversed = append(f.reversed, holdID)
	return nil
}

func TestInsertEntryPublishesEvent(t *testing.T) {
	store := newFakeLedgerStore()
	pub := &fakePublisher{}
	svc := NewLedgerService(store, pub)

	entry := &models.LedgerEntry{
		UserID:    7,
		VaultID:   1,
		EntryType: domain.EntryTypePnlDistribution,
		Amount:    decimal.RequireFromString("12.5"),
		Status:    domain.StatusCompleted,
	}
	require.NoError(t, svc.InsertEntry(entry))
	require.Len(t, store.entries, 1)
	require.Len(t, pub.byType("entry_created"), 1)
}

func TestRequestVaultTransferChecksBalance(t *testing.T) {
	store := newFakeLedgerStore()
	store.balances[[2]uint{7, 1}] = decimal.RequireFromString("50")
	svc := NewLedgerService(store, &fakePublisher{})

	t.Run("sufficient balance places a negative hold", func(t *testing.T) {
		hold, err := svc.RequestVaultTransfer(7, 1, decimal.RequireFromString("30"))
		require.NoError(t, err)
		require.True(t, hold.Amount.Equal(decimal.RequireFromString("-30")))
		require.Equal(t, domain.StatusHeld, hold.Status)
	})

	t.Run("insufficient balance is rejected", func(t *testing.T) {
		_, err := svc.RequestVaultTransfer(7, 1, decimal.RequireFromString("60"))
		require.Error(t, err)
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		_, err := svc.RequestVaultTransfer(7, 1, decimal.Zero)
		require.ErrorIs(t, err, ErrNonPositiveAmount)
	})
}

func TestVaultTransferLifecycle(t *testing.T) {
	store := newFakeLedgerStore()
	svc := NewLedgerService(store, &fakePublisher{})

	require.NoError(t, svc.FinalizeVaultTransfer(42, 3))
	require.Equal(t, [2]uint{42, 3}, store.finalized[0])

	require.NoError(t, svc.RejectVaultTransfer(43))
	require.Equal(t, uint(43), store.reversed[0])
}

func TestActivateDeposit(t *testing.T) {
	store := newFakeLedgerStore()
	svc := NewLedgerService(store, &fakePublisher{})

	require.NoError(t, svc.ActivateDeposit(11))
	require.Len(t, store.transitions, 1)
	require.Equal(t, domain.StatusActiveInPool, store.transitions[0].to)
}
