package domain

import "testing"

func TestValidEntryType(t *testing.T) {
	for _, typ := range []string{
		EntryTypeDeposit, EntryTypeWithdrawalRequest, EntryTypeVaultTransferIn,
		EntryTypeVaultTransferOut, EntryTypeTransferFundsHeld,
		EntryTypePnlDistribution, EntryTypePerformanceFee, EntryTypeDepositBuyback,
	} {
		if !ValidEntryType(typ) {
			t.Errorf("ValidEntryType(%q) = false", typ)
		}
	}
	for _, typ := range []string{"", "deposit", "REFUND", "DEPOSIT "} {
		if ValidEntryType(typ) {
			t.Errorf("ValidEntryType(%q) = true", typ)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ typ, from, to string }{
		{EntryTypeDeposit, StatusPendingSweep, StatusActiveInPool},
		{EntryTypeDeposit, StatusPendingSweep, StatusSwept},
		{EntryTypeDeposit, StatusActiveInPool, StatusSwept},
		{EntryTypeWithdrawalRequest, StatusPending, StatusApproved},
		{EntryTypeWithdrawalRequest, StatusApproved, StatusPendingFunding},
		{EntryTypeWithdrawalRequest, StatusSweepConfirmed, StatusCompleted},
		{EntryTypeWithdrawalRequest, StatusPendingFunding, StatusFailed},
		{EntryTypeTransferFundsHeld, StatusHeld, StatusCompleted},
		{EntryTypeTransferFundsHeld, StatusHeld, StatusReversed},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.typ, tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s, %s) = false", tc.typ, tc.from, tc.to)
		}
	}

	denied := []struct{ typ, from, to string }{
		// backward moves
		{EntryTypeDeposit, StatusSwept, StatusPendingSweep},
		{EntryTypeDeposit, StatusActiveInPool, StatusPendingSweep},
		{EntryTypeWithdrawalRequest, StatusApproved, StatusPending},
		// terminal statuses have no outgoing edges
		{EntryTypeDeposit, StatusSwept, StatusActiveInPool},
		{EntryTypeWithdrawalRequest, StatusCompleted, StatusFailed},
		{EntryTypeWithdrawalRequest, StatusFailed, StatusPending},
		{EntryTypeTransferFundsHeld, StatusCompleted, StatusReversed},
		// lifecycle-free types never transition
		{EntryTypePnlDistribution, StatusCompleted, StatusFailed},
		{EntryTypeVaultTransferIn, StatusCompleted, StatusReversed},
	}
	for _, tc := range denied {
		if CanTransition(tc.typ, tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s, %s) = true", tc.typ, tc.from, tc.to)
		}
	}
}

func TestValidInsertStatus(t *testing.T) {
	if !ValidInsertStatus(EntryTypeDeposit, StatusPendingSweep) {
		t.Error("deposits must be insertable as PENDING_SWEEP")
	}
	if !ValidInsertStatus(EntryTypeTransferFundsHeld, StatusHeld) {
		t.Error("holds must be insertable as HELD")
	}
	if ValidInsertStatus(EntryTypeDeposit, StatusSwept) {
		t.Error("a deposit must not be born already swept")
	}
	if ValidInsertStatus(EntryTypeWithdrawalRequest, StatusCompleted) {
		t.Error("a withdrawal request must not be born completed")
	}
}
