package domain

// entryTransitions is the per-type status machine. Transitions are monotonic;
// an entry never moves backward and terminal statuses have no outgoing edges.
var entryTransitions = map[string]map[string][]string{
	EntryTypeDeposit: {
		StatusPendingSweep: {StatusActiveInPool, StatusSwept},
		StatusActiveInPool: {StatusSwept},
	},
	EntryTypeWithdrawalRequest: {
		StatusPending:             {StatusPendingApproval, StatusApproved, StatusFailed},
		StatusPendingApproval:     {StatusApproved, StatusFailed},
		StatusApproved:            {StatusPendingFunding, StatusFailed},
		StatusPendingFunding:      {StatusPendingConfirmation, StatusFailed},
		StatusPendingConfirmation: {StatusSweepConfirmed, StatusFailed},
		StatusSweepConfirmed:      {StatusCompleted, StatusFailed},
	},
	EntryTypeTransferFundsHeld: {
		StatusHeld: {StatusCompleted, StatusReversed},
	},
}

// terminal statuses accepted at insertion for entry types without a lifecycle.
var insertStatuses = map[string]map[string]bool{
	EntryTypeDeposit:           {StatusPendingSweep: true, StatusActiveInPool: true},
	EntryTypeWithdrawalRequest: {StatusPending: true},
	EntryTypeVaultTransferIn:   {StatusCompleted: true},
	EntryTypeVaultTransferOut:  {StatusCompleted: true},
	EntryTypeTransferFundsHeld: {StatusHeld: true},
	EntryTypePnlDistribution:   {StatusCompleted: true},
	EntryTypePerformanceFee:    {StatusCompleted: true},
	EntryTypeDepositBuyback:    {StatusCompleted: true, StatusPendingSweep: true},
}

// ValidEntryType reports whether t is one of the enumerated ledger entry types.
func ValidEntryType(t string) bool {
	_, ok := insertStatuses[t]
	return ok
}

// ValidInsertStatus reports whether an entry of type t may be created with status s.
func ValidInsertStatus(t, s string) bool {
	return insertStatuses[t][s]
}

// CanTransition reports whether an entry of type t may move from status `from`
// to status `to`.
func CanTransition(t, from, to string) bool {
	for _, next := range entryTransitions[t][from] {
		if next == to {
			return true
		}
	}
	return false
}
