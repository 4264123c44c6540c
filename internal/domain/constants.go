package domain

// Ledger entry types. Every module inserting entries must use one of these.
const (
	EntryTypeDeposit           = "DEPOSIT"
	EntryTypeWithdrawalRequest = "WITHDRAWAL_REQUEST"
	EntryTypeVaultTransferIn   = "VAULT_TRANSFER_IN"
	EntryTypeVaultTransferOut  = "VAULT_TRANSFER_OUT"
	EntryTypeTransferFundsHeld = "TRANSFER_FUNDS_HELD"
	EntryTypePnlDistribution   = "PNL_DISTRIBUTION"
	EntryTypePerformanceFee    = "PERFORMANCE_FEE"
	EntryTypeDepositBuyback    = "DEPOSIT_BUYBACK"
)

// Ledger entry statuses.
const (
	StatusPendingSweep        = "PENDING_SWEEP"
	StatusActiveInPool        = "ACTIVE_IN_POOL"
	StatusSwept               = "SWEPT"
	StatusPending             = "PENDING"
	StatusPendingApproval     = "PENDING_APPROVAL"
	StatusApproved            = "APPROVED"
	StatusPendingFunding      = "PENDING_FUNDING"
	StatusPendingConfirmation = "PENDING_CONFIRMATION"
	StatusSweepConfirmed      = "SWEEP_CONFIRMED"
	StatusCompleted           = "COMPLETED"
	StatusFailed              = "FAILED"
	StatusHeld                = "HELD"
	StatusReversed            = "REVERSED"
)

// Position statuses. A failed sweep marks the position, never the entry.
const (
	PositionActive      = "ACTIVE"
	PositionSwept       = "SWEPT"
	PositionSweepFailed = "SWEEP_FAILED"
)

// Withdrawal queue item statuses.
const (
	QueueStatusQueued     = "queued"
	QueueStatusProcessing = "processing"
)

// Withdrawal record statuses.
const (
	WithdrawalPending   = "PENDING"
	WithdrawalCompleted = "COMPLETED"
	WithdrawalFailed    = "FAILED"
)

// Custodial wallet purposes.
const (
	WalletPurposeUser       = "USER"
	WalletPurposeVault      = "VAULT"
	WalletPurposeHot        = "HOT"
	WalletPurposeTrading    = "TRADING"
	WalletPurposeOperations = "OPERATIONS"
)

// Operator roles for the ops API.
const (
	RoleOperator = "OPERATOR"
	RoleAdmin    = "ADMIN"
)
