package ledger

import "time"

// Default configuration values
const (
	DefaultExpirationMonths = 6
	DefaultWarningWindow    = 30 * 24 * time.Hour
	DefaultExpireBatchSize  = 100
	DefaultPageSize         = 50
	MaxPageSize             = 500
)

// Operation names used for metrics and logs.
const (
	OpDeposit   = "deposit"
	OpSpend     = "spend"
	OpRefund    = "refund"
	OpTransfer  = "transfer"
	OpAdjust    = "adjust"
	OpExpire    = "expire"
	OpReconcile = "reconcile"
)

// Metadata keys written on ledger entries.
const (
	MetaProvenance   = "provenance"
	MetaReason       = "reason"
	MetaActor        = "actor"
	MetaDraws        = "draws"
	MetaTransferID   = "transfer_id"
	MetaCounterparty = "counterparty_user_id"
	MetaDirection    = "direction"
	MetaExpiredEntry = "expired_entry_id"
)
