package ledger

import (
	"context"
	"time"

	"swapledger/internal/models"
	"swapledger/internal/services/audit"
)

// Config holds configuration for ledger operations
type Config struct {
	// ExpirationMonths is how long deposited credit stays spendable unless the
	// credit_expiration_months setting overrides it.
	ExpirationMonths int
	// WarningWindow sizes the wallet's pending_expiration figure.
	WarningWindow time.Duration
	// BoundRefundsToSpend rejects refunds that would return more than was spent
	// against the same reference.
	BoundRefundsToSpend bool
	ExpireBatchSize     int
}

type DepositInput struct {
	UserID     uint                   `json:"user_id" validate:"required"`
	Credits    int64                  `json:"credits" validate:"gt=0,max=1000000000000"`
	Provenance string                 `json:"provenance" validate:"max=100"`
	Reference  string                 `json:"reference" validate:"max=100"`
	Metadata   map[string]interface{} `json:"metadata"`
	Actor      string                 `json:"-"`
}

type SpendInput struct {
	UserID    uint                   `json:"user_id" validate:"required"`
	Amount    int64                  `json:"amount" validate:"gt=0,max=1000000000000"`
	Reference string                 `json:"reference" validate:"max=100"`
	Metadata  map[string]interface{} `json:"metadata"`
	Actor     string                 `json:"-"`
}

type RefundInput struct {
	UserID    uint   `json:"user_id" validate:"required"`
	Amount    int64  `json:"amount" validate:"gt=0,max=1000000000000"`
	Reference string `json:"reference" validate:"max=100"`
	Reason    string `json:"reason" validate:"max=500"`
	Actor     string `json:"-"`
}

type TransferInput struct {
	FromUserID uint   `json:"from_user_id" validate:"required"`
	ToUserID   uint   `json:"to_user_id" validate:"required,nefield=FromUserID"`
	Amount     int64  `json:"amount" validate:"gt=0,max=1000000000000"`
	Reason     string `json:"reason" validate:"max=500"`
	Actor      string `json:"-"`
}

type AdjustInput struct {
	UserID uint   `json:"user_id" validate:"required"`
	Amount int64  `json:"amount" validate:"ne=0,min=-1000000000000,max=1000000000000"`
	Reason string `json:"reason" validate:"required,max=500"`
	Actor  string `json:"-"`
}

// Receipt is the committed state of a single-wallet write.
type Receipt struct {
	Wallet models.Wallet      `json:"wallet"`
	Entry  models.LedgerEntry `json:"entry"`
}

type TransferReceipt struct {
	TransferID string  `json:"transfer_id"`
	From       Receipt `json:"from"`
	To         Receipt `json:"to"`
}

// Draw records how much a debit took from one credit entry.
type Draw struct {
	EntryID uint  `json:"entry_id"`
	Amount  int64 `json:"amount"`
}

type ExpireReport struct {
	Scanned int   `json:"scanned"`
	Expired int   `json:"expired"`
	Credits int64 `json:"credits"`
	Failed  int   `json:"failed"`
}

type ReconcileReport struct {
	UserID     uint  `json:"user_id"`
	Balance    int64 `json:"balance"`
	ActiveSum  int64 `json:"active_sum"`
	Consistent bool  `json:"consistent"`
}

type EntryPage struct {
	Entries []models.LedgerEntry `json:"entries"`
	Total   int64                `json:"total"`
}

// WalletCache is the read-through cache in front of wallet summaries.
// GetWallet also returns the user's invalidation generation; CacheWallet
// drops the write when an invalidation happened after that generation.
type WalletCache interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, int64, error)
	CacheWallet(ctx context.Context, wallet *models.Wallet, generation int64) error
	InvalidateWallet(ctx context.Context, userID uint) error
}

// SettingsReader resolves runtime settings such as the expiration period.
type SettingsReader interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
}

// Auditor receives an event after every committed write.
type Auditor interface {
	Record(ctx context.Context, event audit.Event)
}

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	// Operation metrics
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordCredits(operation string, amount int64)

	// Cache metrics
	RecordCacheHit(key string)
	RecordCacheMiss(key string)

	// Error metrics
	RecordError(operation, errType string)
	RecordInconsistency(userID uint)
}
