package repositories

import (
	"context"
	"time"

	"swapledger/internal/models"
)

// LedgerRepository is the wallet aggregate plus the ledger store. Methods that
// lock rows only make sense on the repository handed to ExecuteInTransaction.
type LedgerRepository interface {
	// Transactions
	ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error

	// Wallet aggregate
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	GetOrCreateWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	LockWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	SaveWallet(ctx context.Context, wallet *models.Wallet) error

	// Ledger entries
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	SaveEntry(ctx context.Context, entry *models.LedgerEntry) error
	LockEntry(ctx context.Context, id uint) (*models.LedgerEntry, error)
	LockSpendableEntries(ctx context.Context, userID uint, now time.Time) ([]*models.LedgerEntry, error)
	FindExpiredDeposits(ctx context.Context, now time.Time, afterID uint, limit int) ([]*models.LedgerEntry, error)
	ListEntries(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, int64, error)

	// Aggregates
	SumActive(ctx context.Context, userID uint) (int64, error)
	SumExpiringBetween(ctx context.Context, userID uint, from, to time.Time) (int64, error)
	SumByReference(ctx context.Context, userID uint, kind models.EntryKind, reference string) (int64, error)
}
