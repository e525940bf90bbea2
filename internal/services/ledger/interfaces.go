package ledger

import (
	"context"

	"swapledger/internal/models"
)

// Service defines the credit ledger operations
type Service interface {
	// Writes
	Deposit(ctx context.Context, in DepositInput) (*Receipt, error)
	Spend(ctx context.Context, in SpendInput) (*Receipt, error)
	Refund(ctx context.Context, in RefundInput) (*Receipt, error)
	Transfer(ctx context.Context, in TransferInput) (*TransferReceipt, error)
	Adjust(ctx context.Context, in AdjustInput) (*Receipt, error)

	// Batch jobs
	Expire(ctx context.Context) (*ExpireReport, error)

	// Reads
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	ListEntries(ctx context.Context, userID uint, limit, offset int) (*EntryPage, error)
	Reconcile(ctx context.Context, userID uint) (*ReconcileReport, error)
}
