/*
Package ledger implements the credit ledger: per-user wallets backed by a log
of ledger entries, with spending that always draws on the soonest-expiring
credit first.

Every write runs in one database transaction that starts by locking the
user's wallet row, so operations on the same user are totally ordered while
different users proceed in parallel. Transfers lock both wallets in ascending
user id order.

Usage:

	svc := ledger.NewService(repo, cache, settings, recorder, clock, logger, ledger.Config{}, metrics)

	// Credit a user for a deposited week
	receipt, err := svc.Deposit(ctx, ledger.DepositInput{UserID: 1, Credits: 1800, Provenance: "week-42"})

	// Pay for a booking
	receipt, err = svc.Spend(ctx, ledger.SpendInput{UserID: 1, Amount: 1200, Reference: "booking-7"})

	// Nightly sweep of expired deposits
	report, err := svc.Expire(ctx)

Error Handling:

Failures are returned as the DomainError sentinels of internal/errors and
never leave partial writes behind:
  - ErrValidation: malformed input, rejected before any transaction opens
  - ErrInsufficientCredits: the wallet cannot cover the debit
  - ErrLedgerInconsistency: the wallet and its entries disagree; never auto-repaired
  - ErrRefundExceedsSpend: refund bound enabled and exceeded

Ledger writes are not idempotent: retrying a call applies it twice.
*/
package ledger
