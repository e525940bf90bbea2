package ledger

import (
	"context"
	"time"

	apperrors "swapledger/internal/errors"
	"swapledger/internal/models"
	"swapledger/internal/repositories"

	"go.uber.org/zap"
)

// consume draws amount from the user's spendable entries, soonest expiry
// first, and persists every entry it touched. The wallet must be locked and
// known to cover amount.
func (s *service) consume(ctx context.Context, tx repositories.LedgerRepository, wallet *models.Wallet, amount int64, now time.Time) ([]Draw, error) {
	entries, err := tx.LockSpendableEntries(ctx, wallet.UserID, now)
	if err != nil {
		return nil, err
	}

	remaining := amount
	var draws []Draw
	for _, entry := range entries {
		if remaining == 0 {
			break
		}
		taken := entry.Consume(remaining)
		if taken == 0 {
			continue
		}
		if err := tx.SaveEntry(ctx, entry); err != nil {
			return nil, err
		}
		draws = append(draws, Draw{EntryID: entry.ID, Amount: taken})
		remaining -= taken
	}

	if remaining > 0 {
		return nil, s.shortfall(ctx, tx, wallet, amount, amount-remaining)
	}
	return draws, nil
}

// shortfall explains why spendable credit could not cover a debit the
// balance appeared to allow. Credit that has expired but not yet been swept
// still counts toward the balance; that case is an ordinary shortage. Any
// other gap means the wallet and the ledger disagree. available has already
// been drawn from the active entries in this transaction.
func (s *service) shortfall(ctx context.Context, tx repositories.LedgerRepository, wallet *models.Wallet, wanted, available int64) error {
	active, err := tx.SumActive(ctx, wallet.UserID)
	if err != nil {
		return err
	}
	active += available
	if active == wallet.TotalBalance {
		return apperrors.ErrInsufficientCredits.WithMessage(
			"insufficient credits: %d spendable, %d required", available, wanted)
	}

	s.metrics.RecordInconsistency(wallet.UserID)
	s.logger.Error("spendable credit does not match wallet balance",
		zap.Uint("user_id", wallet.UserID),
		zap.Int64("balance", wallet.TotalBalance),
		zap.Int64("active_sum", active),
		zap.Int64("spendable", available),
		zap.Int64("required", wanted),
	)
	return apperrors.ErrLedgerInconsistency
}

func ensureCovers(wallet *models.Wallet, amount int64) error {
	if wallet.TotalBalance < amount {
		return apperrors.ErrInsufficientCredits.WithMessage(
			"insufficient credits: balance %d, required %d", wallet.TotalBalance, amount)
	}
	return nil
}

// saveWallet refreshes pending_expiration and writes the wallet. Entries
// created or changed in the transaction must already be saved.
func (s *service) saveWallet(ctx context.Context, tx repositories.LedgerRepository, wallet *models.Wallet, now time.Time) error {
	pending, err := tx.SumExpiringBetween(ctx, wallet.UserID, now, now.Add(s.config.WarningWindow))
	if err != nil {
		return err
	}
	wallet.PendingExpiration = pending
	return tx.SaveWallet(ctx, wallet)
}

// debitEntry builds the terminal entry recording a debit of amount.
func debitEntry(wallet *models.Wallet, kind models.EntryKind, status models.EntryStatus, amount int64, reference string, draws []Draw, meta models.JSON) *models.LedgerEntry {
	sources := make([]int64, len(draws))
	drawMeta := make([]map[string]interface{}, len(draws))
	for i, d := range draws {
		sources[i] = int64(d.EntryID)
		drawMeta[i] = map[string]interface{}{"entry_id": d.EntryID, "amount": d.Amount}
	}
	if meta == nil {
		meta = models.JSON{}
	}
	if len(draws) > 0 {
		meta[MetaDraws] = drawMeta
	}

	return &models.LedgerEntry{
		UserID:         wallet.UserID,
		Kind:           kind,
		Amount:         -amount,
		OriginalAmount: -amount,
		BalanceAfter:   wallet.TotalBalance,
		Status:         status,
		Reference:      reference,
		SourceEntryIDs: sources,
		Metadata:       meta,
	}
}

// creditEntry builds an ACTIVE entry carrying amount of spendable credit.
func creditEntry(wallet *models.Wallet, kind models.EntryKind, amount int64, expiresAt *time.Time, reference string, meta models.JSON) *models.LedgerEntry {
	return &models.LedgerEntry{
		UserID:         wallet.UserID,
		Kind:           kind,
		Amount:         amount,
		OriginalAmount: amount,
		BalanceAfter:   wallet.TotalBalance,
		Status:         models.EntryActive,
		ExpiresAt:      expiresAt,
		Reference:      reference,
		Metadata:       meta,
	}
}

func withActor(meta models.JSON, actor string) models.JSON {
	if actor == "" {
		return meta
	}
	if meta == nil {
		meta = models.JSON{}
	}
	meta[MetaActor] = actor
	return meta
}
