package ledger

import (
	"context"
	"errors"
	"time"

	apperrors "swapledger/internal/errors"
	"swapledger/internal/models"
	"swapledger/internal/repositories"
	"swapledger/internal/services/audit"

	"go.uber.org/zap"
)

// Expire sweeps deposits whose expiry has passed. Each deposit is expired in
// its own transaction so one bad row neither blocks nor rolls back the rest;
// failures are counted and the sweep moves on. Entries already expired are
// never selected again, so the job can be re-run or resumed at any time.
func (s *service) Expire(ctx context.Context) (*ExpireReport, error) {
	started := s.clock.Now()
	now := s.now()
	report := &ExpireReport{}

	var afterID uint
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		batch, err := s.repo.FindExpiredDeposits(ctx, now, afterID, s.config.ExpireBatchSize)
		if err != nil {
			return report, s.fail(OpExpire, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, candidate := range batch {
			afterID = candidate.ID
			report.Scanned++

			credits, expired, err := s.expireEntry(ctx, candidate.UserID, candidate.ID, now)
			if err != nil {
				report.Failed++
				s.metrics.RecordError(OpExpire, errorCode(err))
				s.logger.Error("failed to expire deposit",
					zap.Uint("entry_id", candidate.ID),
					zap.Uint("user_id", candidate.UserID),
					zap.Error(err),
				)
				continue
			}
			if !expired {
				continue
			}

			report.Expired++
			report.Credits += credits
			if err := s.cache.InvalidateWallet(ctx, candidate.UserID); err != nil {
				s.logger.Warn("wallet cache invalidation failed", zap.Uint("user_id", candidate.UserID), zap.Error(err))
			}
			s.auditor.Record(ctx, audit.Event{
				Action: audit.ActionExpire,
				Details: map[string]interface{}{
					"user_id":  candidate.UserID,
					"entry_id": candidate.ID,
					"credits":  credits,
				},
			})
		}

		if len(batch) < s.config.ExpireBatchSize {
			break
		}
	}

	s.metrics.RecordOperationDuration(OpExpire, s.clock.Since(started))
	s.metrics.RecordOperationResult(OpExpire, "success")
	s.metrics.RecordCredits(OpExpire, report.Credits)
	s.logger.Info("expiration sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("expired", report.Expired),
		zap.Int64("credits", report.Credits),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// expireEntry expires one deposit under the owner's wallet lock. It reports
// expired=false when the entry was consumed or expired by someone else since
// the scan.
func (s *service) expireEntry(ctx context.Context, userID, entryID uint, now time.Time) (int64, bool, error) {
	var credits int64
	var expired bool

	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		// Wallet before entry, the same order Spend takes its locks in.
		wallet, err := tx.LockWallet(ctx, userID)
		if err != nil {
			return err
		}
		entry, err := tx.LockEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != models.EntryActive || !entry.IsExpiredAt(now) {
			return nil
		}

		remaining := entry.Amount
		entry.Status = models.EntryExpired
		if err := tx.SaveEntry(ctx, entry); err != nil {
			return err
		}

		if remaining > 0 {
			if err := wallet.ApplyDelta(models.DeltaExpire, remaining, now); err != nil {
				if errors.Is(err, models.ErrNegativeBalance) {
					s.metrics.RecordInconsistency(userID)
					return apperrors.ErrLedgerInconsistency.WithMessage(
						"expiring entry %d would overdraw wallet of user %d", entryID, userID)
				}
				return err
			}
		}

		record := &models.LedgerEntry{
			UserID:         userID,
			Kind:           models.EntryExpiration,
			Amount:         -remaining,
			OriginalAmount: -remaining,
			BalanceAfter:   wallet.TotalBalance,
			Status:         models.EntryExpired,
			Reference:      entry.Reference,
			SourceEntryIDs: []int64{int64(entry.ID)},
			Metadata:       models.JSON{MetaExpiredEntry: entry.ID},
		}
		if err := tx.CreateEntry(ctx, record); err != nil {
			return err
		}
		if err := s.saveWallet(ctx, tx, wallet, now); err != nil {
			return err
		}

		credits = remaining
		expired = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return credits, expired, nil
}

func errorCode(err error) string {
	if de, ok := apperrors.AsDomain(err); ok {
		return de.Code
	}
	return "internal"
}
