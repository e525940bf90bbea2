package ledger

import (
	"context"

	apperrors "swapledger/internal/errors"
	"swapledger/internal/models"
	"swapledger/internal/repositories"
	"swapledger/internal/services/audit"
	"swapledger/internal/validation"

	"github.com/oklog/ulid/v2"
)

func (s *service) Deposit(ctx context.Context, in DepositInput) (*Receipt, error) {
	if err := validation.Validate(in); err != nil {
		return nil, s.fail(OpDeposit, err)
	}

	started := s.clock.Now()
	now := s.now()
	expiresAt := now.AddDate(0, s.expirationMonths(ctx), 0)

	meta := models.NewJSON(in.Metadata)
	if in.Provenance != "" {
		if meta == nil {
			meta = models.JSON{}
		}
		meta[MetaProvenance] = in.Provenance
	}
	meta = withActor(meta, in.Actor)

	var receipt Receipt
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		wallet, err := tx.LockWallet(ctx, in.UserID)
		if err != nil {
			return err
		}
		if err := wallet.ApplyDelta(models.DeltaEarn, in.Credits, now); err != nil {
			return err
		}

		entry := creditEntry(wallet, models.EntryDeposit, in.Credits, &expiresAt, in.Reference, meta)
		if err := tx.CreateEntry(ctx, entry); err != nil {
			return err
		}
		if err := s.saveWallet(ctx, tx, wallet, now); err != nil {
			return err
		}

		receipt = Receipt{Wallet: *wallet, Entry: *entry}
		return nil
	})
	if err != nil {
		return nil, s.fail(OpDeposit, err)
	}

	s.committed(ctx, OpDeposit, started, in.Credits, audit.Event{
		Action: audit.ActionDeposit,
		Actor:  in.Actor,
		Details: map[string]interface{}{
			"user_id":    in.UserID,
			"credits":    in.Credits,
			"entry_id":   receipt.Entry.ID,
			"expires_at": expiresAt,
			"provenance": in.Provenance,
			"reference":  in.Reference,
		},
	}, in.UserID)
	return &receipt, nil
}

func (s *service) Spend(ctx context.Context, in SpendInput) (*Receipt, error) {
	if err := validation.Validate(in); err != nil {
		return nil, s.fail(OpSpend, err)
	}

	started := s.clock.Now()
	now := s.now()

	var receipt Receipt
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		wallet, err := tx.LockWallet(ctx, in.UserID)
		if err != nil {
			return err
		}
		if err := ensureCovers(wallet, in.Amount); err != nil {
			return err
		}

		draws, err := s.consume(ctx, tx, wallet, in.Amount, now)
		if err != nil {
			return err
		}
		if err := wallet.ApplyDelta(models.DeltaSpend, in.Amount, now); err != nil {
			return err
		}

		meta := withActor(models.NewJSON(in.Metadata), in.Actor)
		entry := debitEntry(wallet, models.EntrySpend, models.EntrySpent, in.Amount, in.Reference, draws, meta)
		if err := tx.CreateEntry(ctx, entry); err != nil {
			return err
		}
		if err := s.saveWallet(ctx, tx, wallet, now); err != nil {
			return err
		}

		receipt = Receipt{Wallet: *wallet, Entry: *entry}
		return nil
	})
	if err != nil {
		return nil, s.fail(OpSpend, err)
	}

	s.committed(ctx, OpSpend, started, in.Amount, audit.Event{
		Action: audit.ActionSpend,
		Actor:  in.Actor,
		Details: map[string]interface{}{
			"user_id":          in.UserID,
			"amount":           in.Amount,
			"entry_id":         receipt.Entry.ID,
			"reference":        in.Reference,
			"source_entry_ids": []int64(receipt.Entry.SourceEntryIDs),
		},
	}, in.UserID)
	return &receipt, nil
}

// Refund returns credit as a non-expiring entry. When refunds are bounded,
// the total refunded against a reference may not exceed what was spent
// against it.
func (s *service) Refund(ctx context.Context, in RefundInput) (*Receipt, error) {
	v := validation.New()
	v.Struct(in)
	if s.config.BoundRefundsToSpend {
		v.Check(in.Reference != "", "reference", "is required")
	}
	if err := v.Err(); err != nil {
		return nil, s.fail(OpRefund, err)
	}

	started := s.clock.Now()
	now := s.now()

	var receipt Receipt
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		wallet, err := tx.LockWallet(ctx, in.UserID)
		if err != nil {
			return err
		}

		if s.config.BoundRefundsToSpend {
			if err := s.checkRefundBound(ctx, tx, in); err != nil {
				return err
			}
		}

		if err := wallet.ApplyDelta(models.DeltaRefund, in.Amount, now); err != nil {
			return err
		}

		meta := models.JSON{}
		if in.Reason != "" {
			meta[MetaReason] = in.Reason
		}
		entry := creditEntry(wallet, models.EntryRefund, in.Amount, nil, in.Reference, withActor(meta, in.Actor))
		if err := tx.CreateEntry(ctx, entry); err != nil {
			return err
		}
		if err := s.saveWallet(ctx, tx, wallet, now); err != nil {
			return err
		}

		receipt = Receipt{Wallet: *wallet, Entry: *entry}
		return nil
	})
	if err != nil {
		return nil, s.fail(OpRefund, err)
	}

	s.committed(ctx, OpRefund, started, in.Amount, audit.Event{
		Action: audit.ActionRefund,
		Actor:  in.Actor,
		Details: map[string]interface{}{
			"user_id":   in.UserID,
			"amount":    in.Amount,
			"entry_id":  receipt.Entry.ID,
			"reference": in.Reference,
			"reason":    in.Reason,
		},
	}, in.UserID)
	return &receipt, nil
}

func (s *service) checkRefundBound(ctx context.Context, tx repositories.LedgerRepository, in RefundInput) error {
	spent, err := tx.SumByReference(ctx, in.UserID, models.EntrySpend, in.Reference)
	if err != nil {
		return err
	}
	refunded, err := tx.SumByReference(ctx, in.UserID, models.EntryRefund, in.Reference)
	if err != nil {
		return err
	}
	// Spend entries are booked negative.
	if refunded+in.Amount > -spent {
		return apperrors.ErrRefundExceedsSpend.WithMessage(
			"refund of %d exceeds %d spent against %s (already refunded %d)",
			in.Amount, -spent, in.Reference, refunded)
	}
	return nil
}

// Transfer moves credit between two users as a pair of linked adjustment
// entries. The source is debited by the usual expiry-ordered consumption; the
// destination receives non-expiring credit.
func (s *service) Transfer(ctx context.Context, in TransferInput) (*TransferReceipt, error) {
	if err := validation.Validate(in); err != nil {
		return nil, s.fail(OpTransfer, err)
	}

	started := s.clock.Now()
	now := s.now()
	transferID := ulid.Make().String()

	var receipt TransferReceipt
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		// Fixed lock order prevents deadlock against a reverse transfer.
		first, second := in.FromUserID, in.ToUserID
		if second < first {
			first, second = second, first
		}
		locked := make(map[uint]*models.Wallet, 2)
		for _, id := range []uint{first, second} {
			w, err := tx.LockWallet(ctx, id)
			if err != nil {
				return err
			}
			locked[id] = w
		}
		src, dst := locked[in.FromUserID], locked[in.ToUserID]

		if err := ensureCovers(src, in.Amount); err != nil {
			return err
		}
		draws, err := s.consume(ctx, tx, src, in.Amount, now)
		if err != nil {
			return err
		}
		if err := src.ApplyDelta(models.DeltaSpend, in.Amount, now); err != nil {
			return err
		}
		if err := dst.ApplyDelta(models.DeltaEarn, in.Amount, now); err != nil {
			return err
		}

		outMeta := withActor(models.JSON{
			MetaTransferID:   transferID,
			MetaCounterparty: in.ToUserID,
			MetaDirection:    "out",
			MetaReason:       in.Reason,
		}, in.Actor)
		out := debitEntry(src, models.EntryAdjustment, models.EntrySpent, in.Amount, transferID, draws, outMeta)
		if err := tx.CreateEntry(ctx, out); err != nil {
			return err
		}

		inMeta := withActor(models.JSON{
			MetaTransferID:   transferID,
			MetaCounterparty: in.FromUserID,
			MetaDirection:    "in",
			MetaReason:       in.Reason,
		}, in.Actor)
		incoming := creditEntry(dst, models.EntryAdjustment, in.Amount, nil, transferID, inMeta)
		if err := tx.CreateEntry(ctx, incoming); err != nil {
			return err
		}

		if err := s.saveWallet(ctx, tx, src, now); err != nil {
			return err
		}
		if err := s.saveWallet(ctx, tx, dst, now); err != nil {
			return err
		}

		receipt = TransferReceipt{
			TransferID: transferID,
			From:       Receipt{Wallet: *src, Entry: *out},
			To:         Receipt{Wallet: *dst, Entry: *incoming},
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(OpTransfer, err)
	}

	s.committed(ctx, OpTransfer, started, in.Amount, audit.Event{
		Action: audit.ActionTransfer,
		Actor:  in.Actor,
		Details: map[string]interface{}{
			"transfer_id":  transferID,
			"from_user_id": in.FromUserID,
			"to_user_id":   in.ToUserID,
			"amount":       in.Amount,
			"reason":       in.Reason,
		},
	}, in.FromUserID, in.ToUserID)
	return &receipt, nil
}

// Adjust applies an administrative correction. Positive amounts add
// non-expiring credit and count as earned; negative amounts are consumed like
// a spend and count as spent.
func (s *service) Adjust(ctx context.Context, in AdjustInput) (*Receipt, error) {
	if err := validation.Validate(in); err != nil {
		return nil, s.fail(OpAdjust, err)
	}

	started := s.clock.Now()
	now := s.now()
	meta := withActor(models.JSON{MetaReason: in.Reason}, in.Actor)

	var receipt Receipt
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		wallet, err := tx.LockWallet(ctx, in.UserID)
		if err != nil {
			return err
		}

		var entry *models.LedgerEntry
		if in.Amount > 0 {
			if err := wallet.ApplyDelta(models.DeltaEarn, in.Amount, now); err != nil {
				return err
			}
			entry = creditEntry(wallet, models.EntryAdjustment, in.Amount, nil, "", meta)
		} else {
			debit := -in.Amount
			if err := ensureCovers(wallet, debit); err != nil {
				return err
			}
			draws, err := s.consume(ctx, tx, wallet, debit, now)
			if err != nil {
				return err
			}
			if err := wallet.ApplyDelta(models.DeltaSpend, debit, now); err != nil {
				return err
			}
			entry = debitEntry(wallet, models.EntryAdjustment, models.EntrySpent, debit, "", draws, meta)
		}

		if err := tx.CreateEntry(ctx, entry); err != nil {
			return err
		}
		if err := s.saveWallet(ctx, tx, wallet, now); err != nil {
			return err
		}

		receipt = Receipt{Wallet: *wallet, Entry: *entry}
		return nil
	})
	if err != nil {
		return nil, s.fail(OpAdjust, err)
	}

	magnitude := in.Amount
	if magnitude < 0 {
		magnitude = -magnitude
	}
	s.committed(ctx, OpAdjust, started, magnitude, audit.Event{
		Action: audit.ActionAdjust,
		Actor:  in.Actor,
		Details: map[string]interface{}{
			"user_id":  in.UserID,
			"amount":   in.Amount,
			"entry_id": receipt.Entry.ID,
			"reason":   in.Reason,
		},
	}, in.UserID)
	return &receipt, nil
}
