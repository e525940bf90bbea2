package models

import (
	"time"

	"github.com/lib/pq"
)

// EntryKind is the business reason behind a ledger entry.
type EntryKind string

const (
	EntryDeposit    EntryKind = "DEPOSIT"
	EntrySpend      EntryKind = "SPEND"
	EntryRefund     EntryKind = "REFUND"
	EntryExpiration EntryKind = "EXPIRATION"
	EntryAdjustment EntryKind = "ADJUSTMENT"
	EntryTransfer   EntryKind = "TRANSFER"
)

// EntryStatus tracks whether an entry still carries spendable credit.
type EntryStatus string

const (
	EntryActive   EntryStatus = "ACTIVE"
	EntrySpent    EntryStatus = "SPENT"
	EntryExpired  EntryStatus = "EXPIRED"
	EntryRefunded EntryStatus = "REFUNDED"
)

// LedgerEntry is one credit movement. Credit-bearing entries (deposits, refunds,
// positive adjustments) start ACTIVE and have Amount decremented in place as
// spending draws on them; OriginalAmount keeps what was booked at creation.
// Debit-recording entries are written with a negative Amount and a terminal
// status so they never count toward the active balance.
type LedgerEntry struct {
	ID             uint          `gorm:"primarykey" json:"id"`
	UserID         uint          `gorm:"not null;index:idx_ledger_user_status,priority:1" json:"user_id"`
	Kind           EntryKind     `gorm:"type:varchar(16);not null" json:"kind"`
	Amount         int64         `gorm:"not null" json:"amount"`
	OriginalAmount int64         `gorm:"not null" json:"original_amount"`
	BalanceAfter   int64         `gorm:"not null" json:"balance_after"`
	Status         EntryStatus   `gorm:"type:varchar(16);not null;index:idx_ledger_user_status,priority:2;index:idx_ledger_status_expiry,priority:1" json:"status"`
	ExpiresAt      *time.Time    `gorm:"index:idx_ledger_status_expiry,priority:2" json:"expires_at,omitempty"`
	Reference      string        `gorm:"index" json:"reference,omitempty"`
	SourceEntryIDs pq.Int64Array `gorm:"type:bigint[]" json:"source_entry_ids,omitempty"`
	Metadata       JSON          `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsExpiredAt reports whether the entry's expiry has been reached at now.
func (e *LedgerEntry) IsExpiredAt(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// IsSpendableAt reports whether the entry can be drawn on by a spend at now.
func (e *LedgerEntry) IsSpendableAt(now time.Time) bool {
	return e.Status == EntryActive && e.Amount > 0 && !e.IsExpiredAt(now)
}

// Consume draws up to want credits from the entry and returns how much it gave.
// A fully drained entry flips to SPENT.
func (e *LedgerEntry) Consume(want int64) int64 {
	if want <= 0 || e.Amount <= 0 {
		return 0
	}
	take := want
	if e.Amount < take {
		take = e.Amount
	}
	e.Amount -= take
	if e.Amount == 0 {
		e.Status = EntrySpent
	}
	return take
}
