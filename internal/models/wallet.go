package models

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNegativeBalance = errors.New("wallet balance would become negative")
	ErrInvalidDelta    = errors.New("wallet delta must be positive")
	ErrCounterOverflow = errors.New("wallet counter would overflow")
)

// DeltaKind selects which counter a balance change is booked against.
type DeltaKind string

const (
	DeltaEarn   DeltaKind = "EARN"
	DeltaSpend  DeltaKind = "SPEND"
	DeltaExpire DeltaKind = "EXPIRE"
	DeltaRefund DeltaKind = "REFUND"
)

// Wallet is the per-user materialized view of the ledger. TotalBalance always
// equals the sum of the user's ACTIVE ledger entries once a transaction commits.
type Wallet struct {
	ID                uint       `gorm:"primarykey" json:"id"`
	UserID            uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalBalance      int64      `gorm:"not null;default:0" json:"total_balance"`
	TotalEarned       int64      `gorm:"not null;default:0" json:"total_earned"`
	TotalSpent        int64      `gorm:"not null;default:0" json:"total_spent"`
	TotalExpired      int64      `gorm:"not null;default:0" json:"total_expired"`
	PendingExpiration int64      `gorm:"not null;default:0" json:"pending_expiration"`
	LastTransactionAt *time.Time `json:"last_transaction_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// Wallets are always born empty; credit only arrives through ledger entries.
	w.TotalBalance = 0
	w.TotalEarned = 0
	w.TotalSpent = 0
	w.TotalExpired = 0
	w.PendingExpiration = 0
	return nil
}

// ApplyDelta moves amount in or out of the balance and books it against the
// counter that matches kind. It must only be called while the wallet row lock
// is held.
func (w *Wallet) ApplyDelta(kind DeltaKind, amount int64, at time.Time) error {
	if amount <= 0 {
		return ErrInvalidDelta
	}

	switch kind {
	case DeltaEarn:
		if !canAdd(w.TotalBalance, amount) || !canAdd(w.TotalEarned, amount) {
			return ErrCounterOverflow
		}
		w.TotalBalance += amount
		w.TotalEarned += amount
	case DeltaRefund:
		if !canAdd(w.TotalBalance, amount) || w.TotalSpent < math.MinInt64+amount {
			return ErrCounterOverflow
		}
		w.TotalBalance += amount
		w.TotalSpent -= amount
	case DeltaSpend:
		if w.TotalBalance < amount {
			return ErrNegativeBalance
		}
		if !canAdd(w.TotalSpent, amount) {
			return ErrCounterOverflow
		}
		w.TotalBalance -= amount
		w.TotalSpent += amount
	case DeltaExpire:
		if w.TotalBalance < amount {
			return ErrNegativeBalance
		}
		if !canAdd(w.TotalExpired, amount) {
			return ErrCounterOverflow
		}
		w.TotalBalance -= amount
		w.TotalExpired += amount
	default:
		return ErrInvalidDelta
	}

	w.LastTransactionAt = &at
	return nil
}

// canAdd reports whether counter+amount fits in an int64 for amount > 0.
func canAdd(counter, amount int64) bool {
	return counter <= math.MaxInt64-amount
}
