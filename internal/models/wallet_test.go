package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallet_ApplyDelta(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   Wallet
		kind    DeltaKind
		amount  int64
		want    Wallet
		wantErr error
	}{
		{
			name:   "earn credits balance and earned",
			kind:   DeltaEarn,
			amount: 1800,
			want:   Wallet{TotalBalance: 1800, TotalEarned: 1800},
		},
		{
			name:   "spend debits balance and books spent",
			start:  Wallet{TotalBalance: 1800, TotalEarned: 1800},
			kind:   DeltaSpend,
			amount: 500,
			want:   Wallet{TotalBalance: 1300, TotalEarned: 1800, TotalSpent: 500},
		},
		{
			name:   "refund restores balance and unwinds spent",
			start:  Wallet{TotalBalance: 1300, TotalEarned: 1800, TotalSpent: 500},
			kind:   DeltaRefund,
			amount: 500,
			want:   Wallet{TotalBalance: 1800, TotalEarned: 1800},
		},
		{
			name:   "expire moves balance into expired",
			start:  Wallet{TotalBalance: 300, TotalEarned: 300},
			kind:   DeltaExpire,
			amount: 300,
			want:   Wallet{TotalEarned: 300, TotalExpired: 300},
		},
		{
			name:    "spend beyond balance is rejected",
			start:   Wallet{TotalBalance: 100},
			kind:    DeltaSpend,
			amount:  101,
			want:    Wallet{TotalBalance: 100},
			wantErr: ErrNegativeBalance,
		},
		{
			name:    "earn past the int64 range is rejected",
			start:   Wallet{TotalBalance: math.MaxInt64, TotalEarned: math.MaxInt64},
			kind:    DeltaEarn,
			amount:  2,
			want:    Wallet{TotalBalance: math.MaxInt64, TotalEarned: math.MaxInt64},
			wantErr: ErrCounterOverflow,
		},
		{
			name:    "earn overflowing only the earned counter is rejected",
			start:   Wallet{TotalBalance: 10, TotalEarned: math.MaxInt64 - 5},
			kind:    DeltaEarn,
			amount:  6,
			want:    Wallet{TotalBalance: 10, TotalEarned: math.MaxInt64 - 5},
			wantErr: ErrCounterOverflow,
		},
		{
			name:    "refund past the int64 range is rejected",
			start:   Wallet{TotalBalance: math.MaxInt64 - 1},
			kind:    DeltaRefund,
			amount:  2,
			want:    Wallet{TotalBalance: math.MaxInt64 - 1},
			wantErr: ErrCounterOverflow,
		},
		{
			name:    "refund underflowing spent is rejected",
			start:   Wallet{TotalBalance: 10, TotalSpent: math.MinInt64 + 1},
			kind:    DeltaRefund,
			amount:  2,
			want:    Wallet{TotalBalance: 10, TotalSpent: math.MinInt64 + 1},
			wantErr: ErrCounterOverflow,
		},
		{
			name:    "non positive amount is rejected",
			kind:    DeltaEarn,
			amount:  0,
			wantErr: ErrInvalidDelta,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.start
			err := w.ApplyDelta(tt.kind, tt.amount, at)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.start, w)
				assert.Nil(t, w.LastTransactionAt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.TotalBalance, w.TotalBalance)
			assert.Equal(t, tt.want.TotalEarned, w.TotalEarned)
			assert.Equal(t, tt.want.TotalSpent, w.TotalSpent)
			assert.Equal(t, tt.want.TotalExpired, w.TotalExpired)
			require.NotNil(t, w.LastTransactionAt)
			assert.Equal(t, at, *w.LastTransactionAt)
		})
	}
}

func TestLedgerEntry_Consume(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	expires := now.Add(24 * time.Hour)
	entry := &LedgerEntry{Kind: EntryDeposit, Status: EntryActive, Amount: 1800, OriginalAmount: 1800, ExpiresAt: &expires}

	assert.True(t, entry.IsSpendableAt(now))
	assert.Equal(t, int64(200), entry.Consume(200))
	assert.Equal(t, int64(1600), entry.Amount)
	assert.Equal(t, EntryActive, entry.Status)

	assert.Equal(t, int64(1600), entry.Consume(5000))
	assert.Equal(t, int64(0), entry.Amount)
	assert.Equal(t, EntrySpent, entry.Status)
	assert.Equal(t, int64(1800), entry.OriginalAmount)
	assert.False(t, entry.IsSpendableAt(now))
}

func TestLedgerEntry_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	entry := &LedgerEntry{Status: EntryActive, Amount: 10, ExpiresAt: &past}
	assert.True(t, entry.IsExpiredAt(now))
	assert.False(t, entry.IsSpendableAt(now))

	refund := &LedgerEntry{Kind: EntryRefund, Status: EntryActive, Amount: 10}
	assert.False(t, refund.IsExpiredAt(now))
	assert.True(t, refund.IsSpendableAt(now))
}
