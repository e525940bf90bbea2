package repositories

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"swapledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openTestDB connects to DATABASE_URL and migrates it. Without a database the
// test is skipped, unless REQUIRE_DATABASE is set, as it is in CI, in which
// case it fails.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		if os.Getenv("REQUIRE_DATABASE") != "" {
			t.Fatal("REQUIRE_DATABASE is set but DATABASE_URL is empty")
		}
		t.Skip("DATABASE_URL not set")
	}
	db, err := OpenDSN(dsn, DBConfig{MaxOpenConns: 20})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

// freshUserID keeps runs against a shared database apart.
func freshUserID() uint {
	return uint(time.Now().UnixNano()%1_000_000_000) + 1
}

func TestLedgerRepository_SpendableOrder(t *testing.T) {
	db := openTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()
	userID := freshUserID()
	now := time.Now().UTC()

	later := now.Add(60 * 24 * time.Hour)
	sooner := now.Add(10 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	for _, e := range []*models.LedgerEntry{
		{UserID: userID, Kind: models.EntryDeposit, Amount: 100, OriginalAmount: 100, Status: models.EntryActive, ExpiresAt: &later},
		{UserID: userID, Kind: models.EntryRefund, Amount: 50, OriginalAmount: 50, Status: models.EntryActive},
		{UserID: userID, Kind: models.EntryDeposit, Amount: 100, OriginalAmount: 100, Status: models.EntryActive, ExpiresAt: &sooner},
		{UserID: userID, Kind: models.EntryDeposit, Amount: 100, OriginalAmount: 100, Status: models.EntryActive, ExpiresAt: &past},
	} {
		require.NoError(t, repo.CreateEntry(ctx, e))
	}

	err := repo.ExecuteInTransaction(ctx, func(tx LedgerRepository) error {
		wallet, err := tx.LockWallet(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, userID, wallet.UserID)

		entries, err := tx.LockSpendableEntries(ctx, userID, now)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, sooner.Unix(), entries[0].ExpiresAt.Unix())
		assert.Equal(t, later.Unix(), entries[1].ExpiresAt.Unix())
		assert.Nil(t, entries[2].ExpiresAt)
		return nil
	})
	require.NoError(t, err)

	active, err := repo.SumActive(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(350), active)

	expiring, err := repo.SumExpiringBetween(ctx, userID, now, now.Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(100), expiring)

	expired, err := repo.FindExpiredDeposits(ctx, now, 0, 1000)
	require.NoError(t, err)
	found := false
	for _, e := range expired {
		if e.UserID == userID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLedgerRepository_GetOrCreateWalletRace(t *testing.T) {
	db := openTestDB(t)
	repo := NewLedgerRepository(db)
	userID := freshUserID()

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := repo.GetOrCreateWallet(context.Background(), userID)
			if assert.NoError(t, err) {
				ids[i] = w.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestSettlementRepository_GuardedCompletion(t *testing.T) {
	db := openTestDB(t)
	repo := NewSettlementRepository(db)
	ctx := context.Background()

	s := &models.SwapSettlement{RequesterID: freshUserID(), ResponderID: freshUserID() + 1, Status: models.SettlementMatched}
	require.NoError(t, repo.Create(ctx, s))

	const callers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		tokens   []*Transition
		mismatch int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := repo.Begin(ctx, s.ID,
				[]models.SettlementStatus{models.SettlementMatched}, models.SettlementProcessing)
			mu.Lock()
			defer mu.Unlock()
			var sm *StateMismatchError
			switch {
			case err == nil:
				tokens = append(tokens, tok)
			case errors.As(err, &sm):
				assert.Equal(t, string(models.SettlementProcessing), sm.Current)
				mismatch++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Len(t, tokens, 1)
	assert.Equal(t, callers-1, mismatch)

	paymentID := "pi_it_" + time.Now().Format("150405.000000000")
	record := &models.FeeRecord{
		PaymentID:    paymentID,
		SettlementID: s.ID,
		Amount:       2500,
		Currency:     "usd",
		UserID:       s.RequesterID,
		Type:         models.FeeTypeSwap,
	}
	require.NoError(t, repo.Complete(ctx, tokens[0], 2500, time.Now().UTC(), record))

	// The token is spent once the row left processing.
	assert.ErrorIs(t, repo.Revert(ctx, tokens[0], models.SettlementMatched), ErrStaleTransition)

	stored, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementCompleted, stored.Status)
	assert.Equal(t, int64(2500), stored.SwapFee)

	fee, err := repo.GetFeeRecord(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentID, fee.PaymentID)
}

func TestSettingRepository_Upsert(t *testing.T) {
	db := openTestDB(t)
	repo := NewSettingRepository(db)
	ctx := context.Background()
	key := "it_setting_" + time.Now().Format("150405.000000000")

	_, err := repo.Get(ctx, key)
	assert.ErrorIs(t, err, ErrSettingNotFound)

	_, err = repo.Set(ctx, key, "1.00", "it")
	require.NoError(t, err)
	_, err = repo.Set(ctx, key, "2.00", "it")
	require.NoError(t, err)

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "2.00", got.Value)
}
