package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swapledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{
		db: db,
	}
}

func (r *ledgerRepository) ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &ledgerRepository{db: tx}
		return fn(txRepo)
	})
}

func (r *ledgerRepository) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

// GetOrCreateWallet finds the user's wallet or creates a zeroed one. A racing
// creator makes our insert hit the unique index on user_id, in which case the
// winner's row is read back. Must not be called inside a transaction: a unique
// violation aborts the surrounding Postgres transaction.
func (r *ledgerRepository) GetOrCreateWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet, err := r.GetWallet(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, err
	}

	wallet = &models.Wallet{UserID: userID}
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		if isUniqueViolation(err) {
			return r.GetWallet(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return wallet, nil
}

// LockWallet takes the wallet row lock for the rest of the transaction,
// creating the row first when the user has never been seen.
func (r *ledgerRepository) LockWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet, err := r.selectWalletForUpdate(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&models.Wallet{UserID: userID}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return r.selectWalletForUpdate(ctx, userID)
}

func (r *ledgerRepository) selectWalletForUpdate(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) SaveWallet(ctx context.Context, wallet *models.Wallet) error {
	if err := r.db.WithContext(ctx).Save(wallet).Error; err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	return nil
}

func (r *ledgerRepository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) SaveEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if err := r.db.WithContext(ctx).Save(entry).Error; err != nil {
		return fmt.Errorf("failed to update ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) LockEntry(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&entry, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to lock ledger entry: %w", err)
	}
	return &entry, nil
}

// LockSpendableEntries returns the user's active credit in the order spending
// must consume it: soonest expiry first, non-expiring credit last.
func (r *ledgerRepository) LockSpendableEntries(ctx context.Context, userID uint, now time.Time) ([]*models.LedgerEntry, error) {
	var entries []*models.LedgerEntry
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ? AND amount > 0", userID, models.EntryActive).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("expires_at ASC NULLS LAST").
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load spendable entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) FindExpiredDeposits(ctx context.Context, now time.Time, afterID uint, limit int) ([]*models.LedgerEntry, error) {
	var entries []*models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("kind = ? AND status = ? AND expires_at <= ? AND id > ?", models.EntryDeposit, models.EntryActive, now, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expired deposits: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ListEntries(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, int64, error) {
	var entries []models.LedgerEntry
	var total int64

	base := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).Where("user_id = ?", userID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, total, nil
}

func (r *ledgerRepository) SumActive(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("user_id = ? AND status = ?", userID, models.EntryActive).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum active entries: %w", err)
	}
	return total, nil
}

func (r *ledgerRepository) SumExpiringBetween(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("user_id = ? AND kind = ? AND status = ? AND expires_at > ? AND expires_at <= ?",
			userID, models.EntryDeposit, models.EntryActive, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum expiring entries: %w", err)
	}
	return total, nil
}

// SumByReference adds up original_amount of the user's entries of one kind
// booked against reference. Debit kinds come back negative.
func (r *ledgerRepository) SumByReference(ctx context.Context, userID uint, kind models.EntryKind, reference string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("user_id = ? AND kind = ? AND reference = ?", userID, kind, reference).
		Select("COALESCE(SUM(original_amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum entries by reference: %w", err)
	}
	return total, nil
}
