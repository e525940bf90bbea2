package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swapledger/internal/models"

	"gorm.io/gorm"
)

type settlementRepository struct {
	db    *gorm.DB
	guard *TransitionGuard
}

func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{
		db: db,
		guard: NewTransitionGuard(db, func() interface{} {
			return &models.SwapSettlement{}
		}, "status"),
	}
}

func (r *settlementRepository) Create(ctx context.Context, settlement *models.SwapSettlement) error {
	if err := r.db.WithContext(ctx).Create(settlement).Error; err != nil {
		return fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil
}

func (r *settlementRepository) GetByID(ctx context.Context, id uint) (*models.SwapSettlement, error) {
	var settlement models.SwapSettlement
	if err := r.db.WithContext(ctx).First(&settlement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettlementNotFound
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return &settlement, nil
}

func (r *settlementRepository) SetPaymentIntent(ctx context.Context, id uint, intentID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.SwapSettlement{}).
		Where("id = ?", id).
		Update("payment_intent_id", intentID).Error
	if err != nil {
		return fmt.Errorf("failed to store payment intent: %w", err)
	}
	return nil
}

func (r *settlementRepository) Begin(ctx context.Context, id uint, expected []models.SettlementStatus, next models.SettlementStatus) (*Transition, error) {
	return r.Transit(ctx, id, expected, next, nil)
}

func (r *settlementRepository) Transit(ctx context.Context, id uint, expected []models.SettlementStatus, next models.SettlementStatus, fields map[string]interface{}) (*Transition, error) {
	t, err := r.guard.Transit(ctx, id, statusStrings(expected), string(next), fields)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSettlementNotFound
	}
	return t, err
}

// Complete finishes an in-flight settlement and writes its fee record in the
// same transaction. A second fee record for the settlement or the payment is
// rejected by the unique indexes and rolls the completion back.
func (r *settlementRepository) Complete(ctx context.Context, t *Transition, fee int64, completedAt time.Time, record *models.FeeRecord) error {
	fields := map[string]interface{}{
		"swap_fee":     fee,
		"completed_at": completedAt,
	}
	return r.guard.Commit(ctx, t, string(models.SettlementCompleted), fields, func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateFeeRecord
			}
			return fmt.Errorf("failed to create fee record: %w", err)
		}
		return nil
	})
}

func (r *settlementRepository) Revert(ctx context.Context, t *Transition, to models.SettlementStatus) error {
	return r.guard.Rollback(ctx, t, string(to))
}

func (r *settlementRepository) GetFeeRecord(ctx context.Context, settlementID uint) (*models.FeeRecord, error) {
	var record models.FeeRecord
	if err := r.db.WithContext(ctx).Where("settlement_id = ?", settlementID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeeRecordNotFound
		}
		return nil, fmt.Errorf("failed to get fee record: %w", err)
	}
	return &record, nil
}

func statusStrings(states []models.SettlementStatus) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}
