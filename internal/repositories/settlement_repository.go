package repositories

import (
	"context"
	"time"

	"swapledger/internal/models"
)

// SettlementRepository persists swap settlements and moves them through their
// state machine with guarded transitions.
type SettlementRepository interface {
	Create(ctx context.Context, settlement *models.SwapSettlement) error
	GetByID(ctx context.Context, id uint) (*models.SwapSettlement, error)
	SetPaymentIntent(ctx context.Context, id uint, intentID string) error

	// State machine
	Begin(ctx context.Context, id uint, expected []models.SettlementStatus, next models.SettlementStatus) (*Transition, error)
	Transit(ctx context.Context, id uint, expected []models.SettlementStatus, next models.SettlementStatus, fields map[string]interface{}) (*Transition, error)
	Complete(ctx context.Context, t *Transition, fee int64, completedAt time.Time, record *models.FeeRecord) error
	Revert(ctx context.Context, t *Transition, to models.SettlementStatus) error

	// Fee records
	GetFeeRecord(ctx context.Context, settlementID uint) (*models.FeeRecord, error)
}
