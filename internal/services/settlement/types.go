package settlement

import (
	"context"
	"time"

	"swapledger/internal/models"
	"swapledger/internal/services/audit"
)

const (
	DefaultCurrency = "usd"

	OpCreate   = "settlement_create"
	OpMatch    = "settlement_match"
	OpCancel   = "settlement_cancel"
	OpComplete = "settlement_complete"
)

type Config struct {
	Currency string
	// Fee is the configured fallback in major units, e.g. "25.00".
	Fee string
}

type CreateInput struct {
	RequesterID     uint    `json:"requester_id" validate:"required"`
	ResponderID     uint    `json:"responder_id" validate:"required,nefield=RequesterID"`
	Currency        string  `json:"currency" validate:"omitempty,len=3"`
	BookingID       *string `json:"booking_id"`
	CustomerID      string  `json:"customer_id"`
	PaymentMethodID string  `json:"payment_method_id"`
	Actor           string  `json:"-"`
}

type CompletionResult struct {
	SettlementID uint   `json:"settlement_id"`
	RequesterID  uint   `json:"requester_id"`
	ResponderID  uint   `json:"responder_id"`
	PaymentID    string `json:"payment_id"`
	ChargeID     string `json:"charge_id,omitempty"`
	Fee          int64  `json:"fee"`
	Currency     string `json:"currency"`
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*models.SwapSettlement, error)
	Get(ctx context.Context, id uint) (*models.SwapSettlement, error)
	Match(ctx context.Context, id uint, actor string) (*models.SwapSettlement, error)
	Cancel(ctx context.Context, id uint, reason, actor string) (*models.SwapSettlement, error)
	Complete(ctx context.Context, id uint, actor string) (*CompletionResult, error)
}

type SettingsReader interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
}

type Auditor interface {
	Record(ctx context.Context, event audit.Event)
}

// Metrics is the subset of the ledger collector the coordinator reports to.
type Metrics interface {
	RecordOperationDuration(operation string, d time.Duration)
	RecordOperationResult(operation, result string)
	RecordError(operation, code string)
}

type noopMetrics struct{}

func (noopMetrics) RecordOperationDuration(string, time.Duration) {}
func (noopMetrics) RecordOperationResult(string, string)          {}
func (noopMetrics) RecordError(string, string)                    {}
