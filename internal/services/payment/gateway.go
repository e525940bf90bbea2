// Package payment is the client side of the external payment gateway. Only
// two calls are consumed: create a payment intent and confirm it.
package payment

import (
	"context"
	"errors"
)

var (
	ErrPaymentNotSucceeded = errors.New("payment did not succeed")
	ErrInvalidIntent       = errors.New("payment intent id is required")
)

type IntentRequest struct {
	Amount          int64
	Currency        string
	Purpose         string
	Metadata        map[string]string
	IdempotencyKey  string
	CustomerID      string
	PaymentMethodID string
}

type Intent struct {
	ID     string
	Status string
}

type Confirmation struct {
	IntentID string
	Status   string
	ChargeID string
	Amount   int64
	Currency string
}

// Gateway creates and confirms payment intents. Confirming an intent that
// already succeeded must return the existing charge rather than charge again.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	ConfirmPayment(ctx context.Context, intentID string) (*Confirmation, error)
}
