package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"go.uber.org/zap"
)

// StripeGateway implements Gateway with Stripe PaymentIntents.
type StripeGateway struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeGateway talks to the live Stripe API with secretKey.
func NewStripeGateway(secretKey string, logger *zap.Logger) *StripeGateway {
	return NewStripeGatewayWithBackends(secretKey, nil, logger)
}

// NewStripeGatewayWithBackends lets callers point the client elsewhere, e.g.
// at stripe-mock or a test server.
func NewStripeGatewayWithBackends(secretKey string, backends *stripe.Backends, logger *zap.Logger) *StripeGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &StripeGateway{api: sc, logger: logger.Named("stripe")}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if req.Purpose != "" {
		params.Description = stripe.String(req.Purpose)
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	if req.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(req.PaymentMethodID)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, g.wrap("create payment intent", err)
	}

	g.logger.Info("payment intent created",
		zap.String("intent_id", pi.ID),
		zap.Int64("amount", req.Amount),
		zap.String("currency", req.Currency),
	)
	return &Intent{ID: pi.ID, Status: string(pi.Status)}, nil
}

// ConfirmPayment confirms the intent unless it already succeeded, in which
// case the existing charge is reported.
func (g *StripeGateway) ConfirmPayment(ctx context.Context, intentID string) (*Confirmation, error) {
	if intentID == "" {
		return nil, ErrInvalidIntent
	}

	current, err := g.api.PaymentIntents.Get(intentID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, g.wrap("get payment intent", err)
	}
	if current.Status == stripe.PaymentIntentStatusSucceeded {
		g.logger.Info("payment intent already succeeded", zap.String("intent_id", intentID))
		return confirmation(current), nil
	}

	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx
	params.SetIdempotencyKey("confirm-" + intentID)

	pi, err := g.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		return nil, g.wrap("confirm payment intent", err)
	}

	result := confirmation(pi)
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		g.logger.Warn("payment intent not succeeded",
			zap.String("intent_id", intentID),
			zap.String("status", string(pi.Status)),
		)
		return result, fmt.Errorf("%w: status %s", ErrPaymentNotSucceeded, pi.Status)
	}
	return result, nil
}

func confirmation(pi *stripe.PaymentIntent) *Confirmation {
	c := &Confirmation{
		IntentID: pi.ID,
		Status:   string(pi.Status),
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
	}
	if pi.Charges != nil && len(pi.Charges.Data) > 0 {
		c.ChargeID = pi.Charges.Data[0].ID
	}
	return c
}

func (g *StripeGateway) wrap(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		g.logger.Warn("stripe request failed",
			zap.String("operation", op),
			zap.String("code", string(serr.Code)),
			zap.Int("http_status", serr.HTTPStatusCode),
		)
		return fmt.Errorf("%s: %s: %w", op, serr.Msg, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
