// Package settlement coordinates the swap settlement state machine and the
// collection of its fee.
//
// Completion runs in two phases. Phase 1 moves a matched settlement to
// processing inside a short locked transaction, which is the only point where
// concurrent completions race; every loser fails there with
// ErrAlreadyProcessing before touching the gateway. Phase 2 talks to the
// gateway with no lock held and then either completes the settlement together
// with its fee record, or returns it to matched.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "swapledger/internal/errors"
	"swapledger/internal/models"
	"swapledger/internal/repositories"
	"swapledger/internal/services/audit"
	"swapledger/internal/services/payment"
	"swapledger/internal/validation"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type service struct {
	repo    repositories.SettlementRepository
	gateway payment.Gateway
	fees    *FeeResolver
	auditor Auditor
	clock   clockwork.Clock
	logger  *zap.Logger
	config  Config
	metrics Metrics
}

func NewService(
	repo repositories.SettlementRepository,
	gateway payment.Gateway,
	settings SettingsReader,
	auditor Auditor,
	clock clockwork.Clock,
	logger *zap.Logger,
	config Config,
	metrics Metrics,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if gateway == nil {
		panic("gateway is required")
	}

	if config.Currency == "" {
		config.Currency = DefaultCurrency
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditor == nil {
		auditor = audit.NewRecorder(logger, clock)
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	logger = logger.Named("settlement")
	return &service{
		repo:    repo,
		gateway: gateway,
		fees:    NewFeeResolver(settings, config.Fee, logger),
		auditor: auditor,
		clock:   clock,
		logger:  logger,
		config:  config,
		metrics: metrics,
	}
}

func (s *service) Create(ctx context.Context, in CreateInput) (*models.SwapSettlement, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	currency := strings.ToLower(in.Currency)
	if currency == "" {
		currency = s.config.Currency
	}

	settlement := &models.SwapSettlement{
		RequesterID:     in.RequesterID,
		ResponderID:     in.ResponderID,
		Status:          models.SettlementPending,
		Currency:        currency,
		BookingID:       in.BookingID,
		CustomerID:      in.CustomerID,
		PaymentMethodID: in.PaymentMethodID,
	}
	if err := s.repo.Create(ctx, settlement); err != nil {
		return nil, s.fail(OpCreate, err)
	}

	s.metrics.RecordOperationResult(OpCreate, "success")
	s.auditor.Record(ctx, audit.Event{
		Action: audit.ActionSettlementCreated,
		Actor:  in.Actor,
		Details: map[string]interface{}{
			"settlement_id": settlement.ID,
			"requester_id":  settlement.RequesterID,
			"responder_id":  settlement.ResponderID,
		},
	})
	return settlement, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.SwapSettlement, error) {
	settlement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSettlementNotFound) {
			return nil, apperrors.ErrSettlementNotFound
		}
		return nil, err
	}
	return settlement, nil
}

func (s *service) Match(ctx context.Context, id uint, actor string) (*models.SwapSettlement, error) {
	_, err := s.repo.Begin(ctx, id,
		[]models.SettlementStatus{models.SettlementPending}, models.SettlementMatched)
	if err != nil {
		return nil, s.fail(OpMatch, s.classify(err, models.SettlementMatched))
	}

	s.metrics.RecordOperationResult(OpMatch, "success")
	s.auditor.Record(ctx, audit.Event{
		Action:  audit.ActionSettlementMatched,
		Actor:   actor,
		Details: map[string]interface{}{"settlement_id": id},
	})
	return s.Get(ctx, id)
}

// Cancel withdraws a settlement that has not started processing.
func (s *service) Cancel(ctx context.Context, id uint, reason, actor string) (*models.SwapSettlement, error) {
	v := validation.New()
	v.Check(len(reason) <= validation.MaxReasonLength, "reason", "must be at most 500 characters")
	if !v.Valid() {
		return nil, v.Err()
	}

	_, err := s.repo.Transit(ctx, id,
		[]models.SettlementStatus{models.SettlementPending, models.SettlementMatched},
		models.SettlementCancelled,
		map[string]interface{}{"cancel_reason": reason},
	)
	if err != nil {
		return nil, s.fail(OpCancel, s.classify(err, models.SettlementCancelled))
	}

	s.metrics.RecordOperationResult(OpCancel, "success")
	s.auditor.Record(ctx, audit.Event{
		Action: audit.ActionSettlementCancel,
		Actor:  actor,
		Details: map[string]interface{}{
			"settlement_id": id,
			"reason":        reason,
		},
	})
	return s.Get(ctx, id)
}

// Complete charges the swap fee for a matched settlement and marks it
// completed. Of any number of concurrent calls for the same settlement only
// one reaches the gateway.
func (s *service) Complete(ctx context.Context, id uint, actor string) (*CompletionResult, error) {
	started := s.clock.Now()

	// Phase 1
	t, err := s.repo.Begin(ctx, id,
		[]models.SettlementStatus{models.SettlementMatched}, models.SettlementProcessing)
	if err != nil {
		return nil, s.fail(OpComplete, s.classify(err, models.SettlementCompleted))
	}

	// Phase 2
	result, err := s.collect(ctx, t)
	if err != nil {
		s.revert(ctx, t)
		return nil, s.fail(OpComplete, err)
	}

	s.metrics.RecordOperationDuration(OpComplete, s.clock.Since(started))
	s.metrics.RecordOperationResult(OpComplete, "success")
	s.logger.Info("settlement completed",
		zap.Uint("settlement_id", id),
		zap.String("payment_id", result.PaymentID),
		zap.Int64("fee", result.Fee),
	)
	s.completed(ctx, actor, result)
	return result, nil
}

// collect runs between the two guarded writes. Any error it returns sends
// the settlement back to matched.
func (s *service) collect(ctx context.Context, t *repositories.Transition) (*CompletionResult, error) {
	settlement, err := s.repo.GetByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	fee, err := s.fees.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve swap fee: %w", err)
	}

	intentID := settlement.PaymentIntentID
	if intentID == "" {
		intent, err := s.gateway.CreatePaymentIntent(ctx, payment.IntentRequest{
			Amount:         fee,
			Currency:       settlement.Currency,
			Purpose:        models.FeeTypeSwap,
			IdempotencyKey: idempotencyKey(settlement.ID, fee),
			Metadata: map[string]string{
				"settlement_id": strconv.FormatUint(uint64(settlement.ID), 10),
				"requester_id":  strconv.FormatUint(uint64(settlement.RequesterID), 10),
				"responder_id":  strconv.FormatUint(uint64(settlement.ResponderID), 10),
				"type":          models.FeeTypeSwap,
			},
			CustomerID:      settlement.CustomerID,
			PaymentMethodID: settlement.PaymentMethodID,
		})
		if err != nil {
			return nil, s.gatewayFailure(settlement.ID, "create payment intent", err)
		}
		intentID = intent.ID
		if err := s.repo.SetPaymentIntent(ctx, settlement.ID, intentID); err != nil {
			return nil, err
		}
	}

	conf, err := s.gateway.ConfirmPayment(ctx, intentID)
	if err != nil {
		return nil, s.gatewayFailure(settlement.ID, "confirm payment", err)
	}

	// A reused intent carries the fee it was created with.
	charged := fee
	if conf.Amount > 0 {
		charged = conf.Amount
	}

	record := &models.FeeRecord{
		PaymentID:    intentID,
		SettlementID: settlement.ID,
		Amount:       charged,
		Currency:     settlement.Currency,
		UserID:       settlement.RequesterID,
		Type:         models.FeeTypeSwap,
		BookingID:    settlement.BookingID,
	}
	if conf.ChargeID != "" {
		record.GatewayChargeID = &conf.ChargeID
	}

	if err := s.repo.Complete(ctx, t, charged, s.clock.Now().UTC(), record); err != nil {
		// The charge stands. Reverting lets a retry reuse the stored intent,
		// which confirms to the same charge.
		s.logger.Error("payment captured but settlement not completed",
			zap.Uint("settlement_id", settlement.ID),
			zap.String("payment_id", intentID),
			zap.Error(err),
		)
		return nil, err
	}

	return &CompletionResult{
		SettlementID: settlement.ID,
		RequesterID:  settlement.RequesterID,
		ResponderID:  settlement.ResponderID,
		PaymentID:    intentID,
		ChargeID:     conf.ChargeID,
		Fee:          charged,
		Currency:     settlement.Currency,
	}, nil
}

func (s *service) completed(ctx context.Context, actor string, result *CompletionResult) {
	s.auditor.Record(ctx, audit.Event{
		Action: audit.ActionSettlementComplete,
		Actor:  actor,
		Details: map[string]interface{}{
			"settlement_id": result.SettlementID,
			"requester_id":  result.RequesterID,
			"responder_id":  result.ResponderID,
			"payment_id":    result.PaymentID,
			"fee":           result.Fee,
		},
	})
}

// revert returns an in-flight settlement to matched. It runs even when the
// caller's context is already cancelled so a settlement never stays stuck in
// processing.
func (s *service) revert(ctx context.Context, t *repositories.Transition) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.repo.Revert(ctx, t, models.SettlementMatched); err != nil {
		s.logger.Error("failed to revert settlement",
			zap.Uint("settlement_id", t.ID),
			zap.Error(err),
		)
	}
}

// classify turns a failed guarded transition into a domain error.
func (s *service) classify(err error, target models.SettlementStatus) error {
	if errors.Is(err, repositories.ErrSettlementNotFound) {
		return apperrors.ErrSettlementNotFound
	}

	var mismatch *repositories.StateMismatchError
	if !errors.As(err, &mismatch) {
		return err
	}
	switch models.SettlementStatus(mismatch.Current) {
	case models.SettlementProcessing:
		return apperrors.ErrAlreadyProcessing
	case models.SettlementCompleted:
		if target == models.SettlementCompleted {
			return apperrors.ErrAlreadyProcessing.WithMessage("settlement is already completed")
		}
	}
	return apperrors.ErrInvalidStateTransition.WithMessage(
		"cannot move settlement from %s to %s", mismatch.Current, target)
}

func (s *service) gatewayFailure(id uint, op string, err error) error {
	s.logger.Warn("payment gateway call failed",
		zap.Uint("settlement_id", id),
		zap.String("operation", op),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %v", apperrors.ErrGatewayFailure, op, err)
}

func (s *service) fail(op string, err error) error {
	code := "internal"
	if de, ok := apperrors.AsDomain(err); ok {
		code = de.Code
	}
	s.metrics.RecordOperationResult(op, "failure")
	s.metrics.RecordError(op, code)

	if code == "internal" {
		s.logger.Error("settlement operation failed", zap.String("operation", op), zap.Error(err))
		return fmt.Errorf("%s failed: %w", op, err)
	}
	return err
}

// idempotencyKey is stable per settlement and fee so a retried creation
// returns the same intent.
func idempotencyKey(settlementID uint, fee int64) string {
	return fmt.Sprintf("swap-settlement-%d-%d", settlementID, fee)
}
