package settlement

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"swapledger/internal/models"
	"swapledger/internal/repositories"
	"swapledger/internal/services/payment"
)

// memSettlements mimics the guarded transitions of the Postgres repository:
// every step runs under one mutex, which plays the row lock.
type memSettlements struct {
	mu          sync.Mutex
	nextID      uint
	settlements map[uint]*models.SwapSettlement
	fees        map[uint]*models.FeeRecord
	completeErr error
	// completedReadErr fails reads of settlements that are already completed.
	completedReadErr error
}

func newMemSettlements() *memSettlements {
	return &memSettlements{
		settlements: map[uint]*models.SwapSettlement{},
		fees:        map[uint]*models.FeeRecord{},
	}
}

func (m *memSettlements) Create(_ context.Context, s *models.SwapSettlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.settlements[s.ID] = &cp
	return nil
}

func (m *memSettlements) GetByID(_ context.Context, id uint) (*models.SwapSettlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settlements[id]
	if !ok {
		return nil, repositories.ErrSettlementNotFound
	}
	if m.completedReadErr != nil && s.Status == models.SettlementCompleted {
		return nil, m.completedReadErr
	}
	cp := *s
	return &cp, nil
}

func (m *memSettlements) SetPaymentIntent(_ context.Context, id uint, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlements[id].PaymentIntentID = intentID
	return nil
}

func (m *memSettlements) Begin(ctx context.Context, id uint, expected []models.SettlementStatus, next models.SettlementStatus) (*repositories.Transition, error) {
	return m.Transit(ctx, id, expected, next, nil)
}

func (m *memSettlements) Transit(_ context.Context, id uint, expected []models.SettlementStatus, next models.SettlementStatus, fields map[string]interface{}) (*repositories.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settlements[id]
	if !ok {
		return nil, repositories.ErrSettlementNotFound
	}

	allowed := false
	names := make([]string, len(expected))
	for i, e := range expected {
		names[i] = string(e)
		if s.Status == e {
			allowed = true
		}
	}
	if !allowed {
		return nil, &repositories.StateMismatchError{Current: string(s.Status), Expected: names}
	}

	from := s.Status
	s.Status = next
	if reason, ok := fields["cancel_reason"].(string); ok {
		s.CancelReason = reason
	}
	return &repositories.Transition{ID: id, From: string(from), To: string(next)}, nil
}

func (m *memSettlements) Complete(_ context.Context, t *repositories.Transition, fee int64, completedAt time.Time, record *models.FeeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completeErr != nil {
		return m.completeErr
	}
	s := m.settlements[t.ID]
	if string(s.Status) != t.To {
		return repositories.ErrStaleTransition
	}
	if _, dup := m.fees[t.ID]; dup {
		return repositories.ErrDuplicateFeeRecord
	}
	s.Status = models.SettlementCompleted
	s.SwapFee = fee
	s.CompletedAt = &completedAt
	cp := *record
	m.fees[t.ID] = &cp
	return nil
}

func (m *memSettlements) Revert(_ context.Context, t *repositories.Transition, to models.SettlementStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.settlements[t.ID]
	if string(s.Status) != t.To {
		return repositories.ErrStaleTransition
	}
	s.Status = to
	return nil
}

func (m *memSettlements) GetFeeRecord(_ context.Context, settlementID uint) (*models.FeeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.fees[settlementID]
	if !ok {
		return nil, repositories.ErrFeeRecordNotFound
	}
	return r, nil
}

func (m *memSettlements) feeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fees)
}

// fakeGateway records calls. Confirming an intent twice reports the same charge.
type fakeGateway struct {
	creates     atomic.Int32
	confirms    atomic.Int32
	createErr   error
	confirmErr  error
	lastRequest payment.IntentRequest
	mu          sync.Mutex
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.creates.Add(1)
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.mu.Lock()
	g.lastRequest = req
	g.mu.Unlock()
	return &payment.Intent{ID: "pi_" + req.IdempotencyKey, Status: "requires_confirmation"}, nil
}

func (g *fakeGateway) ConfirmPayment(_ context.Context, intentID string) (*payment.Confirmation, error) {
	g.confirms.Add(1)
	if g.confirmErr != nil {
		return nil, g.confirmErr
	}
	g.mu.Lock()
	amount := g.lastRequest.Amount
	g.mu.Unlock()
	return &payment.Confirmation{
		IntentID: intentID,
		Status:   "succeeded",
		ChargeID: "ch_" + intentID,
		Amount:   amount,
		Currency: "usd",
	}, nil
}

type fakeSettings struct {
	values map[string]string
	err    error
}

func (f *fakeSettings) Get(_ context.Context, key string) (*models.Setting, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[key]
	if !ok {
		return nil, repositories.ErrSettingNotFound
	}
	return &models.Setting{Key: key, Value: v}, nil
}
