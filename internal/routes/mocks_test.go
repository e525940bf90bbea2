package routes

import (
	"context"

	"swapledger/internal/models"
	"swapledger/internal/services/audit"
	"swapledger/internal/services/ledger"
	"swapledger/internal/services/settlement"

	"github.com/stretchr/testify/mock"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Login(ctx context.Context, email, password string) (*models.Operator, string, error) {
	args := m.Called(ctx, email, password)
	op, _ := args.Get(0).(*models.Operator)
	return op, args.String(1), args.Error(2)
}

func (m *mockAuth) Authenticate(ctx context.Context, token string) (*models.OperatorClaims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*models.OperatorClaims)
	return claims, args.Error(1)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) Deposit(ctx context.Context, in ledger.DepositInput) (*ledger.Receipt, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*ledger.Receipt)
	return r, args.Error(1)
}

func (m *mockLedger) Spend(ctx context.Context, in ledger.SpendInput) (*ledger.Receipt, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*ledger.Receipt)
	return r, args.Error(1)
}

func (m *mockLedger) Refund(ctx context.Context, in ledger.RefundInput) (*ledger.Receipt, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*ledger.Receipt)
	return r, args.Error(1)
}

func (m *mockLedger) Transfer(ctx context.Context, in ledger.TransferInput) (*ledger.TransferReceipt, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*ledger.TransferReceipt)
	return r, args.Error(1)
}

func (m *mockLedger) Adjust(ctx context.Context, in ledger.AdjustInput) (*ledger.Receipt, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*ledger.Receipt)
	return r, args.Error(1)
}

func (m *mockLedger) Expire(ctx context.Context) (*ledger.ExpireReport, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*ledger.ExpireReport)
	return r, args.Error(1)
}

func (m *mockLedger) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	w, _ := args.Get(0).(*models.Wallet)
	return w, args.Error(1)
}

func (m *mockLedger) ListEntries(ctx context.Context, userID uint, limit, offset int) (*ledger.EntryPage, error) {
	args := m.Called(ctx, userID, limit, offset)
	p, _ := args.Get(0).(*ledger.EntryPage)
	return p, args.Error(1)
}

func (m *mockLedger) Reconcile(ctx context.Context, userID uint) (*ledger.ReconcileReport, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).(*ledger.ReconcileReport)
	return r, args.Error(1)
}

type mockSettlements struct{ mock.Mock }

func (m *mockSettlements) Create(ctx context.Context, in settlement.CreateInput) (*models.SwapSettlement, error) {
	args := m.Called(ctx, in)
	s, _ := args.Get(0).(*models.SwapSettlement)
	return s, args.Error(1)
}

func (m *mockSettlements) Get(ctx context.Context, id uint) (*models.SwapSettlement, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.SwapSettlement)
	return s, args.Error(1)
}

func (m *mockSettlements) Match(ctx context.Context, id uint, actor string) (*models.SwapSettlement, error) {
	args := m.Called(ctx, id, actor)
	s, _ := args.Get(0).(*models.SwapSettlement)
	return s, args.Error(1)
}

func (m *mockSettlements) Cancel(ctx context.Context, id uint, reason, actor string) (*models.SwapSettlement, error) {
	args := m.Called(ctx, id, reason, actor)
	s, _ := args.Get(0).(*models.SwapSettlement)
	return s, args.Error(1)
}

func (m *mockSettlements) Complete(ctx context.Context, id uint, actor string) (*settlement.CompletionResult, error) {
	args := m.Called(ctx, id, actor)
	r, _ := args.Get(0).(*settlement.CompletionResult)
	return r, args.Error(1)
}

type mockSettings struct{ mock.Mock }

func (m *mockSettings) Get(ctx context.Context, key string) (*models.Setting, error) {
	args := m.Called(ctx, key)
	s, _ := args.Get(0).(*models.Setting)
	return s, args.Error(1)
}

func (m *mockSettings) Set(ctx context.Context, key, value, updatedBy string) (*models.Setting, error) {
	args := m.Called(ctx, key, value, updatedBy)
	s, _ := args.Get(0).(*models.Setting)
	return s, args.Error(1)
}

type mockAudits struct{ mock.Mock }

func (m *mockAudits) Create(ctx context.Context, entry *models.AuditLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockAudits) List(ctx context.Context, action string, limit, offset int) ([]models.AuditLog, int64, error) {
	args := m.Called(ctx, action, limit, offset)
	logs, _ := args.Get(0).([]models.AuditLog)
	return logs, args.Get(1).(int64), args.Error(2)
}

type recordedEvents struct{ events []audit.Event }

func (r *recordedEvents) Record(_ context.Context, e audit.Event) { r.events = append(r.events, e) }
