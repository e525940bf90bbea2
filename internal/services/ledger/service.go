package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "swapledger/internal/errors"
	"swapledger/internal/models"
	"swapledger/internal/repositories"
	"swapledger/internal/services/audit"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type service struct {
	repo     repositories.LedgerRepository
	cache    WalletCache
	settings SettingsReader
	auditor  Auditor
	clock    clockwork.Clock
	logger   *zap.Logger
	config   Config
	metrics  MetricsCollector
}

// NewService creates a new ledger service
func NewService(
	repo repositories.LedgerRepository,
	cache WalletCache,
	settings SettingsReader,
	auditor Auditor,
	clock clockwork.Clock,
	logger *zap.Logger,
	config Config,
	metrics MetricsCollector,
) Service {
	if repo == nil {
		panic("repo is required")
	}

	// Set default configuration values if not provided
	if config.ExpirationMonths <= 0 {
		config.ExpirationMonths = DefaultExpirationMonths
	}
	if config.WarningWindow <= 0 {
		config.WarningWindow = DefaultWarningWindow
	}
	if config.ExpireBatchSize <= 0 {
		config.ExpireBatchSize = DefaultExpireBatchSize
	}

	if cache == nil {
		cache = noopCache{}
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
	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:     repo,
		cache:    cache,
		settings: settings,
		auditor:  auditor,
		clock:    clock,
		logger:   logger.Named("ledger"),
		config:   config,
		metrics:  metrics,
	}
}

// GetWallet returns the wallet summary, creating an empty wallet on first
// reference. Summaries are served from the cache when present.
func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	if userID == 0 {
		return nil, apperrors.ErrValidation.WithMessage("user_id is required")
	}

	cached, generation, err := s.cache.GetWallet(ctx, userID)
	if err != nil {
		s.logger.Warn("wallet cache read failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	if cached != nil {
		s.metrics.RecordCacheHit("wallet")
		return cached, nil
	}
	s.metrics.RecordCacheMiss("wallet")

	wallet, err := s.repo.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if err := s.cache.CacheWallet(ctx, wallet, generation); err != nil {
		s.logger.Warn("wallet cache write failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	return wallet, nil
}

func (s *service) ListEntries(ctx context.Context, userID uint, limit, offset int) (*EntryPage, error) {
	if userID == 0 {
		return nil, apperrors.ErrValidation.WithMessage("user_id is required")
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	entries, total, err := s.repo.ListEntries(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &EntryPage{Entries: entries, Total: total}, nil
}

// Reconcile compares the wallet balance with the sum of its active entries
// under the wallet lock. A mismatch is reported, logged and returned as
// ErrLedgerInconsistency; nothing is repaired.
func (s *service) Reconcile(ctx context.Context, userID uint) (*ReconcileReport, error) {
	if userID == 0 {
		return nil, apperrors.ErrValidation.WithMessage("user_id is required")
	}

	report := &ReconcileReport{UserID: userID}
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		wallet, err := tx.LockWallet(ctx, userID)
		if err != nil {
			return err
		}
		active, err := tx.SumActive(ctx, userID)
		if err != nil {
			return err
		}
		report.Balance = wallet.TotalBalance
		report.ActiveSum = active
		report.Consistent = wallet.TotalBalance == active && wallet.TotalBalance >= 0
		return nil
	})
	if err != nil {
		return nil, s.fail(OpReconcile, err)
	}

	if !report.Consistent {
		s.metrics.RecordInconsistency(userID)
		s.logger.Error("wallet does not match ledger",
			zap.Uint("user_id", userID),
			zap.Int64("balance", report.Balance),
			zap.Int64("active_sum", report.ActiveSum),
		)
		return report, apperrors.ErrLedgerInconsistency.WithMessage(
			"ledger inconsistency detected for user %d", userID)
	}
	return report, nil
}

func (s *service) now() time.Time {
	return s.clock.Now().UTC()
}

// expirationMonths resolves the deposit lifetime: setting first, then config.
func (s *service) expirationMonths(ctx context.Context) int {
	if s.settings == nil {
		return s.config.ExpirationMonths
	}
	setting, err := s.settings.Get(ctx, models.SettingCreditExpirationMonths)
	if err != nil {
		if !errors.Is(err, repositories.ErrSettingNotFound) {
			s.logger.Warn("failed to read expiration setting", zap.Error(err))
		}
		return s.config.ExpirationMonths
	}
	months, err := strconv.Atoi(setting.Value)
	if err != nil || months <= 0 {
		s.logger.Warn("ignoring invalid expiration setting", zap.String("value", setting.Value))
		return s.config.ExpirationMonths
	}
	return months
}

// committed runs the post-commit side effects of a write. None of them can
// fail the operation.
func (s *service) committed(ctx context.Context, op string, started time.Time, credits int64, event audit.Event, userIDs ...uint) {
	for _, id := range userIDs {
		if err := s.cache.InvalidateWallet(ctx, id); err != nil {
			s.logger.Warn("wallet cache invalidation failed", zap.Uint("user_id", id), zap.Error(err))
		}
	}
	s.metrics.RecordOperationDuration(op, s.clock.Since(started))
	s.metrics.RecordOperationResult(op, "success")
	s.metrics.RecordCredits(op, credits)
	s.auditor.Record(ctx, event)
}

// fail classifies err for the caller and records it.
func (s *service) fail(op string, err error) error {
	switch {
	case errors.Is(err, models.ErrNegativeBalance):
		err = apperrors.ErrInsufficientCredits
	case errors.Is(err, models.ErrCounterOverflow):
		err = apperrors.ErrValidation.WithMessage("amount would overflow the wallet totals")
	}

	code := errorCode(err)
	s.metrics.RecordOperationResult(op, "failure")
	s.metrics.RecordError(op, code)

	if code == "internal" {
		s.logger.Error("ledger operation failed", zap.String("operation", op), zap.Error(err))
		return fmt.Errorf("%s failed: %w", op, err)
	}
	return err
}

type noopCache struct{}

func (noopCache) GetWallet(context.Context, uint) (*models.Wallet, int64, error) { return nil, 0, nil }
func (noopCache) CacheWallet(context.Context, *models.Wallet, int64) error       { return nil }
func (noopCache) InvalidateWallet(context.Context, uint) error                   { return nil }
