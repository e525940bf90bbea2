// Package workers runs the engine's scheduled background jobs.
package workers

import (
	"context"
	"fmt"
	"time"

	"swapledger/internal/services/ledger"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	// DefaultExpirationCron runs the sweep at the top of every hour.
	DefaultExpirationCron = "0 * * * *"
	defaultSweepTimeout   = 10 * time.Minute
)

type Expirer interface {
	Expire(ctx context.Context) (*ledger.ExpireReport, error)
}

// ExpirationWorker periodically expires deposits whose lifetime has passed.
// Runs never overlap; a run still going when the next one is due delays it.
type ExpirationWorker struct {
	expirer   Expirer
	scheduler gocron.Scheduler
	cron      string
	timeout   time.Duration
	logger    *zap.Logger
}

func NewExpirationWorker(expirer Expirer, cron string, clock clockwork.Clock, logger *zap.Logger) (*ExpirationWorker, error) {
	if cron == "" {
		cron = DefaultExpirationCron
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	scheduler, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &ExpirationWorker{
		expirer:   expirer,
		scheduler: scheduler,
		cron:      cron,
		timeout:   defaultSweepTimeout,
		logger:    logger.Named("expiration_worker"),
	}, nil
}

// Start registers the sweep and starts the scheduler.
func (w *ExpirationWorker) Start() error {
	_, err := w.scheduler.NewJob(
		gocron.CronJob(w.cron, false),
		gocron.NewTask(func() {
			w.RunOnce(context.Background())
		}),
		gocron.WithName("credit-expiration"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule expiration job %q: %w", w.cron, err)
	}

	w.scheduler.Start()
	w.logger.Info("expiration worker started", zap.String("cron", w.cron))
	return nil
}

// RunOnce performs a single sweep and logs its outcome.
func (w *ExpirationWorker) RunOnce(ctx context.Context) *ledger.ExpireReport {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	report, err := w.expirer.Expire(ctx)
	if err != nil {
		w.logger.Error("expiration sweep failed", zap.Error(err))
		return report
	}

	fields := []zap.Field{
		zap.Int("scanned", report.Scanned),
		zap.Int("expired", report.Expired),
		zap.Int64("credits", report.Credits),
		zap.Int("failed", report.Failed),
	}
	if report.Failed > 0 {
		w.logger.Warn("expiration sweep finished with failures", fields...)
	} else {
		w.logger.Info("expiration sweep finished", fields...)
	}
	return report
}

// Stop waits for a running sweep and shuts the scheduler down.
func (w *ExpirationWorker) Stop() error {
	return w.scheduler.Shutdown()
}
