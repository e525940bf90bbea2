package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordOperationResult(string, string)          {}
func (n *NoopMetricsCollector) RecordCredits(string, int64)                   {}
func (n *NoopMetricsCollector) RecordCacheHit(string)                         {}
func (n *NoopMetricsCollector) RecordCacheMiss(string)                        {}
func (n *NoopMetricsCollector) RecordError(string, string)                    {}
func (n *NoopMetricsCollector) RecordInconsistency(uint)                      {}

// PrometheusMetrics exports ledger and settlement metrics.
type PrometheusMetrics struct {
	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	credits         *prometheus.CounterVec
	cache           *prometheus.CounterVec
	errors          *prometheus.CounterVec
	inconsistencies prometheus.Counter
}

// NewPrometheusMetrics registers the collectors on reg, or on the default
// registry when reg is nil.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapledger_operations_total",
				Help: "Ledger and settlement operations by result",
			},
			[]string{"operation", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swapledger_operation_duration_seconds",
				Help:    "Time spent per ledger or settlement operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		credits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapledger_credits_total",
				Help: "Credits moved per operation",
			},
			[]string{"operation"},
		),
		cache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapledger_wallet_cache_total",
				Help: "Wallet cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapledger_errors_total",
				Help: "Failed operations by error code",
			},
			[]string{"operation", "code"},
		),
		inconsistencies: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "swapledger_ledger_inconsistencies_total",
				Help: "Wallets found disagreeing with their active entries",
			},
		),
	}
}

func (m *PrometheusMetrics) RecordOperationDuration(operation string, d time.Duration) {
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordOperationResult(operation, result string) {
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *PrometheusMetrics) RecordCredits(operation string, amount int64) {
	if amount > 0 {
		m.credits.WithLabelValues(operation).Add(float64(amount))
	}
}

func (m *PrometheusMetrics) RecordCacheHit(string) {
	m.cache.WithLabelValues("hit").Inc()
}

func (m *PrometheusMetrics) RecordCacheMiss(string) {
	m.cache.WithLabelValues("miss").Inc()
}

func (m *PrometheusMetrics) RecordError(operation, errType string) {
	m.errors.WithLabelValues(operation, errType).Inc()
}

// RecordInconsistency counts a mismatch. The user id goes to the error log,
// not to a label.
func (m *PrometheusMetrics) RecordInconsistency(uint) {
	m.inconsistencies.Inc()
}
