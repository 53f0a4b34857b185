package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	LedgerOperations   *prometheus.CounterVec
	LedgerErrors       *prometheus.CounterVec
	LedgerDuration     *prometheus.HistogramVec
	LedgerAmount       *prometheus.HistogramVec
	DeductionsReplayed prometheus.Counter

	// Vendor metrics
	VendorDepositBalance *prometheus.GaugeVec
	OrderTransitions     *prometheus.CounterVec

	// Reconciliation metrics
	ReconciliationRuns          prometheus.Counter
	ReconciliationDiscrepancies prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registerer
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics and registers them on reg
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		LedgerOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depositledger_operations_total",
				Help: "Total ledger operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		LedgerErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depositledger_errors_total",
				Help: "Total ledger errors by operation and error kind",
			},
			[]string{"operation", "kind"},
		),
		LedgerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "depositledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LedgerAmount: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "depositledger_amount",
				Help:    "Amounts moved by ledger operations",
				Buckets: []float64{1_000, 10_000, 100_000, 1_000_000, 10_000_000, 100_000_000},
			},
			[]string{"operation"},
		),
		DeductionsReplayed: f.NewCounter(prometheus.CounterOpts{
			Name: "depositledger_deductions_replayed_total",
			Help: "Deduct calls answered with an already recorded transaction",
		}),

		VendorDepositBalance: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "depositledger_vendor_deposit_balance",
				Help: "Deposit balance after the last ledger write",
			},
			[]string{"vendor_id"},
		),
		OrderTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depositledger_order_transitions_total",
				Help: "Vendor order status transitions by target status",
			},
			[]string{"status"},
		),

		ReconciliationRuns: f.NewCounter(prometheus.CounterOpts{
			Name: "depositledger_reconciliation_runs_total",
			Help: "Total vendor reconciliations performed",
		}),
		ReconciliationDiscrepancies: f.NewCounter(prometheus.CounterOpts{
			Name: "depositledger_reconciliation_discrepancies_total",
			Help: "Vendors whose balance did not match their transaction history",
		}),

		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "depositledger_outbox_published_total",
			Help: "Outbox events published",
		}),
		OutboxErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "depositledger_outbox_errors_total",
			Help: "Outbox events that failed to publish",
		}),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depositledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "depositledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		DBConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "depositledger_db_connections",
			Help: "Current number of acquired database connections",
		}),
		DBErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depositledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		RedisOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depositledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depositledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depositledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"path"},
		),
	}
}

// ObserveOperation records the outcome and duration of one ledger operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time, errKind string) {
	outcome := "success"
	if errKind != "" {
		outcome = "error"
		m.LedgerErrors.WithLabelValues(operation, errKind).Inc()
		if errKind == "storage_failure" {
			m.DBErrors.WithLabelValues(operation).Inc()
		}
	}
	m.LedgerOperations.WithLabelValues(operation, outcome).Inc()
	m.LedgerDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
