package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/gowallet/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	Operations         *prometheus.CounterVec
	OperationErrors    *prometheus.CounterVec
	AccountsRegistered prometheus.Counter

	// Fraud metrics
	TransactionsFlagged     *prometheus.CounterVec
	FraudEvaluationFailures prometheus.Counter

	// Alert metrics
	AlertsEnqueued  prometheus.Counter
	AlertsDelivered prometheus.Counter
	AlertsDropped   prometheus.Counter
	AlertsFailed    prometheus.Counter
	AlertQueueDepth prometheus.Gauge
	BreakerState    *prometheus.GaugeVec

	// API metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	HTTPInFlight  prometheus.Gauge
	RateLimitHits prometheus.Counter

	// Authentication metrics
	AuthFailures *prometheus.CounterVec
}

// New creates all metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_operations_total",
				Help: "Total ledger operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_operation_errors_total",
				Help: "Total rejected ledger operations by error type",
			},
			[]string{"operation", "error_type"},
		),
		AccountsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_accounts_registered_total",
			Help: "Total number of accounts registered",
		}),

		// Fraud metrics
		TransactionsFlagged: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_transactions_flagged_total",
				Help: "Total flagged transactions by alert reason",
			},
			[]string{"reason"},
		),
		FraudEvaluationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_fraud_evaluation_failures_total",
			Help: "Total fraud evaluations that failed and left a transaction unscreened",
		}),

		// Alert metrics
		AlertsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_alerts_dispatched_total",
			Help: "Total fraud alerts accepted by the dispatcher",
		}),
		AlertsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_alerts_delivered_total",
			Help: "Total fraud alerts delivered to the sink",
		}),
		AlertsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_alerts_dropped_total",
			Help: "Total fraud alerts dropped because the queue was full or closed",
		}),
		AlertsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_alerts_failed_total",
			Help: "Total fraud alerts the sink failed to accept",
		}),
		AlertQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gowallet_alert_queue_depth",
			Help: "Current number of alerts waiting for delivery",
		}),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gowallet_circuit_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gowallet_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gowallet_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),

		// Authentication metrics
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),
	}
}

// ObserveOperation counts a ledger operation and, on failure, its error type.
func (m *Metrics) ObserveOperation(op string, err error) {
	if err == nil {
		m.Operations.WithLabelValues(op, "success").Inc()
		return
	}
	m.Operations.WithLabelValues(op, "error").Inc()
	m.OperationErrors.WithLabelValues(op, ErrorType(err)).Inc()
}

// ObserveFlagged counts each reason a transaction was flagged for.
func (m *Metrics) ObserveFlagged(reasons []string) {
	for _, r := range reasons {
		m.TransactionsFlagged.WithLabelValues(r).Inc()
	}
}

// ObserveFraudFailure counts a failed fraud evaluation.
func (m *Metrics) ObserveFraudFailure() {
	m.FraudEvaluationFailures.Inc()
}

// ObserveRegistration counts a new account.
func (m *Metrics) ObserveRegistration() {
	m.AccountsRegistered.Inc()
}

// AlertEnqueued implements alerting.Recorder.
func (m *Metrics) AlertEnqueued() { m.AlertsEnqueued.Inc() }

// AlertDropped implements alerting.Recorder.
func (m *Metrics) AlertDropped() { m.AlertsDropped.Inc() }

// AlertDelivered implements alerting.Recorder.
func (m *Metrics) AlertDelivered() { m.AlertsDelivered.Inc() }

// AlertFailed implements alerting.Recorder.
func (m *Metrics) AlertFailed() { m.AlertsFailed.Inc() }

// QueueDepth implements alerting.Recorder.
func (m *Metrics) QueueDepth(n int) { m.AlertQueueDepth.Set(float64(n)) }

// BreakerStateChanged implements alerting.Recorder.
func (m *Metrics) BreakerStateChanged(name string, state int) {
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// ErrorType maps a domain error to a low-cardinality label.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInvalidCurrency):
		return "invalid_currency"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrAccountInactive):
		return "account_inactive"
	case errors.Is(err, domain.ErrInvalidRecipient):
		return "invalid_recipient"
	case errors.Is(err, domain.ErrInvalidIndex):
		return "invalid_index"
	case errors.Is(err, domain.ErrTransactionNotFound):
		return "transaction_not_found"
	case errors.Is(err, domain.ErrAlreadyExists):
		return "already_exists"
	default:
		return "internal"
	}
}
