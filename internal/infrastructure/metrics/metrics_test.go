package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/gowallet/internal/domain"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.Operations == nil || m.HTTPRequests == nil || m.AlertsDropped == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.ObserveOperation("deposit", nil)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("withdraw", nil)
	m.ObserveOperation("withdraw", fmt.Errorf("%w: balance 1", domain.ErrInsufficientFunds))
	m.ObserveOperation("withdraw", errors.New("boom"))

	if got := testutil.ToFloat64(m.Operations.WithLabelValues("withdraw", "success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(m.Operations.WithLabelValues("withdraw", "error")); got != 2 {
		t.Fatalf("expected 2 errors, got %v", got)
	}
	if got := testutil.ToFloat64(m.OperationErrors.WithLabelValues("withdraw", "insufficient_funds")); got != 1 {
		t.Fatalf("expected insufficient_funds label, got %v", got)
	}
	if got := testutil.ToFloat64(m.OperationErrors.WithLabelValues("withdraw", "internal")); got != 1 {
		t.Fatalf("expected internal label, got %v", got)
	}
}

func TestFraudAndAlertCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveFlagged([]string{"Large withdrawal", "Multiple transfers in short period"})
	m.ObserveFraudFailure()
	m.AlertEnqueued()
	m.AlertDropped()
	m.QueueDepth(7)

	if got := testutil.ToFloat64(m.TransactionsFlagged.WithLabelValues("Large withdrawal")); got != 1 {
		t.Fatalf("expected flagged counter, got %v", got)
	}
	if got := testutil.ToFloat64(m.FraudEvaluationFailures); got != 1 {
		t.Fatalf("expected fraud failure counter, got %v", got)
	}
	if got := testutil.ToFloat64(m.AlertsDropped); got != 1 {
		t.Fatalf("expected dropped counter, got %v", got)
	}
	if got := testutil.ToFloat64(m.AlertQueueDepth); got != 7 {
		t.Fatalf("expected queue depth 7, got %v", got)
	}
}
