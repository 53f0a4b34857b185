package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistryRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegistry(registry)

	if m.LedgerOperations == nil || m.HTTPRequests == nil || m.OutboxPublished == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.DeductionsReplayed.Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestObserveOperation(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveOperation("deduct", time.Now(), "")
	m.ObserveOperation("deduct", time.Now(), "insufficient_balance")
	m.ObserveOperation("deposit", time.Now(), "storage_failure")

	if got := testutil.ToFloat64(m.LedgerOperations.WithLabelValues("deduct", "success")); got != 1 {
		t.Errorf("expected 1 successful deduct, got %v", got)
	}
	if got := testutil.ToFloat64(m.LedgerErrors.WithLabelValues("deduct", "insufficient_balance")); got != 1 {
		t.Errorf("expected 1 insufficient_balance error, got %v", got)
	}
	if got := testutil.ToFloat64(m.DBErrors.WithLabelValues("deposit")); got != 1 {
		t.Errorf("expected 1 database error for deposit, got %v", got)
	}
	if got := testutil.ToFloat64(m.DBErrors.WithLabelValues("deduct")); got != 0 {
		t.Errorf("expected ledger errors not to count as database errors, got %v", got)
	}
}
