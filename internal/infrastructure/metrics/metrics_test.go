package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/switchledger/internal/domain"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.Movements == nil || m.HTTPRequests == nil || m.AccountsCreated == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.AccountCreated()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}

func TestObserveMovement(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveMovement(domain.MovementKindDebit, "committed", 10*time.Millisecond)
	m.ObserveMovement(domain.MovementKindDebit, "committed", 5*time.Millisecond)
	m.ObserveMovement(domain.MovementKind("BOGUS"), "rejected", time.Millisecond)

	if got := testutil.ToFloat64(m.Movements.WithLabelValues("DEBIT", "committed")); got != 2 {
		t.Fatalf("expected 2 committed debits, got %v", got)
	}
	if got := testutil.ToFloat64(m.Movements.WithLabelValues("invalid", "rejected")); got != 1 {
		t.Fatalf("expected invalid kind to be bucketed, got %v", got)
	}
}

func TestRetryObserved(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RetryObserved(errors.New("conflict"), 1)
	m.RetryObserved(errors.New("conflict"), 2)

	if got := testutil.ToFloat64(m.ConcurrencyRetries); got != 2 {
		t.Fatalf("expected 2 retries, got %v", got)
	}
}
