package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/switchledger/internal/domain"
)

const namespace = "switchledger"

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Movement metrics
	Movements          *prometheus.CounterVec
	MovementDuration   *prometheus.HistogramVec
	ConcurrencyRetries prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter

	// API metrics
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Idempotency cache metrics
	IdempotencyReplays prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Movements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "movements_total",
				Help:      "Movements processed by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		MovementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "movement_duration_seconds",
				Help:      "Duration of ApplyMovement calls, retries included",
				Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"kind"},
		),
		ConcurrencyRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concurrency_retries_total",
			Help:      "Attempts retried after a revision conflict",
		}),

		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_created_total",
			Help:      "Total number of accounts created",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),

		IdempotencyReplays: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotency_replays_total",
			Help:      "HTTP responses served from the idempotency cache",
		}),
	}
}

// ObserveMovement implements usecase.MetricsRecorder.
func (m *Metrics) ObserveMovement(kind domain.MovementKind, outcome string, d time.Duration) {
	label := string(kind)
	if !kind.IsValid() {
		label = "invalid"
	}

	m.Movements.WithLabelValues(label, outcome).Inc()
	m.MovementDuration.WithLabelValues(label).Observe(d.Seconds())
}

// AccountCreated implements usecase.MetricsRecorder.
func (m *Metrics) AccountCreated() {
	m.AccountsCreated.Inc()
}

// RetryObserved matches retry.Config.OnRetry.
func (m *Metrics) RetryObserved(error, int) {
	m.ConcurrencyRetries.Inc()
}
