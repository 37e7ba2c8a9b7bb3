package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics exposed by the facilitator.
type Metrics struct {
	VerifyTotal   *prometheus.CounterVec
	SettleTotal   *prometheus.CounterVec

	RPCCallsTotal   *prometheus.CounterVec
	RPCCallDuration *prometheus.HistogramVec
	RPCErrorsTotal  *prometheus.CounterVec

	WebhooksTotal       *prometheus.CounterVec
	WebhookRetriesTotal *prometheus.CounterVec
	WebhookDuration     *prometheus.HistogramVec

	BreakerStateChanges *prometheus.CounterVec

	RateLimitHitsTotal *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		VerifyTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facilitator_verify_total",
				Help: "Total number of /verify requests by network and outcome",
			},
			[]string{"network", "outcome"},
		),
		SettleTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facilitator_settle_total",
				Help: "Total number of /settle requests by network and outcome",
			},
			[]string{"network", "outcome"},
		),

		RPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facilitator_rpc_calls_total",
				Help: "Total number of RPC calls to the chain",
			},
			[]string{"method", "network"},
		),
		RPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "facilitator_rpc_call_duration_seconds",
				Help:    "Duration of RPC calls to the chain (supports p50, p95, p99 percentiles)",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "network"},
		),
		RPCErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facilitator_rpc_errors_total",
				Help: "Total number of RPC errors by method and network",
			},
			[]string{"method", "network"},
		),

		WebhooksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facilitator_webhooks_total",
				Help: "Total number of webhook deliveries by event type and outcome",
			},
			[]string{"event_type", "outcome"},
		),
		WebhookRetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facilitator_webhook_retries_total",
				Help: "Total number of webhook retry attempts by event type",
			},
			[]string{"event_type"},
		),
		WebhookDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "facilitator_webhook_duration_seconds",
				Help:    "Time taken for a webhook delivery attempt to complete",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"event_type"},
		),

		BreakerStateChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facilitator_circuit_breaker_state_changes_total",
				Help: "Total number of circuit breaker state transitions by service and new state",
			},
			[]string{"service", "state"},
		),

		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facilitator_rate_limit_hits_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}
}

// ObserveVerify records the outcome of a single verification.
func (m *Metrics) ObserveVerify(network, outcome string) {
	m.VerifyTotal.WithLabelValues(network, outcome).Inc()
}

// ObserveSettle records the outcome of a single settlement.
func (m *Metrics) ObserveSettle(network, outcome string) {
	m.SettleTotal.WithLabelValues(network, outcome).Inc()
}

// ObserveRPCCall records an RPC call to the chain.
func (m *Metrics) ObserveRPCCall(method, network string, duration time.Duration, err error) {
	m.RPCCallsTotal.WithLabelValues(method, network).Inc()
	m.RPCCallDuration.WithLabelValues(method, network).Observe(duration.Seconds())
	if err != nil {
		m.RPCErrorsTotal.WithLabelValues(method, network).Inc()
	}
}

// ObserveWebhook records a webhook delivery attempt.
func (m *Metrics) ObserveWebhook(eventType, outcome string, duration time.Duration, attempt int) {
	m.WebhooksTotal.WithLabelValues(eventType, outcome).Inc()
	m.WebhookDuration.WithLabelValues(eventType).Observe(duration.Seconds())
	if attempt > 1 {
		m.WebhookRetriesTotal.WithLabelValues(eventType).Inc()
	}
}

// ObserveBreakerStateChange records a circuit breaker transitioning to a new state.
func (m *Metrics) ObserveBreakerStateChange(service, state string) {
	m.BreakerStateChanges.WithLabelValues(service, state).Inc()
}

// ObserveRateLimitHit records a request rejected by the rate limiter.
func (m *Metrics) ObserveRateLimitHit(route string) {
	m.RateLimitHitsTotal.WithLabelValues(route).Inc()
}
