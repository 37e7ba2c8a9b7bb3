// Package circuitbreaker provides per-service failure isolation for the
// two external-service concerns the facilitator depends on: chain RPC and
// webhook egress.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker"
)

// ServiceType identifies an external service for circuit breaker isolation.
type ServiceType string

const (
	ServiceChainRPC ServiceType = "chain_rpc"
	ServiceWebhook  ServiceType = "webhook"
)

// StateChangeObserver is notified whenever a breaker transitions state.
type StateChangeObserver func(service ServiceType, state string)

// Manager manages circuit breakers for chain RPC and webhook delivery.
type Manager struct {
	breakers map[ServiceType]*gobreaker.CircuitBreaker
	enabled  bool
}

// Config holds circuit breaker configuration for both services.
type Config struct {
	Enabled  bool
	ChainRPC BreakerConfig
	Webhook  BreakerConfig
}

// BreakerConfig configures a single circuit breaker.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32
}

// DefaultConfig returns sensible defaults for both breakers.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		ChainRPC: BreakerConfig{
			MaxRequests:         3,
			Interval:            60 * time.Second,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
			FailureRatio:        0.5,
			MinRequests:         10,
		},
		Webhook: BreakerConfig{
			MaxRequests:         5,
			Interval:            60 * time.Second,
			Timeout:             60 * time.Second,
			ConsecutiveFailures: 10,
			FailureRatio:        0.7,
			MinRequests:         20,
		},
	}
}

// WithEnabled returns a copy of DefaultConfig with Enabled set from the
// application's top-level toggle. Per-service tuning has no equivalent in
// application config and is hardcoded here.
func WithEnabled(enabled bool) Config {
	cfg := DefaultConfig()
	cfg.Enabled = enabled
	return cfg
}

// NewManager creates a circuit breaker manager. onStateChange, if non-nil,
// is invoked on every transition so the caller can record a metric.
func NewManager(cfg Config, onStateChange StateChangeObserver) *Manager {
	m := &Manager{
		breakers: make(map[ServiceType]*gobreaker.CircuitBreaker, 2),
		enabled:  cfg.Enabled,
	}

	if !cfg.Enabled {
		return m
	}

	m.breakers[ServiceChainRPC] = gobreaker.NewCircuitBreaker(
		toGobreakerSettings(ServiceChainRPC, cfg.ChainRPC, onStateChange))
	m.breakers[ServiceWebhook] = gobreaker.NewCircuitBreaker(
		toGobreakerSettings(ServiceWebhook, cfg.Webhook, onStateChange))

	return m
}

// Execute wraps a function call with circuit breaker protection. If
// circuit breaking is disabled or not configured for service, it executes
// fn directly.
func (m *Manager) Execute(service ServiceType, fn func() (interface{}, error)) (interface{}, error) {
	if !m.enabled {
		return fn()
	}
	breaker, ok := m.breakers[service]
	if !ok {
		return fn()
	}
	return breaker.Execute(fn)
}

// State returns the current state of a circuit breaker: "disabled",
// "not_configured", or the gobreaker state name.
func (m *Manager) State(service ServiceType) string {
	if !m.enabled {
		return "disabled"
	}
	breaker, ok := m.breakers[service]
	if !ok {
		return "not_configured"
	}
	return breaker.State().String()
}

func toGobreakerSettings(service ServiceType, cfg BreakerConfig, onStateChange StateChangeObserver) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        string(service),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			if cfg.FailureRatio > 0 && cfg.MinRequests > 0 && counts.Requests >= cfg.MinRequests {
				failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
				if failureRate >= cfg.FailureRatio {
					return true
				}
			}
			return false
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if onStateChange != nil {
				onStateChange(service, to.String())
			}
		},
	}
}
