// Package ratelimit applies a single global request-rate ceiling across
// all facilitator endpoints.
package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/CedrosPay/x402-facilitator/internal/metrics"
)

// Config holds global rate limiting configuration.
type Config struct {
	Enabled   bool
	PerSecond int
	BurstSize int
	Metrics   *metrics.Metrics
}

type rateLimitResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

// Limiter builds a middleware enforcing cfg's global request rate. When
// disabled it returns a pass-through middleware.
func Limiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	// BurstSize is added to PerSecond: every one-second window admits up
	// to PerSecond+BurstSize requests, so it raises the sustained rate too.
	// All requests share one key, making the ceiling global.
	return httprate.Limit(
		cfg.PerSecond+cfg.BurstSize,
		time.Second,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "global", nil
		}),
		httprate.WithLimitHandler(limitExceededHandler(cfg.Metrics)),
	)
}

func limitExceededHandler(m *metrics.Metrics) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if m != nil {
			m.ObserveRateLimitHit(r.URL.Path)
		}

		response := rateLimitResponse{
			Error:             "rate_limit_exceeded",
			Message:           "Rate limit exceeded. Please try again later.",
			RetryAfterSeconds: 1,
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", fmt.Sprintf("%d", response.RetryAfterSeconds))
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(response)
	}
}
