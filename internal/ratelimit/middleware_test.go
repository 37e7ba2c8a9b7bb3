package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/CedrosPay/x402-facilitator/internal/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func testMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	return metrics.New(prometheus.NewRegistry())
}

func TestLimiter_DisabledPassesThrough(t *testing.T) {
	limiter := Limiter(Config{Enabled: false})
	handler := limiter(okHandler())

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest("GET", "/verify", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestLimiter_EnabledRejectsOverLimit(t *testing.T) {
	cfg := Config{
		Enabled:   true,
		PerSecond: 2,
		BurstSize: 0,
		Metrics:   testMetrics(t),
	}
	limiter := Limiter(cfg)
	handler := limiter(okHandler())

	server := httptest.NewServer(handler)
	defer server.Close()

	var sawLimited bool
	for i := 0; i < 10; i++ {
		resp, err := http.Get(server.URL + "/verify")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			sawLimited = true
			break
		}
	}

	if !sawLimited {
		t.Error("expected at least one request to be rate limited")
	}
}
