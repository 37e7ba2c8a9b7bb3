package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/CedrosPay/x402-facilitator/internal/circuitbreaker"
	"github.com/CedrosPay/x402-facilitator/internal/metrics"
)

func testMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	return metrics.New(prometheus.NewRegistry())
}

func TestSignAndVerifySignature(t *testing.T) {
	body := []byte(`{"event":"verification_success"}`)
	signature := sign("shh", body)

	if !VerifySignature("shh", body, signature) {
		t.Error("expected matching secret to verify")
	}
	if VerifySignature("wrong", body, signature) {
		t.Error("expected mismatched secret to fail verification")
	}
}

func TestDispatcher_DeliversSignedPayload(t *testing.T) {
	var received Payload
	var gotSignature string
	var mu sync.Mutex
	done := make(chan struct{}, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		json.NewDecoder(r.Body).Decode(&received)
		gotSignature = r.Header.Get("X-Webhook-Signature")
		w.WriteHeader(http.StatusOK)
		select {
		case done <- struct{}{}:
		default:
		}
	}))
	defer server.Close()

	d := New(Config{URL: server.URL, Secret: "topsecret", Timeout: time.Second, RetryAttempts: 3}, testMetrics(t), zerolog.Nop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(EventSettlementSuccess, map[string]interface{}{"signature": "abc"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for webhook delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	if received.Event != EventSettlementSuccess {
		t.Errorf("expected event %q, got %q", EventSettlementSuccess, received.Event)
	}
	if gotSignature == "" {
		t.Error("expected a non-empty signature header")
	}
}

func TestDispatcher_RetriesOnFailureThenGivesUp(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := New(Config{URL: server.URL, Secret: "s", Timeout: time.Second, RetryAttempts: 3}, testMetrics(t), zerolog.Nop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(EventVerificationFailure, map[string]interface{}{"reason": "bad"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&attempts) == 3 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", got)
	}
}

func TestDispatcher_DisabledWithoutURLIsNoop(t *testing.T) {
	d := New(Config{}, testMetrics(t), zerolog.Nop(), nil)
	if d.Enabled() {
		t.Error("expected dispatcher with no URL to be disabled")
	}
	// Must not panic or block.
	d.Enqueue(EventVerificationSuccess, nil)
}

func TestDispatcher_DeliveryGoesThroughCircuitBreaker(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	breaker := circuitbreaker.NewManager(circuitbreaker.WithEnabled(true), nil)
	d := New(Config{URL: server.URL, Secret: "s", Timeout: time.Second, RetryAttempts: 1}, testMetrics(t), zerolog.Nop(), breaker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(EventSettlementSuccess, map[string]interface{}{"signature": "abc"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&attempts) == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Fatalf("expected exactly one delivery attempt, got %d", got)
	}
	if state := breaker.State(circuitbreaker.ServiceWebhook); state != "closed" {
		t.Errorf("expected webhook breaker to remain closed, got %q", state)
	}
}

func TestDispatcher_DropsOldestWhenQueueFull(t *testing.T) {
	d := New(Config{URL: "http://127.0.0.1:0", Secret: "s", Timeout: time.Millisecond, RetryAttempts: 1}, testMetrics(t), zerolog.Nop(), nil)

	for i := 0; i < maxQueueDepth+10; i++ {
		d.Enqueue(EventVerificationSuccess, map[string]interface{}{"i": i})
	}

	d.mu.Lock()
	depth := d.queue.Len()
	d.mu.Unlock()

	if depth > maxQueueDepth {
		t.Errorf("expected queue depth capped at %d, got %d", maxQueueDepth, depth)
	}
}
