// Package webhook delivers signed, best-effort notifications of
// verification and settlement outcomes to a configured HTTP endpoint.
package webhook

import (
	"bytes"
	"container/list"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/CedrosPay/x402-facilitator/internal/circuitbreaker"
	"github.com/CedrosPay/x402-facilitator/internal/httputil"
	"github.com/CedrosPay/x402-facilitator/internal/metrics"
)

// Event identifies the kind of outcome a webhook payload reports.
type Event string

const (
	EventVerificationSuccess Event = "verification_success"
	EventVerificationFailure Event = "verification_failure"
	EventSettlementSuccess   Event = "settlement_success"
	EventSettlementFailure   Event = "settlement_failure"
)

// maxQueueDepth bounds the number of pending deliveries kept in memory.
// Once full, the oldest pending delivery is dropped in favor of the new
// one: a backlog of stale notifications is worth less than room for the
// freshest ones.
const maxQueueDepth = 1000

// Payload is the signed body delivered to the webhook endpoint.
type Payload struct {
	Event     Event                  `json:"event"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Dispatcher queues webhook deliveries and drains them on a background
// goroutine so callers never block on network I/O.
type Dispatcher struct {
	url           string
	secret        string
	retryAttempts int
	httpClient    *http.Client
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	breaker       *circuitbreaker.Manager

	mu       sync.Mutex
	queue    *list.List
	notify   chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// Config carries the webhook destination and delivery tuning.
type Config struct {
	URL           string
	Secret        string
	Timeout       time.Duration
	RetryAttempts int
}

// New creates a Dispatcher. If cfg.URL is empty, the returned Dispatcher's
// Enqueue is a no-op: webhooks are optional. breaker may be nil, in which
// case deliveries run without circuit breaker protection.
func New(cfg Config, m *metrics.Metrics, logger zerolog.Logger, breaker *circuitbreaker.Manager) *Dispatcher {
	return &Dispatcher{
		url:           cfg.URL,
		secret:        cfg.Secret,
		retryAttempts: cfg.RetryAttempts,
		httpClient:    httputil.NewClient(cfg.Timeout),
		metrics:       m,
		logger:        logger,
		breaker:       breaker,
		queue:         list.New(),
		notify:        make(chan struct{}, 1),
		stopped:       make(chan struct{}),
	}
}

// Enabled reports whether a destination URL is configured.
func (d *Dispatcher) Enabled() bool {
	return d.url != ""
}

// Start runs the delivery worker until ctx is canceled.
func (d *Dispatcher) Start(ctx context.Context) {
	if !d.Enabled() {
		return
	}
	go d.run(ctx)
}

// Enqueue schedules a webhook delivery without blocking. If the queue is
// at capacity, the oldest pending delivery is dropped to make room.
func (d *Dispatcher) Enqueue(event Event, data map[string]interface{}) {
	if !d.Enabled() {
		return
	}

	payload := Payload{Event: event, Timestamp: time.Now().Unix(), Data: data}

	d.mu.Lock()
	if d.queue.Len() >= maxQueueDepth {
		dropped := d.queue.Remove(d.queue.Front())
		d.logger.Warn().Interface("dropped_event", dropped).Msg("webhook.queue_full_dropping_oldest")
	}
	d.queue.PushBack(payload)
	d.mu.Unlock()

	select {
	case d.notify <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		payload, ok := d.dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-d.notify:
				continue
			}
		}

		d.deliverWithRetries(ctx, payload)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (d *Dispatcher) dequeue() (Payload, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	elem := d.queue.Front()
	if elem == nil {
		return Payload{}, false
	}
	d.queue.Remove(elem)
	return elem.Value.(Payload), true
}

func (d *Dispatcher) deliverWithRetries(ctx context.Context, payload Payload) {
	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= d.retryAttempts; attempt++ {
		if err := d.deliverOnce(ctx, payload); err != nil {
			lastErr = err
			if attempt < d.retryAttempts {
				backoff := time.Duration(100*(1<<uint(attempt-1))) * time.Millisecond
				timer := time.NewTimer(backoff)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			continue
		}

		d.metrics.ObserveWebhook(string(payload.Event), "success", time.Since(start), attempt)
		return
	}

	d.metrics.ObserveWebhook(string(payload.Event), "failure", time.Since(start), d.retryAttempts)
	d.logger.Warn().
		Str("event", string(payload.Event)).
		Int("attempts", d.retryAttempts).
		Err(lastErr).
		Msg("webhook.delivery_abandoned")
}

func (d *Dispatcher) deliverOnce(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	signature := sign(d.secret, body)

	send := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Webhook-Signature", signature)
		req.Header.Set("User-Agent", "x402-facilitator/1.0")

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, nil
	}

	if d.breaker == nil {
		_, err := send()
		return err
	}
	_, err = d.breaker.Execute(circuitbreaker.ServiceWebhook, send)
	return err
}

// sign computes the hex-encoded HMAC-SHA256 of body using secret.
func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature is the expected HMAC-SHA256
// of body under secret. Exposed for webhook receivers validating
// deliveries from this facilitator.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected := sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
