package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ChainRPC.ConsecutiveFailures = 2
	cfg.ChainRPC.MinRequests = 0
	cfg.ChainRPC.FailureRatio = 0
	cfg.ChainRPC.Timeout = 10 * time.Millisecond
	cfg.Webhook.ConsecutiveFailures = 2
	cfg.Webhook.MinRequests = 0
	cfg.Webhook.FailureRatio = 0
	return cfg
}

func TestExecute_PassesThroughResultAndError(t *testing.T) {
	m := NewManager(testConfig(), nil)

	result, err := m.Execute(ServiceChainRPC, func() (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected result 'ok', got %v", result)
	}
}

func TestExecute_TripsAfterConsecutiveFailures(t *testing.T) {
	m := NewManager(testConfig(), nil)
	failFn := func() (interface{}, error) { return nil, errors.New("boom") }

	for i := 0; i < 2; i++ {
		if _, err := m.Execute(ServiceChainRPC, failFn); err == nil {
			t.Fatal("expected failure to propagate")
		}
	}

	if state := m.State(ServiceChainRPC); state != "open" {
		t.Errorf("expected breaker to be open after consecutive failures, got %s", state)
	}

	_, err := m.Execute(ServiceChainRPC, func() (interface{}, error) {
		return "should not run", nil
	})
	if err == nil {
		t.Fatal("expected open breaker to reject the call")
	}
}

func TestExecute_DisabledBypassesBreaker(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	m := NewManager(cfg, nil)

	failFn := func() (interface{}, error) { return nil, errors.New("boom") }
	for i := 0; i < 10; i++ {
		m.Execute(ServiceChainRPC, failFn)
	}

	if state := m.State(ServiceChainRPC); state != "disabled" {
		t.Errorf("expected disabled state, got %s", state)
	}

	_, err := m.Execute(ServiceChainRPC, func() (interface{}, error) {
		return "still runs", nil
	})
	if err != nil {
		t.Errorf("expected disabled manager to always execute fn, got err: %v", err)
	}
}

func TestStateChangeObserver_InvokedOnTrip(t *testing.T) {
	var gotService ServiceType
	var gotState string
	observer := func(service ServiceType, state string) {
		gotService = service
		gotState = state
	}

	m := NewManager(testConfig(), observer)
	failFn := func() (interface{}, error) { return nil, errors.New("boom") }
	for i := 0; i < 2; i++ {
		m.Execute(ServiceWebhook, failFn)
	}

	if gotService != ServiceWebhook {
		t.Errorf("expected observer called for webhook service, got %s", gotService)
	}
	if gotState != "open" {
		t.Errorf("expected observer to report open state, got %s", gotState)
	}
}

func TestState_NotConfiguredServiceWhenEnabledButUnknown(t *testing.T) {
	m := NewManager(testConfig(), nil)
	if state := m.State(ServiceType("unknown")); state != "not_configured" {
		t.Errorf("expected not_configured, got %s", state)
	}
}
