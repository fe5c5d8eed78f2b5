package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	b := NewCircuitBreaker(2, 5*time.Second, 1)

	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open state, got %s", state)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	b := NewCircuitBreaker(1, time.Minute, 1)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	publishErr := errors.New("redis: connection refused")
	if err := b.Execute(func() error { return publishErr }); !errors.Is(err, publishErr) {
		t.Fatalf("expected publish error, got %v", err)
	}

	calls := 0
	if err := b.Execute(func() error { calls++; return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open breaker to short-circuit, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("fn must not run while the breaker is open")
	}
}

func TestCircuitBreaker_DisabledConfigAllowsEverything(t *testing.T) {
	b := NewCircuitBreakerFromConfig(CircuitBreakerConfig{Enabled: false})
	if b != nil {
		t.Fatalf("expected nil breaker when disabled")
	}
	for i := 0; i < 10; i++ {
		_ = b.Execute(func() error { return errors.New("boom") })
	}
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("nil breaker must allow calls, got %v", err)
	}

	enabled := NewCircuitBreakerFromConfig(CircuitBreakerConfig{Enabled: true})
	if enabled == nil || enabled.failureThreshold != DefaultCircuitBreakerConfig().FailureThreshold {
		t.Fatalf("expected defaults applied, got %+v", enabled)
	}
}
