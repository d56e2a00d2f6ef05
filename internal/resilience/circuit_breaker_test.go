package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/lexiqai/cobra-go/internal/observability"
)

var errEngine = errors.New("engine error")

func TestCircuitBreaker_StateClosed(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	if cb.GetState() != StateClosed {
		t.Errorf("Expected initial state to be Closed, got %s", cb.GetState())
	}

	if !cb.allowRequest() {
		t.Error("Expected to allow request in Closed state")
	}
}

func TestCircuitBreaker_OpenAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(false)
	cb.RecordResult(false)
	if cb.GetState() != StateClosed {
		t.Error("Expected state to still be Closed after 2 failures")
	}

	// Third failure should open circuit
	cb.RecordResult(false)
	if cb.GetState() != StateOpen {
		t.Error("Expected state to be Open after 3 failures")
	}

	if cb.allowRequest() {
		t.Error("Expected to not allow request in Open state")
	}
}

func TestCircuitBreaker_SuccessResetsConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(true)
	cb.RecordResult(false)
	cb.RecordResult(false)

	if cb.GetState() != StateClosed {
		t.Error("Expected non-consecutive failures to keep the circuit Closed")
	}
}

func TestCircuitBreaker_HalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 50*time.Millisecond)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(false)
	if cb.GetState() != StateOpen {
		t.Fatal("Expected circuit to be Open")
	}

	time.Sleep(80 * time.Millisecond)

	if !cb.allowRequest() {
		t.Error("Expected to allow request after timeout (HalfOpen)")
	}
	if state, _, _, _ := cb.GetStats(); state != StateHalfOpen {
		t.Errorf("Expected state to be HalfOpen, got %s", state)
	}

	// Trial requests are limited
	cb.allowRequest()
	cb.allowRequest()
	if cb.allowRequest() {
		t.Error("Expected half-open trial requests to be capped")
	}
}

func TestCircuitBreaker_CloseAfterSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 50*time.Millisecond)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(false)

	time.Sleep(80 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("Trial call %d failed: %v", i, err)
		}
	}

	if cb.GetState() != StateClosed {
		t.Error("Expected state to be Closed after successes in HalfOpen")
	}
}

func TestCircuitBreaker_OpenAfterFailureInHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 50*time.Millisecond)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(false)

	time.Sleep(80 * time.Millisecond)

	err := cb.Call(func() error { return errEngine })
	if !errors.Is(err, errEngine) {
		t.Errorf("Expected the trial error to be returned, got %v", err)
	}

	if cb.GetState() != StateOpen {
		t.Error("Expected state to be Open after failure in HalfOpen")
	}
}

func TestCircuitBreaker_Call(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	if err := cb.Call(func() error { return nil }); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if err := cb.Call(func() error { return errEngine }); err == nil {
		t.Error("Expected error from failed call")
	}
}

func TestCircuitBreaker_CallOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 1*time.Second)

	cb.RecordResult(false)

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("Expected fn not to run while the circuit is open")
	}
}

func TestCircuitBreaker_FailurePredicate(t *testing.T) {
	errCaller := errors.New("caller error")
	cb := NewCircuitBreaker("test", 1, 1*time.Second).
		WithFailurePredicate(func(err error) bool { return !errors.Is(err, errCaller) })

	for i := 0; i < 5; i++ {
		if err := cb.Call(func() error { return errCaller }); !errors.Is(err, errCaller) {
			t.Fatalf("Expected caller error to pass through, got %v", err)
		}
	}
	if cb.GetState() != StateClosed {
		t.Error("Expected ignored errors not to open the circuit")
	}

	_ = cb.Call(func() error { return errEngine })
	if cb.GetState() != StateOpen {
		t.Error("Expected counted error to open the circuit")
	}
}

func TestCircuitBreaker_GetStats(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(true)
	cb.RecordResult(true)
	cb.RecordResult(false)

	state, requestCount, failureCount, failureRate := cb.GetStats()

	if state != StateClosed {
		t.Errorf("Expected state Closed, got %s", state)
	}
	if requestCount != 3 {
		t.Errorf("Expected 3 requests, got %d", requestCount)
	}
	if failureCount != 1 {
		t.Errorf("Expected 1 failure, got %d", failureCount)
	}
	if failureRate < 33.0 || failureRate > 34.0 {
		t.Errorf("Expected failure rate around 33.33%%, got %.2f%%", failureRate)
	}
}

func TestCircuitBreaker_GaugeCountsEachBreaker(t *testing.T) {
	const name = "gauge-shared"

	a := NewCircuitBreaker(name, 1, time.Minute)
	a.RecordResult(false)
	if got := observability.CircuitBreakers(name, "open"); got != 1 {
		t.Fatalf("Expected 1 open breaker, got %d", got)
	}

	// A second breaker with the same name must not hide the open one
	b := NewCircuitBreaker(name, 1, time.Minute)
	if got := observability.CircuitBreakers(name, "open"); got != 1 {
		t.Errorf("Expected 1 open breaker after creating another, got %d", got)
	}
	if got := observability.CircuitBreakers(name, "closed"); got != 1 {
		t.Errorf("Expected 1 closed breaker, got %d", got)
	}

	a.Close()
	a.Close()
	b.Close()
	if got := observability.CircuitBreakers(name, "open"); got != 0 {
		t.Errorf("Expected no open breakers after Close, got %d", got)
	}
	if got := observability.CircuitBreakers(name, "closed"); got != 0 {
		t.Errorf("Expected no closed breakers after Close, got %d", got)
	}

	// Transitions after Close are not counted
	b.RecordResult(false)
	if got := observability.CircuitBreakers(name, "open"); got != 0 {
		t.Errorf("Expected a closed breaker to stay uncounted, got %d", got)
	}
}
