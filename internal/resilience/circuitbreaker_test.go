package resilience

import (
	"errors"
	"testing"
	"time"
)

var errProviderDown = errors.New("provider down")

func failingCall() error { return errProviderDown }
func okCall() error      { return nil }

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "deepgram", MaxFailures: 3})

	for i := 0; i < 10; i++ {
		if err := cb.Execute(okCall); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if got := cb.State(); got != StateClosed {
		t.Errorf("state = %v, want closed", got)
	}
}

func TestBreakerTripsAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "deepgram", MaxFailures: 3})

	for i := 0; i < 3; i++ {
		if err := cb.Execute(failingCall); !errors.Is(err, errProviderDown) {
			t.Fatalf("call %d: err = %v, want provider error", i, err)
		}
	}
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state after 3 failures = %v, want open", got)
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err while open = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("fn was called while the breaker is open")
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3})

	for i := 0; i < 5; i++ {
		cb.Execute(failingCall)
		cb.Execute(failingCall)
		if err := cb.Execute(okCall); err != nil {
			t.Fatalf("round %d: success call failed: %v", i, err)
		}
	}
	if got := cb.State(); got != StateClosed {
		t.Errorf("state = %v, want closed", got)
	}
}

func TestBreakerClosesAfterSuccessfulProbes(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  2,
	})

	cb.Execute(failingCall)
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	time.Sleep(15 * time.Millisecond)
	if got := cb.State(); got != StateHalfOpen {
		t.Fatalf("state after reset timeout = %v, want half-open", got)
	}

	for i := 0; i < 2; i++ {
		if err := cb.Execute(okCall); err != nil {
			t.Fatalf("probe %d: %v", i, err)
		}
	}
	if got := cb.State(); got != StateClosed {
		t.Errorf("state after probes = %v, want closed", got)
	}
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  2,
	})

	cb.Execute(failingCall)
	time.Sleep(15 * time.Millisecond)

	if err := cb.Execute(failingCall); !errors.Is(err, errProviderDown) {
		t.Fatalf("probe err = %v, want provider error", err)
	}
	if err := cb.Execute(okCall); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err after failed probe = %v, want ErrCircuitOpen", err)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
