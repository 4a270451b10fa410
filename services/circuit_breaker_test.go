package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestRegistry() *CircuitBreakerRegistry {
	return NewCircuitBreakerRegistry(CircuitBreakerConfig{
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     50 * time.Millisecond,
	})
}

func TestCircuitBreaker_TripsAfterFailures(t *testing.T) {
	registry := newTestRegistry()
	failure := errors.New("provider down")

	// Five consecutive failures push the failure ratio past the trip point.
	for i := 0; i < 5; i++ {
		_, err := registry.Execute(context.Background(), "test", func() (any, error) {
			return nil, failure
		})
		if !errors.Is(err, failure) {
			t.Fatalf("call %d: error = %v, want %v", i, err, failure)
		}
	}

	_, err := registry.Execute(context.Background(), "test", func() (any, error) {
		t.Error("function must not run while the breaker is open")
		return nil, nil
	})
	if err == nil || !strings.Contains(err.Error(), "circuit breaker open") {
		t.Errorf("error = %v, want open-breaker rejection", err)
	}
}

func TestCircuitBreaker_StaysClosedBelowThreshold(t *testing.T) {
	registry := newTestRegistry()

	// Four failures are under the minimum request count, breaker stays closed.
	for i := 0; i < 4; i++ {
		registry.Execute(context.Background(), "test", func() (any, error) {
			return nil, errors.New("fail")
		})
	}

	ran := false
	_, err := registry.Execute(context.Background(), "test", func() (any, error) {
		ran = true
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !ran {
		t.Error("function did not run with a closed breaker")
	}
}

func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	registry := newTestRegistry()

	for i := 0; i < 5; i++ {
		registry.Execute(context.Background(), "test", func() (any, error) {
			return nil, errors.New("fail")
		})
	}

	time.Sleep(80 * time.Millisecond)

	// Half-open now, a success closes it again.
	result, err := registry.Execute(context.Background(), "test", func() (any, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("Execute() after timeout error = %v", err)
	}
	if result != "recovered" {
		t.Errorf("result = %v, want recovered", result)
	}
}

func TestCircuitBreaker_ContextCancellation(t *testing.T) {
	registry := newTestRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := registry.Execute(ctx, "test", func() (any, error) {
		t.Error("function must not run with a cancelled context")
		return nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestCircuitBreaker_Status(t *testing.T) {
	registry := newTestRegistry()

	registry.Execute(context.Background(), "upstream", func() (any, error) {
		return nil, nil
	})
	registry.Execute(context.Background(), "upstream", func() (any, error) {
		return nil, errors.New("fail")
	})

	status := registry.Status()
	s, ok := status["upstream"]
	if !ok {
		t.Fatal("Status() missing breaker upstream")
	}
	if s.State != "closed" {
		t.Errorf("State = %q, want closed", s.State)
	}
	if s.Requests != 2 || s.TotalSuccesses != 1 || s.TotalFailures != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", s.Requests, s.TotalSuccesses, s.TotalFailures)
	}
}

func TestWithCircuitBreaker_TypedResult(t *testing.T) {
	SetGlobalRegistry(newTestRegistry())

	got, err := WithCircuitBreaker(context.Background(), "typed", func() (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("WithCircuitBreaker() error = %v", err)
	}
	if got != 42 {
		t.Errorf("result = %d, want 42", got)
	}

	_, err = WithCircuitBreaker(context.Background(), "typed", func() (int, error) {
		return 0, errors.New("boom")
	})
	if err == nil {
		t.Error("WithCircuitBreaker() error = nil, want boom")
	}
}

func TestGetBreaker_Concurrent(t *testing.T) {
	registry := newTestRegistry()

	var wg sync.WaitGroup
	breakers := make([]any, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			breakers[i] = registry.GetBreaker("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < 10; i++ {
		if breakers[i] != breakers[0] {
			t.Fatalf("goroutine %d got a different breaker instance", i)
		}
	}
}
