package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestExecuteRunsSingleAttempt(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})

	attempts := 0
	errUpstream := errors.New("upstream down")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errUpstream
	}, nil)
	if !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected exactly one attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errUpstream := errors.New("upstream down")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{RecordFailure: true}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errUpstream
		}, classifier)
		if !errors.Is(err, errUpstream) {
			t.Fatalf("expected upstream error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

func TestCancelledCallsDoNotTripBreaker(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	classifier := func(err error) ErrorClassification {
		return ErrorClassification{RecordFailure: !errors.Is(err, context.Canceled)}
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		err := exec.Execute(cancelled, "op", func(context.Context) error {
			return nil
		}, classifier)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context cancellation, got %v", err)
		}
	}

	// Cancellations recorded as successes: the breaker must still be closed.
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		return nil
	}, classifier)
	if errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("cancelled calls must not open the circuit")
	}
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
}
