package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func retryOnlyExecutor(maxAttempts int) *Executor {
	return NewExecutor(Config{
		RetryMaxAttempts:    maxAttempts,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2.0,
	})
}

func alwaysRetry(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func neverRetry(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

func TestExecuteStopsOnPermanentError(t *testing.T) {
	exec := retryOnlyExecutor(5)
	calls := 0
	permanent := errors.New("bad request")

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return permanent
	}, neverRetry)
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single attempt, got %d", calls)
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	exec := retryOnlyExecutor(5)
	calls := 0

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, alwaysRetry)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteHonorsMaxAttempts(t *testing.T) {
	exec := retryOnlyExecutor(3)
	calls := 0
	transient := errors.New("transient")

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return transient
	}, alwaysRetry)
	if !errors.Is(err, transient) {
		t.Fatalf("expected transient error after exhaustion, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteReturnsEarlyWhenContextCanceled(t *testing.T) {
	exec := retryOnlyExecutor(5)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := exec.Execute(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	}, alwaysRetry)
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected cancellation to stop retries, got %d attempts", calls)
	}
}

func TestBreakerOpensAfterFailureRatio(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    1,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      3,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	failing := errors.New("backend down")
	var lastErr error
	for i := 0; i < 10; i++ {
		lastErr = exec.Execute(context.Background(), "op", func(context.Context) error {
			return failing
		}, alwaysRetry)
		if IsCircuitOpen(lastErr) {
			break
		}
	}
	if !IsCircuitOpen(lastErr) {
		t.Fatalf("expected circuit to open, got %v", lastErr)
	}
}

func TestBreakerIgnoresUnrecordedFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts: 1,

		BreakerEnabled:          true,
		BreakerMinRequests:      3,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	canceled := errors.New("canceled by caller")
	noRecord := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	for i := 0; i < 10; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return canceled
		}, noRecord)
		if IsCircuitOpen(err) {
			t.Fatalf("circuit opened on unrecorded failures at attempt %d", i+1)
		}
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := Config{}.normalize()
	def := DefaultConfig()

	if cfg.RetryMaxAttempts != def.RetryMaxAttempts {
		t.Fatalf("expected default max attempts, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialBackoff != def.RetryInitialBackoff {
		t.Fatalf("expected default initial backoff, got %v", cfg.RetryInitialBackoff)
	}
	if cfg.BreakerFailureRatio != def.BreakerFailureRatio {
		t.Fatalf("expected default failure ratio, got %f", cfg.BreakerFailureRatio)
	}
}

func TestNormalizeCapsMaxBelowInitial(t *testing.T) {
	cfg := Config{
		RetryInitialBackoff: 500 * time.Millisecond,
		RetryMaxBackoff:     100 * time.Millisecond,
	}.normalize()

	if cfg.RetryMaxBackoff != cfg.RetryInitialBackoff {
		t.Fatalf("expected max backoff raised to initial, got %v", cfg.RetryMaxBackoff)
	}
}
