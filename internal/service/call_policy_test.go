package service

import (
	"context"
	"errors"
	"testing"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"prism-scoring/internal/repository"
)

func newFastPolicy(timeout time.Duration, retries int, metrics *Metrics) *CallPolicy {
	p := NewCallPolicy(timeout, retries, metrics, nil)
	p.buildBackoff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return p
}

func TestCallPolicy_RetriesThenSucceeds(t *testing.T) {
	metrics := MustNewMetrics(prometheus.NewRegistry())
	p := newFastPolicy(time.Second, 3, metrics)

	attempts := 0
	err := p.Do(context.Background(), "list_responses", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if got := testutil.ToFloat64(metrics.callRetries.WithLabelValues("list_responses")); got != 2 {
		t.Fatalf("expected 2 retries recorded, got %v", got)
	}
}

func TestCallPolicy_GivesUpAfterMaxRetries(t *testing.T) {
	p := newFastPolicy(time.Second, 2, nil)
	attempts := 0
	want := errors.New("still down")
	err := p.Do(context.Background(), "upsert_profile", func(context.Context) error {
		attempts++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 1 attempt plus 2 retries, got %d", attempts)
	}
}

func TestCallPolicy_PermanentErrorNotRetried(t *testing.T) {
	p := newFastPolicy(time.Second, 5, nil)
	attempts := 0
	err := p.Do(context.Background(), "get_session", func(context.Context) error {
		attempts++
		return repository.ErrNotFound
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestCallPolicy_PerAttemptTimeout(t *testing.T) {
	p := newFastPolicy(20*time.Millisecond, 1, nil)
	attempts := 0
	err := p.Do(context.Background(), "slow", func(ctx context.Context) error {
		attempts++
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected the timed out call to be retried once, got %d", attempts)
	}
}

func TestCallPolicy_CanceledParentStops(t *testing.T) {
	p := newFastPolicy(time.Second, 5, nil)
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := p.Do(ctx, "list_responses", func(context.Context) error {
		attempts++
		cancel()
		return errors.New("interrupted")
	})
	if err == nil {
		t.Fatalf("expected error after cancellation")
	}
	if attempts != 1 {
		t.Fatalf("expected no retry after parent cancel, got %d", attempts)
	}
}

func TestCallPolicy_NilPolicyRunsOnce(t *testing.T) {
	var p *CallPolicy
	attempts := 0
	_ = p.Do(context.Background(), "x", func(context.Context) error {
		attempts++
		return errors.New("fail")
	})
	if attempts != 1 {
		t.Fatalf("expected nil policy to call once, got %d", attempts)
	}
}
