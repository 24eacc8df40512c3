package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failN(n int) func(ctx context.Context) error {
	calls := 0
	return func(ctx context.Context) error {
		calls++
		if calls <= n {
			return errBoom
		}
		return nil
	}
}

func TestBreakerStaysClosedBelowThreshold(t *testing.T) {
	b := NewBreaker("svc", BreakerConfig{FailureThreshold: 3}, nil)

	for i := 0; i < 2; i++ {
		err := b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
		require.ErrorIs(t, err, errBoom)
	}

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker("svc", BreakerConfig{FailureThreshold: 3}, nil)

	for i := 0; i < 3; i++ {
		_ = b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	}
	require.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.False(t, called, "open breaker must not invoke the operation")
	var oe *BreakerOpenError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "svc", oe.Name)
	assert.True(t, IsBreakerOpen(err))
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("svc", BreakerConfig{FailureThreshold: 3}, nil)

	_ = b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	_ = b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	require.NoError(t, b.Execute(context.Background(), func(ctx context.Context) error { return nil }))

	// Two more failures would have tripped a breaker that did not reset.
	_ = b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	_ = b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 2, b.Stats().FailureCount)
}

func TestBreakerHalfOpenAfterRecoveryTimeout(t *testing.T) {
	b := NewBreaker("svc", BreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  20 * time.Millisecond,
		SuccessThreshold: 2,
	}, nil)

	_ = b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	require.Equal(t, StateOpen, b.State())

	time.Sleep(30 * time.Millisecond)

	// First probe succeeds but one success is not enough to close.
	require.NoError(t, b.Execute(context.Background(), func(ctx context.Context) error { return nil }))
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Execute(context.Background(), func(ctx context.Context) error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("svc", BreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
		SuccessThreshold: 3,
	}, nil)

	_ = b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, b.Execute(context.Background(), func(ctx context.Context) error { return nil }))
	require.Equal(t, StateHalfOpen, b.State())

	_ = b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, 0, b.Stats().SuccessCount, "partial successes are discarded on reopen")
}

func TestBreakerCallTimeoutCountsAsFailure(t *testing.T) {
	b := NewBreaker("svc", BreakerConfig{
		FailureThreshold: 1,
		Timeout:          10 * time.Millisecond,
	}, nil)

	err := b.Execute(context.Background(), func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerReset(t *testing.T) {
	b := NewBreaker("svc", BreakerConfig{FailureThreshold: 1}, nil)

	_ = b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	require.Equal(t, StateOpen, b.State())

	b.Reset()

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.Stats().FailureCount)
	require.NoError(t, b.Execute(context.Background(), func(ctx context.Context) error { return nil }))
}

func TestBreakerOpenErrorReportsRetryAfter(t *testing.T) {
	b := NewBreaker("svc", BreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
	}, nil)

	_ = b.Execute(context.Background(), func(ctx context.Context) error { return errBoom })

	err := b.Execute(context.Background(), func(ctx context.Context) error { return nil })
	var oe *BreakerOpenError
	require.ErrorAs(t, err, &oe)
	assert.Greater(t, oe.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, oe.RetryAfter, time.Minute)
}
