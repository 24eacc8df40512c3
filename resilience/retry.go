package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy controls retry behavior with exponential backoff.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int
	// InitialDelay is the backoff before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration
	// BackoffBase is the exponential growth factor.
	BackoffBase float64
	// Jitter scales each delay by a uniform factor in [0.5, 1.0].
	Jitter bool
	// Retryable reports whether an error is worth retrying. A nil func
	// retries everything.
	Retryable func(error) bool
}

// DefaultRetryPolicy retries three times with jittered exponential backoff.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:  3,
	InitialDelay: time.Second,
	MaxDelay:     30 * time.Second,
	BackoffBase:  2.0,
	Jitter:       true,
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultRetryPolicy.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultRetryPolicy.MaxDelay
	}
	if p.BackoffBase <= 1 {
		p.BackoffBase = DefaultRetryPolicy.BackoffBase
	}
	return p
}

// delay computes the backoff before retrying after failed attempt number
// attempt (zero-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := time.Duration(float64(p.InitialDelay) * math.Pow(p.BackoffBase, float64(attempt)))
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	if p.Jitter {
		d = time.Duration(float64(d) * (0.5 + rand.Float64()*0.5))
	}
	return d
}

// Retry runs op until it succeeds, a non-retryable error occurs, the policy
// is exhausted, or ctx is canceled. The last error is returned after
// exhaustion; context errors take precedence while sleeping.
func Retry(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	p := policy.withDefaults()

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		if err := sleep(ctx, p.delay(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
