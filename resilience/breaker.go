package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/semanticarchitectures/multi-agent-collab/logging"
)

// State is the circuit breaker state.
type State string

const (
	// StateClosed passes calls through normally.
	StateClosed State = "closed"
	// StateOpen rejects calls immediately.
	StateOpen State = "open"
	// StateHalfOpen allows probe calls to test recovery.
	StateHalfOpen State = "half_open"
)

// BreakerConfig tunes a circuit breaker. Zero values fall back to the
// defaults below.
type BreakerConfig struct {
	// FailureThreshold is the consecutive failure count that opens the breaker.
	FailureThreshold int
	// RecoveryTimeout is how long the breaker stays open before probing.
	RecoveryTimeout time.Duration
	// SuccessThreshold is the consecutive half-open successes needed to close.
	SuccessThreshold int
	// Timeout bounds each protected call; a timeout counts as a failure.
	Timeout time.Duration
}

// DefaultBreakerConfig mirrors the defaults a tool provider gets when the
// caller does not tune anything.
var DefaultBreakerConfig = BreakerConfig{
	FailureThreshold: 5,
	RecoveryTimeout:  60 * time.Second,
	SuccessThreshold: 2,
	Timeout:          30 * time.Second,
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	d := DefaultBreakerConfig
	if c.FailureThreshold > 0 {
		d.FailureThreshold = c.FailureThreshold
	}
	if c.RecoveryTimeout > 0 {
		d.RecoveryTimeout = c.RecoveryTimeout
	}
	if c.SuccessThreshold > 0 {
		d.SuccessThreshold = c.SuccessThreshold
	}
	if c.Timeout > 0 {
		d.Timeout = c.Timeout
	}
	return d
}

// BreakerStats is a point-in-time snapshot of breaker state.
type BreakerStats struct {
	Name         string        `json:"name"`
	State        State         `json:"state"`
	FailureCount int           `json:"failure_count"`
	SuccessCount int           `json:"success_count"`
	RetryAfter   time.Duration `json:"retry_after"`
}

// Breaker is a per-resource circuit breaker. State transitions:
//
//	CLOSED  -> OPEN       after FailureThreshold consecutive failures
//	OPEN    -> HALF_OPEN  on the first call after RecoveryTimeout elapses
//	HALF_OPEN -> CLOSED   after SuccessThreshold consecutive successes
//	HALF_OPEN -> OPEN     on any failure
//
// OPEN never transitions directly to CLOSED. All transitions happen under
// the breaker's own lock; the protected call itself executes outside it.
type Breaker struct {
	name   string
	cfg    BreakerConfig
	logger logging.Logger

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
}

// NewBreaker constructs a closed breaker for the named resource.
func NewBreaker(name string, cfg BreakerConfig, logger logging.Logger) *Breaker {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Breaker{
		name:   name,
		cfg:    cfg.withDefaults(),
		logger: logger,
		state:  StateClosed,
	}
}

// Name returns the protected resource name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs op through the breaker with the breaker's per-call timeout.
// When the breaker is open the call is rejected with *BreakerOpenError
// without executing op. A call exceeding the timeout is counted as a failure
// and surfaces as context.DeadlineExceeded wrapped in op's error path.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	return b.ExecuteWithTimeout(ctx, b.cfg.Timeout, op)
}

// ExecuteWithTimeout is Execute with a per-call timeout override. A
// non-positive timeout falls back to the configured one.
func (b *Breaker) ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = b.cfg.Timeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- op(callCtx) }()

	var err error
	select {
	case err = <-done:
	case <-callCtx.Done():
		err = callCtx.Err()
	}

	if err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

// allow decides whether a call may proceed, moving OPEN to HALF_OPEN when the
// recovery timeout has elapsed. Exactly one caller wins the probe transition.
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	elapsed := time.Since(b.lastFailure)
	if elapsed < b.cfg.RecoveryTimeout {
		return &BreakerOpenError{
			Name:       b.name,
			Failures:   b.failures,
			RetryAfter: b.cfg.RecoveryTimeout - elapsed,
		}
	}

	b.transition(StateHalfOpen)
	b.successes = 0
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.transition(StateClosed)
			b.failures = 0
			b.successes = 0
		}
	default:
		b.failures = 0
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	switch b.state {
	case StateHalfOpen:
		// A failed probe reopens immediately, discarding partial successes.
		b.transition(StateOpen)
		b.successes = 0
	case StateClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	}
}

// transition must be called with the lock held.
func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.logger.Warn("breaker state change", "breaker", b.name, "from", string(from), "to", string(to))
}

// Reset forces the breaker back to CLOSED, clearing all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.failures = 0
	b.successes = 0
	b.lastFailure = time.Time{}
}

// Stats returns a snapshot of the breaker's counters.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	var retryAfter time.Duration
	if b.state == StateOpen {
		if remaining := b.cfg.RecoveryTimeout - time.Since(b.lastFailure); remaining > 0 {
			retryAfter = remaining
		}
	}
	return BreakerStats{
		Name:         b.name,
		State:        b.state,
		FailureCount: b.failures,
		SuccessCount: b.successes,
		RetryAfter:   retryAfter,
	}
}
