package resilience

import (
	"sync"

	"github.com/semanticarchitectures/multi-agent-collab/logging"
)

// Registry hands out one breaker per resource name. Instances are stable:
// repeated Get calls with the same name return the same breaker, so state
// survives across callers without any package-level globals.
type Registry struct {
	cfg    BreakerConfig
	logger logging.Logger

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates a registry whose breakers share cfg as their default
// configuration.
func NewRegistry(cfg BreakerConfig, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Registry{
		cfg:      cfg,
		logger:   logger,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for name, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.breakers[name]
	if !ok {
		b = NewBreaker(name, r.cfg, r.logger)
		r.breakers[name] = b
	}
	return b
}

// Remove drops the breaker for name, if any. The next Get creates a fresh one.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.breakers, name)
}

// ResetAll forces every registered breaker back to CLOSED.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.breakers {
		b.Reset()
	}
}

// Stats returns a snapshot for every registered breaker, keyed by name.
func (r *Registry) Stats() map[string]BreakerStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]BreakerStats, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.Stats()
	}
	return out
}
