// Package collab provides a high-level façade for building multi-agent
// voice-net conversations: a shared channel, an orchestrator, and a tool
// provider manager wired together with safe defaults. Most applications
// interact with this package by:
//  1. Creating a Collab via New() (optionally tuning channel and turn limits)
//  2. Registering participants (participant.NewModelParticipant or custom)
//  3. Feeding external input through RunTurn
//
// The façade delegates turn handling to orchestrator.Orchestrator while
// keeping setup concise. Defaults suit local development and testing;
// production deployments typically supply a structured logger and scenario
// configuration via the config package.
package collab

import (
	"context"

	"github.com/semanticarchitectures/multi-agent-collab/channel"
	"github.com/semanticarchitectures/multi-agent-collab/logging"
	"github.com/semanticarchitectures/multi-agent-collab/orchestrator"
	"github.com/semanticarchitectures/multi-agent-collab/participant"
	"github.com/semanticarchitectures/multi-agent-collab/provider"
	"github.com/semanticarchitectures/multi-agent-collab/resilience"
)

// Options configures a Collab instance.
type Options struct {
	// MaxHistory bounds the shared channel.
	MaxHistory int
	// MaxParticipants caps registration. Zero means unlimited.
	MaxParticipants int
	// MaxResponses caps broadcast responders per turn. Zero means unlimited.
	MaxResponses int
	// Breaker tunes the tool provider circuit breakers.
	Breaker resilience.BreakerConfig
	// Retry tunes provider connection retries.
	Retry resilience.RetryPolicy
	// Logger defaults to no logging.
	Logger logging.Logger
}

// Collab aggregates the channel, orchestrator and provider manager behind
// one entry point.
type Collab struct {
	ch        *channel.Channel
	orch      *orchestrator.Orchestrator
	providers *provider.Manager
	retry     resilience.RetryPolicy
}

// New creates a Collab with optional overrides.
func New(optFns ...func(o *Options)) *Collab {
	opts := Options{
		Breaker: resilience.DefaultBreakerConfig,
		Retry:   resilience.DefaultRetryPolicy,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	ch := channel.New(func(o *channel.Options) {
		if opts.MaxHistory > 0 {
			o.MaxHistory = opts.MaxHistory
		}
		o.Logger = opts.Logger
	})

	providers := provider.NewManager(
		provider.WithLogger(opts.Logger),
		provider.WithBreakerConfig(opts.Breaker),
	)

	orch := orchestrator.New(ch,
		orchestrator.WithMaxParticipants(opts.MaxParticipants),
		orchestrator.WithMaxResponses(opts.MaxResponses),
		orchestrator.WithLogger(opts.Logger),
	)

	return &Collab{ch: ch, orch: orch, providers: providers, retry: opts.Retry}
}

// Channel returns the shared message channel.
func (c *Collab) Channel() *channel.Channel { return c.ch }

// Orchestrator returns the turn orchestrator.
func (c *Collab) Orchestrator() *orchestrator.Orchestrator { return c.orch }

// Providers returns the tool provider manager.
func (c *Collab) Providers() *provider.Manager { return c.providers }

// AddParticipant registers a participant on the net.
func (c *Collab) AddParticipant(p participant.Participant) error {
	return c.orch.AddParticipant(p)
}

// ConnectProvider launches and registers a tool provider, retrying the
// connection per the configured retry policy.
func (c *Collab) ConnectProvider(ctx context.Context, name string, spec provider.LaunchSpec) error {
	return resilience.Retry(ctx, c.retry, func(ctx context.Context) error {
		return c.providers.Connect(ctx, name, spec)
	})
}

// RunTurn feeds one external input through the orchestrator.
func (c *Collab) RunTurn(ctx context.Context, input string) (orchestrator.TurnResult, error) {
	return c.orch.RunTurn(ctx, input)
}

// Close shuts down all tool providers.
func (c *Collab) Close() error {
	return c.providers.Close()
}
