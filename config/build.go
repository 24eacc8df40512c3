package config

import (
	"context"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/semanticarchitectures/multi-agent-collab/channel"
	"github.com/semanticarchitectures/multi-agent-collab/criteria"
	"github.com/semanticarchitectures/multi-agent-collab/logging"
	"github.com/semanticarchitectures/multi-agent-collab/model"
	"github.com/semanticarchitectures/multi-agent-collab/model/anthropic"
	"github.com/semanticarchitectures/multi-agent-collab/model/openai"
	"github.com/semanticarchitectures/multi-agent-collab/orchestrator"
	"github.com/semanticarchitectures/multi-agent-collab/participant"
	"github.com/semanticarchitectures/multi-agent-collab/provider"
	"github.com/semanticarchitectures/multi-agent-collab/resilience"
)

// Runtime is a fully wired conversation: channel, orchestrator, and tool
// provider manager. Close shuts the providers down.
type Runtime struct {
	Channel      *channel.Channel
	Orchestrator *orchestrator.Orchestrator
	Providers    *provider.Manager
}

// Close terminates all tool providers.
func (r *Runtime) Close() error {
	return r.Providers.Close()
}

// Build assembles a runtime from a scenario. Tool providers that fail to
// connect are logged and skipped so one dead provider does not sink the
// whole conversation.
func Build(ctx context.Context, scenario *Scenario, settings Settings, logger logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	ch := buildChannel(scenario, logger)
	manager := buildManager(scenario, logger)
	retry := buildRetryPolicy(scenario)

	for _, pc := range scenario.Providers {
		spec := provider.LaunchSpec{
			Command: pc.Command,
			Args:    pc.Args,
			Env:     pc.Env,
			Dir:     pc.Dir,
		}
		err := resilience.Retry(ctx, retry, func(ctx context.Context) error {
			return manager.Connect(ctx, pc.Name, spec)
		})
		if err != nil {
			logger.Warn("provider unavailable", "provider", pc.Name, "error", err)
		}
	}

	orch := orchestrator.New(ch,
		orchestrator.WithMaxParticipants(scenario.Orchestrator.MaxParticipants),
		orchestrator.WithMaxResponses(scenario.Orchestrator.MaxResponses),
		orchestrator.WithContextSize(scenario.Orchestrator.ContextSize),
		orchestrator.WithLogger(logger),
	)

	for _, pc := range scenario.Participants {
		p, err := buildParticipant(pc, settings, manager, logger)
		if err != nil {
			_ = manager.Close()
			return nil, err
		}
		if err := orch.AddParticipant(p); err != nil {
			_ = manager.Close()
			return nil, err
		}
	}

	return &Runtime{Channel: ch, Orchestrator: orch, Providers: manager}, nil
}

func buildChannel(scenario *Scenario, logger logging.Logger) *channel.Channel {
	return channel.New(func(o *channel.Options) {
		if scenario.Channel.MaxHistory > 0 {
			o.MaxHistory = scenario.Channel.MaxHistory
		}
		o.Logger = logger
	})
}

func buildManager(scenario *Scenario, logger logging.Logger) *provider.Manager {
	breaker := resilience.BreakerConfig{
		FailureThreshold: scenario.Resilience.Breaker.FailureThreshold,
		RecoveryTimeout:  scenario.Resilience.Breaker.RecoveryTimeout.Std(),
		SuccessThreshold: scenario.Resilience.Breaker.SuccessThreshold,
		Timeout:          scenario.Resilience.Breaker.CallTimeout.Std(),
	}
	return provider.NewManager(
		provider.WithLogger(logger),
		provider.WithBreakerConfig(breaker),
	)
}

func buildRetryPolicy(scenario *Scenario) resilience.RetryPolicy {
	return resilience.RetryPolicy{
		MaxAttempts:  scenario.Resilience.Retry.MaxAttempts,
		InitialDelay: scenario.Resilience.Retry.InitialDelay.Std(),
		MaxDelay:     scenario.Resilience.Retry.MaxDelay.Std(),
		BackoffBase:  scenario.Resilience.Retry.BackoffBase,
		Jitter:       scenario.Resilience.Retry.Jitter,
	}
}

func buildParticipant(pc ParticipantConfig, settings Settings, manager *provider.Manager, logger logging.Logger) (participant.Participant, error) {
	crit, err := buildCriteria(pc.Criteria)
	if err != nil {
		return nil, fmt.Errorf("participant %q: %w", pc.Label, err)
	}

	baseOpts := []func(*participant.Options){
		participant.WithCriteria(crit),
		participant.WithLogger(logger),
	}
	if pc.Coordinator {
		baseOpts = append(baseOpts, participant.WithCoordinator())
	}
	base := participant.NewBase(pc.Label, baseOpts...)

	m, err := buildModel(pc.Model, settings)
	if err != nil {
		return nil, fmt.Errorf("participant %q: %w", pc.Label, err)
	}

	modelOpts := []func(*participant.ModelOptions){
		participant.WithSystemPrompt(pc.SystemPrompt),
	}
	if pc.ContextSize > 0 {
		modelOpts = append(modelOpts, participant.WithContextSize(pc.ContextSize))
	}
	if pc.MaxToolRounds > 0 {
		modelOpts = append(modelOpts, participant.WithMaxToolRounds(pc.MaxToolRounds))
	}
	if pc.Tools {
		modelOpts = append(modelOpts, participant.WithTools(manager))
	}

	return participant.NewModelParticipant(base, m, modelOpts...), nil
}

func buildModel(mc ModelConfig, settings Settings) (model.Model, error) {
	switch mc.Provider {
	case "", "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if mc.Name != "" {
				o.Model = anthropicsdk.Model(mc.Name)
			}
			if mc.Temperature > 0 {
				o.Temperature = mc.Temperature
			}
			if mc.MaxTokens > 0 {
				o.MaxTokens = mc.MaxTokens
			}
			o.APIKey = settings.AnthropicAPIKey
		}), nil
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if mc.Name != "" {
				o.Model = mc.Name
			}
			if mc.Temperature > 0 {
				o.Temperature = mc.Temperature
			}
			if mc.MaxTokens > 0 {
				o.MaxCompletionTokens = mc.MaxTokens
			}
			o.APIKey = settings.OpenAIAPIKey
		}), nil
	case "mock":
		return model.NewMockModel(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", mc.Provider)
	}
}

func buildCriteria(entries []string) (criteria.Criteria, error) {
	if len(entries) == 0 {
		return criteria.DirectAddress{}, nil
	}

	var parts []criteria.Criteria
	for _, entry := range entries {
		switch {
		case entry == "direct_address":
			parts = append(parts, criteria.DirectAddress{})
		case entry == "question":
			parts = append(parts, criteria.Question{})
		case entry == "coordinator":
			parts = append(parts, criteria.NewCoordinator())
		case strings.HasPrefix(entry, "keyword:"):
			words := strings.Split(strings.TrimPrefix(entry, "keyword:"), ",")
			for i := range words {
				words[i] = strings.TrimSpace(words[i])
			}
			parts = append(parts, criteria.NewKeyword(words...))
		default:
			return nil, fmt.Errorf("unknown criteria %q", entry)
		}
	}
	return criteria.Any(parts...), nil
}
