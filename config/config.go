package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML fields written as "30s" or "1m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ChannelConfig tunes the shared channel.
type ChannelConfig struct {
	MaxHistory int `yaml:"max_history"`
}

// OrchestratorConfig tunes turn behavior.
type OrchestratorConfig struct {
	MaxParticipants int `yaml:"max_participants"`
	MaxResponses    int `yaml:"max_responses"`
	ContextSize     int `yaml:"context_size"`
}

// BreakerConfig tunes the per-provider circuit breakers.
type BreakerConfig struct {
	FailureThreshold int      `yaml:"failure_threshold"`
	RecoveryTimeout  Duration `yaml:"recovery_timeout"`
	SuccessThreshold int      `yaml:"success_threshold"`
	CallTimeout      Duration `yaml:"call_timeout"`
}

// RetryConfig tunes retry behavior around tool calls.
type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	InitialDelay Duration `yaml:"initial_delay"`
	MaxDelay     Duration `yaml:"max_delay"`
	BackoffBase  float64  `yaml:"backoff_base"`
	Jitter       bool     `yaml:"jitter"`
}

// ResilienceConfig groups breaker and retry tuning.
type ResilienceConfig struct {
	Breaker BreakerConfig `yaml:"breaker"`
	Retry   RetryConfig   `yaml:"retry"`
}

// ProviderConfig describes one tool provider subprocess.
type ProviderConfig struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	Dir     string            `yaml:"dir"`
}

// ModelConfig selects and tunes a participant's language model.
type ModelConfig struct {
	// Provider is "anthropic", "openai", or "mock".
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// ParticipantConfig describes one participant.
type ParticipantConfig struct {
	Label        string      `yaml:"label"`
	SystemPrompt string      `yaml:"system_prompt"`
	Coordinator  bool        `yaml:"coordinator"`
	Model        ModelConfig `yaml:"model"`
	// Criteria entries: "direct_address", "question", "coordinator", or
	// "keyword:alert,urgent". Defaults to direct addressing only.
	Criteria      []string `yaml:"criteria"`
	ContextSize   int      `yaml:"context_size"`
	MaxToolRounds int      `yaml:"max_tool_rounds"`
	// Tools enables tool use through the provider manager.
	Tools bool `yaml:"tools"`
}

// Scenario is a complete conversation setup.
type Scenario struct {
	Name         string              `yaml:"name"`
	Channel      ChannelConfig       `yaml:"channel"`
	Orchestrator OrchestratorConfig  `yaml:"orchestrator"`
	Resilience   ResilienceConfig    `yaml:"resilience"`
	Providers    []ProviderConfig    `yaml:"providers"`
	Participants []ParticipantConfig `yaml:"participants"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks structural requirements before anything launches.
func (s *Scenario) Validate() error {
	if len(s.Participants) == 0 {
		return fmt.Errorf("scenario %q: at least one participant is required", s.Name)
	}

	labels := make(map[string]bool)
	for i, p := range s.Participants {
		if p.Label == "" {
			return fmt.Errorf("scenario %q: participant %d has no label", s.Name, i)
		}
		if labels[p.Label] {
			return fmt.Errorf("scenario %q: duplicate participant label %q", s.Name, p.Label)
		}
		labels[p.Label] = true

		switch p.Model.Provider {
		case "", "anthropic", "openai", "mock":
		default:
			return fmt.Errorf("scenario %q: participant %q: unknown model provider %q",
				s.Name, p.Label, p.Model.Provider)
		}
	}

	names := make(map[string]bool)
	for i, pr := range s.Providers {
		if pr.Name == "" {
			return fmt.Errorf("scenario %q: provider %d has no name", s.Name, i)
		}
		if names[pr.Name] {
			return fmt.Errorf("scenario %q: duplicate provider name %q", s.Name, pr.Name)
		}
		names[pr.Name] = true
		if pr.Command == "" {
			return fmt.Errorf("scenario %q: provider %q has no command", s.Name, pr.Name)
		}
	}

	return nil
}
