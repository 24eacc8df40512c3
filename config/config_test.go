package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
name: recon net
channel:
  max_history: 200
orchestrator:
  max_participants: 8
  max_responses: 2
  context_size: 15
resilience:
  breaker:
    failure_threshold: 3
    recovery_timeout: 45s
    success_threshold: 2
    call_timeout: 20s
  retry:
    max_attempts: 4
    initial_delay: 500ms
    max_delay: 10s
    backoff_base: 2.0
    jitter: true
providers:
  - name: weather
    command: weather-server
    args: ["--stdio"]
    env:
      WEATHER_REGION: north
participants:
  - label: Base
    coordinator: true
    system_prompt: You run the net.
    model:
      provider: mock
    criteria: [direct_address, question, coordinator]
  - label: Scout
    model:
      provider: mock
    criteria: ["keyword:weather, terrain"]
    tools: true
    max_tool_rounds: 3
`

func TestParseScenario(t *testing.T) {
	s, err := Parse([]byte(scenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "recon net", s.Name)
	assert.Equal(t, 200, s.Channel.MaxHistory)
	assert.Equal(t, 2, s.Orchestrator.MaxResponses)
	assert.Equal(t, 3, s.Resilience.Breaker.FailureThreshold)
	assert.Equal(t, 45*time.Second, s.Resilience.Breaker.RecoveryTimeout.Std())
	assert.Equal(t, 500*time.Millisecond, s.Resilience.Retry.InitialDelay.Std())
	assert.True(t, s.Resilience.Retry.Jitter)

	require.Len(t, s.Providers, 1)
	assert.Equal(t, "weather", s.Providers[0].Name)
	assert.Equal(t, map[string]string{"WEATHER_REGION": "north"}, s.Providers[0].Env)

	require.Len(t, s.Participants, 2)
	assert.True(t, s.Participants[0].Coordinator)
	assert.Equal(t, []string{"keyword:weather, terrain"}, s.Participants[1].Criteria)
}

func TestParseScenarioInvalidDuration(t *testing.T) {
	_, err := Parse([]byte("resilience:\n  breaker:\n    recovery_timeout: soon\nparticipants:\n  - label: A\n"))
	assert.ErrorContains(t, err, "invalid duration")
}

func TestValidateRejectsEmptyParticipants(t *testing.T) {
	_, err := Parse([]byte("name: empty\n"))
	assert.ErrorContains(t, err, "at least one participant")
}

func TestValidateRejectsDuplicateLabels(t *testing.T) {
	_, err := Parse([]byte("participants:\n  - label: A\n  - label: A\n"))
	assert.ErrorContains(t, err, "duplicate participant label")
}

func TestValidateRejectsUnknownModelProvider(t *testing.T) {
	_, err := Parse([]byte("participants:\n  - label: A\n    model:\n      provider: cohere\n"))
	assert.ErrorContains(t, err, "unknown model provider")
}

func TestValidateRejectsProviderWithoutCommand(t *testing.T) {
	_, err := Parse([]byte("providers:\n  - name: weather\nparticipants:\n  - label: A\n"))
	assert.ErrorContains(t, err, "has no command")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "recon net", s.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildWiresRuntime(t *testing.T) {
	// No providers: the weather subprocess would fail to launch and Build
	// tolerates that, but keeping the scenario hermetic is simpler.
	s, err := Parse([]byte(`
orchestrator:
  max_responses: 1
participants:
  - label: Base
    coordinator: true
    model:
      provider: mock
  - label: Scout
    model:
      provider: mock
`))
	require.NoError(t, err)

	rt, err := Build(context.Background(), s, Settings{}, nil)
	require.NoError(t, err)
	defer rt.Close()

	require.Len(t, rt.Orchestrator.Participants(), 2)
	require.NotNil(t, rt.Orchestrator.Coordinator())
	assert.Equal(t, "Base", rt.Orchestrator.Coordinator().Label())
	assert.Empty(t, rt.Providers.ProviderNames())

	// Mock models answer with empty text, so the turn completes silently.
	result, err := rt.Orchestrator.RunTurn(context.Background(), "Scout, this is Base, radio check, over.")
	require.NoError(t, err)
	assert.Equal(t, result.Input.Body, "Scout, this is Base, radio check, over.")
}

func TestBuildRejectsUnknownCriteria(t *testing.T) {
	s := &Scenario{Participants: []ParticipantConfig{{
		Label:    "A",
		Model:    ModelConfig{Provider: "mock"},
		Criteria: []string{"psychic"},
	}}}

	_, err := Build(context.Background(), s, Settings{}, nil)
	assert.ErrorContains(t, err, "unknown criteria")
}

func TestLoadSettingsDefaults(t *testing.T) {
	for _, key := range []string{"COLLAB_LOG_LEVEL", "COLLAB_LOG_FORMAT", "COLLAB_SNAPSHOT_DIR"} {
		t.Setenv(key, "placeholder") // register restore
		require.NoError(t, os.Unsetenv(key))
	}

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "text", s.LogFormat)
	assert.Equal(t, ".snapshots", s.SnapshotDir)
}

func TestLoadSettingsFromEnv(t *testing.T) {
	t.Setenv("COLLAB_LOG_LEVEL", "debug")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "test-key", s.AnthropicAPIKey)
}
