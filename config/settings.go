package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Settings are process-level settings read from the environment with the
// COLLAB_ prefix, except the API keys which use the names the SDKs expect.
type Settings struct {
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`

	LogLevel    string `default:"info" split_words:"true"`
	LogFormat   string `default:"text" split_words:"true"`
	SnapshotDir string `default:".snapshots" split_words:"true"`
}

// LoadSettings reads settings from the environment, first loading a .env
// file if one exists.
func LoadSettings() (Settings, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	var s Settings
	if err := envconfig.Process("collab", &s); err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return s, nil
}
