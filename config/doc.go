// Package config loads runtime configuration from two sources: process
// environment settings (API keys, log level) via envconfig, and scenario
// files in YAML describing the channel, participants, tool providers, and
// resilience tuning. Build assembles a ready orchestrator from a scenario.
package config
