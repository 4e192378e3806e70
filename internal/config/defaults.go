package config

import (
	_ "embed"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/ladder.yaml
var defaultLadderYAML []byte

// DefaultConfig returns the embedded default configuration.
func DefaultConfig() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultLadderYAML, &cfg); err != nil {
		return fallbackConfig() // Fallback to hardcoded if embed fails
	}
	return cfg
}

func fallbackConfig() Config {
	return Config{
		TurnDelay:      2 * time.Second,
		RequestTimeout: 15 * time.Second,
		DBPath:         "~/" + Dir + "/ladder.db",
		HTTPAddr:       ":8080",
		SSHAddr:        ":23234",
		HostKeyPath:    "~/" + Dir + "/host_key",
		LogLevel:       "info",
		Players: []PlayerSpec{
			{Provider: "openai", Model: "gpt-5", Name: "GPT-5"},
			{Provider: "anthropic", Model: "claude-sonnet-4.5", Name: "Claude"},
		},
	}
}
