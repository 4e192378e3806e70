// Package config provides YAML-based configuration loading, environment
// overrides and API credential storage for the arena.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/snakeladder-arena/internal/commentary"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
)

var (
	// ErrMissingPlayer is returned when fewer than two seats are configured
	// or a seat lacks a provider or model.
	ErrMissingPlayer = errors.New("config: missing player")

	// ErrMissingCredential is returned when a seat's provider has no API key.
	ErrMissingCredential = errors.New("config: missing credential")

	// ErrInvalid is returned for out-of-range settings.
	ErrInvalid = errors.New("config: invalid setting")
)

// Config is the arena configuration.
type Config struct {
	TurnDelay      time.Duration `yaml:"turn_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	DBPath         string        `yaml:"db_path"`
	HTTPAddr       string        `yaml:"http_addr"`
	SSHAddr        string        `yaml:"ssh_addr"`
	HostKeyPath    string        `yaml:"host_key_path"`
	LogLevel       string        `yaml:"log_level"`
	Players        []PlayerSpec  `yaml:"players"`
}

// PlayerSpec is one configured seat. Credentials live in a CredentialStore,
// never in the config file.
type PlayerSpec struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Name     string `yaml:"name"`
}

// Validate checks settings and both seats. It does not look at credentials.
func (c Config) Validate() error {
	if c.TurnDelay < 0 {
		return fmt.Errorf("%w: turn_delay %s", ErrInvalid, c.TurnDelay)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout %s", ErrInvalid, c.RequestTimeout)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	if len(c.Players) != 2 {
		return fmt.Errorf("%w: expected 2 players, got %d", ErrMissingPlayer, len(c.Players))
	}
	for i, p := range c.Players {
		if err := p.validate(); err != nil {
			return fmt.Errorf("player %d: %w", i+1, err)
		}
	}
	return nil
}

func (p PlayerSpec) validate() error {
	if strings.TrimSpace(p.Provider) == "" {
		return fmt.Errorf("%w: provider is required", ErrMissingPlayer)
	}
	if _, err := commentary.ParseProvider(p.Provider); err != nil {
		return err
	}
	if strings.TrimSpace(p.Model) == "" {
		return fmt.Errorf("%w: model is required", ErrMissingPlayer)
	}
	return nil
}

// PlayerConfig attaches the credential for the seat's provider.
func (p PlayerSpec) PlayerConfig(creds CredentialStore) (engine.PlayerConfig, error) {
	if err := p.validate(); err != nil {
		return engine.PlayerConfig{}, err
	}
	provider, _ := commentary.ParseProvider(p.Provider)
	key, ok := creds.Get(provider)
	if !ok {
		return engine.PlayerConfig{}, fmt.Errorf("%w for %s", ErrMissingCredential, provider)
	}
	return engine.PlayerConfig{
		Provider:   string(provider),
		Model:      strings.TrimSpace(p.Model),
		Name:       strings.TrimSpace(p.Name),
		Credential: key,
	}, nil
}

// Seats validates the config and resolves both seats against creds.
func (c Config) Seats(creds CredentialStore) (p1, p2 engine.PlayerConfig, err error) {
	if err := c.Validate(); err != nil {
		return p1, p2, err
	}
	if p1, err = c.Players[0].PlayerConfig(creds); err != nil {
		return p1, p2, fmt.Errorf("player 1: %w", err)
	}
	if p2, err = c.Players[1].PlayerConfig(creds); err != nil {
		return p1, p2, fmt.Errorf("player 2: %w", err)
	}
	return p1, p2, nil
}

// NewLogger builds a logger at the configured level. An unparsable level
// falls back to info.
func (c Config) NewLogger(w io.Writer, prefix string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if level, err := log.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}
