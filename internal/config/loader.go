package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Dir is the per-user directory under the home directory.
const Dir = ".snakeladder"

// Load loads the arena configuration and applies environment overrides.
// Search order: customPath -> ~/.snakeladder/config.yaml -> ./configs/ladder.yaml -> embedded default
func Load(customPath string) (Config, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg, nil); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(customPath string) (Config, error) {
	cfg := DefaultConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := UserPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
			cfg = DefaultConfig()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/ladder.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
		cfg = DefaultConfig()
	}

	return cfg, nil
}

// envOverrides lists the settings that may come from the environment.
// Unset variables leave the pointer nil.
type envOverrides struct {
	TurnDelay      *time.Duration `env:"LADDER_TURN_DELAY"`
	RequestTimeout *time.Duration `env:"LADDER_REQUEST_TIMEOUT"`
	DBPath         *string        `env:"LADDER_DB_PATH"`
	HTTPAddr       *string        `env:"LADDER_HTTP_ADDR"`
	SSHAddr        *string        `env:"LADDER_SSH_ADDR"`
	HostKeyPath    *string        `env:"LADDER_HOST_KEY_PATH"`
	LogLevel       *string        `env:"LADDER_LOG_LEVEL"`
}

// applyEnv overlays LADDER_* variables. A nil environ reads the process
// environment.
func applyEnv(cfg *Config, environ map[string]string) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.TurnDelay != nil {
		cfg.TurnDelay = *o.TurnDelay
	}
	if o.RequestTimeout != nil {
		cfg.RequestTimeout = *o.RequestTimeout
	}
	if o.DBPath != nil {
		cfg.DBPath = *o.DBPath
	}
	if o.HTTPAddr != nil {
		cfg.HTTPAddr = *o.HTTPAddr
	}
	if o.SSHAddr != nil {
		cfg.SSHAddr = *o.SSHAddr
	}
	if o.HostKeyPath != nil {
		cfg.HostKeyPath = *o.HostKeyPath
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files (or ./.env) into the
// process environment. Variables already set win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// UserPath returns the path of filename in the user directory, or empty if
// home is unavailable.
func UserPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, Dir, filename)
}

// ExpandHome replaces a leading ~ with the home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
