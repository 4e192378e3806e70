package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/snakeladder-arena/internal/commentary"
	"github.com/vovakirdan/snakeladder-arena/internal/config"
	"github.com/vovakirdan/snakeladder-arena/internal/driver"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
	"github.com/vovakirdan/snakeladder-arena/internal/storage"
)

// seatFlags are the per-command overrides of the two configured seats.
type seatFlags struct {
	p1, p2       string // provider/model
	name1, name2 string
	offline      bool
}

// exitf prints an error and exits with status 1.
func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig reads the config and applies the global flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}
	if flagDelay != "" {
		d, err := time.ParseDuration(flagDelay)
		if err != nil {
			return cfg, fmt.Errorf("invalid --delay: %w", err)
		}
		cfg.TurnDelay = d
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

// mustConfig loads and validates the config with seat overrides, or exits.
func mustConfig(seats *seatFlags) config.Config {
	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}
	if seats != nil {
		if err := seats.apply(&cfg); err != nil {
			exitf("%v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		exitf("%v", err)
	}
	return cfg
}

// apply replaces configured seats with the ones given on the command line.
func (s *seatFlags) apply(cfg *config.Config) error {
	for len(cfg.Players) < 2 {
		cfg.Players = append(cfg.Players, config.PlayerSpec{})
	}
	overrides := []struct{ spec, name string }{{s.p1, s.name1}, {s.p2, s.name2}}
	for i, o := range overrides {
		if o.spec != "" {
			spec, err := parseSeat(o.spec)
			if err != nil {
				return fmt.Errorf("player %d: %w", i+1, err)
			}
			cfg.Players[i] = spec
		}
		if o.name != "" {
			cfg.Players[i].Name = o.name
		}
	}
	return nil
}

// parseSeat parses "provider/model". A bare provider uses its default model.
func parseSeat(s string) (config.PlayerSpec, error) {
	providerName, model, _ := strings.Cut(s, "/")
	p, err := commentary.ParseProvider(providerName)
	if err != nil {
		return config.PlayerSpec{}, err
	}
	info, _ := commentary.Lookup(p)
	if model == "" {
		model = info.DefaultModel
	}
	name := model
	for _, m := range info.Models {
		if m.ID == model {
			name = m.Name
		}
	}
	return config.PlayerSpec{Provider: string(p), Model: model, Name: name}, nil
}

// newLogger creates a logger that writes to stderr at the configured level.
func newLogger(cfg config.Config, prefix string) *log.Logger {
	return cfg.NewLogger(os.Stderr, prefix)
}

// openCredentials opens the key file overlaid with provider environment
// variables.
func openCredentials() (config.CredentialStore, *config.FileStore, error) {
	file, err := config.OpenFileStore(config.DefaultCredentialsPath())
	if err != nil {
		return nil, nil, err
	}
	creds, err := config.WithEnv(file, nil)
	if err != nil {
		return nil, nil, err
	}
	return creds, file, nil
}

// seats resolves both configured seats with their credentials. Offline
// matches need no keys.
func seats(cfg config.Config, offline bool) (p1, p2 engine.PlayerConfig, err error) {
	if offline {
		return cfg.Seats(offlineCredentials{})
	}
	creds, _, err := openCredentials()
	if err != nil {
		return p1, p2, err
	}
	return cfg.Seats(creds)
}

// offlineCredentials hands every provider a placeholder key.
type offlineCredentials struct{}

func (offlineCredentials) Get(commentary.Provider) (string, bool) { return "offline", true }
func (offlineCredentials) Set(commentary.Provider, string) error { return nil }
func (offlineCredentials) Providers() []commentary.Provider { return commentary.Registered() }

// newEngine returns an engine rolling from --seed, or from the clock.
func newEngine() *engine.Engine {
	return engine.New(engine.WithRoller(engine.NewRoller(flagSeed)))
}

// newCommentary returns the commentary source for a match.
func newCommentary(cfg config.Config, logger *log.Logger, offline bool) driver.Commentator {
	if offline {
		return commentary.Offline{}
	}
	return commentary.NewRequester(logger.WithPrefix("commentary"), cfg.RequestTimeout, commentary.Options{})
}

// driverFactory builds idle drivers that share one commentary source and
// one optional store.
func driverFactory(cfg config.Config, store *storage.Store, logger *log.Logger, offline bool) func(p1, p2 engine.PlayerConfig) (*driver.Driver, error) {
	source := newCommentary(cfg, logger, offline)
	var persister driver.Persister
	if store != nil {
		persister = store
	}
	return func(p1, p2 engine.PlayerConfig) (*driver.Driver, error) {
		return driver.New(driver.Config{
			Player1:    p1,
			Player2:    p2,
			Delay:      cfg.TurnDelay,
			Engine:     newEngine(),
			Commentary: source,
			Persister:  persister,
			Logger:     logger.WithPrefix("driver"),
		})
	}
}

// openStore opens the games database, or exits.
func openStore(cfg config.Config) *storage.Store {
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		exitf("cannot open games database: %v", err)
	}
	return store
}

// userLogPath is ~/.snakeladder/ladder.log, falling back to the temp dir.
func userLogPath() string {
	path := config.UserPath("ladder.log")
	if path == "" || os.MkdirAll(filepath.Dir(path), 0o700) != nil {
		return filepath.Join(os.TempDir(), "ladder.log")
	}
	return path
}

// expandPath resolves a leading ~.
func expandPath(path string) string {
	return config.ExpandHome(path)
}

// portOf returns the port of a host:port address.
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
