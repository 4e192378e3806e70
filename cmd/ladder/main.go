// ladder runs AI Snake & Ladder matches between two language models.
//
// Usage:
//
//	ladder play              - Play one match headless and log every turn
//	ladder watch             - Watch a match in the terminal
//	ladder serve             - Start the HTTP API and the SSH spectator server
//	ladder leaderboard       - Show model standings
//	ladder games             - List, show, verify or delete saved games
//	ladder models            - List providers and their models
//	ladder key               - Manage provider API keys
//
// Global flags:
//
//	--config <path> - Config file (default: ~/.snakeladder/config.yaml)
//	--db <path>     - Database path (overrides the config)
//	--seed <value>  - Dice seed for reproducible matches
//	--delay <dur>   - Pause between turns (overrides the config)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/snakeladder-arena/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagSeed     int64
	flagDelay    string
	flagLogLevel string
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ladder",
	Short: "Snake & Ladder Arena - watch AI models race to square 100",
	Long: `Snake & Ladder Arena pits two language models against each other on
the classic 100-square board. Every turn each model comments on the game
before and after its roll and gets a jab at its opponent.

Available commands:
  play         - Play one match headless
  watch        - Watch a match in the terminal
  serve        - Start the HTTP API and SSH spectator server
  leaderboard  - Show model standings
  games        - Browse saved games
  models       - List providers and models
  key          - Manage API keys

Examples:
  ladder key set openai
  ladder watch --p1 openai/gpt-5 --p2 anthropic/claude-sonnet-4.5
  ladder play --seed 42 --delay 0s
  ladder serve --http :8080 --ssh :23234
  ladder leaderboard`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to games database")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "Dice seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDelay, "delay", "", "Pause between turns, e.g. 500ms")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(keyCmd)
}
