package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/snakeladder-arena/internal/platform/tui"
	"github.com/vovakirdan/snakeladder-arena/internal/storage"
)

var (
	watchSeats    seatFlags
	flagNoAutoRun bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a match in the terminal",
	Long: `Open the match view: the board, both players, the last roll and the
three lines of commentary of every turn.

Controls:
  S/Enter   - Start a new game
  P/Space   - Pause or resume
  N         - Play one turn while paused
  R         - Reset
  ?         - More keys
  Q/Ctrl+C  - Quit

Examples:
  ladder watch
  ladder watch --p1 gemini/gemini-2.5-pro --p2 grok
  ladder watch --offline --delay 300ms`,
	Run: runWatch,
}

func init() {
	addSeatFlags(watchCmd, &watchSeats)
	watchCmd.Flags().BoolVar(&flagNoAutoRun, "manual", false, "Wait for S instead of starting right away")
}

func runWatch(_ *cobra.Command, _ []string) {
	cfg := mustConfig(&watchSeats)

	p1, p2, err := seats(cfg, watchSeats.offline)
	if err != nil {
		exitf("%v (run 'ladder key set <provider>' or use --offline)", err)
	}

	// Log to a file: the terminal belongs to the view.
	logFile, err := os.OpenFile(userLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		exitf("cannot open log file: %v", err)
	}
	defer logFile.Close()
	logger := cfg.NewLogger(logFile, "ladder")

	var store *storage.Store
	if s, err := storage.Open(cfg.DBPath); err != nil {
		logger.Warn("could not open games database, results will not be saved", "error", err)
	} else {
		store = s
		defer store.Close()
	}

	d, err := driverFactory(cfg, store, logger, watchSeats.offline)(p1, p2)
	if err != nil {
		exitf("%v", err)
	}

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	opts := []tui.SpectatorOption{tui.WithSize(width, height)}
	if !flagNoAutoRun {
		opts = append(opts, tui.WithAutoStart())
	}
	if err := tui.RunSpectator(d, opts...); err != nil {
		exitf("%v", err)
	}
}
