package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/snakeladder-arena/internal/platform/tui"
)

var (
	flagLeaderboardTUI   bool
	flagLeaderboardLimit int
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show model standings",
	Long: `Display wins and losses per provider and model, ranked by wins.

Examples:
  ladder leaderboard
  ladder leaderboard --limit 5
  ladder leaderboard --tui`,
	Args: cobra.NoArgs,
	Run:  runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().BoolVar(&flagLeaderboardTUI, "tui", false, "Open the interactive table")
	leaderboardCmd.Flags().IntVar(&flagLeaderboardLimit, "limit", 20, "Number of rows to show")
}

func runLeaderboard(cmd *cobra.Command, _ []string) {
	cfg := mustConfig(nil)
	store := openStore(cfg)
	defer store.Close()

	if flagLeaderboardTUI {
		width, height := 80, 24 // Defaults
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width = w
			height = h
		}
		if err := tui.RunLeaderboard(store, width, height); err != nil {
			exitf("%v", err)
		}
		return
	}

	standings, err := store.Leaderboard(context.Background(), flagLeaderboardLimit)
	if err != nil {
		exitf("cannot read leaderboard: %v", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Leaderboard")
	fmt.Fprintln(out)

	if len(standings) == 0 {
		fmt.Fprintln(out, "No games recorded yet.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'ladder play' to record the first one!")
		return
	}

	// Calculate column widths
	modelLen := len("Model")
	for _, s := range standings {
		if len(s.Model) > modelLen {
			modelLen = len(s.Model)
		}
	}

	fmt.Fprintf(out, "  %-4s  %-10s  %-*s  %5s  %4s  %6s  %5s\n", "Rank", "Provider", modelLen, "Model", "Games", "Wins", "Losses", "Win%")
	fmt.Fprintf(out, "  %-4s  %-10s  %-*s  %5s  %4s  %6s  %5s\n", "----", "--------", modelLen, "-----", "-----", "----", "------", "----")
	for _, s := range standings {
		fmt.Fprintf(out, "  %-4d  %-10s  %-*s  %5d  %4d  %6d  %4d%%\n",
			s.Rank, s.Provider, modelLen, s.Model, s.GamesPlayed, s.Wins, s.Losses, s.WinRate)
	}
}
