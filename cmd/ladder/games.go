package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/snakeladder-arena/internal/engine"
	"github.com/vovakirdan/snakeladder-arena/internal/storage"
)

var (
	flagGamesLimit  int
	flagGamesOffset int
	flagGameJSON    bool
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Browse saved games",
	Long: `List saved games, replay one turn by turn, check that a stored game
replays with its recorded dice, or delete it.

Examples:
  ladder games list
  ladder games list --limit 20 --offset 20
  ladder games show <id>
  ladder games show <id> --json
  ladder games verify <id>
  ladder games delete <id>`,
}

var gamesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved games, newest first",
	Args:  cobra.NoArgs,
	Run:   runGamesList,
}

var gamesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved game turn by turn",
	Args:  cobra.ExactArgs(1),
	Run:   runGamesShow,
}

var gamesVerifyCmd = &cobra.Command{
	Use:   "verify <id>",
	Short: "Replay a saved game and compare every turn",
	Args:  cobra.ExactArgs(1),
	Run:   runGamesVerify,
}

var gamesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved game (the leaderboard keeps its result)",
	Args:  cobra.ExactArgs(1),
	Run:   runGamesDelete,
}

func init() {
	gamesListCmd.Flags().IntVar(&flagGamesLimit, "limit", 10, "Games per page")
	gamesListCmd.Flags().IntVar(&flagGamesOffset, "offset", 0, "Games to skip")
	gamesShowCmd.Flags().BoolVar(&flagGameJSON, "json", false, "Print the game as JSON")

	gamesCmd.AddCommand(gamesListCmd)
	gamesCmd.AddCommand(gamesShowCmd)
	gamesCmd.AddCommand(gamesVerifyCmd)
	gamesCmd.AddCommand(gamesDeleteCmd)
}

func runGamesList(cmd *cobra.Command, _ []string) {
	cfg := mustConfig(nil)
	store := openStore(cfg)
	defer store.Close()

	page, err := store.RecentGames(context.Background(), flagGamesLimit, flagGamesOffset)
	if err != nil {
		exitf("cannot list games: %v", err)
	}

	out := cmd.OutOrStdout()
	if len(page.Games) == 0 {
		fmt.Fprintln(out, "No games recorded yet.")
		return
	}

	fmt.Fprintf(out, "  %-36s  %-16s  %-24s  %-24s  %5s\n", "ID", "Date", "Player 1", "Player 2", "Turns")
	fmt.Fprintf(out, "  %-36s  %-16s  %-24s  %-24s  %5s\n", "--", "----", "--------", "--------", "-----")
	for _, g := range page.Games {
		p1, p2 := seatLabel(g.Player1, g.Winner == engine.Player1), seatLabel(g.Player2, g.Winner == engine.Player2)
		fmt.Fprintf(out, "  %-36s  %-16s  %-24s  %-24s  %5d\n",
			g.ID, g.CreatedAt.Local().Format("2006-01-02 15:04"), p1, p2, g.TotalTurns)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Showing %d-%d of %d.", page.Offset+1, page.Offset+len(page.Games), page.Total)
	if page.HasMore {
		fmt.Fprintf(out, " Next page: --offset %d", page.Offset+len(page.Games))
	}
	fmt.Fprintln(out)
}

// seatLabel renders a listed player, starring the winner.
func seatLabel(p storage.PlayerSummary, won bool) string {
	label := fmt.Sprintf("%s (%s)", p.Name, p.Model)
	if won {
		label = "* " + label
	}
	if len(label) > 24 {
		label = label[:23] + "."
	}
	return label
}

// loadGame fetches one game, or exits.
func loadGame(id string) engine.GameState {
	cfg := mustConfig(nil)
	store := openStore(cfg)
	defer store.Close()

	g, err := store.Game(context.Background(), id)
	if errors.Is(err, storage.ErrNotFound) {
		exitf("no game with id %q", id)
	}
	if err != nil {
		exitf("cannot load game: %v", err)
	}
	return g
}

func runGamesShow(cmd *cobra.Command, args []string) {
	g := loadGame(args[0])
	out := cmd.OutOrStdout()

	if flagGameJSON {
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			exitf("%v", err)
		}
		fmt.Fprintln(out, string(data))
		return
	}

	fmt.Fprintf(out, "Game %s  (%s)\n", g.ID, g.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "  1: %s (%s/%s)\n", g.Player1.Name, g.Player1.Provider, g.Player1.Model)
	fmt.Fprintf(out, "  2: %s (%s/%s)\n", g.Player2.Name, g.Player2.Provider, g.Player2.Model)
	for _, t := range g.Turns {
		printTurn(out, g, t)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, engine.Summary(g))
}

func runGamesVerify(cmd *cobra.Command, args []string) {
	g := loadGame(args[0])
	if err := engine.Verify(g); err != nil {
		exitf("%v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Game %s replays: %d turns, %s\n", g.ID, len(g.Turns), engine.Summary(g))
}

func runGamesDelete(cmd *cobra.Command, args []string) {
	cfg := mustConfig(nil)
	store := openStore(cfg)
	defer store.Close()

	err := store.DeleteGame(context.Background(), args[0])
	if errors.Is(err, storage.ErrNotFound) {
		exitf("no game with id %q", args[0])
	}
	if err != nil {
		exitf("cannot delete game: %v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted game %s.\n", args[0])
}
