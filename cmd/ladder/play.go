package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/snakeladder-arena/internal/driver"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
	"github.com/vovakirdan/snakeladder-arena/internal/storage"
)

var (
	playSeats  seatFlags
	flagNoSave bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play one match headless",
	Long: `Play a single match without a UI. Every turn and its commentary is
printed as it happens, and the finished game is saved to the leaderboard.

Seats come from the config unless --p1/--p2 are given as provider/model.

Examples:
  ladder play
  ladder play --p1 openai/gpt-5 --p2 groq
  ladder play --offline --seed 7 --delay 0s --no-save`,
	Run: runPlay,
}

func init() {
	addSeatFlags(playCmd, &playSeats)
	playCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not save the finished game")
}

// addSeatFlags registers the seat overrides shared by play, watch and serve.
func addSeatFlags(cmd *cobra.Command, s *seatFlags) {
	cmd.Flags().StringVar(&s.p1, "p1", "", "Player 1 as provider/model")
	cmd.Flags().StringVar(&s.p2, "p2", "", "Player 2 as provider/model")
	cmd.Flags().StringVar(&s.name1, "p1-name", "", "Player 1 display name")
	cmd.Flags().StringVar(&s.name2, "p2-name", "", "Player 2 display name")
	cmd.Flags().BoolVar(&s.offline, "offline", false, "Use canned commentary instead of calling providers")
}

func runPlay(cmd *cobra.Command, _ []string) {
	cfg := mustConfig(&playSeats)
	logger := newLogger(cfg, "ladder")

	p1, p2, err := seats(cfg, playSeats.offline)
	if err != nil {
		exitf("%v (run 'ladder key set <provider>' or use --offline)", err)
	}

	var store *storage.Store
	if !flagNoSave {
		store = openStore(cfg)
		defer store.Close()
	}

	d, err := driverFactory(cfg, store, logger, playSeats.offline)(p1, p2)
	if err != nil {
		exitf("%v", err)
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := cmd.OutOrStdout()
	saved := make(chan struct{})
	failed := make(chan error, 1)
	unsub := d.Subscribe(func(ev driver.Event) {
		switch ev.Type {
		case driver.EventTurn:
			if ev.Turn != nil {
				printTurn(out, ev.State, *ev.Turn)
			}
		case driver.EventSaved:
			if ev.Err != nil {
				logger.Warn("game not saved", "error", ev.Err)
			}
			close(saved)
		case driver.EventError:
			// Headless play has nobody to press resume.
			failed <- ev.Err
			cancel()
		}
	})
	defer unsub()

	if err := d.Start(); err != nil {
		exitf("%v", err)
	}
	final, err := d.Wait(ctx)
	select {
	case turnErr := <-failed:
		exitf("turn failed: %v", turnErr)
	default:
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Interrupted.")
		return
	}
	if err != nil {
		exitf("%v", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, engine.Summary(final))
	if store != nil {
		select {
		case <-saved:
		case <-ctx.Done():
		}
	}
}

// printTurn writes one turn and its commentary.
func printTurn(w io.Writer, g engine.GameState, t engine.Turn) {
	p := g.Player(t.Player)
	fmt.Fprintf(w, "\nTurn %d  %s (%s) rolled %d: %d -> %d\n", t.Number, p.Name, p.Model, t.Roll, t.From, t.Final)
	if t.Bust() {
		fmt.Fprintln(w, "  overshot 100, stays put")
	}
	if desc := engine.DescribeEvent(t.Event); desc != "" {
		fmt.Fprintln(w, "  "+desc)
	}
	for _, line := range []struct {
		label string
		text  *string
	}{{"before", t.PreRoll}, {"after", t.PostRoll}, {"jab", t.TrashTalk}} {
		if line.text != nil && *line.text != "" {
			fmt.Fprintf(w, "  %-6s  %s\n", line.label, *line.text)
		}
	}
}
