package engine

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/snakeladder-arena/internal/board"
)

// Summary describes the state of a game in one line.
func Summary(g GameState) string {
	if g.Status == StatusCompleted && g.Winner.Valid() {
		w := g.Player(g.Winner)
		return fmt.Sprintf("🎉 %s (%s) wins after %d turns!", w.Name, w.Model, len(g.Turns))
	}
	cur := g.CurrentPlayer()
	return fmt.Sprintf("Turn %d: %s's turn. Positions: %s @ %d, %s @ %d",
		len(g.Turns)+1, cur.Name,
		g.Player1.Name, g.Player1.Position,
		g.Player2.Name, g.Player2.Position)
}

// DescribeEvent renders a snake or ladder event for display, or "" for none.
func DescribeEvent(ev *board.Event) string {
	if ev == nil {
		return ""
	}
	if ev.Type == board.EventSnake {
		return fmt.Sprintf("🐍 Oh no! Slid down a snake from %d to %d!", ev.From, ev.To)
	}
	return fmt.Sprintf("🪜 Climbed a ladder from %d to %d!", ev.From, ev.To)
}

// Rolls returns the dice values of every turn, in order.
func Rolls(g GameState) []int {
	out := make([]int, len(g.Turns))
	for i, t := range g.Turns {
		out[i] = t.Roll
	}
	return out
}

// ErrMismatch is returned by Verify when a recorded game does not follow
// from its own dice rolls.
var ErrMismatch = errors.New("engine: game does not replay")

// Verify replays the recorded rolls on the classic board and checks every
// turn and the outcome against the record.
func Verify(g GameState) error {
	seat := func(p Player) PlayerConfig {
		return PlayerConfig{Provider: p.Provider, Model: p.Model, Name: p.Name}
	}
	replayed, err := Replay(seat(g.Player1), seat(g.Player2), Rolls(g))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMismatch, err)
	}
	if len(replayed.Turns) != len(g.Turns) {
		return fmt.Errorf("%w: %d turns recorded, %d replayed", ErrMismatch, len(g.Turns), len(replayed.Turns))
	}
	for i, want := range replayed.Turns {
		got := g.Turns[i]
		if got.Number != want.Number || got.Player != want.Player ||
			got.From != want.From || got.To != want.To || got.Final != want.Final {
			return fmt.Errorf("%w: turn %d", ErrMismatch, i+1)
		}
	}
	if replayed.Status != g.Status || replayed.Winner != g.Winner {
		return fmt.Errorf("%w: outcome differs", ErrMismatch)
	}
	if replayed.Player1.Position != g.Player1.Position || replayed.Player2.Position != g.Player2.Position {
		return fmt.Errorf("%w: final positions differ", ErrMismatch)
	}
	return nil
}
