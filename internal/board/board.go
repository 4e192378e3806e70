// Package board holds the static snake & ladder table and the pure lookup
// used by the turn engine to resolve the square a player lands on.
package board

import (
	"fmt"
	"sort"
)

// Size is the number of squares on the board. Square Size is the goal.
const Size = 100

// EventType distinguishes a snake slide from a ladder climb.
type EventType string

const (
	EventSnake  EventType = "snake"
	EventLadder EventType = "ladder"
)

// Event records a snake or ladder taken after landing on a square.
type Event struct {
	Type EventType `json:"type"`
	From int       `json:"from"`
	To   int       `json:"to"`
}

// Config describes a board: its size and the snake and ladder transitions.
// Snakes map a head to a lower tail, ladders map a bottom to a higher top.
type Config struct {
	Size    int
	Snakes  map[int]int
	Ladders map[int]int
}

// classic is the 10x10 board played by every match.
var classic = Config{
	Size: Size,
	Snakes: map[int]int{
		99: 41,
		95: 75,
		92: 88,
		89: 68,
		74: 53,
		64: 60,
		62: 19,
		49: 11,
		46: 25,
		16: 6,
	},
	Ladders: map[int]int{
		2:  38,
		7:  14,
		8:  31,
		15: 26,
		21: 42,
		28: 84,
		36: 44,
		51: 67,
		71: 91,
		78: 98,
		87: 94,
	},
}

// Classic returns the standard board. The maps are shared and must not be modified.
func Classic() Config {
	return classic
}

// Resolve returns where a player ends up after landing on square, together
// with the snake or ladder event taken, if any.
func (c Config) Resolve(square int) (int, *Event) {
	if tail, ok := c.Snakes[square]; ok {
		return tail, &Event{Type: EventSnake, From: square, To: tail}
	}
	if top, ok := c.Ladders[square]; ok {
		return top, &Event{Type: EventLadder, From: square, To: top}
	}
	return square, nil
}

// Resolve looks square up on the classic board.
func Resolve(square int) (int, *Event) {
	return classic.Resolve(square)
}

// Validate checks the table invariants: snakes go down, ladders go up, no
// square starts both, and neither the first nor the last square is special.
func (c Config) Validate() error {
	if c.Size <= 1 {
		return fmt.Errorf("board: invalid size %d", c.Size)
	}
	for _, head := range sortedKeys(c.Snakes) {
		tail := c.Snakes[head]
		if err := c.checkSquare("snake", head, tail); err != nil {
			return err
		}
		if tail >= head {
			return fmt.Errorf("board: snake %d->%d does not go down", head, tail)
		}
		if _, ok := c.Ladders[head]; ok {
			return fmt.Errorf("board: square %d is both a snake head and a ladder bottom", head)
		}
	}
	for _, bottom := range sortedKeys(c.Ladders) {
		top := c.Ladders[bottom]
		if err := c.checkSquare("ladder", bottom, top); err != nil {
			return err
		}
		if top <= bottom {
			return fmt.Errorf("board: ladder %d->%d does not go up", bottom, top)
		}
	}
	return nil
}

func (c Config) checkSquare(kind string, from, to int) error {
	if from <= 1 || from >= c.Size {
		return fmt.Errorf("board: %s starts on reserved or off-board square %d", kind, from)
	}
	if to < 1 || to > c.Size {
		return fmt.Errorf("board: %s %d->%d leaves the board", kind, from, to)
	}
	return nil
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
