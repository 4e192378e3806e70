package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/vovakirdan/snakeladder-arena/internal/board"
)

// DieFaces is the number of faces on the die.
const DieFaces = 6

// Roller produces dice rolls in [1, DieFaces].
type Roller interface {
	Roll() int
}

// RandRoller rolls a fair die from a seeded math/rand source.
// It is safe for concurrent use.
type RandRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller creates a roller. A zero seed uses the current time.
func NewRoller(seed int64) *RandRoller {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandRoller{rng: rand.New(rand.NewSource(seed))}
}

// Roll returns a uniformly distributed value in [1, 6].
func (r *RandRoller) Roll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(DieFaces) + 1
}

// RollDice rolls a die from the shared, auto-seeded math/rand source.
func RollDice() int {
	return rand.Intn(DieFaces) + 1
}

type globalRoller struct{}

func (globalRoller) Roll() int { return RollDice() }

// Sequence replays a fixed list of rolls in order and then wraps around.
// Used to replay recorded games.
type Sequence struct {
	mu    sync.Mutex
	rolls []int
	next  int
}

// NewSequence creates a Sequence over rolls.
func NewSequence(rolls ...int) *Sequence {
	return &Sequence{rolls: rolls}
}

// Roll returns the next recorded value, or 0 if the sequence is empty.
func (s *Sequence) Roll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rolls) == 0 {
		return 0
	}
	v := s.rolls[s.next%len(s.rolls)]
	s.next++
	return v
}

// Advance moves a token roll squares forward on the classic board. A roll
// that would pass the goal is forfeited and the token stays where it is.
func Advance(position, roll int) int {
	return advance(position, roll, board.Size)
}

func advance(position, roll, goal int) int {
	next := position + roll
	if next > goal {
		return position
	}
	return next
}
