package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/snakeladder-arena/internal/board"
)

var (
	// ErrGameNotActive is returned when a turn is requested on a game that is
	// pending or already completed.
	ErrGameNotActive = errors.New("engine: game is not active")

	// ErrInvalidPlayer is returned for a malformed seat or player config.
	ErrInvalidPlayer = errors.New("engine: invalid player")

	// ErrInvalidPosition is returned when a player's position is off the board.
	ErrInvalidPosition = errors.New("engine: position out of range")

	// ErrInvalidRoll is returned when the roller yields a value outside 1..6.
	ErrInvalidRoll = errors.New("engine: dice roll out of range")

	// ErrUnknownTurn is returned when commentary targets a turn that does not exist.
	ErrUnknownTurn = errors.New("engine: unknown turn")
)

// Engine executes turns against a board with a given dice source.
type Engine struct {
	board  board.Config
	roller Roller
	now    func() time.Time
	newID  func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithBoard plays on a board other than the classic one.
func WithBoard(b board.Config) Option {
	return func(e *Engine) { e.board = b }
}

// WithRoller sets the dice source.
func WithRoller(r Roller) Option {
	return func(e *Engine) { e.roller = r }
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine on the classic board with the shared dice source.
func New(opts ...Option) *Engine {
	e := &Engine{
		board:  board.Classic(),
		roller: globalRoller{},
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// ExecuteTurn plays one turn on the classic board with the shared dice source.
func ExecuteTurn(state GameState) (TurnResult, error) {
	return defaultEngine.ExecuteTurn(state)
}

// NewGame seats two players with the default engine.
func NewGame(p1, p2 PlayerConfig) (GameState, error) {
	return defaultEngine.NewGame(p1, p2)
}

// NewGame creates an active game with both players off the board and
// player 1 to move.
func (e *Engine) NewGame(p1, p2 PlayerConfig) (GameState, error) {
	first, err := newPlayer(Player1, p1)
	if err != nil {
		return GameState{}, err
	}
	second, err := newPlayer(Player2, p2)
	if err != nil {
		return GameState{}, err
	}

	now := e.now()
	return GameState{
		ID:        e.newID(),
		Status:    StatusActive,
		Player1:   first,
		Player2:   second,
		Current:   Player1,
		Turns:     []Turn{},
		Winner:    NoPlayer,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func newPlayer(n PlayerNum, cfg PlayerConfig) (Player, error) {
	provider := strings.TrimSpace(cfg.Provider)
	model := strings.TrimSpace(cfg.Model)
	if provider == "" || model == "" {
		return Player{}, fmt.Errorf("%w: player %d needs a provider and a model", ErrInvalidPlayer, n)
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = fmt.Sprintf("Player %d", n)
	}
	return Player{
		Number:     n,
		Provider:   provider,
		Model:      model,
		Name:       name,
		Credential: cfg.Credential,
	}, nil
}

// ExecuteTurn rolls for the current player, moves them, applies any snake or
// ladder and returns the new state. state itself is left unchanged.
// Calling it on a game that is not active returns ErrGameNotActive.
func (e *Engine) ExecuteTurn(state GameState) (TurnResult, error) {
	if state.Status != StatusActive {
		return TurnResult{}, fmt.Errorf("%w (status %q)", ErrGameNotActive, state.Status)
	}
	if !state.Current.Valid() {
		return TurnResult{}, fmt.Errorf("%w: current player %d", ErrInvalidPlayer, state.Current)
	}

	mover := state.CurrentPlayer()
	if mover.Position < 0 || mover.Position > e.board.Size {
		return TurnResult{}, fmt.Errorf("%w: player %d at %d", ErrInvalidPosition, mover.Number, mover.Position)
	}

	roll := e.roller.Roll()
	if roll < 1 || roll > DieFaces {
		return TurnResult{}, fmt.Errorf("%w: %d", ErrInvalidRoll, roll)
	}

	to := advance(mover.Position, roll, e.board.Size)
	final, event := e.board.Resolve(to)
	now := e.now()

	turn := Turn{
		ID:        e.newID(),
		Number:    len(state.Turns) + 1,
		Player:    mover.Number,
		Provider:  mover.Provider,
		Model:     mover.Model,
		Roll:      roll,
		From:      mover.Position,
		To:        to,
		Final:     final,
		Event:     event,
		CreatedAt: now,
	}

	over := final == e.board.Size
	winner := NoPlayer
	if over {
		winner = mover.Number
	}

	next := state.Clone()
	moved := mover
	moved.Position = final
	if mover.Number == Player1 {
		next.Player1 = moved
	} else {
		next.Player2 = moved
	}
	next.Turns = append(next.Turns, turn)
	next.Winner = winner
	next.UpdatedAt = now
	if over {
		next.Status = StatusCompleted
	} else {
		next.Status = StatusActive
		next.Current = mover.Number.Other()
	}

	return TurnResult{
		Turn:       turn,
		State:      next,
		IsGameOver: over,
		Winner:     winner,
	}, nil
}

// Replay re-plays a game from its recorded rolls and returns the final state.
// It stops early if the game ends before the rolls are exhausted.
func Replay(p1, p2 PlayerConfig, rolls []int) (GameState, error) {
	e := New(WithRoller(NewSequence(rolls...)))
	state, err := e.NewGame(p1, p2)
	if err != nil {
		return GameState{}, err
	}
	for range rolls {
		res, err := e.ExecuteTurn(state)
		if err != nil {
			return state, err
		}
		state = res.State
		if res.IsGameOver {
			break
		}
	}
	return state, nil
}
