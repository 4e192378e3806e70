// Package engine implements the snake & ladder turn engine: dice, movement
// and the two-player state transition. It holds no state between calls;
// every turn takes a GameState value and returns a new one.
package engine

import (
	"encoding/json"
	"time"

	"github.com/vovakirdan/snakeladder-arena/internal/board"
)

// PlayerNum identifies a seat. The zero value means "no player".
type PlayerNum int

const (
	NoPlayer PlayerNum = 0
	Player1  PlayerNum = 1
	Player2  PlayerNum = 2
)

// Other returns the opposing seat.
func (p PlayerNum) Other() PlayerNum {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// Valid reports whether p is one of the two seats.
func (p PlayerNum) Valid() bool {
	return p == Player1 || p == Player2
}

// MarshalJSON encodes NoPlayer as null.
func (p PlayerNum) MarshalJSON() ([]byte, error) {
	if p == NoPlayer {
		return []byte("null"), nil
	}
	return json.Marshal(int(p))
}

// UnmarshalJSON accepts a seat number or null.
func (p *PlayerNum) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = NoPlayer
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = PlayerNum(n)
	return nil
}

// Status is the lifecycle of a game.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Player is one AI seat at the table.
type Player struct {
	Number   PlayerNum `json:"number"`
	Provider string    `json:"provider"`
	Model    string    `json:"model"`
	Name     string    `json:"name"`
	Position int       `json:"position"` // 0 = not yet entered the board

	// Credential is handed to the commentary provider and never inspected,
	// serialized or persisted here.
	Credential string `json:"-"`
}

// PlayerConfig is the input used to seat a player.
type PlayerConfig struct {
	Provider   string `json:"provider" yaml:"provider"`
	Model      string `json:"model" yaml:"model"`
	Name       string `json:"name" yaml:"name"`
	Credential string `json:"credential,omitempty" yaml:"-"`
}

// Turn is the immutable record of one move. Only the commentary fields are
// filled in after creation, through WithCommentary.
type Turn struct {
	ID        string       `json:"id"`
	Number    int          `json:"turnNumber"`
	Player    PlayerNum    `json:"playerNum"`
	Provider  string       `json:"provider"`
	Model     string       `json:"model"`
	Roll      int          `json:"diceRoll"`
	From      int          `json:"fromPos"`
	To        int          `json:"toPos"`    // after the dice, before snakes/ladders
	Final     int          `json:"finalPos"` // after snakes/ladders
	Event     *board.Event `json:"event"`
	PreRoll   *string      `json:"preRollCommentary"`
	PostRoll  *string      `json:"postRollCommentary"`
	TrashTalk *string      `json:"trashTalk"`
	CreatedAt time.Time    `json:"timestamp"`
}

// Bust reports whether the roll overshot the goal and the player stayed put.
func (t Turn) Bust() bool {
	return t.To == t.From && t.Roll > 0
}

// Commentary holds the three flavor strings attached to a turn.
type Commentary struct {
	PreRoll   string `json:"preRollCommentary"`
	PostRoll  string `json:"postRollCommentary"`
	TrashTalk string `json:"trashTalk"`
}

// WithCommentary returns a copy of the turn carrying c.
func (t Turn) WithCommentary(c Commentary) Turn {
	pre, post, trash := c.PreRoll, c.PostRoll, c.TrashTalk
	t.PreRoll = &pre
	t.PostRoll = &post
	t.TrashTalk = &trash
	return t
}

// GameState is a match between two players. It is treated as a value:
// the engine never modifies a state it was given.
type GameState struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Player1   Player    `json:"player1"`
	Player2   Player    `json:"player2"`
	Current   PlayerNum `json:"currentPlayer"`
	Turns     []Turn    `json:"turns"`
	Winner    PlayerNum `json:"winner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Player returns the seat n.
func (g GameState) Player(n PlayerNum) Player {
	if n == Player2 {
		return g.Player2
	}
	return g.Player1
}

// CurrentPlayer returns the player whose turn it is.
func (g GameState) CurrentPlayer() Player {
	return g.Player(g.Current)
}

// Opponent returns the player waiting for their turn.
func (g GameState) Opponent() Player {
	return g.Player(g.Current.Other())
}

// LastTurn returns the most recent turn, if any.
func (g GameState) LastTurn() (Turn, bool) {
	if len(g.Turns) == 0 {
		return Turn{}, false
	}
	return g.Turns[len(g.Turns)-1], true
}

// Clone returns a copy that shares no mutable storage with g.
func (g GameState) Clone() GameState {
	out := g
	out.Turns = make([]Turn, len(g.Turns))
	copy(out.Turns, g.Turns)
	return out
}

// WithTurnCommentary returns a copy of g with commentary attached to the
// turn numbered n. Movement fields are left untouched.
func (g GameState) WithTurnCommentary(n int, c Commentary) (GameState, error) {
	if n < 1 || n > len(g.Turns) {
		return g, ErrUnknownTurn
	}
	out := g.Clone()
	out.Turns[n-1] = out.Turns[n-1].WithCommentary(c)
	return out, nil
}

// Redacted returns a copy with both credentials cleared.
func (g GameState) Redacted() GameState {
	out := g.Clone()
	out.Player1.Credential = ""
	out.Player2.Credential = ""
	return out
}

// TurnResult is the outcome of ExecuteTurn.
type TurnResult struct {
	Turn       Turn
	State      GameState
	IsGameOver bool
	Winner     PlayerNum
}
