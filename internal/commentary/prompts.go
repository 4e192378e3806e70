package commentary

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/vovakirdan/snakeladder-arena/internal/board"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
)

// SystemPrompt sets the persona for every request.
const SystemPrompt = `You are an AI player in a Snake and Ladder game. You have a competitive but fun personality. Your responses should be:
- Entertaining and engaging
- In character as a game player
- Brief (1-2 sentences max)
- Playful trash talk is encouraged but keep it friendly

You are playing against another AI model. Make references to your model/provider when relevant for humor.`

// Token budgets and sampling temperatures per request kind.
const (
	preRollTokens   = 100
	postRollTokens  = 100
	trashTalkTokens = 60

	defaultTemperature   = 0.8
	trashTalkTemperature = 0.9
)

// TurnEvent is one entry of the game history as seen by a model. History
// entries carry the square reached by the roll before any snake or ladder;
// LastTurn carries where the player finally ended up.
type TurnEvent struct {
	Player engine.PlayerNum
	Roll   int
	From   int
	To     int
	Event  board.EventType // empty for a plain move
}

// GameContext is what a player knows before rolling.
type GameContext struct {
	PlayerName       string
	PlayerNum        engine.PlayerNum
	PlayerModel      string
	OpponentName     string
	OpponentModel    string
	Position         int
	OpponentPosition int
	TurnNumber       int
	LastTurn         *TurnEvent
	History          []TurnEvent
}

// PostRollContext adds the outcome of the roll.
type PostRollContext struct {
	GameContext
	Roll        int
	NewPosition int
	Event       *board.Event
	Winning     bool
}

// NewGameContext describes state from the point of view of the player to move.
func NewGameContext(state engine.GameState) GameContext {
	me, opp := state.CurrentPlayer(), state.Opponent()
	gc := GameContext{
		PlayerName:       me.Name,
		PlayerNum:        me.Number,
		PlayerModel:      me.Model,
		OpponentName:     opp.Name,
		OpponentModel:    opp.Model,
		Position:         me.Position,
		OpponentPosition: opp.Position,
		TurnNumber:       len(state.Turns) + 1,
		History:          make([]TurnEvent, 0, len(state.Turns)),
	}
	for _, t := range state.Turns {
		ev := TurnEvent{Player: t.Player, Roll: t.Roll, From: t.From, To: t.To}
		if t.Event != nil {
			ev.Event = t.Event.Type
		}
		gc.History = append(gc.History, ev)
	}
	if t, ok := state.LastTurn(); ok {
		last := gc.History[len(gc.History)-1]
		last.To = t.Final
		gc.LastTurn = &last
	}
	return gc
}

// NewPostRollContext combines the pre-turn state with the turn just played.
func NewPostRollContext(before engine.GameState, turn engine.Turn) PostRollContext {
	return PostRollContext{
		GameContext: NewGameContext(before),
		Roll:        turn.Roll,
		NewPosition: turn.Final,
		Event:       turn.Event,
		Winning:     turn.Final == board.Size,
	}
}

// PreRollPrompt asks for anticipation before the dice are thrown.
func PreRollPrompt(c GameContext) string {
	return fmt.Sprintf("You are %s at position %d. Your opponent %s is at position %d. This is turn %d.\n\n"+
		"Generate a brief, exciting pre-roll comment showing your anticipation before rolling the dice. "+
		"Consider nearby snakes or ladders. Keep it to 1-2 sentences.",
		c.PlayerName, c.Position, c.OpponentName, c.OpponentPosition, c.TurnNumber)
}

// PostRollPrompt asks for a reaction to the roll.
func PostRollPrompt(c PostRollContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You rolled a %d and moved from position %d to %d.", c.Roll, c.Position, c.NewPosition)
	if c.Event != nil {
		switch c.Event.Type {
		case board.EventSnake:
			fmt.Fprintf(&b, " Unfortunately, you landed on a snake at %d and slid down to %d!", c.Event.From, c.Event.To)
		case board.EventLadder:
			fmt.Fprintf(&b, " Lucky! You found a ladder at %d and climbed up to %d!", c.Event.From, c.Event.To)
		}
	}
	if c.Winning {
		b.WriteString(" YOU WON THE GAME!")
	}
	b.WriteString("\n\nGenerate a brief reaction to this dice roll result. " +
		"Show excitement, disappointment, or dramatic flair as appropriate. Keep it to 1-2 sentences.")
	return b.String()
}

// TrashTalkPrompt asks for a jab at the opponent, framed by the current lead.
func TrashTalkPrompt(c PostRollContext) string {
	var standing string
	switch lead := c.NewPosition - c.OpponentPosition; {
	case lead > 0:
		standing = fmt.Sprintf("You are leading by %d squares.", lead)
	case lead < 0:
		standing = fmt.Sprintf("You are behind by %d squares.", -lead)
	default:
		standing = "You are tied!"
	}
	return fmt.Sprintf("You are %s (%s). Your opponent is %s (%s). %s\n\n"+
		"Generate a playful trash talk comment directed at your opponent. "+
		"You can reference their AI model/provider for humor. Keep it competitive but friendly. 1 sentence max.",
		c.PlayerName, c.PlayerModel, c.OpponentName, c.OpponentModel, standing)
}

// Kind names a commentary slot.
type Kind string

const (
	KindPreRoll   Kind = "preRoll"
	KindPostRoll  Kind = "postRoll"
	KindTrashTalk Kind = "trashTalk"
)

var fallbacks = map[Kind][]string{
	KindPreRoll: {
		"Let's see what fate has in store...",
		"Come on, lucky dice!",
		"Here goes nothing!",
		"Time to make my move!",
	},
	KindPostRoll: {
		"Interesting move!",
		"The game continues...",
		"That's how it goes!",
		"Onward!",
	},
	KindTrashTalk: {
		"May the best AI win!",
		"This is getting exciting!",
		"Game on!",
		"Watch and learn!",
	},
}

// Fallbacks returns the canned lines for k.
func Fallbacks(k Kind) []string {
	return append([]string(nil), fallbacks[k]...)
}

// Fallback picks a canned line for k.
func Fallback(k Kind) string {
	pool := fallbacks[k]
	return pool[rand.Intn(len(pool))]
}
