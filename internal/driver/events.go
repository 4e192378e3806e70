package driver

import "github.com/vovakirdan/snakeladder-arena/internal/engine"

// EventType classifies a driver notification.
type EventType int

const (
	EventStarted  EventType = iota // A new game was created and the loop started
	EventTurn                      // A turn completed with commentary attached
	EventPaused                    // The loop was paused by the user
	EventResumed                   // The loop was resumed by the user
	EventReset                     // The game was discarded
	EventFinished                  // The game reached square 100
	EventSaved                     // The persistence collaborator answered
	EventError                     // A turn failed and the loop was halted
)

func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventTurn:
		return "turn"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventReset:
		return "reset"
	case EventFinished:
		return "finished"
	case EventSaved:
		return "saved"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after every transition.
// State never carries credentials.
type Event struct {
	Type   EventType
	Status Status
	State  engine.GameState
	Turn   *engine.Turn // set for EventTurn and EventFinished
	Err    error        // set for EventError, and for EventSaved on failure
}
