// Package tui provides the Bubble Tea spectator view for a live match,
// the leaderboard screen and an SSH server that serves both via Wish.
package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/snakeladder-arena/internal/driver"
)

// eventBuffer bounds the queue between the driver and the program. A full
// queue drops events; the view re-reads the driver snapshot on every one.
const eventBuffer = 64

// EventMsg carries a driver event into the Bubble Tea loop.
type EventMsg driver.Event

// actionErrMsg reports a rejected user action.
type actionErrMsg struct{ err error }

// subscription bridges driver callbacks to the Bubble Tea loop.
type subscription struct {
	ch    chan driver.Event
	done  chan struct{}
	unsub func()
	once  sync.Once
}

// subscribe attaches a buffered channel to d.
func subscribe(d *driver.Driver) *subscription {
	s := &subscription{
		ch:   make(chan driver.Event, eventBuffer),
		done: make(chan struct{}),
	}
	s.unsub = d.Subscribe(func(ev driver.Event) {
		select {
		case s.ch <- ev:
		default:
		}
	})
	return s
}

// stop detaches from the driver and releases a pending wait.
func (s *subscription) stop() {
	s.once.Do(func() {
		s.unsub()
		close(s.done)
	})
}

// wait returns a command that delivers the next driver event.
func (s *subscription) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-s.ch:
			return EventMsg(ev)
		case <-s.done:
			return nil
		}
	}
}

// act runs a driver action off the update loop.
func act(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return actionErrMsg{err}
		}
		return nil
	}
}
