package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/snakeladder-arena/internal/driver"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
)

// SpectatorModel is the Bubble Tea model that watches a driver play.
type SpectatorModel struct {
	driver    *driver.Driver
	sub       *subscription
	snap      driver.Snapshot
	last      *engine.Turn
	notice    string // last action error or save result
	keys      SpectatorKeyMap
	help      help.Model
	spinner   spinner.Model
	autoStart bool
	width     int
	height    int
	quitting  bool
}

// SpectatorOption configures a SpectatorModel.
type SpectatorOption func(*SpectatorModel)

// WithAutoStart starts the match as soon as the program runs.
func WithAutoStart() SpectatorOption {
	return func(m *SpectatorModel) { m.autoStart = true }
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) SpectatorOption {
	return func(m *SpectatorModel) {
		m.width = width
		m.height = height
	}
}

// NewSpectatorModel subscribes to d. The caller keeps ownership of d.
func NewSpectatorModel(d *driver.Driver, opts ...SpectatorOption) SpectatorModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = dimStyle

	m := SpectatorModel{
		driver:  d,
		sub:     subscribe(d),
		snap:    d.Snapshot(),
		keys:    DefaultSpectatorKeyMap(),
		help:    help.New(),
		spinner: sp,
	}
	if turn, ok := m.snap.State.LastTurn(); ok && m.snap.HasGame {
		m.last = &turn
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts listening for driver events.
func (m SpectatorModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.sub.wait(), m.spinner.Tick}
	if m.autoStart {
		cmds = append(cmds, act(m.driver.Start))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model state.
func (m SpectatorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case EventMsg:
		m.handleEvent(driver.Event(msg))
		return m, m.sub.wait()

	case actionErrMsg:
		m.notice = msg.err.Error()
		m.snap = m.driver.Snapshot()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m SpectatorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.sub.stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Start):
		m.notice = ""
		return m, act(m.driver.Start)

	case key.Matches(msg, m.keys.Pause):
		m.notice = ""
		switch m.driver.Snapshot().Status {
		case driver.StatusRunning:
			return m, act(m.driver.Pause)
		case driver.StatusPaused:
			return m, act(m.driver.Resume)
		}
		return m, nil

	case key.Matches(msg, m.keys.Step):
		m.notice = ""
		return m, act(m.driver.Step)

	case key.Matches(msg, m.keys.Reset):
		m.notice = ""
		return m, act(func() error {
			m.driver.Reset()
			return nil
		})
	}
	return m, nil
}

// handleEvent folds a driver event into the view state.
func (m *SpectatorModel) handleEvent(ev driver.Event) {
	m.snap = m.driver.Snapshot()

	switch ev.Type {
	case driver.EventStarted, driver.EventReset:
		m.last = nil
		m.notice = ""
	case driver.EventTurn, driver.EventFinished:
		if ev.Turn != nil {
			turn := *ev.Turn
			m.last = &turn
		}
	case driver.EventSaved:
		if ev.Err != nil {
			m.notice = fmt.Sprintf("could not save game: %v", ev.Err)
		} else {
			m.notice = "game saved to the leaderboard"
		}
	case driver.EventError:
		if ev.Err != nil {
			m.notice = fmt.Sprintf("turn failed: %v (press p to retry)", ev.Err)
		}
	}
}

// View renders the current state to a string for display.
func (m SpectatorModel) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// IsQuitting returns true if user requested to quit.
func (m SpectatorModel) IsQuitting() bool {
	return m.quitting
}

// RunSpectator runs the match view until the user quits. The driver is
// closed on return.
func RunSpectator(d *driver.Driver, opts ...SpectatorOption) error {
	defer d.Close()

	model := NewSpectatorModel(d, opts...)
	defer model.sub.stop()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
