package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/snakeladder-arena/internal/storage"
)

// Leaderboard layout constants
const (
	maxStandings  = 100 // Max rows to load
	reloadTimeout = 5 * time.Second
)

// LeaderboardSource loads the standings shown by the leaderboard screen.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, limit int) ([]storage.Standing, error)
}

// standingsMsg carries a finished load.
type standingsMsg struct {
	standings []storage.Standing
	err       error
}

// LeaderboardModel is the Bubble Tea model for the leaderboard screen.
type LeaderboardModel struct {
	source    LeaderboardSource
	standings []storage.Standing
	err       error
	loaded    bool
	table     table.Model
	help      help.Model
	keys      LeaderboardKeyMap
	width     int
	height    int
	quitting  bool
}

// NewLeaderboardModel creates a new leaderboard model.
func NewLeaderboardModel(source LeaderboardSource, width, height int) LeaderboardModel {
	m := LeaderboardModel{
		source: source,
		keys:   DefaultLeaderboardKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	return m
}

// createTable creates a new table sized to the terminal.
func (m *LeaderboardModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Rank", Width: 5},
		{Title: "Provider", Width: 11},
		{Title: "Model", Width: 24},
		{Title: "Games", Width: 6},
		{Title: "Wins", Width: 5},
		{Title: "Losses", Width: 6},
		{Title: "Win %", Width: 6},
	}

	// Give the model column whatever is left on narrow terminals
	if m.width > 0 {
		fixed := 0
		for i, c := range columns {
			if i != 2 {
				fixed += c.Width + 2
			}
		}
		if w := m.width - 6 - fixed - 2; w < columns[2].Width {
			columns[2].Width = max(w, 10)
		}
	}

	height := m.height - 8 // Leave room for header, help, and margins
	if height < 5 {
		height = 10
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	// Table styles
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// load returns a command that fetches the standings.
func (m LeaderboardModel) load() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		if source == nil {
			return standingsMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		standings, err := source.Leaderboard(ctx, maxStandings)
		return standingsMsg{standings: standings, err: err}
	}
}

// updateTableRows updates the table with current standings.
func (m *LeaderboardModel) updateTableRows() {
	rows := make([]table.Row, len(m.standings))
	for i, s := range m.standings {
		rows[i] = table.Row{
			fmt.Sprintf("#%d", s.Rank),
			s.Provider,
			s.Model,
			fmt.Sprintf("%d", s.GamesPlayed),
			fmt.Sprintf("%d", s.Wins),
			fmt.Sprintf("%d", s.Losses),
			fmt.Sprintf("%d%%", s.WinRate),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init loads the first page of standings.
func (m LeaderboardModel) Init() tea.Cmd {
	return m.load()
}

// Update handles messages for the leaderboard.
func (m LeaderboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Refresh):
			return m, m.load()

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case standingsMsg:
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.standings = msg.standings
		}
		m.updateTableRows()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the leaderboard.
func (m LeaderboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.MarginBottom(1).Render(centerText("LEADERBOARD", m.width)))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(tableStyle.Render(m.renderTableContent()))

	if m.err != nil {
		b.WriteString("\n" + noticeStyle.Render("could not load leaderboard: "+m.err.Error()))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or empty message.
func (m LeaderboardModel) renderTableContent() string {
	if !m.loaded {
		return dimStyle.Render("Loading...")
	}
	if len(m.standings) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		return emptyStyle.Render("No games recorded yet.\nFinish a match to enter the leaderboard!")
	}

	return m.table.View()
}

// Standings returns the rows currently shown.
func (m LeaderboardModel) Standings() []storage.Standing {
	return m.standings
}

// IsQuitting returns true if user wants to quit.
func (m LeaderboardModel) IsQuitting() bool {
	return m.quitting
}

// RunLeaderboard runs the leaderboard screen until the user quits.
func RunLeaderboard(source LeaderboardSource, width, height int) error {
	p := tea.NewProgram(
		NewLeaderboardModel(source, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

// centerText centers text within the given width.
func centerText(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if width <= textWidth {
		return text
	}
	padding := (width - textWidth) / 2
	return strings.Repeat(" ", padding) + text
}
