package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/snakeladder-arena/internal/board"
	"github.com/vovakirdan/snakeladder-arena/internal/driver"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
)

// minWidthForSidePanel is the width below which the panel goes under the board.
const minWidthForSidePanel = 96

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	snakeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	ladderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	p1Style     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12"))
	p2Style     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("208"))
	bothStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("13"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

var diceFaces = []string{"⚀", "⚁", "⚂", "⚃", "⚄", "⚅"}

// diceFace returns the die glyph for a roll, or "?" when out of range.
func diceFace(roll int) string {
	if roll < 1 || roll > len(diceFaces) {
		return "?"
	}
	return diceFaces[roll-1]
}

// squareGrid indexes the classic board by display row and column.
var squareGrid = func() [board.Side][board.Side]board.Square {
	var g [board.Side][board.Side]board.Square
	for _, sq := range board.Classic().Squares() {
		g[sq.Row][sq.Col] = sq
	}
	return g
}()

// renderBoard draws the 10x10 board with both player markers.
func renderBoard(g engine.GameState, hasGame bool) string {
	var b strings.Builder
	for row := 0; row < board.Side; row++ {
		if row > 0 {
			b.WriteRune('\n')
		}
		for col := 0; col < board.Side; col++ {
			if col > 0 {
				b.WriteRune(' ')
			}
			b.WriteString(renderCell(squareGrid[row][col], g, hasGame))
		}
	}
	return boxStyle.Render(b.String())
}

func renderCell(sq board.Square, g engine.GameState, hasGame bool) string {
	text := fmt.Sprintf("%3d", sq.Number)
	on1 := hasGame && g.Player1.Position == sq.Number
	on2 := hasGame && g.Player2.Position == sq.Number

	switch {
	case on1 && on2:
		return bothStyle.Render(text + "*")
	case on1:
		return p1Style.Render(text + "1")
	case on2:
		return p2Style.Render(text + "2")
	case sq.SnakeTo != 0:
		return snakeStyle.Render(text + "v")
	case sq.LadderTo != 0:
		return ladderStyle.Render(text + "^")
	}
	return text + " "
}

// renderPlayers lists both seats with their positions.
func renderPlayers(g engine.GameState, hasGame bool) string {
	if !hasGame {
		return dimStyle.Render("No game yet. Press s to start.")
	}
	line := func(p engine.Player, style lipgloss.Style, mark string) string {
		turn := "  "
		if g.Status == engine.StatusActive && g.Current == p.Number {
			turn = "> "
		}
		return fmt.Sprintf("%s%s %s (%s) @ %d", turn, style.Render(mark), p.Name, p.Model, p.Position)
	}
	return line(g.Player1, p1Style, " 1 ") + "\n" + line(g.Player2, p2Style, " 2 ")
}

// renderTurn describes the last move.
func renderTurn(g engine.GameState, t *engine.Turn) string {
	if t == nil {
		return dimStyle.Render("Waiting for the first roll...")
	}
	p := g.Player(t.Player)
	var b strings.Builder
	fmt.Fprintf(&b, "Turn %d: %s rolled %s %d, %d -> %d", t.Number, p.Name, diceFace(t.Roll), t.Roll, t.From, t.Final)
	switch {
	case t.Bust():
		b.WriteString("\n" + dimStyle.Render("Overshot 100 and stays put."))
	case t.Event != nil && t.Event.Type == board.EventSnake:
		b.WriteString("\n" + snakeStyle.Render(engine.DescribeEvent(t.Event)))
	case t.Event != nil:
		b.WriteString("\n" + ladderStyle.Render(engine.DescribeEvent(t.Event)))
	}
	return b.String()
}

// renderCommentary shows the three lines attached to a turn.
func renderCommentary(t *engine.Turn) string {
	if t == nil {
		return ""
	}
	var lines []string
	add := func(label string, s *string) {
		if s != nil && *s != "" {
			lines = append(lines, dimStyle.Render(label)+" "+*s)
		}
	}
	add("before:", t.PreRoll)
	add("after: ", t.PostRoll)
	add("jab:   ", t.TrashTalk)
	return strings.Join(lines, "\n")
}

// renderStatus is the one-line status bar.
func (m SpectatorModel) renderStatus() string {
	status := string(m.snap.Status)
	switch m.snap.Status {
	case driver.StatusRunning:
		if m.snap.Busy {
			status = m.spinner.View() + " thinking"
		} else {
			status = "running"
		}
	case driver.StatusFinished:
		status = engine.Summary(m.snap.State)
	}
	out := titleStyle.Render(status)
	if m.snap.HasGame && m.snap.Status != driver.StatusFinished {
		out += "  " + dimStyle.Render(engine.Summary(m.snap.State))
	}
	return out
}

// render lays out the full view.
func (m SpectatorModel) render() string {
	g := m.snap.State

	panel := []string{
		titleStyle.Render("SNAKES & LADDERS ARENA"),
		"",
		renderPlayers(g, m.snap.HasGame),
		"",
		renderTurn(g, m.last),
	}
	if c := renderCommentary(m.last); c != "" {
		panel = append(panel, "", c)
	}
	side := lipgloss.NewStyle().Width(44).Render(strings.Join(panel, "\n"))

	var body string
	if m.width == 0 || m.width >= minWidthForSidePanel {
		body = lipgloss.JoinHorizontal(lipgloss.Top, renderBoard(g, m.snap.HasGame), "  ", side)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, renderBoard(g, m.snap.HasGame), side)
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice))
	}
	b.WriteString("\n" + dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}
