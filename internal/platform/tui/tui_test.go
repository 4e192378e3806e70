package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/snakeladder-arena/internal/commentary"
	"github.com/vovakirdan/snakeladder-arena/internal/driver"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
	"github.com/vovakirdan/snakeladder-arena/internal/storage"
)

// winningRolls make player 1 win on the 13th turn of the classic board.
var winningRolls = []int{2, 1, 6, 1, 6, 1, 1, 1, 4, 1, 3, 1, 6}

func newTestDriver(t *testing.T, delay time.Duration) *driver.Driver {
	t.Helper()
	d, err := driver.New(driver.Config{
		Player1:    engine.PlayerConfig{Provider: "openai", Model: "gpt-5", Name: "Alpha", Credential: "sk-one"},
		Player2:    engine.PlayerConfig{Provider: "anthropic", Model: "claude-sonnet-4.5", Name: "Beta", Credential: "sk-two"},
		Delay:      delay,
		Engine:     engine.New(engine.WithRoller(engine.NewSequence(winningRolls...))),
		Commentary: commentary.Offline{},
		Logger:     log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("driver.New() failed: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m tea.Model, msg tea.Msg) (SpectatorModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	sm, ok := next.(SpectatorModel)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return sm, cmd
}

// feedUntil pumps driver events into m until one of type want arrives.
func feedUntil(t *testing.T, m SpectatorModel, want driver.EventType) SpectatorModel {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		msgCh := make(chan tea.Msg, 1)
		go func() { msgCh <- m.sub.wait()() }()
		select {
		case msg := <-msgCh:
			ev, ok := msg.(EventMsg)
			if !ok {
				t.Fatalf("wait() returned %T", msg)
			}
			m, _ = update(t, m, ev)
			if ev.Type == want {
				return m
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %v", want)
		}
	}
}

func TestSquareGrid(t *testing.T) {
	if n := squareGrid[9][0].Number; n != 1 {
		t.Errorf("bottom-left = %d, want 1", n)
	}
	if n := squareGrid[9][9].Number; n != 10 {
		t.Errorf("bottom-right = %d, want 10", n)
	}
	if n := squareGrid[8][9].Number; n != 11 {
		t.Errorf("second row starts at %d, want 11", n)
	}
	if n := squareGrid[0][0].Number; n != 100 {
		t.Errorf("top-left = %d, want 100", n)
	}
}

func TestDiceFace(t *testing.T) {
	if got := diceFace(1); got != "⚀" {
		t.Errorf("diceFace(1) = %q", got)
	}
	if got := diceFace(6); got != "⚅" {
		t.Errorf("diceFace(6) = %q", got)
	}
	if got := diceFace(0); got != "?" {
		t.Errorf("diceFace(0) = %q", got)
	}
}

func TestSpectatorIdleView(t *testing.T) {
	m := NewSpectatorModel(newTestDriver(t, time.Hour))
	defer m.sub.stop()

	view := m.View()
	for _, want := range []string{"SNAKES & LADDERS ARENA", "No game yet", "idle", "100"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestSpectatorFollowsTurns(t *testing.T) {
	d := newTestDriver(t, time.Hour)
	m := NewSpectatorModel(d)
	defer m.sub.stop()

	if err := d.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	m = feedUntil(t, m, driver.EventTurn)

	if m.last == nil || m.last.Number != 1 {
		t.Fatalf("last turn = %+v, want turn 1", m.last)
	}
	view := m.View()
	for _, want := range []string{"Turn 1: Alpha rolled", "Alpha (gpt-5) @ 38", "Beta (claude-sonnet-4.5) @ 0", "before:", "ladder"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q\n%s", want, view)
		}
	}
	if strings.Contains(view, "sk-one") {
		t.Error("View() leaked a credential")
	}
}

func TestSpectatorPauseAndStep(t *testing.T) {
	d := newTestDriver(t, time.Hour)
	m := NewSpectatorModel(d)
	defer m.sub.stop()

	if err := d.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	m = feedUntil(t, m, driver.EventTurn)

	m, cmd := update(t, m, keyMsg("p"))
	if cmd == nil {
		t.Fatal("pause key returned no command")
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("pause returned %v", msg)
	}
	m = feedUntil(t, m, driver.EventPaused)
	if m.snap.Status != driver.StatusPaused {
		t.Fatalf("status = %s, want paused", m.snap.Status)
	}

	m, cmd = update(t, m, keyMsg("n"))
	if msg := cmd(); msg != nil {
		t.Fatalf("step returned %v", msg)
	}
	m = feedUntil(t, m, driver.EventTurn)
	if m.last == nil || m.last.Number != 2 {
		t.Fatalf("last turn = %+v, want turn 2", m.last)
	}
}

func TestSpectatorRejectedAction(t *testing.T) {
	d := newTestDriver(t, time.Hour)
	m := NewSpectatorModel(d)
	defer m.sub.stop()

	m, cmd := update(t, m, keyMsg("n"))
	msg := cmd()
	if _, ok := msg.(actionErrMsg); !ok {
		t.Fatalf("step while idle returned %T, want actionErrMsg", msg)
	}
	m, _ = update(t, m, msg)
	if !strings.Contains(m.View(), driver.ErrNotPaused.Error()) {
		t.Errorf("View() does not show the rejected action")
	}

	// Pause while idle is a no-op.
	if _, cmd := update(t, m, keyMsg("p")); cmd != nil {
		t.Error("pause while idle returned a command")
	}
}

func TestSpectatorFailureNotice(t *testing.T) {
	m := NewSpectatorModel(newTestDriver(t, time.Hour))
	defer m.sub.stop()

	m.handleEvent(driver.Event{Type: driver.EventError, Err: errors.New("boom")})
	if !strings.Contains(m.notice, "boom") {
		t.Errorf("notice = %q", m.notice)
	}
	m.handleEvent(driver.Event{Type: driver.EventSaved})
	if m.notice != "game saved to the leaderboard" {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestSpectatorHelpAndQuit(t *testing.T) {
	m := NewSpectatorModel(newTestDriver(t, time.Hour))

	m, _ = update(t, m, keyMsg("?"))
	if !m.help.ShowAll {
		t.Error("help key did not expand help")
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 40})
	if m.width != 60 || m.height != 40 {
		t.Errorf("size = %dx%d", m.width, m.height)
	}

	m, cmd := update(t, m, keyMsg("q"))
	if !m.IsQuitting() {
		t.Error("quit key did not set quitting")
	}
	if cmd == nil {
		t.Error("quit key returned no command")
	}
	if m.View() != "" {
		t.Error("View() after quit is not empty")
	}
	// A stopped subscription releases waiters.
	if msg := m.sub.wait()(); msg != nil {
		t.Errorf("wait() after stop = %v", msg)
	}
}

type fakeLeaderboard struct {
	standings []storage.Standing
	err       error
	calls     int
}

func (f *fakeLeaderboard) Leaderboard(ctx context.Context, limit int) ([]storage.Standing, error) {
	f.calls++
	return f.standings, f.err
}

func leaderboardUpdate(t *testing.T, m tea.Model, msg tea.Msg) (LeaderboardModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	lm, ok := next.(LeaderboardModel)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return lm, cmd
}

func TestLeaderboardModel(t *testing.T) {
	src := &fakeLeaderboard{standings: []storage.Standing{
		{Rank: 1, Provider: "openai", Model: "gpt-5", GamesPlayed: 3, Wins: 2, Losses: 1, WinRate: 67},
		{Rank: 2, Provider: "anthropic", Model: "claude-sonnet-4.5", GamesPlayed: 3, Wins: 1, Losses: 2, WinRate: 33},
	}}
	m := NewLeaderboardModel(src, 100, 30)
	if !strings.Contains(m.View(), "Loading") {
		t.Error("View() before load does not say loading")
	}

	m, _ = leaderboardUpdate(t, m, m.Init()())
	if len(m.Standings()) != 2 {
		t.Fatalf("Standings() = %d rows, want 2", len(m.Standings()))
	}
	view := m.View()
	for _, want := range []string{"LEADERBOARD", "gpt-5", "67%", "#2"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m, cmd := leaderboardUpdate(t, m, keyMsg("r"))
	if cmd == nil {
		t.Fatal("refresh returned no command")
	}
	m, _ = leaderboardUpdate(t, m, cmd())
	if src.calls != 2 {
		t.Errorf("calls = %d, want 2", src.calls)
	}

	m, _ = leaderboardUpdate(t, m, keyMsg("q"))
	if !m.IsQuitting() || m.View() != "" {
		t.Error("quit key did not quit")
	}
}

func TestLeaderboardModelEmptyAndError(t *testing.T) {
	m := NewLeaderboardModel(&fakeLeaderboard{}, 80, 24)
	m, _ = leaderboardUpdate(t, m, m.Init()())
	if !strings.Contains(m.View(), "No games recorded yet") {
		t.Error("empty leaderboard message missing")
	}

	m = NewLeaderboardModel(&fakeLeaderboard{err: errors.New("disk gone")}, 80, 24)
	m, _ = leaderboardUpdate(t, m, m.Init()())
	if !strings.Contains(m.View(), "disk gone") {
		t.Error("load error not shown")
	}
}
