package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/snakeladder-arena/internal/commentary"
	"github.com/vovakirdan/snakeladder-arena/internal/driver"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
	"github.com/vovakirdan/snakeladder-arena/internal/storage"
)

// winningRolls make player 1 win on the 13th turn of the classic board.
var winningRolls = []int{2, 1, 6, 1, 6, 1, 1, 1, 4, 1, 3, 1, 6}

var (
	seat1 = engine.PlayerConfig{Provider: "openai", Model: "gpt-5", Name: "Alpha", Credential: "sk-one"}
	seat2 = engine.PlayerConfig{Provider: "groq", Model: "llama-4-scout", Name: "Beta", Credential: "gsk-two"}
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testFactory(store driver.Persister, delay time.Duration) DriverFactory {
	return func(p1, p2 engine.PlayerConfig) (*driver.Driver, error) {
		return driver.New(driver.Config{
			Player1:    p1,
			Player2:    p2,
			Delay:      delay,
			Engine:     engine.New(engine.WithRoller(engine.NewSequence(winningRolls...))),
			Commentary: commentary.Offline{},
			Persister:  store,
			Logger:     log.New(io.Discard),
		})
	}
}

func newTestServer(t *testing.T, delay time.Duration) (*Server, *storage.Store) {
	t.Helper()
	store := openStore(t)
	s := New(Config{
		Store:     store,
		Logger:    log.New(io.Discard),
		NewDriver: testFactory(store, delay),
	})
	t.Cleanup(s.Matches().CloseAll)
	return s, store
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("cannot decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func playedGame(t *testing.T) engine.GameState {
	t.Helper()
	g, err := engine.Replay(seat1, seat2, winningRolls)
	if err != nil {
		t.Fatal(err)
	}
	if g.Status != engine.StatusCompleted {
		t.Fatalf("fixture game not completed: %s", engine.Summary(g))
	}
	return g
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, 0)
	rec := do(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
}

func TestProviders(t *testing.T) {
	s, _ := newTestServer(t, 0)
	rec := do(t, s, http.MethodGet, "/api/providers", nil)
	infos := decode[[]commentary.Info](t, rec)
	if len(infos) != 6 {
		t.Errorf("expected 6 providers, got %d", len(infos))
	}
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, 0)
	rec := do(t, s, http.MethodGet, "/nope", nil)
	if rec.Code != http.StatusNotFound || decode[errorBody](t, rec).Error != "not_found" {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestSaveAndFetchGame(t *testing.T) {
	s, _ := newTestServer(t, 0)
	g := playedGame(t)

	rec := do(t, s, http.MethodPost, "/api/game", g)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[saveGameRes](t, rec); got.ID != g.ID {
		t.Errorf("saved id = %q, want %q", got.ID, g.ID)
	}

	rec = do(t, s, http.MethodPost, "/api/game", g)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate save status = %d, want 409", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/game/"+g.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	got := decode[engine.GameState](t, rec)
	if len(got.Turns) != len(g.Turns) || got.Winner != engine.Player1 {
		t.Errorf("fetched game differs: %d turns, winner %d", len(got.Turns), got.Winner)
	}
	if strings.Contains(rec.Body.String(), "sk-one") {
		t.Error("credential leaked in game response")
	}

	rec = do(t, s, http.MethodGet, "/api/game?limit=5", nil)
	page := decode[storage.Page](t, rec)
	if page.Total != 1 || len(page.Games) != 1 || page.Games[0].ID != g.ID {
		t.Errorf("unexpected page: %+v", page)
	}

	rec = do(t, s, http.MethodGet, "/api/leaderboard", nil)
	lb := decode[leaderboardRes](t, rec)
	if len(lb.Standings) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(lb.Standings))
	}
	if top := lb.Standings[0]; top.Model != "gpt-5" || top.Wins != 1 || top.WinRate != 100 {
		t.Errorf("unexpected leader: %+v", top)
	}
}

func TestSaveGameRejections(t *testing.T) {
	s, _ := newTestServer(t, 0)

	rec := do(t, s, http.MethodPost, "/api/game", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d", rec.Code)
	}

	fresh, err := engine.NewGame(seat1, seat2)
	if err != nil {
		t.Fatal(err)
	}
	rec = do(t, s, http.MethodPost, "/api/game", fresh)
	if rec.Code != http.StatusBadRequest || decode[errorBody](t, rec).Error != "game_not_completed" {
		t.Errorf("incomplete game: %d %s", rec.Code, rec.Body.String())
	}

	forged := playedGame(t).Clone()
	forged.Turns[2].Final = 99
	rec = do(t, s, http.MethodPost, "/api/game", forged)
	if rec.Code != http.StatusBadRequest || decode[errorBody](t, rec).Error != "inconsistent_game" {
		t.Errorf("forged game: %d %s", rec.Code, rec.Body.String())
	}
}

func TestGetGameNotFound(t *testing.T) {
	s, _ := newTestServer(t, 0)
	rec := do(t, s, http.MethodGet, "/api/game/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestBadQueryParams(t *testing.T) {
	s, _ := newTestServer(t, 0)
	for _, path := range []string{"/api/game?limit=x", "/api/game?offset=-1", "/api/leaderboard?limit=-3"} {
		if rec := do(t, s, http.MethodGet, path, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestCreateMatchValidation(t *testing.T) {
	s, _ := newTestServer(t, time.Hour)

	rec := do(t, s, http.MethodPost, "/api/match", matchReq{
		Player1: seat1,
		Player2: engine.PlayerConfig{Provider: "mystery", Model: "m"},
	})
	if rec.Code != http.StatusBadRequest || decode[errorBody](t, rec).Error != "unknown_provider" {
		t.Errorf("unknown provider: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, "/api/match", matchReq{
		Player1: seat1,
		Player2: engine.PlayerConfig{Provider: "groq", Credential: "gsk-two"},
	})
	if rec.Code != http.StatusBadRequest || decode[errorBody](t, rec).Error != "invalid_player" {
		t.Errorf("missing model: %d %s", rec.Code, rec.Body.String())
	}

	for _, key := range []string{"", "   "} {
		noKey := seat2
		noKey.Credential = key
		rec = do(t, s, http.MethodPost, "/api/match", matchReq{Player1: seat1, Player2: noKey})
		if rec.Code != http.StatusBadRequest || decode[errorBody](t, rec).Error != "missing_credential" {
			t.Errorf("credential %q: %d %s", key, rec.Code, rec.Body.String())
		}
	}
	if n := len(s.Matches().IDs()); n != 0 {
		t.Errorf("rejected matches must not be registered, have %d", n)
	}
}

func TestCreateMatchOfflineSkipsCredentials(t *testing.T) {
	store := openStore(t)
	s := New(Config{
		Store:     store,
		Logger:    log.New(io.Discard),
		NewDriver: testFactory(store, time.Hour),
		Offline:   true,
	})
	t.Cleanup(s.Matches().CloseAll)

	p1, p2 := seat1, seat2
	p1.Credential, p2.Credential = "", ""
	rec := do(t, s, http.MethodPost, "/api/match", matchReq{Player1: p1, Player2: p2})
	if rec.Code != http.StatusCreated {
		t.Fatalf("offline create status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMatchesDisabled(t *testing.T) {
	s := New(Config{Store: openStore(t), Logger: log.New(io.Discard)})
	rec := do(t, s, http.MethodPost, "/api/match", matchReq{Player1: seat1, Player2: seat2})
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}

func TestMatchLifecycle(t *testing.T) {
	s, _ := newTestServer(t, time.Hour)

	rec := do(t, s, http.MethodPost, "/api/match", matchReq{Player1: seat1, Player2: seat2})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "sk-one") || strings.Contains(rec.Body.String(), "gsk-two") {
		t.Fatal("credential leaked in match response")
	}
	created := decode[matchView](t, rec)
	if created.Status != driver.StatusRunning {
		t.Fatalf("status = %s, want running", created.Status)
	}
	id := created.ID
	d, err := s.Matches().Get(id)
	if err != nil {
		t.Fatal(err)
	}

	// the first turn runs at once, the next one waits for the delay
	waitFor(t, "first turn", func() bool {
		snap := d.Snapshot()
		return len(snap.State.Turns) == 1 && !snap.Busy
	})

	action := func(name string, want int) matchView {
		t.Helper()
		rec := do(t, s, http.MethodPost, "/api/match/"+id+"/"+name, nil)
		if rec.Code != want {
			t.Fatalf("%s: status = %d, want %d: %s", name, rec.Code, want, rec.Body.String())
		}
		return decode[matchView](t, rec)
	}

	if v := action("pause", http.StatusOK); v.Status != driver.StatusPaused {
		t.Errorf("after pause: %s", v.Status)
	}
	action("pause", http.StatusConflict)

	// step answers before the turn is played
	if v := action("step", http.StatusAccepted); v.Status != driver.StatusPaused {
		t.Errorf("after step: %s", v.Status)
	}
	waitFor(t, "stepped turn", func() bool {
		snap := d.Snapshot()
		return len(snap.State.Turns) == 2 && !snap.Busy
	})
	if v := action("step", http.StatusAccepted); v.Status != driver.StatusPaused {
		t.Errorf("after second step: %s", v.Status)
	}
	waitFor(t, "second stepped turn", func() bool {
		snap := d.Snapshot()
		return len(snap.State.Turns) == 3 && !snap.Busy
	})

	if v := action("resume", http.StatusOK); v.Status != driver.StatusRunning {
		t.Errorf("after resume: %s", v.Status)
	}
	action("start", http.StatusConflict)

	if v := action("reset", http.StatusOK); v.Status != driver.StatusIdle || v.HasGame {
		t.Errorf("after reset: %s hasGame=%v", v.Status, v.HasGame)
	}
	if v := action("start", http.StatusOK); v.Status != driver.StatusRunning {
		t.Errorf("after restart: %s", v.Status)
	}
	action("dance", http.StatusNotFound)

	rec = do(t, s, http.MethodGet, "/api/match", nil)
	if list := decode[[]matchView](t, rec); len(list) != 1 || list[0].ID != id {
		t.Errorf("unexpected match list: %+v", list)
	}

	if rec := do(t, s, http.MethodDelete, "/api/match/"+id, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/match/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("deleted match still served: %d", rec.Code)
	}
}

func TestMatchRunsToCompletionAndSaves(t *testing.T) {
	s, store := newTestServer(t, 0)

	rec := do(t, s, http.MethodPost, "/api/match", matchReq{Player1: seat1, Player2: seat2})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	id := decode[matchView](t, rec).ID
	d, err := s.Matches().Get(id)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	final, err := d.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if final.Winner != engine.Player1 || len(final.Turns) != len(winningRolls) {
		t.Fatalf("unexpected result: %s", engine.Summary(final))
	}

	waitFor(t, "saved game", func() bool {
		_, err := store.Game(context.Background(), final.ID)
		return err == nil
	})

	rec = do(t, s, http.MethodGet, "/api/match/"+id, nil)
	v := decode[matchView](t, rec)
	if v.Status != driver.StatusFinished || !v.Saved {
		t.Errorf("snapshot = %s saved=%v", v.Status, v.Saved)
	}
	if !strings.Contains(v.Summary, "Alpha (gpt-5) wins after 13 turns!") {
		t.Errorf("summary = %q", v.Summary)
	}
}

func TestMatchLimit(t *testing.T) {
	store := openStore(t)
	s := New(Config{
		Store:      store,
		Logger:     log.New(io.Discard),
		NewDriver:  testFactory(store, time.Hour),
		MaxMatches: 1,
	})
	t.Cleanup(s.Matches().CloseAll)

	if rec := do(t, s, http.MethodPost, "/api/match", matchReq{Player1: seat1, Player2: seat2}); rec.Code != http.StatusCreated {
		t.Fatalf("first match: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/match", matchReq{Player1: seat1, Player2: seat2}); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("second match: %d, want 503", rec.Code)
	}
}
