package commentary

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/snakeladder-arena/internal/board"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// playedTurn returns a game where player 1 (on provider p) has just climbed
// the ladder on square 2, together with the state before the turn.
func playedTurn(t *testing.T, p Provider) (engine.GameState, engine.Turn) {
	t.Helper()
	e := engine.New(engine.WithRoller(engine.NewSequence(2)))
	g, err := e.NewGame(
		engine.PlayerConfig{Provider: string(p), Model: "test-model", Name: "Alpha", Credential: "secret-key"},
		engine.PlayerConfig{Provider: "anthropic", Model: "claude-sonnet-4.5", Name: "Beta", Credential: "other"},
	)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.ExecuteTurn(g)
	if err != nil {
		t.Fatal(err)
	}
	return g, res.Turn
}

func TestParseProvider(t *testing.T) {
	for _, s := range []string{"openai", "Anthropic", " gemini ", "openrouter", "groq", "grok"} {
		if _, err := ParseProvider(s); err != nil {
			t.Errorf("ParseProvider(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseProvider("mistral"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestEveryCatalogProviderIsRegistered(t *testing.T) {
	registered := Registered()
	for _, info := range Catalog() {
		if !slices.Contains(registered, info.ID) {
			t.Errorf("provider %q has no factory", info.ID)
		}
		if !KnownModel(info.ID, info.DefaultModel) {
			t.Errorf("default model %q of %q is not in its model list", info.DefaultModel, info.ID)
		}
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register(OpenAI, nil)
}

func TestNewUsesDefaultModel(t *testing.T) {
	c, err := New(Groq, "key", "", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if c.Model() != "llama-4-scout" {
		t.Errorf("expected default model, got %q", c.Model())
	}
	if _, err := New(Provider("nope"), "key", "m", Options{}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestPrompts(t *testing.T) {
	before, turn := playedTurn(t, OpenAI)
	pre := NewGameContext(before)
	if pre.TurnNumber != 1 || pre.PlayerName != "Alpha" || pre.OpponentName != "Beta" {
		t.Fatalf("unexpected context %+v", pre)
	}
	if !strings.Contains(PreRollPrompt(pre), "You are Alpha at position 0. Your opponent Beta is at position 0. This is turn 1.") {
		t.Errorf("unexpected pre-roll prompt:\n%s", PreRollPrompt(pre))
	}

	post := NewPostRollContext(before, turn)
	got := PostRollPrompt(post)
	if !strings.Contains(got, "You rolled a 2 and moved from position 0 to 38.") {
		t.Errorf("missing movement in post-roll prompt:\n%s", got)
	}
	if !strings.Contains(got, "found a ladder at 2 and climbed up to 38!") {
		t.Errorf("missing ladder text in post-roll prompt:\n%s", got)
	}
	if strings.Contains(got, "WON") {
		t.Errorf("non-winning move mentions a win:\n%s", got)
	}

	if !strings.Contains(TrashTalkPrompt(post), "You are leading by 38 squares.") {
		t.Errorf("unexpected trash talk prompt:\n%s", TrashTalkPrompt(post))
	}
	post.NewPosition = 0
	if !strings.Contains(TrashTalkPrompt(post), "You are tied!") {
		t.Errorf("expected tie wording:\n%s", TrashTalkPrompt(post))
	}
}

func TestPostRollPromptWinAndSnake(t *testing.T) {
	c := PostRollContext{
		GameContext: GameContext{Position: 94},
		Roll:        6,
		NewPosition: 100,
		Winning:     true,
	}
	if !strings.Contains(PostRollPrompt(c), "YOU WON THE GAME!") {
		t.Errorf("expected win text:\n%s", PostRollPrompt(c))
	}

	c = PostRollContext{
		GameContext: GameContext{Position: 60},
		Roll:        2,
		NewPosition: 19,
		Event:       &board.Event{Type: board.EventSnake, From: 62, To: 19},
	}
	if !strings.Contains(PostRollPrompt(c), "landed on a snake at 62 and slid down to 19!") {
		t.Errorf("expected snake text:\n%s", PostRollPrompt(c))
	}
}

func TestHistoryKeepsPreEffectPositions(t *testing.T) {
	before, turn := playedTurn(t, OpenAI)
	after := before.Clone()
	after.Turns = append(after.Turns, turn)
	after.Current = engine.Player2

	gc := NewGameContext(after)
	if gc.LastTurn == nil {
		t.Fatal("expected last turn")
	}
	if gc.LastTurn.To != 38 || gc.LastTurn.Event != board.EventLadder {
		t.Errorf("unexpected last turn %+v", gc.LastTurn)
	}
	if gc.TurnNumber != 2 || len(gc.History) != 1 {
		t.Fatalf("unexpected turn number %d / history %d", gc.TurnNumber, len(gc.History))
	}
	if h := gc.History[0]; h.From != 0 || h.To != 2 || h.Event != board.EventLadder {
		t.Errorf("history entry %+v, want 0 -> 2 with a ladder", h)
	}
}

func TestFallbackComesFromPool(t *testing.T) {
	for _, k := range []Kind{KindPreRoll, KindPostRoll, KindTrashTalk} {
		pool := Fallbacks(k)
		if len(pool) != 4 {
			t.Errorf("%s: expected 4 fallbacks, got %d", k, len(pool))
		}
		for i := 0; i < 20; i++ {
			if !slices.Contains(pool, Fallback(k)) {
				t.Fatalf("%s: fallback outside pool", k)
			}
		}
	}
}

func openAIServer(t *testing.T, reply string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-key" {
			http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			if calls != nil {
				calls.Add(1)
			}
			var body struct {
				Model    string `json:"model"`
				Messages []struct {
					Role string `json:"role"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if body.Model != "test-model" || len(body.Messages) != 2 || body.Messages[0].Role != "system" {
				http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"created": 1,
				"model":   body.Model,
				"choices": []map[string]any{{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": reply},
				}},
			})
		case strings.HasSuffix(r.URL.Path, "/models"):
			json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []any{}})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestRequesterOpenAICompatible(t *testing.T) {
	var calls atomic.Int32
	srv := openAIServer(t, "  Ladders are my love language.  ", &calls)
	defer srv.Close()

	r := NewRequester(quietLogger(), time.Second, Options{BaseURL: srv.URL})
	before, turn := playedTurn(t, Groq)

	c := r.Comment(context.Background(), before, turn)
	want := "Ladders are my love language."
	if c.PreRoll != want || c.PostRoll != want || c.TrashTalk != want {
		t.Errorf("unexpected commentary %+v", c)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 requests, got %d", calls.Load())
	}
}

func TestRequesterFallsBackOnProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRequester(quietLogger(), time.Second, Options{BaseURL: srv.URL})
	before, turn := playedTurn(t, OpenAI)

	c := r.Comment(context.Background(), before, turn)
	if !slices.Contains(Fallbacks(KindPreRoll), c.PreRoll) ||
		!slices.Contains(Fallbacks(KindPostRoll), c.PostRoll) ||
		!slices.Contains(Fallbacks(KindTrashTalk), c.TrashTalk) {
		t.Errorf("expected fallbacks, got %+v", c)
	}
}

func TestRequesterFallsBackOnEmptyAnswer(t *testing.T) {
	srv := openAIServer(t, "   ", nil)
	defer srv.Close()

	r := NewRequester(quietLogger(), time.Second, Options{BaseURL: srv.URL})
	before, turn := playedTurn(t, Grok)

	c := r.Comment(context.Background(), before, turn)
	if !slices.Contains(Fallbacks(KindPostRoll), c.PostRoll) {
		t.Errorf("expected fallback for empty answer, got %q", c.PostRoll)
	}
}

func TestRequesterTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	r := NewRequester(quietLogger(), 50*time.Millisecond, Options{BaseURL: srv.URL})
	before, turn := playedTurn(t, Anthropic)

	start := time.Now()
	c := r.Comment(context.Background(), before, turn)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeouts not applied, took %v", elapsed)
	}
	if !slices.Contains(Fallbacks(KindTrashTalk), c.TrashTalk) {
		t.Errorf("expected fallback after timeout, got %q", c.TrashTalk)
	}
}

func TestRequesterUnknownProvider(t *testing.T) {
	r := NewRequester(quietLogger(), time.Second, Options{})
	before, turn := playedTurn(t, Provider("carrier-pigeon"))
	c := r.Comment(context.Background(), before, turn)
	if !slices.Contains(Fallbacks(KindPreRoll), c.PreRoll) {
		t.Errorf("expected fallback, got %q", c.PreRoll)
	}
}

func TestAnthropicClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-api-key") != "secret-key" || r.Header.Get("anthropic-version") == "" {
			http.Error(w, `{"type":"error"}`, http.StatusUnauthorized)
			return
		}
		var body anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body.System != SystemPrompt || body.MaxTokens == 0 {
			http.Error(w, "missing system prompt", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"content":[{"type":"text","text":"Sss-orry, not sorry."}]}`)
	}))
	defer srv.Close()

	c, err := New(Anthropic, "secret-key", "claude-sonnet-4.5", Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	before, turn := playedTurn(t, Anthropic)
	got, err := c.TrashTalk(context.Background(), NewPostRollContext(before, turn))
	if err != nil {
		t.Fatalf("TrashTalk failed: %v", err)
	}
	if got != "Sss-orry, not sorry." {
		t.Errorf("unexpected text %q", got)
	}
	if !c.ValidateCredential(context.Background()) {
		t.Error("expected credential to validate")
	}

	bad, _ := New(Anthropic, "wrong", "claude-sonnet-4.5", Options{BaseURL: srv.URL})
	if bad.ValidateCredential(context.Background()) {
		t.Error("expected bad credential to fail validation")
	}
	_, err = bad.PreRoll(context.Background(), NewGameContext(before))
	if err == nil {
		t.Fatal("expected error for bad credential")
	}
	if strings.Contains(err.Error(), "wrong") {
		t.Errorf("error leaks credential: %v", err)
	}
}

func TestGeminiClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "secret-key" {
			http.Error(w, "denied", http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/v1beta/models/gemini-3-flash:generateContent":
			var body geminiRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			text := body.Contents[0].Parts[0].Text
			if !strings.HasPrefix(text, SystemPrompt+"\n\n") {
				http.Error(w, "persona missing", http.StatusBadRequest)
				return
			}
			io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Rolling "},{"text":"in style."}]}}]}`)
		case "/v1beta/models":
			io.WriteString(w, `{"models":[]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := New(Gemini, "secret-key", "gemini-3-flash", Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	before, _ := playedTurn(t, Gemini)
	got, err := c.PreRoll(context.Background(), NewGameContext(before))
	if err != nil {
		t.Fatalf("PreRoll failed: %v", err)
	}
	if got != "Rolling in style." {
		t.Errorf("unexpected text %q", got)
	}
	if !c.ValidateCredential(context.Background()) {
		t.Error("expected credential to validate")
	}
}

func TestOfflineCommentary(t *testing.T) {
	before, turn := playedTurn(t, OpenAI)
	c := Offline{}.Comment(context.Background(), before, turn)
	if c.PreRoll == "" || c.PostRoll == "" || c.TrashTalk == "" {
		t.Errorf("expected all slots filled, got %+v", c)
	}
}
