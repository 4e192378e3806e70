// Package server exposes game history, the leaderboard and live matches
// over a JSON HTTP API.
//
// Routes:
//   - GET  /health
//   - GET  /api/providers                 provider and model catalog
//   - POST /api/game                      store a completed game
//   - GET  /api/game?limit&offset         recent games, newest first
//   - GET  /api/game/{id}                 one game with its turns
//   - GET  /api/leaderboard?limit         per-model standings
//   - POST /api/match                     start a live match
//   - GET  /api/match                     list live matches
//   - GET  /api/match/{id}                match snapshot
//   - POST /api/match/{id}/{action}       start, pause, resume, step, reset
//   - DELETE /api/match/{id}              close and forget a match
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vovakirdan/snakeladder-arena/internal/commentary"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
	"github.com/vovakirdan/snakeladder-arena/internal/storage"
)

// Store is the persistence the API reads from and writes to.
type Store interface {
	SaveGame(ctx context.Context, g engine.GameState) error
	Game(ctx context.Context, id string) (engine.GameState, error)
	RecentGames(ctx context.Context, limit, offset int) (storage.Page, error)
	Leaderboard(ctx context.Context, limit int) ([]storage.Standing, error)
}

// Config wires a Server.
type Config struct {
	Store      Store
	Logger     *log.Logger
	Origin     string        // allowed CORS origin; "*" when empty
	Timeout    time.Duration // per-request bound; 10s when zero
	NewDriver  DriverFactory // nil disables live matches
	MaxMatches int           // 16 when zero

	// Offline accepts match seats without credentials. Set it only when
	// NewDriver never calls a provider.
	Offline bool
}

// Server bundles the router and its dependencies.
type Server struct {
	r       *chi.Mux
	store   Store
	logger  *log.Logger
	matches *Matches
	offline bool
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	s := &Server{
		r:       chi.NewRouter(),
		store:   cfg.Store,
		logger:  logger,
		matches: NewMatches(cfg.NewDriver, cfg.MaxMatches),
		offline: cfg.Offline,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(s.requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(timeout))
	s.r.Use(jsonContentType)
	s.r.Use(cors(cfg.Origin))

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/api/providers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, commentary.Catalog())
	})

	s.r.Route("/api/game", func(r chi.Router) {
		r.Post("/", s.handleSaveGame)
		r.Get("/", s.handleRecentGames)
		r.Get("/{id}", s.handleGetGame)
	})
	s.r.Get("/api/leaderboard", s.handleLeaderboard)
	s.mountMatches(s.r)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	return s
}

// Handler exposes the router (useful for tests).
func (s *Server) Handler() http.Handler { return s.r }

// Matches returns the live match registry.
func (s *Server) Matches() *Matches { return s.matches }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and closes every live match.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.matches.CloseAll()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.matches.CloseAll()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors allows a single origin, or any origin when empty.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request. Bodies are never logged since
// match requests carry credentials.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}

// ------------------------------- helpers -----------------------------------

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorBody{Error: code})
}

func writeErrorMsg(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, errorBody{Error: code, Message: err.Error()})
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
