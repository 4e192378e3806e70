package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vovakirdan/snakeladder-arena/internal/commentary"
	"github.com/vovakirdan/snakeladder-arena/internal/driver"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
)

var (
	// ErrMatchNotFound is returned for an unknown match ID.
	ErrMatchNotFound = errors.New("server: match not found")

	// ErrTooManyMatches is returned when the live match limit is reached.
	ErrTooManyMatches = errors.New("server: too many live matches")

	// ErrMatchesDisabled is returned when no driver factory is configured.
	ErrMatchesDisabled = errors.New("server: live matches are disabled")
)

// DriverFactory builds an idle driver for two seats.
type DriverFactory func(p1, p2 engine.PlayerConfig) (*driver.Driver, error)

// Matches is the registry of live matches, keyed by match ID.
type Matches struct {
	mu      sync.Mutex
	drivers map[string]*driver.Driver
	limit   int
	factory DriverFactory
}

// NewMatches creates a registry. A nil factory disables Create.
func NewMatches(factory DriverFactory, limit int) *Matches {
	if limit <= 0 {
		limit = 16
	}
	return &Matches{
		drivers: make(map[string]*driver.Driver),
		limit:   limit,
		factory: factory,
	}
}

// Create builds a driver for the seats, starts it and registers it.
// Configuration errors from the driver are returned unwrapped.
func (m *Matches) Create(p1, p2 engine.PlayerConfig) (string, *driver.Driver, error) {
	if m.factory == nil {
		return "", nil, ErrMatchesDisabled
	}

	m.mu.Lock()
	if len(m.drivers) >= m.limit {
		m.mu.Unlock()
		return "", nil, ErrTooManyMatches
	}
	m.mu.Unlock()

	d, err := m.factory(p1, p2)
	if err != nil {
		return "", nil, err
	}
	if err := d.Start(); err != nil {
		d.Close()
		return "", nil, err
	}

	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.drivers) >= m.limit {
		d.Close()
		return "", nil, ErrTooManyMatches
	}
	m.drivers[id] = d
	return id, d, nil
}

// Get returns the driver for id.
func (m *Matches) Get(id string) (*driver.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return d, nil
}

// Remove closes and forgets the match.
func (m *Matches) Remove(id string) error {
	m.mu.Lock()
	d, ok := m.drivers[id]
	delete(m.drivers, id)
	m.mu.Unlock()
	if !ok {
		return ErrMatchNotFound
	}
	d.Close()
	return nil
}

// IDs returns the registered match IDs in sorted order.
func (m *Matches) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.drivers))
	for id := range m.drivers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CloseAll closes every match.
func (m *Matches) CloseAll() {
	m.mu.Lock()
	drivers := m.drivers
	m.drivers = make(map[string]*driver.Driver)
	m.mu.Unlock()
	for _, d := range drivers {
		d.Close()
	}
}

// ------------------------------ handlers -----------------------------------

// matchReq carries both seats, credentials included. It is never logged.
type matchReq struct {
	Player1 engine.PlayerConfig `json:"player1"`
	Player2 engine.PlayerConfig `json:"player2"`
}

// matchView is a match snapshot. Game state in a snapshot is redacted.
type matchView struct {
	ID string `json:"id"`
	driver.Snapshot
	Summary string `json:"summary,omitempty"`
}

func viewOf(id string, d *driver.Driver) matchView {
	snap := d.Snapshot()
	v := matchView{ID: id, Snapshot: snap}
	if snap.HasGame {
		v.Summary = engine.Summary(snap.State)
	}
	return v
}

// mountMatches registers all /api/match routes.
func (s *Server) mountMatches(r chi.Router) {
	r.Route("/api/match", func(r chi.Router) {
		r.Post("/", s.handleCreateMatch)
		r.Get("/", s.handleListMatches)
		r.Get("/{id}", s.handleGetMatch)
		r.Delete("/{id}", s.handleDeleteMatch)
		r.Post("/{id}/{action}", s.handleMatchAction)
	})
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req matchReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	for _, seat := range []*engine.PlayerConfig{&req.Player1, &req.Player2} {
		p, err := commentary.ParseProvider(seat.Provider)
		if err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "unknown_provider", err)
			return
		}
		seat.Provider = string(p)
		if !s.offline && strings.TrimSpace(seat.Credential) == "" {
			writeError(w, http.StatusBadRequest, "missing_credential")
			return
		}
	}

	id, d, err := s.matches.Create(req.Player1, req.Player2)
	switch {
	case errors.Is(err, ErrMatchesDisabled):
		writeError(w, http.StatusNotImplemented, "matches_disabled")
		return
	case errors.Is(err, ErrTooManyMatches):
		writeError(w, http.StatusServiceUnavailable, "too_many_matches")
		return
	case errors.Is(err, engine.ErrInvalidPlayer):
		writeErrorMsg(w, http.StatusBadRequest, "invalid_player", err)
		return
	case err != nil:
		s.logger.Error("create match", "error", err)
		writeError(w, http.StatusInternalServerError, "match_failed")
		return
	}

	s.logger.Info("match created", "match", id,
		"model1", req.Player1.Model, "hasCredential1", req.Player1.Credential != "",
		"model2", req.Player2.Model, "hasCredential2", req.Player2.Credential != "")
	writeJSON(w, http.StatusCreated, viewOf(id, d))
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	ids := s.matches.IDs()
	out := make([]matchView, 0, len(ids))
	for _, id := range ids {
		if d, err := s.matches.Get(id); err == nil {
			out = append(out, viewOf(id, d))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := s.matches.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(id, d))
}

func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.matches.Remove(id); err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMatchAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := s.matches.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	action := chi.URLParam(r, "action")
	switch action {
	case "start":
		err = d.Start()
	case "pause":
		err = d.Pause()
	case "resume":
		err = d.Resume()
	case "step":
		err = d.StepAsync()
	case "reset":
		d.Reset()
	default:
		writeError(w, http.StatusNotFound, "unknown_action")
		return
	}

	switch {
	case errors.Is(err, driver.ErrNotIdle),
		errors.Is(err, driver.ErrNotRunning),
		errors.Is(err, driver.ErrNotPaused),
		errors.Is(err, driver.ErrBusy):
		writeErrorMsg(w, http.StatusConflict, "invalid_state", err)
		return
	case errors.Is(err, driver.ErrClosed):
		writeError(w, http.StatusGone, "closed")
		return
	case err != nil:
		writeErrorMsg(w, http.StatusBadRequest, "action_failed", err)
		return
	}
	code := http.StatusOK
	if action == "step" {
		// the turn plays in the background; poll GET /api/match/{id}
		code = http.StatusAccepted
	}
	writeJSON(w, code, viewOf(id, d))
}
