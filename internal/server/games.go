package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vovakirdan/snakeladder-arena/internal/engine"
	"github.com/vovakirdan/snakeladder-arena/internal/storage"
)

// maxGameBody bounds POST /api/game. A game rarely exceeds a few hundred turns.
const maxGameBody = 4 << 20

type saveGameRes struct {
	ID string `json:"id"`
}

// handleSaveGame stores a completed game played elsewhere, such as in a
// browser. The record must replay from its own dice rolls.
func (s *Server) handleSaveGame(w http.ResponseWriter, r *http.Request) {
	var g engine.GameState
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGameBody)).Decode(&g); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if g.ID == "" {
		writeError(w, http.StatusBadRequest, "missing_id")
		return
	}
	g.Player1.Number, g.Player2.Number = engine.Player1, engine.Player2
	if g.Status != engine.StatusCompleted || !g.Winner.Valid() {
		writeError(w, http.StatusBadRequest, "game_not_completed")
		return
	}
	if err := engine.Verify(g); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "inconsistent_game", err)
		return
	}

	err := s.store.SaveGame(r.Context(), g.Redacted())
	switch {
	case errors.Is(err, storage.ErrAlreadySaved):
		writeError(w, http.StatusConflict, "already_saved")
		return
	case err != nil:
		s.logger.Error("save game", "game", g.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}

	s.logger.Info("game saved", "game", g.ID, "turns", len(g.Turns), "winner", g.Winner)
	writeJSON(w, http.StatusCreated, saveGameRes{ID: g.ID})
}

func (s *Server) handleRecentGames(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 10)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_limit")
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_offset")
		return
	}
	if limit > 100 {
		limit = 100
	}

	page, err := s.store.RecentGames(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list games", "error", err)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g, err := s.store.Game(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
		return
	case err != nil:
		s.logger.Error("load game", "game", id, "error", err)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

type leaderboardRes struct {
	Standings []storage.Standing `json:"standings"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 20)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_limit")
		return
	}
	if limit > 100 {
		limit = 100
	}
	standings, err := s.store.Leaderboard(r.Context(), limit)
	if err != nil {
		s.logger.Error("leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, leaderboardRes{Standings: standings})
}
