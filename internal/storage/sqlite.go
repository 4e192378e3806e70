// Package storage provides SQLite-based persistence for finished games and
// the per-model leaderboard.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var (
	// ErrNotFound is returned when a game does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrAlreadySaved is returned when a game ID was stored before.
	// The leaderboard is left untouched.
	ErrAlreadySaved = errors.New("storage: game already saved")

	// ErrIncomplete is returned when asked to save a game that has no winner.
	ErrIncomplete = errors.New("storage: game is not completed")
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			player1_provider TEXT NOT NULL,
			player1_model TEXT NOT NULL,
			player1_name TEXT NOT NULL,
			player1_position INTEGER NOT NULL,
			player2_provider TEXT NOT NULL,
			player2_model TEXT NOT NULL,
			player2_name TEXT NOT NULL,
			player2_position INTEGER NOT NULL,
			current_player INTEGER NOT NULL,
			winner INTEGER,
			total_turns INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			saved_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_games_created ON games(created_at DESC);

		CREATE TABLE IF NOT EXISTS turns (
			id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			turn_number INTEGER NOT NULL,
			player_num INTEGER NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			dice_roll INTEGER NOT NULL,
			from_pos INTEGER NOT NULL,
			to_pos INTEGER NOT NULL,
			final_pos INTEGER NOT NULL,
			event_type TEXT,
			event_from INTEGER,
			event_to INTEGER,
			pre_roll TEXT,
			post_roll TEXT,
			trash_talk TEXT,
			created_at TEXT NOT NULL,
			UNIQUE (game_id, turn_number)
		);
		CREATE INDEX IF NOT EXISTS idx_turns_game ON turns(game_id, turn_number);

		CREATE TABLE IF NOT EXISTS leaderboard (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			games_played INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL,
			UNIQUE (provider, model)
		);
		CREATE INDEX IF NOT EXISTS idx_leaderboard_rank ON leaderboard(wins DESC, games_played DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// timeLayout is fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts both the stored layout and SQLite's own datetime format.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse(timeLayout, v); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return parsed
		}
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
