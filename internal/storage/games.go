package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/snakeladder-arena/internal/board"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
)

// PlayerSummary is a player as listed in game history.
type PlayerSummary struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// GameSummary is one row of the game history, without turns.
type GameSummary struct {
	ID         string           `json:"id"`
	Status     engine.Status    `json:"status"`
	Player1    PlayerSummary    `json:"player1"`
	Player2    PlayerSummary    `json:"player2"`
	Winner     engine.PlayerNum `json:"winner"`
	TotalTurns int              `json:"totalTurns"`
	CreatedAt  time.Time        `json:"createdAt"`
	SavedAt    time.Time        `json:"savedAt"`
}

// Page is a slice of the game history.
type Page struct {
	Games   []GameSummary `json:"games"`
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	HasMore bool          `json:"hasMore"`
}

// SaveGame stores a completed game with all its turns and updates the
// leaderboard for both players, in one transaction. Credentials are never
// written. Saving the same game twice returns ErrAlreadySaved.
func (s *Store) SaveGame(ctx context.Context, g engine.GameState) error {
	if g.Status != engine.StatusCompleted || !g.Winner.Valid() {
		return ErrIncomplete
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM games WHERE id = ?", g.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("storage: cannot check game: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrAlreadySaved, g.ID)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO games
		 (id, status, player1_provider, player1_model, player1_name, player1_position,
		  player2_provider, player2_model, player2_name, player2_position,
		  current_player, winner, total_turns, created_at, updated_at, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, string(g.Status),
		g.Player1.Provider, g.Player1.Model, g.Player1.Name, g.Player1.Position,
		g.Player2.Provider, g.Player2.Model, g.Player2.Name, g.Player2.Position,
		int(g.Current), int(g.Winner), len(g.Turns),
		formatTime(g.CreatedAt), formatTime(g.UpdatedAt), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save game: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO turns
		 (id, game_id, turn_number, player_num, provider, model, dice_roll,
		  from_pos, to_pos, final_pos, event_type, event_from, event_to,
		  pre_roll, post_roll, trash_talk, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage: cannot prepare turn insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range g.Turns {
		var evType sql.NullString
		var evFrom, evTo sql.NullInt64
		if t.Event != nil {
			evType = sql.NullString{String: string(t.Event.Type), Valid: true}
			evFrom = sql.NullInt64{Int64: int64(t.Event.From), Valid: true}
			evTo = sql.NullInt64{Int64: int64(t.Event.To), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			t.ID, g.ID, t.Number, int(t.Player), t.Provider, t.Model, t.Roll,
			t.From, t.To, t.Final, evType, evFrom, evTo,
			nullString(t.PreRoll), nullString(t.PostRoll), nullString(t.TrashTalk),
			formatTime(t.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("storage: cannot save turn %d: %w", t.Number, err)
		}
	}

	for _, p := range []engine.Player{g.Player1, g.Player2} {
		won := p.Number == g.Winner
		if err := upsertStanding(ctx, tx, p.Provider, p.Model, won, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit game: %w", err)
	}
	return nil
}

// Game loads a stored game with its turns in order.
func (s *Store) Game(ctx context.Context, id string) (engine.GameState, error) {
	var (
		g         engine.GameState
		status    string
		current   int
		winner    sql.NullInt64
		total     int
		createdAt any
		updatedAt any
		savedAt   any
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, player1_provider, player1_model, player1_name, player1_position,
		        player2_provider, player2_model, player2_name, player2_position,
		        current_player, winner, total_turns, created_at, updated_at, saved_at
		 FROM games WHERE id = ?`, id,
	).Scan(
		&g.ID, &status,
		&g.Player1.Provider, &g.Player1.Model, &g.Player1.Name, &g.Player1.Position,
		&g.Player2.Provider, &g.Player2.Model, &g.Player2.Name, &g.Player2.Position,
		&current, &winner, &total, &createdAt, &updatedAt, &savedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.GameState{}, fmt.Errorf("%w: game %s", ErrNotFound, id)
	}
	if err != nil {
		return engine.GameState{}, fmt.Errorf("storage: cannot query game: %w", err)
	}

	g.Status = engine.Status(status)
	g.Player1.Number = engine.Player1
	g.Player2.Number = engine.Player2
	g.Current = engine.PlayerNum(current)
	if winner.Valid {
		g.Winner = engine.PlayerNum(winner.Int64)
	}
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)

	turns, err := s.turns(ctx, id, total)
	if err != nil {
		return engine.GameState{}, err
	}
	g.Turns = turns
	return g, nil
}

func (s *Store) turns(ctx context.Context, gameID string, hint int) ([]engine.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, turn_number, player_num, provider, model, dice_roll,
		        from_pos, to_pos, final_pos, event_type, event_from, event_to,
		        pre_roll, post_roll, trash_talk, created_at
		 FROM turns WHERE game_id = ?
		 ORDER BY turn_number ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query turns: %w", err)
	}
	defer rows.Close()

	turns := make([]engine.Turn, 0, hint)
	for rows.Next() {
		var (
			t                engine.Turn
			player           int
			evType           sql.NullString
			evFrom, evTo     sql.NullInt64
			pre, post, trash sql.NullString
			createdAt        any
		)
		if err := rows.Scan(
			&t.ID, &t.Number, &player, &t.Provider, &t.Model, &t.Roll,
			&t.From, &t.To, &t.Final, &evType, &evFrom, &evTo,
			&pre, &post, &trash, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan turn: %w", err)
		}
		t.Player = engine.PlayerNum(player)
		if evType.Valid {
			t.Event = &board.Event{
				Type: board.EventType(evType.String),
				From: int(evFrom.Int64),
				To:   int(evTo.Int64),
			}
		}
		t.PreRoll = stringPtr(pre)
		t.PostRoll = stringPtr(post)
		t.TrashTalk = stringPtr(trash)
		t.CreatedAt = parseTime(createdAt)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return turns, nil
}

// RecentGames lists stored games, newest first.
func (s *Store) RecentGames(ctx context.Context, limit, offset int) (Page, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	page := Page{Games: []GameSummary{}, Limit: limit, Offset: offset}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&page.Total); err != nil {
		return Page{}, fmt.Errorf("storage: cannot count games: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, player1_provider, player1_model, player1_name, player1_position,
		        player2_provider, player2_model, player2_name, player2_position,
		        winner, total_turns, created_at, saved_at
		 FROM games
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return Page{}, fmt.Errorf("storage: cannot query games: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			g         GameSummary
			status    string
			winner    sql.NullInt64
			createdAt any
			savedAt   any
		)
		if err := rows.Scan(
			&g.ID, &status,
			&g.Player1.Provider, &g.Player1.Model, &g.Player1.Name, &g.Player1.Position,
			&g.Player2.Provider, &g.Player2.Model, &g.Player2.Name, &g.Player2.Position,
			&winner, &g.TotalTurns, &createdAt, &savedAt,
		); err != nil {
			return Page{}, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		g.Status = engine.Status(status)
		if winner.Valid {
			g.Winner = engine.PlayerNum(winner.Int64)
		}
		g.CreatedAt = parseTime(createdAt)
		g.SavedAt = parseTime(savedAt)
		page.Games = append(page.Games, g)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("storage: row iteration error: %w", err)
	}

	page.HasMore = offset+len(page.Games) < page.Total
	return page, nil
}

// DeleteGame removes a game and its turns. The leaderboard is not rewound.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM games WHERE id = ?", strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("storage: cannot delete game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: cannot get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: game %s", ErrNotFound, id)
	}
	return nil
}
