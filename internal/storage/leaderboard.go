package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"
)

// Standing is one (provider, model) row of the leaderboard.
type Standing struct {
	Rank        int       `json:"rank"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	GamesPlayed int       `json:"gamesPlayed"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	WinRate     int       `json:"winRate"` // percent, rounded
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WinRate returns wins as a rounded percentage of games.
func WinRate(wins, games int) int {
	if games <= 0 {
		return 0
	}
	return int(math.Round(float64(wins) / float64(games) * 100))
}

func upsertStanding(ctx context.Context, tx *sql.Tx, provider, model string, won bool, now time.Time) error {
	wins, losses := 0, 1
	if won {
		wins, losses = 1, 0
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO leaderboard (provider, model, games_played, wins, losses, updated_at)
		 VALUES (?, ?, 1, ?, ?, ?)
		 ON CONFLICT (provider, model) DO UPDATE SET
		   games_played = games_played + 1,
		   wins = wins + excluded.wins,
		   losses = losses + excluded.losses,
		   updated_at = excluded.updated_at`,
		provider, model, wins, losses, formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot update leaderboard for %s/%s: %w", provider, model, err)
	}
	return nil
}

// Leaderboard returns the top entries ordered by wins, then games played.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, model, games_played, wins, losses, updated_at
		 FROM leaderboard
		 ORDER BY wins DESC, games_played DESC, provider ASC, model ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	standings := []Standing{}
	for rows.Next() {
		var st Standing
		var updatedAt any
		if err := rows.Scan(&st.Provider, &st.Model, &st.GamesPlayed, &st.Wins, &st.Losses, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		st.Rank = len(standings) + 1
		st.WinRate = WinRate(st.Wins, st.GamesPlayed)
		st.UpdatedAt = parseTime(updatedAt)
		standings = append(standings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return standings, nil
}
