package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daylight021/lily/internal/cache"
)

// Schema:
//
//	CREATE TABLE uno_games (
//	    id           UUID PRIMARY KEY,
//	    chat_id      TEXT NOT NULL,
//	    total_moves  INT NOT NULL,
//	    player_count INT NOT NULL,
//	    finished_at  TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE uno_game_players (
//	    game_id     UUID REFERENCES uno_games (id),
//	    player_id   TEXT NOT NULL,
//	    player_name TEXT NOT NULL,
//	    rank        INT NOT NULL,
//	    PRIMARY KEY (game_id, player_id)
//	);

// InsertGameResult persists a finished game and its ranked finishers in a
// single transaction.
func InsertGameResult(ctx context.Context, pool *pgxpool.Pool, rec cache.GameResultRecord) error {
	return BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		gameQ := `
			INSERT INTO uno_games (id, chat_id, total_moves, player_count, finished_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`
		finished := time.UnixMilli(rec.FinishedAt)
		if _, err := tx.Exec(ctx, gameQ, rec.GameID, rec.ChatID, rec.TotalMoves, rec.PlayerCount, finished); err != nil {
			return fmt.Errorf("insert uno_games: %w", err)
		}

		playerQ := `
			INSERT INTO uno_game_players (game_id, player_id, player_name, rank)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (game_id, player_id) DO NOTHING
		`
		for _, w := range rec.Winners {
			if _, err := tx.Exec(ctx, playerQ, rec.GameID, w.PlayerID, w.PlayerName, w.Rank); err != nil {
				return fmt.Errorf("insert uno_game_players: %w", err)
			}
		}
		return nil
	})
}

// LeaderboardRow is one aggregated line of a chat's all-time standings.
type LeaderboardRow struct {
	PlayerName string
	Wins       int
	Played     int
}

// TopWinners aggregates rank-1 finishes per player for one chat, most wins
// first.
func TopWinners(ctx context.Context, pool *pgxpool.Pool, chatID string, limit int) ([]LeaderboardRow, error) {
	q := `
		SELECT
			MAX(p.player_name) AS player_name,
			COUNT(*) FILTER (WHERE p.rank = 1) AS wins,
			COUNT(*) AS played
		FROM uno_game_players p
		JOIN uno_games g ON g.id = p.game_id
		WHERE g.chat_id = $1
		GROUP BY p.player_id
		ORDER BY wins DESC, played DESC
		LIMIT $2
	`
	rows, err := pool.Query(ctx, q, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("query top winners: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.PlayerName, &r.Wins, &r.Played); err != nil {
			return nil, fmt.Errorf("scan top winners: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BeginTxFunc starts a transaction, calls f with it, and commits or rolls
// back as needed.
func BeginTxFunc(ctx context.Context, pool *pgxpool.Pool, txOptions pgx.TxOptions, f func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx rollback error: %v; original error: %w", rbErr, err)
		}
		return err
	}
	return tx.Commit(ctx)
}
