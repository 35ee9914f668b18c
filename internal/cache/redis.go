// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/daylight021/lily/internal/config"
	"github.com/daylight021/lily/internal/uno"
)

// Rdb is the global Redis client. Connect it once at application startup.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for finished game results.
var DefaultQueueName = "uno_results"

// cardIdentityPrefix keys the sticker-hash -> card identity hashes.
const cardIdentityPrefix = "uno:card:"

// WinnerRecord is one ranked finisher inside a GameResultRecord.
type WinnerRecord struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// GameResultRecord holds the minimal info the historian needs to persist a
// finished game.
type GameResultRecord struct {
	GameID      uuid.UUID      `json:"game_id"`
	ChatID      string         `json:"chat_id"`
	Winners     []WinnerRecord `json:"winners"`
	TotalMoves  int            `json:"total_moves"`
	PlayerCount int            `json:"player_count"`
	FinishedAt  int64          `json:"finished_at"`
}

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := config.Getenv("REDIS_ADDR", "localhost:6379")
	dbIdx := config.GetenvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishGameResult serializes the record to JSON and pushes it onto the
// historian queue. Quick network send only; nothing blocks on the database.
func PublishGameResult(ctx context.Context, record GameResultRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameResultRecord: %w", err)
	}

	queueName := config.Getenv("HISTORIAN_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// Store adapts the global client to the bot's persistence interfaces: the
// card identity map survives restarts, and finished games are queued for the
// historian.
type Store struct{}

// StoreCardIdentity records the card identity behind a sticker hash.
func (Store) StoreCardIdentity(ctx context.Context, sha, color, value string) error {
	key := cardIdentityPrefix + sha
	if err := Rdb.HSet(ctx, key, "color", color, "value", value).Err(); err != nil {
		return fmt.Errorf("failed to store card identity %s: %w", sha, err)
	}
	return nil
}

// LookupCardIdentity resolves a sticker hash back to a card identity. ok is
// false when the hash is unknown.
func (Store) LookupCardIdentity(ctx context.Context, sha string) (string, string, bool, error) {
	fields, err := Rdb.HGetAll(ctx, cardIdentityPrefix+sha).Result()
	if err != nil {
		return "", "", false, fmt.Errorf("failed to look up card identity %s: %w", sha, err)
	}
	if len(fields) == 0 {
		return "", "", false, nil
	}
	return fields["color"], fields["value"], true, nil
}

// RecordGameResult snapshots a finished game and queues it for persistence.
// The caller holds the game's mutex.
func (Store) RecordGameResult(ctx context.Context, g *uno.Game, winners []uno.Winner) error {
	stats := g.Stats()
	rec := GameResultRecord{
		GameID:      g.ID,
		ChatID:      g.ChatID,
		Winners:     make([]WinnerRecord, len(winners)),
		TotalMoves:  stats.TotalMoves,
		PlayerCount: len(g.Players),
		FinishedAt:  time.Now().UnixMilli(),
	}
	for i, w := range winners {
		rec.Winners[i] = WinnerRecord{Rank: w.Rank, PlayerID: w.ID, PlayerName: w.Name}
	}
	return PublishGameResult(ctx, rec)
}
