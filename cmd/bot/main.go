// cmd/bot/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/daylight021/lily/internal/auth"
	"github.com/daylight021/lily/internal/cache"
	"github.com/daylight021/lily/internal/config"
	"github.com/daylight021/lily/internal/courier"
	"github.com/daylight021/lily/internal/database"
	"github.com/daylight021/lily/internal/dispatch"
	"github.com/daylight021/lily/internal/handlers"
	"github.com/daylight021/lily/internal/transport"
	"github.com/daylight021/lily/internal/uno"
)

// pgLeaderboard adapts the database queries to the dispatcher's interface.
type pgLeaderboard struct{}

func (pgLeaderboard) TopWinners(ctx context.Context, chatID string, limit int) ([]dispatch.LeaderboardRow, error) {
	rows, err := database.TopWinners(ctx, database.DB, chatID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dispatch.LeaderboardRow, len(rows))
	for i, r := range rows {
		out[i] = dispatch.LeaderboardRow{PlayerName: r.PlayerName, Wins: r.Wins, Played: r.Played}
	}
	return out, nil
}

func main() {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(config.Getenv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Redis backs the card identity map and the result queue. The bot still
	// plays fine without it; identities just stay in memory.
	var idStore transport.IdentityStore
	var sink dispatch.ResultSink
	if err := cache.ConnectRedis(); err != nil {
		logger.WithError(err).Warn("Redis unavailable, card identities are in-memory only and results are not persisted")
	} else {
		idStore = cache.Store{}
		sink = cache.Store{}
	}

	// Postgres serves the leaderboard; the historian fills it.
	var leaderboard dispatch.LeaderboardSource
	if os.Getenv("PG_HOST") != "" {
		if err := database.Connect(); err != nil {
			logger.WithError(err).Warn("Postgres unavailable, leaderboard disabled")
		} else {
			leaderboard = pgLeaderboard{}
		}
	}

	wa, err := transport.NewWhatsApp(ctx, config.Getenv("SESSION_DB_PATH", "lily.db"), logger)
	if err != nil {
		logger.Fatalf("whatsapp init: %v", err)
	}

	reg := uno.NewRegistry()
	feed := handlers.NewEventFeed()
	enc := transport.NewCardEncoder(config.Getenv("CARD_ART_URL", ""), idStore, logger)
	cr := courier.New(wa, enc, feed, logger)

	d := dispatch.New(logger, reg, cr, wa, enc)
	if sink != nil {
		d.WithResults(sink)
	}
	if leaderboard != nil {
		d.WithLeaderboard(leaderboard)
	}
	wa.Handler = d

	if addr := os.Getenv("ADMIN_ADDR"); addr != "" {
		// File-backed keys keep admin tokens valid across restarts; without
		// them a fresh pair is generated and the token is re-minted on boot.
		privPath, pubPath := os.Getenv("JWT_PRIVATE_KEY_PATH"), os.Getenv("JWT_PUBLIC_KEY_PATH")
		if privPath != "" && pubPath != "" {
			if err := auth.InitFromPath(privPath, pubPath); err != nil {
				logger.Fatalf("failed to load admin keys: %v", err)
			}
		} else {
			auth.Init()
		}
		token, err := auth.CreateJWT("admin")
		if err != nil {
			logger.Fatalf("failed to mint admin token: %v", err)
		}
		logger.Infof("Admin surface on %s, token: %s", addr, token)
		admin := handlers.NewAdminServer(logger, reg, feed)
		go func() {
			if err := http.ListenAndServe(addr, admin.Routes()); err != nil {
				logger.WithError(err).Error("admin server exited")
			}
		}()
	}

	if err := wa.Connect(ctx); err != nil {
		logger.Fatalf("whatsapp connect: %v", err)
	}
	logger.Info("lily is running. Ctrl+C to stop.")

	<-ctx.Done()
	wa.Disconnect()
	logger.Info("lily stopped.")
}
