// cmd/historian/main.go is an asynchronous historian service that pops
// finished game results from the Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/daylight021/lily/internal/cache"
	"github.com/daylight021/lily/internal/config"
	"github.com/daylight021/lily/internal/database"
)

// HistorianService drains the result queue into the database in small
// batches.
type HistorianService struct {
	logger     *logrus.Logger
	batchSize  int
	flushDelay time.Duration

	batchMu  sync.Mutex
	batch    []cache.GameResultRecord
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewHistorianService constructs the service from environment variables or
// defaults.
func NewHistorianService(logger *logrus.Logger) *HistorianService {
	batchSize := config.GetenvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := config.GetenvInt("HISTORIAN_FLUSH_MS", 500)

	ctx, cancel := context.WithCancel(context.Background())
	return &HistorianService{
		logger:     logger,
		batchSize:  batchSize,
		flushDelay: time.Duration(flushMs) * time.Millisecond,
		batch:      make([]cache.GameResultRecord, 0, batchSize),
		ctx:        ctx,
		cancelFn:   cancel,
	}
}

// Run connects to both stores and starts the queue reader. Blocks until Stop.
func (hs *HistorianService) Run() {
	if err := cache.ConnectRedis(); err != nil {
		hs.logger.Fatalf("redis connect: %v", err)
	}
	if err := database.Connect(); err != nil {
		hs.logger.Fatalf("postgres connect: %v", err)
	}

	go hs.readRedisLoop()

	hs.logger.Info("lily-historian service started.")
	<-hs.ctx.Done()
	hs.flushBatchToDB()
	hs.logger.Info("lily-historian shutting down.")
}

// readRedisLoop uses BLPop to retrieve results from the Redis queue and
// flushes the batch on a timer.
func (hs *HistorianService) readRedisLoop() {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()

	queueName := config.Getenv("HISTORIAN_QUEUE_NAME", cache.DefaultQueueName)

	for {
		select {
		case <-hs.ctx.Done():
			return

		case <-ticker.C:
			hs.flushBatchToDB()

		default:
			// BLPop with a short timeout so context cancellation is handled.
			res, err := cache.Rdb.BLPop(hs.ctx, 3*time.Second, queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				if hs.ctx.Err() != nil {
					return
				}
				hs.logger.WithError(err).Error("BLPop")
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var record cache.GameResultRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				hs.logger.WithError(err).Warn("invalid result record")
				continue
			}
			hs.appendToBatch(record)
		}
	}
}

// appendToBatch adds a record and flushes when the threshold is reached.
func (hs *HistorianService) appendToBatch(record cache.GameResultRecord) {
	hs.batchMu.Lock()
	hs.batch = append(hs.batch, record)
	full := len(hs.batch) >= hs.batchSize
	hs.batchMu.Unlock()
	if full {
		hs.flushBatchToDB()
	}
}

// flushBatchToDB persists the current batch. Records that fail are logged and
// dropped; a poison record must not wedge the queue.
func (hs *HistorianService) flushBatchToDB() {
	hs.batchMu.Lock()
	if len(hs.batch) == 0 {
		hs.batchMu.Unlock()
		return
	}
	batchCopy := make([]cache.GameResultRecord, len(hs.batch))
	copy(batchCopy, hs.batch)
	hs.batch = hs.batch[:0]
	hs.batchMu.Unlock()

	ctx := context.Background()
	flushed := 0
	for _, rec := range batchCopy {
		if err := database.InsertGameResult(ctx, database.DB, rec); err != nil {
			hs.logger.WithError(err).WithField("game", rec.GameID).Error("failed to persist game result")
			continue
		}
		flushed++
	}
	if flushed > 0 {
		hs.logger.Infof("Flushed %d game results to DB.", flushed)
	}
}

// Stop gracefully stops the historian service.
func (hs *HistorianService) Stop() {
	hs.cancelFn()
}

func main() {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(config.Getenv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(lvl)
	}

	hs := NewHistorianService(logger)
	go hs.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	hs.Stop()
	logger.Info("Historian shutdown complete.")
}
