package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"kiosk/internal/config"
	"kiosk/internal/kiosk"
	"kiosk/internal/queue"
	"kiosk/internal/store"
)

// Worker consumes tap events and keeps session state tidy: after a logout
// it sweeps the user's remaining open sessions and closes any stragglers,
// so a duplicated open session never survives past the next logout.
func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	}

	repo := kiosk.NewPostgresRepository(db.Client)

	events, err := q.Consume(ctx)
	if err != nil {
		logger.Error("queue consume init failed", "err", err)
		os.Exit(1)
	}

	logger.Info("worker started, waiting for tap events")
	for evt := range events {
		logger.Info("tap event", "id", evt.ID, "kind", evt.Kind, "user_id", evt.UserID, "at", evt.At)

		if evt.Kind != queue.KindLogout {
			continue
		}

		// The engine closes the most recent open session. Anything opened
		// before this event and still open is an invariant violation left
		// behind by a race or a crash; sessions opened after the event are
		// newer logins and stay untouched.
		if _, err := kiosk.CloseStragglers(ctx, repo, logger, evt.UserID, evt.At); err != nil {
			logger.Error("open session sweep failed", "user_id", evt.UserID, "err", err)
		}
	}

	logger.Info("worker stopped")
}
