package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"geoattend/internal/checkin"
	"geoattend/internal/config"
	"geoattend/internal/jobs"
	"geoattend/internal/logging"
	"geoattend/internal/metrics"
	"geoattend/internal/queue"
	"geoattend/internal/session"
	"geoattend/internal/store"
)

// Worker consumes check-in audit events and keeps the session store swept
// while the API is busy serving requests.
func main() {
	cfg := config.Load()

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer lg.Closer()

	if err := run(cfg, lg.Base); err != nil {
		lg.Sugar.Fatalf("worker failed: %v", err)
	}
}

func run(cfg config.App, lg *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		lg.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "geoattend:checkins")
	}

	sessions := session.NewService(session.NewPostgresRepository(db.Client), cfg.SessionTimeout)
	runner := jobs.New(ctx, lg)
	runner.Every(cfg.SweepInterval, "session_sweep", func(ctx context.Context) error {
		swept, err := sessions.SweepExpired(ctx, time.Now())
		if swept > 0 {
			metrics.SessionsSwept.Add(float64(swept))
			lg.Info("sweep closed stale sessions", zap.Int("count", swept))
		}
		return err
	})

	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}

	lg.Info("worker started, waiting for messages")
	for msg := range messages {
		handleMessage(lg, msg)
	}

	lg.Info("worker stopped")
	return nil
}

// handleMessage logs one check-in audit event. Unknown message types and
// malformed payloads are skipped; it reports whether the event was handled.
func handleMessage(lg *zap.Logger, msg queue.Message) bool {
	if msg.Type != "checkin" {
		return false
	}

	var rec checkin.Record
	if err := json.Unmarshal(msg.Body, &rec); err != nil {
		lg.Warn("bad check-in event payload", zap.Error(err))
		return false
	}
	lg.Info("check-in recorded",
		zap.String("session_id", rec.SessionID),
		zap.String("student_id", rec.StudentID),
		zap.String("ip", rec.IPAddress),
		zap.Time("at", rec.Timestamp),
	)
	return true
}
