package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoattend/internal/checkin"
	"geoattend/internal/config"
	"geoattend/internal/httpmiddleware"
	"geoattend/internal/jobs"
	"geoattend/internal/logging"
	"geoattend/internal/metrics"
	"geoattend/internal/netid"
	"geoattend/internal/queue"
	"geoattend/internal/roster"
	"geoattend/internal/session"
	"geoattend/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer lg.Closer()

	if err := runHTTP(cfg, lg.Base); err != nil {
		lg.Sugar.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App, lg *zap.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		lg.Warn("db not reachable, falling back to in-memory stores", zap.Error(err))
		db = nil
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	var (
		sessionRepo session.Repository
		rosterRepo  roster.Repository
		recordRepo  checkin.RecordRepository
	)
	if db != nil {
		if err := store.Migrate(db.Client); err != nil {
			return err
		}
		sessionRepo = session.NewPostgresRepository(db.Client)
		rosterRepo = roster.NewPostgresRepository(db.Client)
		recordRepo = checkin.NewPostgresRepository(db.Client)
	} else {
		sessionRepo = session.NewMemoryRepository()
		rosterRepo = roster.NewMemoryRepository()
		recordRepo = checkin.NewMemoryRepository()
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "geoattend:checkins")
	}

	sessions := session.NewService(sessionRepo, cfg.SessionTimeout)
	rosterSvc := roster.NewService(rosterRepo)
	ledger := checkin.NewLedger(recordRepo)
	checkins := checkin.NewService(ledger, rosterRepo, cfg.AttendanceWindow)
	netClient := netid.New(cfg.NetIDServiceURL, cfg.NetIDSkip, cfg.NetIDTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Close sessions that went stale while the process was down, then keep
	// sweeping on a timer.
	if swept, err := sessions.SweepExpired(ctx, time.Now()); err != nil {
		lg.Warn("startup sweep failed", zap.Error(err))
	} else if swept > 0 {
		metrics.SessionsSwept.Add(float64(swept))
		lg.Info("startup sweep closed stale sessions", zap.Int("count", swept))
	}
	runner := jobs.New(ctx, lg)
	runner.Every(cfg.SweepInterval, "session_sweep", func(ctx context.Context) error {
		swept, err := sessions.SweepExpired(ctx, time.Now())
		if swept > 0 {
			metrics.SessionsSwept.Add(float64(swept))
			lg.Info("sweep closed stale sessions", zap.Int("count", swept))
		}
		return err
	})

	a := &api{
		cfg:      cfg,
		log:      lg,
		sessions: sessions,
		roster:   rosterSvc,
		checkins: checkins,
		netid:    netClient,
		queue:    q,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	a.routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down server")
	cancel()

	// Give outstanding requests 10 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("server forced shutdown", zap.Error(err))
	}

	lg.Info("server exited")
	return nil
}

// CORS middleware for browser requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
