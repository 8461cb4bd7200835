package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kiosk/internal/config"
	"kiosk/internal/httpmiddleware"
	"kiosk/internal/kiosk"
	"kiosk/internal/model"
	"kiosk/internal/queue"
	"kiosk/internal/store"
	"kiosk/internal/tally"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Error("http server failed", "err", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App, logger *slog.Logger) error {
	var (
		repo kiosk.Repository
		db   *store.DB
	)
	if cfg.StoreBackend == "memory" {
		repo = kiosk.NewMemoryRepository()
		logger.Warn("using in-memory store, data will not survive a restart")
	} else {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = kiosk.NewPostgresRepository(db.Client)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	}

	keys, err := config.LoadAttendanceKeys(cfg.KeysFile)
	if err != nil {
		return err
	}

	guard := kiosk.NewGuard(cfg.TapCooldown, cfg.TapEvictAfter)
	board := tally.New(logger, keys)
	svc := kiosk.NewService(repo, guard, board, q, logger, cfg.StoreTimeout)

	// Counters live in this process; resync them against the store so a
	// restart does not forget who is currently checked in.
	if err := svc.RebuildBoard(context.Background()); err != nil {
		logger.Warn("initial counter rebuild failed", "err", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go guard.Run(stop)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := cfg.QueueBackend == "memory" || redisClient.Healthy(c.Request.Context())
		dbHealthy := db == nil || db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	v1 := r.Group("/v1")

	v1.POST("/taps", func(c *gin.Context) {
		var req struct {
			RFID string `json:"rfid" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, svc.Tap(c.Request.Context(), req.RFID))
	})

	v1.GET("/attendance", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"attendance": svc.Board().Snapshot(),
			"total":      svc.Board().Total(),
		})
	})

	v1.GET("/attendance/total", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"total": svc.Board().Total()})
	})

	v1.POST("/attendance/rebuild", func(c *gin.Context) {
		if err := svc.RebuildBoard(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "rebuild failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"attendance": svc.Board().Snapshot(),
			"total":      svc.Board().Total(),
		})
	})

	v1.POST("/attendance/export", func(c *gin.Context) {
		var req struct {
			Month int `json:"month"`
			Year  int `json:"year"`
		}
		// Body is optional; default to the current month.
		_ = c.ShouldBindJSON(&req)
		now := time.Now()
		if req.Month < 1 || req.Month > 12 {
			req.Month = int(now.Month())
		}
		if req.Year == 0 {
			req.Year = now.Year()
		}
		records, err := svc.ExportSnapshot(c.Request.Context(), req.Month, req.Year)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "export failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	})

	v1.POST("/attendance/reset", func(c *gin.Context) {
		svc.Board().Reset()
		c.JSON(http.StatusOK, gin.H{"total": int64(0)})
	})

	v1.GET("/users/:rfid", func(c *gin.Context) {
		rec, err := svc.ResolveDisplay(c.Request.Context(), c.Param("rfid"))
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "lookup failed"})
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	v1.PUT("/users/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		var u model.User
		if err := c.ShouldBindJSON(&u); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		u.ID = id
		if err := svc.UpdateUser(c.Request.Context(), u); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "update failed"})
			return
		}
		c.JSON(http.StatusOK, u)
	})

	v1.DELETE("/users/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		if err := svc.DeleteUser(c.Request.Context(), id); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "delete failed"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", "err", err)
	}

	logger.Info("server exited")
	return nil
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
