package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"inkwell/internal/api"
	"inkwell/internal/config"
	"inkwell/internal/metrics"
	"inkwell/internal/room"
	"inkwell/internal/session"
	"inkwell/internal/store"
	"inkwell/internal/ws"
)

func main() {
	cfg, err := config.Load(os.Getenv("INKWELL_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	var sessions *store.Store
	if cfg.Store.Path != "" {
		sessions, err = store.New(cfg.Store.Path, logger)
		if err != nil {
			logger.Fatal("failed to open session log", zap.Error(err))
		}
		defer sessions.Close()

		stopJanitor := sessions.StartJanitor(cfg.Store.PruneInterval, cfg.Store.Retention)
		defer stopJanitor()
	}

	registry := room.NewRegistry(logger)
	hub := ws.NewHub(logger)
	stats := metrics.New(nil)
	handler := session.NewHandler(registry, hub, sessions, stats, logger)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), cors())

	api.New(registry, hub, sessions, logger).Register(engine)

	limits := ws.Limits{
		MessagesPerSecond: cfg.RateLimit.MessagesPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}
	engine.GET("/ws", func(c *gin.Context) {
		ws.Serve(hub, handler, limits, logger, c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: engine,
	}

	go func() {
		logger.Info("inkwell server starting", zap.String("addr", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
