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

	"classtrack/internal/attendance"
	"classtrack/internal/catalog"
	"classtrack/internal/config"
	"classtrack/internal/httpapi"
	"classtrack/internal/logging"
	"classtrack/internal/store"
	"classtrack/internal/user"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Closer()

	if err := run(cfg, logger); err != nil {
		logger.Sugar.Fatalf("server failed: %v", err)
	}
}

func run(cfg config.App, logger *logging.Log) error {
	db, err := store.NewDB(cfg.DatabaseURL, store.Pool{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		ConnLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db.Client); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	if !redisClient.Healthy(context.Background()) {
		logger.Sugar.Warnw("redis not reachable, token cache disabled", "addr", cfg.RedisAddr)
	}

	users := user.NewRepository(db.Client)
	cat := catalog.NewRepository(db.Client)
	att := attendance.NewService(
		attendance.NewRepository(db.Client),
		cat,
		redisClient,
		cfg.SessionDuration,
	)

	api := &httpapi.API{
		Cfg:        cfg,
		Log:        logger.Base,
		Users:      users,
		Catalog:    cat,
		Attendance: att,
		Redis:      redisClient,
		DBPing:     db.Client.PingContext,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Sugar.Infow("starting server", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Base.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Warnw("forced shutdown", "error", err)
	}

	logger.Sugar.Info("server exited")
	return nil
}
