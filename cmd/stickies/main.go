package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blueplan/stickies-go/internal/stickies/api"
	"github.com/blueplan/stickies-go/internal/stickies/auth"
	"github.com/blueplan/stickies-go/internal/stickies/config"
	logx "github.com/blueplan/stickies-go/internal/stickies/log"
	"github.com/blueplan/stickies-go/internal/stickies/monitoring"
	"github.com/blueplan/stickies-go/internal/stickies/note"
	"github.com/blueplan/stickies-go/internal/stickies/pool"
	"github.com/blueplan/stickies-go/internal/stickies/room"
)

func main() {
	cfg := config.Load()

	logger := logx.InitializeLogger(cfg.App.LogDir)
	ctx := context.Background()

	logger.Info(ctx, "starting sticky board service",
		logx.KV("version", cfg.App.Version),
		logx.KV("environment", cfg.App.Environment))

	monitor := monitoring.NewMonitor()

	var redisManager *pool.RedisManager
	store := selectStore(ctx, cfg, logger, &redisManager)

	boardRoom := room.New(cfg.Room.Name, store, logger, monitor)
	authService := auth.NewService(cfg.Auth, logger)
	router := api.NewRouter(cfg, logger, boardRoom, store, authService, monitor)

	server := &http.Server{
		Addr:    cfg.API.Addr(),
		Handler: router.Engine(),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "server failed", logx.KV("error", err))
			os.Exit(1)
		}
	}()

	logger.Info(ctx, "sticky board service started",
		logx.KV("address", cfg.API.Addr()),
		logx.KV("room", cfg.Room.Name))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down sticky board service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown error", logx.KV("error", err))
	}

	if redisManager != nil {
		if err := redisManager.Close(); err != nil {
			logger.Error(shutdownCtx, "redis shutdown error", logx.KV("error", err))
		}
	}

	logger.Info(ctx, "sticky board service stopped")
}

// selectStore picks the redis store when it is configured and reachable and
// falls back to the in-memory store otherwise.
func selectStore(ctx context.Context, cfg *config.Config, logger *logx.Logger, manager **pool.RedisManager) note.Store {
	if !cfg.Redis.Enabled {
		logger.Info(ctx, "redis disabled, using in-memory note store")
		return note.NewInMemStore()
	}

	rm := pool.NewRedisManager(cfg.Redis, logger)
	client, err := rm.GetClient(pool.PoolNotes)
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err = client.Ping(pingCtx).Err()
	}
	if err != nil {
		logger.Warn(ctx, "redis unreachable, falling back to in-memory note store",
			logx.KV("addr", cfg.Redis.Addr()), logx.KV("error", err))
		_ = rm.Close()
		return note.NewInMemStore()
	}

	*manager = rm
	logger.Info(ctx, "using redis note store", logx.KV("addr", cfg.Redis.Addr()))
	return note.NewRedisStore(client, cfg.Room.Name, logger)
}
