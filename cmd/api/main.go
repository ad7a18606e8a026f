package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/emilythestrangee/breadit/backend/internal/auth"
	"github.com/emilythestrangee/breadit/backend/internal/cache"
	"github.com/emilythestrangee/breadit/backend/internal/config"
	"github.com/emilythestrangee/breadit/backend/internal/database"
	"github.com/emilythestrangee/breadit/backend/internal/handlers"
	"github.com/emilythestrangee/breadit/backend/internal/logging"
	"github.com/emilythestrangee/breadit/backend/internal/metrics"
	"github.com/emilythestrangee/breadit/backend/internal/server"
	"github.com/emilythestrangee/breadit/backend/internal/service"
	"github.com/emilythestrangee/breadit/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.New(cfg.DB, logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	postCache := cache.NewRedisCache(rdb)
	if err := postCache.Ping(context.Background()); err != nil {
		// votes still commit without redis; hot posts are just not cached
		logger.Warn("redis unreachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	st := store.NewGormStore(db.GetDB())
	m := metrics.New()
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)
	policy := service.HotPolicy{Threshold: cfg.Cache.Threshold, TTL: cfg.Cache.TTL}

	h := handlers.NewHandler(handlers.Services{
		Votes:       service.NewVoteService(st, st, postCache, policy, m, logger.Named("votes")),
		Posts:       service.NewPostService(st, st, st, postCache, logger.Named("posts")),
		Comments:    service.NewCommentService(st, st, logger.Named("comments")),
		Communities: service.NewCommunityService(st, logger.Named("communities")),
		Auth:        service.NewAuthService(st, tokens, logger.Named("auth")),
	}, logger)

	httpServer := server.New(cfg.Server, h, tokens, db, postCache, m, logger.Named("http")).HTTPServer()

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	logger.Info("HTTP server started", zap.String("addr", httpServer.Addr))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("server shutdown complete")
	return nil
}
