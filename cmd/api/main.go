package main

import (
	"context"
	"log"

	"github.com/Nawaf-TBE/home-widget-platform/config"
	"github.com/Nawaf-TBE/home-widget-platform/internal/cache"
	"github.com/Nawaf-TBE/home-widget-platform/internal/handler"
	"github.com/Nawaf-TBE/home-widget-platform/internal/redis"
	"github.com/Nawaf-TBE/home-widget-platform/internal/repository"
	"github.com/Nawaf-TBE/home-widget-platform/internal/server"
	"github.com/Nawaf-TBE/home-widget-platform/internal/service"
	"github.com/Nawaf-TBE/home-widget-platform/pkg/database"
	"github.com/Nawaf-TBE/home-widget-platform/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg)
	if err != nil {
		// The gateway stays up without Redis: every read degrades to a
		// store lookup until the cache comes back.
		l.Warnf("Redis unavailable, serving without cache: %s", err)
	}

	widgetCache := cache.NewWidgetCache(redisClient, l)
	store := repository.NewWidgetRepository(pool)
	delivery := service.NewDeliveryService(store, widgetCache, l, cfg.GatewayCacheTTL)

	srv := server.New(cfg, l, pool)
	srv.SetupRoutes(handler.NewWidgetHandler(delivery))

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
