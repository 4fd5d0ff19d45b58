package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Nawaf-TBE/home-widget-platform/config"
	"github.com/Nawaf-TBE/home-widget-platform/internal/cache"
	"github.com/Nawaf-TBE/home-widget-platform/internal/ingester"
	"github.com/Nawaf-TBE/home-widget-platform/internal/redis"
	"github.com/Nawaf-TBE/home-widget-platform/internal/repository"
	"github.com/Nawaf-TBE/home-widget-platform/internal/stream"
	"github.com/Nawaf-TBE/home-widget-platform/pkg/database"
	"github.com/Nawaf-TBE/home-widget-platform/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(logger.ProductionMode)
	logger.SetGlobalLogger(l)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	ing := ingester.New(
		stream.NewRedisBroker(redisClient),
		repository.NewWidgetRepository(pool),
		cache.NewWidgetCache(redisClient, l),
		l,
		ingester.Config{
			StreamKey:       cfg.StreamKey,
			Group:           cfg.ConsumerGroup,
			Consumer:        cfg.ConsumerName,
			ReadBlock:       cfg.ReadBlock,
			ReadRetrySleep:  cfg.ReadRetrySleep,
			ReclaimInterval: cfg.ReclaimInterval,
			ReclaimMinIdle:  cfg.ReclaimMinIdle,
			ReclaimBatch:    cfg.ReclaimBatch,
			CacheTTL:        cfg.IngesterCacheTTL,
		},
	)

	if err := ing.Run(ctx); err != nil {
		log.Fatalf("Ingester exited with error: %v", err)
	}
}
