package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Nawaf-TBE/home-widget-platform/config"
	"github.com/Nawaf-TBE/home-widget-platform/internal/publisher"
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

	pub := publisher.New(
		repository.NewOutboxRepository(pool),
		stream.NewRedisBroker(redisClient),
		l,
		cfg.StreamKey,
		cfg.OutboxBatchSize,
		cfg.OutboxMaxRetries,
		cfg.PublisherSleep,
		cfg.PublisherBackoff,
	)

	pub.Run(ctx)
}
