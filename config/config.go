package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort    string
	AppMode    string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	JWTSecret  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Event stream settings shared by the publisher and the ingester.
	StreamKey     string
	ConsumerGroup string
	ConsumerName  string

	// Outbox publisher tuning.
	OutboxBatchSize  int
	OutboxMaxRetries int
	PublisherSleep   time.Duration
	PublisherBackoff time.Duration

	// Ingester tuning.
	ReadBlock       time.Duration
	ReadRetrySleep  time.Duration
	ReclaimInterval time.Duration
	ReclaimMinIdle  time.Duration
	ReclaimBatch    int

	// Cache TTLs. The ingester is the authoritative refresh path, so its
	// writes live much longer than gateway backfills.
	GatewayCacheTTL  time.Duration
	IngesterCacheTTL time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),
		AppMode:    getEnv("APP_MODE", "debug"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "core"),
		DBPort:     getEnv("DB_PORT", "5432"),
		JWTSecret:  getEnv("JWT_SECRET", "change-me"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		StreamKey:     getEnv("STREAM_KEY", "events"),
		ConsumerGroup: getEnv("CONSUMER_GROUP", "core"),
		ConsumerName:  getEnv("CONSUMER_NAME", defaultConsumerName()),

		OutboxBatchSize:  getEnvAsInt("OUTBOX_BATCH_SIZE", 50),
		OutboxMaxRetries: getEnvAsInt("OUTBOX_MAX_RETRIES", 5),
		PublisherSleep:   getEnvAsDuration("PUBLISHER_SLEEP", time.Second),
		PublisherBackoff: getEnvAsDuration("PUBLISHER_BACKOFF", 5*time.Second),

		ReadBlock:       getEnvAsDuration("READ_BLOCK", 2*time.Second),
		ReadRetrySleep:  getEnvAsDuration("READ_RETRY_SLEEP", time.Second),
		ReclaimInterval: getEnvAsDuration("RECLAIM_INTERVAL", 30*time.Second),
		ReclaimMinIdle:  getEnvAsDuration("RECLAIM_MIN_IDLE", 60*time.Second),
		ReclaimBatch:    getEnvAsInt("RECLAIM_BATCH", 100),

		GatewayCacheTTL:  getEnvAsDuration("GATEWAY_CACHE_TTL", time.Hour),
		IngesterCacheTTL: getEnvAsDuration("INGESTER_CACHE_TTL", 7*24*time.Hour),
	}
}

func defaultConsumerName() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "core-1"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
