package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Nawaf-TBE/home-widget-platform/config"
	"github.com/Nawaf-TBE/home-widget-platform/pkg/database"
)

const usage = `
Home Widget Platform - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Apply all pending migrations
  status      Show database connection and table status

Flags:
  -migrations string   Path to migrations directory (default "migrations")

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
`

func main() {
	migrationsDir := flag.String("migrations", "migrations", "Path to migrations directory")
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	switch flag.Arg(0) {
	case "up":
		log.Println("Running migrations...")
		if err := database.RunMigrations(ctx, pool, *migrationsDir); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed")
	case "status":
		if err := database.HealthCheck(ctx, pool); err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		log.Println("Database connection: OK")

		for _, table := range []string{"widgets", "outbox", "schema_migrations"} {
			exists, err := database.TableExists(ctx, pool, table)
			if err != nil {
				log.Printf("Error checking table %s: %v", table, err)
				continue
			}
			if exists {
				log.Printf("Table %-20s exists", table)
			} else {
				log.Printf("Table %-20s does not exist", table)
			}
		}
	default:
		fmt.Printf("Unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}
