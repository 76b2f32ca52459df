package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"remindbot/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	// Apply every migration in the directory, in filename order. The
	// directory can be overridden for ad-hoc schema work.
	dir := "migrations"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		log.Fatalf("Error listing migrations in %s: %v", dir, err)
	}
	if len(files) == 0 {
		log.Fatalf("No migration files found in %s", dir)
	}

	for _, file := range files {
		migration, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("Error reading migration file %s: %v", file, err)
		}
		if _, err := pool.Exec(context.Background(), string(migration)); err != nil {
			log.Fatalf("Error executing migration %s: %v", file, err)
		}
		log.Printf("Applied migration %s", file)
	}

	log.Println("Migration completed successfully")
}
