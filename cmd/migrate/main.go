package main

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/kritsw/telemed/internal/config"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// Applies the SQL migrations in migrations/. Usage:
//
//	migrate [up|down|status]
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		logger.Error("failed to set goose dialect", slog.Any("error", err))
		os.Exit(1)
	}

	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}

	switch command {
	case "up":
		err = goose.Up(db, migrationsDir)
	case "down":
		err = goose.Down(db, migrationsDir)
	case "status":
		err = goose.Status(db, migrationsDir)
	default:
		logger.Error("unknown command", slog.String("command", command))
		os.Exit(1)
	}
	if err != nil {
		logger.Error("migration failed", slog.String("command", command), slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("migrations applied", slog.String("command", command))
}
