// Package main implements the migration tool for the Lexora ledger
// database. It applies the goose SQL migrations under migrations/ against
// the configured Postgres instance.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/lexora-app/lexora-core/internal/config"
	"github.com/lexora-app/lexora-core/internal/platform/logger"
)

const (
	// migrationsDir is where the goose SQL migrations live, relative to
	// the working directory the tool is invoked from.
	migrationsDir = "migrations"

	// migrationTableName is the goose bookkeeping table.
	migrationTableName = "lexora_schema_migrations"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
}

func run() error {
	var (
		command = flag.String("command", "up", "migration command: up, down, status, version, create")
		name    = flag.String("name", "", "migration name (create command only)")
		dir     = flag.String("dir", migrationsDir, "migrations directory")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if _, err := logger.Setup(cfg.Server); err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	goose.SetTableName(migrationTableName)

	slog.Info("Executing migration command",
		"command", *command,
		"dir", *dir)

	switch *command {
	case "up":
		err = goose.Up(db, *dir)
	case "down":
		err = goose.Down(db, *dir)
	case "status":
		err = goose.Status(db, *dir)
	case "version":
		err = goose.Version(db, *dir)
	case "create":
		if *name == "" {
			return fmt.Errorf("create requires -name")
		}
		err = goose.Create(db, *dir, *name, "sql")
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		return fmt.Errorf("migration command %q failed: %w", *command, err)
	}

	slog.Info("Migration command completed", "command", *command)
	return nil
}
