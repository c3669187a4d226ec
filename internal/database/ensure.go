package database

import (
	"context"
	"fmt"
	"log/slog"

	"inkwell/internal/config"
	"inkwell/internal/middleware"

	"github.com/jackc/pgx/v5"
)

const maintenanceDB = "postgres"

// EnsureDatabase creates cfg.DBName on the Postgres server if it is missing.
// It reports whether the database was created. SQLite files are created on
// first connect, so the sqlite driver is a no-op.
func EnsureDatabase(ctx context.Context, cfg *config.Config) (bool, error) {
	if cfg.DBDriver == "sqlite" {
		return false, nil
	}
	if cfg.DBName == "" {
		return false, fmt.Errorf("DB_NAME is required")
	}

	admin := *cfg
	admin.DBName = maintenanceDB
	conn, err := pgx.Connect(ctx, PostgresDSN(&admin))
	if err != nil {
		return false, fmt.Errorf("connect to %s database: %w", maintenanceDB, err)
	}
	defer func() { _ = conn.Close(ctx) }()

	var exists bool
	if err := conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.DBName,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check database %q: %w", cfg.DBName, err)
	}
	if exists {
		return false, nil
	}

	if _, err := conn.Exec(ctx, createDatabaseSQL(cfg.DBName)); err != nil {
		return false, fmt.Errorf("create database %q: %w", cfg.DBName, err)
	}
	middleware.Logger.InfoContext(ctx, "database created", slog.String("name", cfg.DBName))
	return true, nil
}

// createDatabaseSQL quotes name as an identifier; CREATE DATABASE takes no
// bind parameters.
func createDatabaseSQL(name string) string {
	return "CREATE DATABASE " + pgx.Identifier{name}.Sanitize()
}
