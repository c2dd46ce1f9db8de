package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dReserve/FAT/internal/config"
)

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// EnsureDatabase creates the database named by cfg when it does not exist,
// connecting through adminDB on the same server. It reports whether the
// database was created.
func EnsureDatabase(ctx context.Context, cfg config.DBConfig, adminDB string, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	admin := cfg
	admin.Name = adminDB
	admin.MinConns = 0
	admin.MaxConns = 1

	conn, err := pgx.Connect(ctx, BuildConnString(admin))
	if err != nil {
		return false, fmt.Errorf("connect admin database %s: %w", adminDB, err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	var exists bool
	err = conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check database %s: %w", cfg.Name, err)
	}
	if exists {
		return false, nil
	}

	// CREATE DATABASE does not accept bind parameters.
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{cfg.Name}.Sanitize()); err != nil {
		return false, fmt.Errorf("create database %s: %w", cfg.Name, err)
	}
	logger.Info("created database", "name", cfg.Name, "host", cfg.Host)
	return true, nil
}
