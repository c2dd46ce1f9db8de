package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dReserve/FAT/internal/collector"
	"github.com/dReserve/FAT/internal/config"
	"github.com/dReserve/FAT/internal/database"
	"github.com/dReserve/FAT/internal/store"
)

func newInitDBCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the collector database and sync state table",
		Long: `Create the collector database through the admin database when it does
not exist, then create the sync state table. Safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			db, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := collector.NewLedger(db, schema(cfg), logger).Init(cmd.Context()); err != nil {
				return err
			}
			logger.Info("database initialized",
				"database", cfg.Database.Collector.Name,
				"state_table", cfg.Collector.StateTable,
			)
			return nil
		},
	}
}

// openStore creates the collector database if needed and connects to it.
func openStore(ctx context.Context, cfg *config.CollectorConfig, logger *slog.Logger) (*store.Postgres, error) {
	logger.Info("connecting to database",
		"host", cfg.Database.Collector.Host,
		"port", cfg.Database.Collector.Port,
		"database", cfg.Database.Collector.Name,
	)

	if _, err := database.EnsureDatabase(ctx, cfg.Database.Collector, cfg.Database.AdminDatabase, logger); err != nil {
		return nil, err
	}
	pool, err := database.Connect(ctx, cfg.Database.Collector)
	if err != nil {
		return nil, fmt.Errorf("connect collector database: %w", err)
	}

	logger.Info("database connected")
	return store.NewPostgres(pool), nil
}
