package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dReserve/FAT/internal/cache"
	"github.com/dReserve/FAT/internal/collector"
	"github.com/dReserve/FAT/internal/config"
	"github.com/dReserve/FAT/internal/instrument"
	"github.com/dReserve/FAT/internal/metrics"
	"github.com/dReserve/FAT/internal/ratelimit"
	"github.com/dReserve/FAT/internal/version"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Sync all configured markets until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, logger)
		},
	}
}

func run(parent context.Context, cfg *config.CollectorConfig, logger *slog.Logger) error {
	logger.Info("starting collector",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	instruments, err := instrument.Resolve(cfg.Collector.Instruments)
	if err != nil {
		return fmt.Errorf("collector.instruments: %w", err)
	}

	limiter := ratelimit.New(cfg.Collector.RateInterval)
	adapters, err := buildAdapters(cfg, exchanges(), limiter, logger)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	mtr := metrics.New()
	sup := collector.New(
		collector.Config{FailureBackoff: cfg.Collector.FailureBackoff},
		adapters,
		instruments,
		collector.NewLedger(db, schema(cfg), logger),
		cache.NewDisk(cfg.Collector.CacheDir),
		limiter,
		mtr,
		logger,
	)

	// Start health server early so startup progress can be watched
	healthServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           newHealthHandler(db, sup, mtr.Handler(), cfg.Metrics.Path),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = healthServer.Shutdown(shutdownCtx)
	}()

	if err := sup.Start(ctx); err != nil {
		db.Close()
		return fmt.Errorf("start collector: %w", err)
	}

	logger.Info("collector running",
		"instance_id", cfg.Instance.ID,
		"markets", len(sup.Markets()),
		"cache_dir", cfg.Collector.CacheDir,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := sup.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stop collector: %w", err)
	}

	logger.Info("collector stopped")
	return nil
}
