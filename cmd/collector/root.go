package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dReserve/FAT/internal/config"
	"github.com/dReserve/FAT/internal/version"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "collector",
		Short: "Resumable, rate-limited trade collector",
		Long: `Collector pulls trade history from exchange REST APIs into PostgreSQL.

Each market is synced by its own loop that resumes from the last committed
cursor. Raw pages are cached on disk so a rebuilt database can be refilled
without calling the exchange again.`,
		Version:       version.String(),
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(opts.envFile)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "configs/collector.local.yaml", "path to config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config (ignored if missing)")
	flags.StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "override log.format (text, json)")

	cmd.AddCommand(
		newRunCmd(opts),
		newInitDBCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadEnvFile loads KEY=value pairs without overriding the environment.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// setup loads the configuration and builds the process logger.
func (o *rootOptions) setup() (*config.CollectorConfig, *slog.Logger, error) {
	cfg, err := config.LoadAndValidate(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	default:
		return nil, fmt.Errorf("log.format must be text or json, got %q", cfg.Format)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "collector", version.String())
		},
	}
}
