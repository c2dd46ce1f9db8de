package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPITimeout       = 30 * time.Second
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultAdminDatabase    = "postgres"
	DefaultCacheDir         = "var/trade_cache"
	DefaultStateTable       = "market"
	DefaultTradeTablePrefix = ""
	DefaultRateInterval     = 6 * time.Second
	DefaultFailureBackoff   = 1 * time.Second
	DefaultMetricsPort      = 9090
	DefaultMetricsPath      = "/metrics"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

func (c *CollectorConfig) applyDefaults() {
	// Database defaults
	applyDBDefaults(&c.Database.Collector)
	if c.Database.AdminDatabase == "" {
		c.Database.AdminDatabase = DefaultAdminDatabase
	}

	// Collector defaults
	if c.Collector.CacheDir == "" {
		c.Collector.CacheDir = DefaultCacheDir
	}
	if c.Collector.StateTable == "" {
		c.Collector.StateTable = DefaultStateTable
	}
	if c.Collector.RateInterval == 0 {
		c.Collector.RateInterval = DefaultRateInterval
	}
	if c.Collector.FailureBackoff == 0 {
		c.Collector.FailureBackoff = DefaultFailureBackoff
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
