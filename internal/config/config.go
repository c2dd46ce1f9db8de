package config

import "time"

// CollectorConfig is the root configuration for a collector instance.
type CollectorConfig struct {
	Instance  InstanceConfig            `yaml:"instance"`
	Database  DatabaseConfig            `yaml:"database"`
	Collector SyncConfig                `yaml:"collector"`
	Exchanges map[string]ExchangeConfig `yaml:"exchanges"`
	Metrics   MetricsConfig             `yaml:"metrics"`
	Log       LogConfig                 `yaml:"log"`
}

// InstanceConfig identifies this collector.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// DatabaseConfig holds the PostgreSQL connection for trades and sync state.
type DatabaseConfig struct {
	Collector DBConfig `yaml:"collector"`

	// AdminDatabase is an always-present database used to create the
	// collector database when it does not exist yet.
	AdminDatabase string `yaml:"admin_database"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SyncConfig holds market synchronization settings.
type SyncConfig struct {
	Instruments      []string      `yaml:"instruments"`        // Instrument codes to track, e.g. [BTC, USD]
	Exchanges        []string      `yaml:"exchanges"`          // Exchange codes to track, e.g. [KRAKEN]
	CacheDir         string        `yaml:"cache_dir"`          // Root of the raw page cache
	StateTable       string        `yaml:"state_table"`        // Table holding one sync state row per market
	TradeTablePrefix string        `yaml:"trade_table_prefix"` // Prepended to the lowercase market code
	RateInterval     time.Duration `yaml:"rate_interval"`      // Default spacing between calls per exchange
	FailureBackoff   time.Duration `yaml:"failure_backoff"`    // Pause after a failed iteration
}

// ExchangeConfig holds per-exchange API settings, keyed by exchange code.
type ExchangeConfig struct {
	RestURL      string        `yaml:"rest_url"`
	RateInterval time.Duration `yaml:"rate_interval"`
	Timeout      time.Duration `yaml:"timeout"`
	PageSize     int           `yaml:"page_size"`
}

// MetricsConfig holds Prometheus metrics and health endpoint settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Exchange returns the settings of an exchange, with defaults applied.
func (c *CollectorConfig) Exchange(code string) ExchangeConfig {
	x := c.Exchanges[code]
	if x.RateInterval == 0 {
		x.RateInterval = c.Collector.RateInterval
	}
	if x.Timeout == 0 {
		x.Timeout = DefaultAPITimeout
	}
	return x
}
