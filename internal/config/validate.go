package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *CollectorConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Database.Collector.validate("database.collector"); err != nil {
		return err
	}

	if len(c.Collector.Instruments) < 2 {
		return errors.New("collector.instruments must list at least two instruments")
	}
	if len(c.Collector.Exchanges) == 0 {
		return errors.New("collector.exchanges must list at least one exchange")
	}
	if c.Collector.CacheDir == "" {
		return errors.New("collector.cache_dir is required")
	}
	if c.Collector.StateTable == "" {
		return errors.New("collector.state_table is required")
	}
	if c.Collector.RateInterval < 0 {
		return errors.New("collector.rate_interval must be >= 0")
	}
	if c.Collector.FailureBackoff < 0 {
		return errors.New("collector.failure_backoff must be >= 0")
	}

	for code, x := range c.Exchanges {
		if x.RateInterval < 0 {
			return fmt.Errorf("exchanges.%s.rate_interval must be >= 0", code)
		}
		if x.PageSize < 0 {
			return fmt.Errorf("exchanges.%s.page_size must be >= 0", code)
		}
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
