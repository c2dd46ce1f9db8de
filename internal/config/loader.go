package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*CollectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg CollectorConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg.normalize()
	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*CollectorConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*CollectorConfig, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// normalize upper-cases instrument and exchange codes.
func (c *CollectorConfig) normalize() {
	for i, code := range c.Collector.Instruments {
		c.Collector.Instruments[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	for i, code := range c.Collector.Exchanges {
		c.Collector.Exchanges[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	if len(c.Exchanges) > 0 {
		upper := make(map[string]ExchangeConfig, len(c.Exchanges))
		for code, x := range c.Exchanges {
			upper[strings.ToUpper(code)] = x
		}
		c.Exchanges = upper
	}
}
