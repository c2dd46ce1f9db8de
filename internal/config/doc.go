// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Defaults are applied after loading; Validate reports the first invalid field
// by its YAML path (e.g. "database.collector.host is required").
package config
