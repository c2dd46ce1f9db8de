package main

import (
	"fmt"
	"log/slog"

	"github.com/dReserve/FAT/internal/collector"
	"github.com/dReserve/FAT/internal/config"
	"github.com/dReserve/FAT/internal/exchange"
	"github.com/dReserve/FAT/internal/exchange/kraken"
	"github.com/dReserve/FAT/internal/ratelimit"
)

// exchanges is the closed set of adapters compiled into the binary.
func exchanges() *exchange.Registry {
	r := exchange.NewRegistry()
	r.Register(kraken.Code, kraken.New)
	return r
}

// buildAdapters creates the configured adapters and registers their call
// spacing with the limiter.
func buildAdapters(cfg *config.CollectorConfig, registry *exchange.Registry, limiter *ratelimit.Limiter, logger *slog.Logger) ([]exchange.Adapter, error) {
	adapters := make([]exchange.Adapter, 0, len(cfg.Collector.Exchanges))
	for _, code := range cfg.Collector.Exchanges {
		x := cfg.Exchange(code)
		a, err := registry.New(code, exchange.Settings{
			RestURL:  x.RestURL,
			Timeout:  x.Timeout,
			PageSize: x.PageSize,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("exchange %s: %w", code, err)
		}
		limiter.SetInterval(a.Code(), x.RateInterval)
		logger.Info("exchange configured",
			"exchange", a.Code(),
			"rate_interval", x.RateInterval,
			"page_size", a.PageSize(),
		)
		adapters = append(adapters, a)
	}
	return adapters, nil
}

func schema(cfg *config.CollectorConfig) collector.Schema {
	return collector.Schema{
		StateTable:       cfg.Collector.StateTable,
		TradeTablePrefix: cfg.Collector.TradeTablePrefix,
	}
}
