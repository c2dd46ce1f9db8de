package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dReserve/FAT/internal/collector"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type marketLister interface {
	Markets() []collector.MarketStatus
}

// newHealthHandler serves /health, /debug/markets and the metrics endpoint.
func newHealthHandler(db pinger, markets marketLister, metricsHandler http.Handler, metricsPath string) http.Handler {
	mux := http.NewServeMux()

	if metricsHandler != nil && metricsPath != "" {
		mux.Handle(metricsPath, metricsHandler)
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		// Check database
		if err := db.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		// Check market loops
		running := markets.Markets()
		failed := 0
		for _, m := range running {
			if m.State == collector.StateFailed.String() {
				failed++
			}
		}
		health.Components["markets"] = map[string]int{
			"running": len(running),
			"failed":  failed,
		}
		if health.Status == "healthy" && (len(running) == 0 || failed > 0) {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/markets", func(w http.ResponseWriter, r *http.Request) {
		running := markets.Markets()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"count":   len(running),
			"markets": running,
		})
	})

	return mux
}
