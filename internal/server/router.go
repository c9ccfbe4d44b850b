// Package server assembles the bot's HTTP routes.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qanda-hq/qanda-bot/internal/handlers"
	"github.com/qanda-hq/qanda-bot/internal/middleware"
)

// NewRouter constructs a ServeMux with the bot's routes registered.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/healthz", h.HealthCheck)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Platform activity endpoint
	mux.HandleFunc("/api/messages", h.Messages)

	return middleware.RequestID(mux)
}
