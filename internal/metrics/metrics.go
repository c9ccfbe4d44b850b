// Package metrics exposes Prometheus instrumentation for the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Invoke routing metrics
	InvokesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qabot_invokes_total",
			Help: "Total number of invoke events processed",
		},
		[]string{"kind", "status"},
	)

	// Card delivery metrics
	CardsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qabot_cards_sent_total",
			Help: "Total number of cards sent to the platform",
		},
	)

	CardDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qabot_card_deletes_total",
			Help: "Total number of prior-card delete attempts",
		},
		[]string{"outcome"},
	)

	// Renderer metrics
	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qabot_render_duration_seconds",
			Help:    "Duration of card template rendering in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Storage collaborator metrics
	StorageErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qabot_storage_errors_total",
			Help: "Total number of storage collaborator errors",
		},
	)
)
