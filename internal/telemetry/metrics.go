package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Render metrics
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkpad",
			Subsystem: "render",
			Name:      "total",
			Help:      "Total number of markdown renders",
		},
		[]string{"source"}, // live, api, watch
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "inkpad",
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Markdown render latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	// Live preview metrics
	ActiveLiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "inkpad",
			Subsystem: "live",
			Name:      "active_connections",
			Help:      "Number of currently connected live preview sessions",
		},
	)

	LiveMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "inkpad",
			Subsystem: "live",
			Name:      "messages_dropped_total",
			Help:      "Previews dropped because a client send buffer was full",
		},
	)

	// Store metrics
	DocumentsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "inkpad",
			Subsystem: "store",
			Name:      "documents_saved_total",
			Help:      "Total number of document saves through the API or live protocol",
		},
	)
)
