package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Live session metrics
var (
	// ActiveSessions tracks the number of currently attached live sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_sessions_active",
			Help: "Number of currently attached live sessions",
		},
	)

	// EventsProcessedTotal tracks inbound broadcast events by type.
	EventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_events_processed_total",
			Help: "Inbound broadcast events processed by type",
		},
		[]string{"type"},
	)

	// EventErrorsTotal tracks event handler failures by type. Failures are
	// isolated per event and never terminate the session loop.
	EventErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_event_errors_total",
			Help: "Event handler failures by event type",
		},
		[]string{"type"},
	)
)

// Giveaway metrics
var (
	// ActiveGiveaways tracks the number of currently running giveaways.
	ActiveGiveaways = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "giveaways_active",
			Help: "Number of currently running giveaways",
		},
	)

	// GiveawaysFinalizedTotal tracks finalized giveaways by reason.
	GiveawaysFinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giveaways_finalized_total",
			Help: "Finalized giveaways by reason (expired, explicit, abandoned)",
		},
		[]string{"reason"},
	)

	// SweepDurationSeconds tracks expiry sweep duration.
	SweepDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "giveaway_sweep_duration_seconds",
			Help:    "Duration of a single expiry sweep tick",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)
