package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IPC metrics
var (
	IPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracklist_ipc_calls_total",
			Help: "Total number of IPC calls to mpv by verb and outcome",
		},
		[]string{"verb", "outcome"}, // outcome: ok, retried, failed
	)

	SupervisorLaunchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracklist_supervisor_launches_total",
			Help: "Total number of mpv processes launched by the supervisor",
		},
	)
)

// Reconciliation metrics
var (
	ReconcilePassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracklist_reconcile_passes_total",
			Help: "Total number of reconciliation passes by outcome",
		},
		[]string{"outcome"}, // outcome: ok, fetch_failed
	)

	ReconcileDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracklist_reconcile_dropped_total",
			Help: "Reconciliation requests dropped because a pass was already in flight",
		},
	)

	MovesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracklist_moves_total",
			Help: "Total number of playlist-move commands issued",
		},
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracklist_reconcile_duration_seconds",
			Help:    "Duration of a full reconciliation pass",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	Tracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracklist_tracks",
			Help: "Number of tracks in the last applied snapshot",
		},
	)
)
