// Package metrics provides Prometheus instrumentation for tracklist.
//
// All metrics are prefixed with "tracklist_".
//
//   - IPCCallsTotal: IPC calls by verb and outcome (ok, retried, failed)
//   - SupervisorLaunchesTotal: mpv launches performed by the supervisor
//   - ReconcilePassesTotal: reconciliation passes by outcome
//   - ReconcileDroppedTotal: requests dropped while a pass was in flight
//   - MovesTotal: playlist-move commands issued
//   - ReconcileDuration: wall time of a full pass
//   - Tracks: size of the last applied snapshot
//
// Metrics are only exposed when metrics_addr is configured:
//
//	metrics.Serve(ctx, cfg.MetricsAddr, logger)
//
// which serves /metrics (promhttp) and /healthz on a gorilla/mux router. The
// listener carries no control surface.
package metrics
