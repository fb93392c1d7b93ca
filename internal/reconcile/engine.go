package reconcile

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/tracklist/internal/logging"
	"github.com/five82/tracklist/internal/metrics"
	"github.com/five82/tracklist/internal/mpv"
	"github.com/five82/tracklist/internal/state"
)

// Result summarizes one pass.
type Result struct {
	Moves       int
	FailedMoves int
	Elapsed     time.Duration
}

// Outcome is a finished pass handed from the worker to the owner.
type Outcome struct {
	Snapshot   state.Snapshot
	Stats      Result
	Generation uint64
	Err        error
}

// Engine fetches snapshots and drives the engine playlist into target order.
type Engine struct {
	caller  mpv.Caller
	builder *Builder
	logger  *log.Logger
}

// NewEngine builds an Engine issuing calls through c.
func NewEngine(c mpv.Caller, logger *log.Logger) *Engine {
	return &Engine{
		caller:  c,
		builder: NewBuilder(c),
		logger:  logging.OrDiscard(logger),
	}
}

// Pass fetches a fresh snapshot and reconciles it under pol. The returned
// snapshot is tagged with pol's generation.
func (e *Engine) Pass(ctx context.Context, pol state.Policy) (state.Snapshot, Result, error) {
	start := time.Now()
	snap, err := e.builder.Fetch(ctx, pol.Groups)
	if err != nil {
		metrics.ReconcilePassesTotal.WithLabelValues("fetch_failed").Inc()
		e.logger.Debug("reconcile fetch failed", "err", err)
		return state.Snapshot{}, Result{Elapsed: time.Since(start)}, err
	}

	snap, res := e.Reconcile(ctx, snap, pol)
	snap.Generation = pol.Generation
	res.Elapsed = time.Since(start)

	metrics.ReconcilePassesTotal.WithLabelValues("ok").Inc()
	metrics.ReconcileDuration.Observe(res.Elapsed.Seconds())
	e.logger.Debug("reconcile pass",
		"tracks", len(snap.Tracks),
		"moves", res.Moves,
		"failed_moves", res.FailedMoves,
		"elapsed", res.Elapsed,
	)
	return snap, res, nil
}

// Reconcile issues the moves that bring snap into target order and returns the
// reordered snapshot. A failed move is logged and counted; bookkeeping follows
// the plan and the next pass corrects any drift.
func (e *Engine) Reconcile(ctx context.Context, snap state.Snapshot, pol state.Policy) (state.Snapshot, Result) {
	target := TargetOrder(snap.Tracks, pol)
	moves, placed := PlanMoves(snap.Tracks, target)

	var res Result
	for _, m := range moves {
		res.Moves++
		metrics.MovesTotal.Inc()
		if !mpv.Do(ctx, e.caller, mpv.Move(m.From, m.To)) {
			res.FailedMoves++
			e.logger.Warn("playlist move failed", "from", m.From, "to", m.To)
		}
	}

	out := snap.Clone()
	out.Tracks = placed
	return out, res
}

// Resume selects t and pauses on it.
func (e *Engine) Resume(ctx context.Context, t state.Track) bool {
	if !mpv.Do(ctx, e.caller, mpv.SetProperty(mpv.PropPlaylistPos, t.RemoteIndex)) {
		e.logger.Warn("resume select failed", "path", t.Path, "index", t.RemoteIndex)
		return false
	}
	if !mpv.Do(ctx, e.caller, mpv.SetProperty(mpv.PropPause, true)) {
		e.logger.Warn("resume pause failed", "path", t.Path)
		return false
	}
	e.logger.Info("resumed", "name", t.Name, "index", t.RemoteIndex)
	return true
}
