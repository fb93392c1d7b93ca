package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/tracklist/internal/logging"
	"github.com/five82/tracklist/internal/metrics"
	"github.com/five82/tracklist/internal/mpv"
	"github.com/five82/tracklist/internal/playlist"
	"github.com/five82/tracklist/internal/prefs"
	"github.com/five82/tracklist/internal/reconcile"
	"github.com/five82/tracklist/internal/state"
)

const (
	loadSettleDelay = 500 * time.Millisecond
	maxVolume       = 130
)

// Controller owns the single in-flight reconciliation and exposes the
// operations the UI calls. Workers never mutate the store snapshot; the owner
// applies their results with Apply.
type Controller struct {
	ctx    context.Context
	caller mpv.Caller
	engine *reconcile.Engine
	store  *state.Store
	logger *log.Logger

	inFlight atomic.Bool
	results  chan reconcile.Outcome
	observed atomic.Pointer[NowPlaying]

	settle time.Duration

	watchMu sync.Mutex
	watcher *playlist.Watcher
}

// ControllerOptions configure a Controller.
type ControllerOptions struct {
	Caller mpv.Caller
	Store  *state.Store
	Logger *log.Logger
	// SettleDelay is how long LoadPlaylist waits before reconciling. Zero uses 500ms.
	SettleDelay time.Duration
}

// NewController builds a Controller. Background work stops when ctx is done.
func NewController(ctx context.Context, opts ControllerOptions) *Controller {
	logger := logging.OrDiscard(opts.Logger)
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = loadSettleDelay
	}
	return &Controller{
		ctx:     ctx,
		caller:  opts.Caller,
		engine:  reconcile.NewEngine(opts.Caller, logger.With("component", "reconcile")),
		store:   opts.Store,
		logger:  logger,
		results: make(chan reconcile.Outcome, 1),
		settle:  settle,
	}
}

// Store returns the state store.
func (c *Controller) Store() *state.Store {
	return c.store
}

// Results delivers completed passes. The owner must pass each one to Apply.
func (c *Controller) Results() <-chan reconcile.Outcome {
	return c.results
}

// InFlight reports whether a pass is running or awaiting Apply.
func (c *Controller) InFlight() bool {
	return c.inFlight.Load()
}

// RequestReconcile starts a pass unless one is already in flight, in which
// case the request is dropped. It reports whether a pass was started.
func (c *Controller) RequestReconcile() bool {
	if !c.inFlight.CompareAndSwap(false, true) {
		metrics.ReconcileDroppedTotal.Inc()
		c.logger.Debug("reconcile request dropped; pass in flight")
		return false
	}
	pol := c.store.Policy()
	go c.run(pol)
	return true
}

func (c *Controller) run(pol state.Policy) {
	snap, stats, err := c.engine.Pass(c.ctx, pol)
	if err == nil {
		if t, ok := c.store.TakeResume(snap); ok {
			c.engine.Resume(c.ctx, t)
		}
	}
	c.results <- reconcile.Outcome{Snapshot: snap, Stats: stats, Generation: pol.Generation, Err: err}
}

// Apply installs a finished pass and clears the in-flight flag. A failed pass
// keeps the previous snapshot. It reports whether the result was computed
// under an outdated policy; the owner should request another pass then.
func (c *Controller) Apply(r reconcile.Outcome) (stale bool) {
	defer c.inFlight.Store(false)

	if r.Err != nil {
		c.logger.Debug("reconcile pass failed", "err", r.Err)
		return false
	}
	c.store.ReplaceSnapshot(r.Snapshot)
	metrics.Tracks.Set(float64(len(r.Snapshot.Tracks)))
	return r.Generation != c.store.Generation()
}

// Startup loads the last playlist if one was recorded, restoring its sort
// mode. Otherwise it requests an immediate pass.
func (c *Controller) Startup() {
	last := c.store.LastPlaylist()
	if last.Path != "" {
		if err := c.LoadPlaylist(last.Path); err == nil {
			return
		}
	}
	c.RequestReconcile()
}

// ToggleFavorite flips name's favorite flag and requests a pass.
func (c *Controller) ToggleFavorite(name string) bool {
	fav := c.store.ToggleFavorite(name)
	c.RequestReconcile()
	return fav
}

// SetActiveGroup switches the active group and requests a pass.
func (c *Controller) SetActiveGroup(name string) {
	c.store.SetActiveGroup(name)
	c.RequestReconcile()
}

// ToggleSort flips the sort mode and requests a pass.
func (c *Controller) ToggleSort() int {
	mode := c.store.ToggleSort()
	c.RequestReconcile()
	return mode
}

// LoadPlaylist replaces the engine playlist with the file at path. A missing
// file is ignored and reported as playlist.ErrNotFound. The group cache is
// rebuilt from the file, the pointer persisted, the file watched, and a pass
// requested once mpv has had time to load it.
func (c *Controller) LoadPlaylist(path string) error {
	groups, err := playlist.LoadFile(path)
	if errors.Is(err, playlist.ErrNotFound) {
		c.logger.Warn("playlist not found", "path", path)
		return err
	}
	if err != nil {
		c.logger.Warn("read playlist groups", "path", path, "err", err)
	}
	c.store.ReplaceGroups(groups)

	if !mpv.Do(c.ctx, c.caller, mpv.LoadList(path)) {
		c.logger.Warn("loadlist failed", "path", path)
	}
	c.store.SetLastPlaylist(path)
	c.watch(path)

	time.AfterFunc(c.settle, func() {
		if c.ctx.Err() == nil {
			c.RequestReconcile()
		}
	})
	c.logger.Info("loaded playlist", "path", path, "groups", len(groups))
	return nil
}

// Reload rebuilds the group cache from the file at path and requests a pass.
// The engine playlist is left as is.
func (c *Controller) Reload(path string) {
	groups, err := playlist.LoadFile(path)
	if err != nil {
		c.logger.Warn("reload playlist groups", "path", path, "err", err)
		return
	}
	c.store.ReplaceGroups(groups)
	c.RequestReconcile()
}

func (c *Controller) watch(path string) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	if c.watcher != nil {
		_ = c.watcher.Close()
		c.watcher = nil
	}
	w, err := playlist.Watch(path, 0, c.Reload, c.logger.With("component", "watch"))
	if err != nil {
		c.logger.Warn("watch playlist", "path", path, "err", err)
		return
	}
	c.watcher = w
}

// Clear empties the engine playlist and the group cache, then requests a pass.
func (c *Controller) Clear() bool {
	ok := mpv.Do(c.ctx, c.caller, mpv.Clear())
	c.store.ReplaceGroups(nil)
	c.RequestReconcile()
	return ok
}

// Activate starts playback of t.
func (c *Controller) Activate(t state.Track) bool {
	if !mpv.Do(c.ctx, c.caller, mpv.SetProperty(mpv.PropPlaylistPos, t.RemoteIndex)) {
		return false
	}
	return mpv.Do(c.ctx, c.caller, mpv.SetProperty(mpv.PropPause, false))
}

// TogglePause flips the pause flag.
func (c *Controller) TogglePause() bool {
	return mpv.Do(c.ctx, c.caller, mpv.Cycle(mpv.PropPause))
}

// Next skips to the next entry.
func (c *Controller) Next() bool {
	return mpv.Do(c.ctx, c.caller, mpv.Next())
}

// Prev goes back one entry.
func (c *Controller) Prev() bool {
	return mpv.Do(c.ctx, c.caller, mpv.Prev())
}

// AdjustVolume changes the volume by delta, clamped to 0..130, and returns the
// new value.
func (c *Controller) AdjustVolume(delta float64) (float64, bool) {
	vol, ok := mpv.GetFloat(c.ctx, c.caller, mpv.PropVolume)
	if !ok {
		return 0, false
	}
	vol = math.Max(0, math.Min(maxVolume, vol+delta))
	if !mpv.Do(c.ctx, c.caller, mpv.SetProperty(mpv.PropVolume, vol)) {
		return 0, false
	}
	return vol, true
}

// Observe records the latest heartbeat observation.
func (c *Controller) Observe(np NowPlaying) {
	c.observed.Store(&np)
}

// SaveSession records the last known engine path as the resume pointer
// together with the terminal size, then writes favorites and session. The path
// comes from the heartbeat, or the applied snapshot before the first
// observation; mpv is never contacted, so saving cannot relaunch it. An unknown
// path keeps the previous pointer.
func (c *Controller) SaveSession(width, height int) {
	path := c.store.Snapshot().CurrentPath
	if np := c.observed.Load(); np != nil && np.Path != "" {
		path = np.Path
	}
	c.store.UpdateSession(func(s *prefs.Session) {
		if path != "" {
			s.LastPath = path
		}
		if width > 0 && height > 0 {
			s.W, s.H = width, height
		}
	})
	c.store.Save()
}

// SetTheme persists the UI theme name.
func (c *Controller) SetTheme(name string) {
	c.store.UpdateSession(func(s *prefs.Session) { s.Theme = name })
}

// Close stops the playlist watcher.
func (c *Controller) Close() error {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	if err != nil {
		return fmt.Errorf("close playlist watcher: %w", err)
	}
	return nil
}
