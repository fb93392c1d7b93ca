package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/gen2brain/beeep"

	"github.com/five82/tracklist/internal/config"
	"github.com/five82/tracklist/internal/logging"
	"github.com/five82/tracklist/internal/metrics"
	"github.com/five82/tracklist/internal/mpv"
	"github.com/five82/tracklist/internal/playlist"
	"github.com/five82/tracklist/internal/reconcile"
	"github.com/five82/tracklist/internal/state"
	"github.com/five82/tracklist/internal/ui"
)

// Notifier shows a desktop notification.
type Notifier func(title, message string) error

func desktopNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Run boots the tracklist TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	logger, closer, err := logging.OpenFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closer.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics.Serve(ctx, cfg.MetricsAddr, logger.With("component", "metrics"))

	client := NewClient(cfg, logger)
	store := NewStore(cfg, logger)
	ctrl := NewController(ctx, ControllerOptions{
		Caller: client,
		Store:  store,
		Logger: logger.With("component", "controller"),
	})
	defer func() { _ = ctrl.Close() }()

	logger.Info("starting", "socket", cfg.SocketPath, "state_dir", cfg.StateDir)
	ctrl.Startup()

	var notify Notifier
	if cfg.Notify {
		notify = desktopNotify
	}
	titles := make(chan string, 1)
	StartHeartbeat(ctx, client, cfg.PollInterval, heartbeatHandler(ctrl, titles, notify, logger))

	err = ui.Run(ui.Options{
		Context:    ctx,
		Controller: ctrl,
		Store:      store,
		Titles:     titles,
		LogPath:    cfg.LogFile,
		ThemeName:  store.Session().Theme,
	})
	if errors.Is(err, tea.ErrProgramKilled) {
		err = nil
	}
	logger.Info("stopped")
	return err
}

// NewClient builds an mpv client whose failures are repaired by a supervisor.
func NewClient(cfg config.Config, logger *log.Logger) *mpv.Client {
	logger = logging.OrDiscard(logger)
	sup := mpv.NewSupervisor(mpv.SupervisorOptions{
		SocketPath:   cfg.SocketPath,
		Binary:       cfg.MPVBinary,
		Args:         cfg.MPVArgs,
		ProbeTimeout: cfg.ProbeTimeout,
		Logger:       logger.With("component", "supervisor"),
	})
	return mpv.NewClient(mpv.ClientOptions{
		SocketPath: cfg.SocketPath,
		Timeout:    cfg.CallTimeout,
		Restarter:  sup,
		Logger:     logger.With("component", "ipc"),
	})
}

// NewStore builds the state store for cfg and loads the persisted files.
func NewStore(cfg config.Config, logger *log.Logger) *state.Store {
	store := state.NewStore(state.Paths{
		Favorites:    cfg.FavoritesPath(),
		Session:      cfg.SessionPath(),
		LastPlaylist: cfg.LastPlaylistPath(),
	}, logging.OrDiscard(logger).With("component", "store"))
	store.Load()
	return store
}

// ReconcileOnce runs a single pass against mpv with the persisted policy,
// using the groups of the last loaded playlist.
func ReconcileOnce(ctx context.Context, cfg config.Config, logger *log.Logger) (state.Snapshot, reconcile.Result, error) {
	logger = logging.OrDiscard(logger)
	client := NewClient(cfg, logger)
	store := NewStore(cfg, logger)
	if last := store.LastPlaylist(); last.Path != "" {
		groups, err := playlist.LoadFile(last.Path)
		if err != nil {
			logger.Warn("read playlist groups", "path", last.Path, "err", err)
		}
		store.ReplaceGroups(groups)
	}

	engine := reconcile.NewEngine(client, logger.With("component", "reconcile"))
	snap, res, err := engine.Pass(ctx, store.Policy())
	if err != nil {
		return state.Snapshot{}, res, err
	}
	store.ReplaceSnapshot(snap)
	return snap, res, nil
}

// heartbeatHandler records each observation, publishes title changes to the
// UI, announces track changes when notify is set and requests a pass. It
// reports false while a pass is already in flight so the heartbeat offers the
// same change again on its next tick.
func heartbeatHandler(ctrl *Controller, titles chan string, notify Notifier, logger *log.Logger) func(NowPlaying) bool {
	logger = logging.OrDiscard(logger)
	var (
		lastPath  string
		lastTitle string
		published bool
	)
	return func(np NowPlaying) bool {
		ctrl.Observe(np)

		if !published || np.Title != lastTitle {
			select {
			case <-titles:
			default:
			}
			select {
			case titles <- np.Title:
			default:
			}
			published = true
			lastTitle = np.Title
		}

		if np.Path != lastPath && np.Path != "" && lastPath != "" && notify != nil {
			if err := notify("Now playing", np.Title); err != nil {
				logger.Debug("desktop notification failed", "err", err)
			}
		}
		if np.Path != "" {
			lastPath = np.Path
		}

		return ctrl.RequestReconcile()
	}
}
