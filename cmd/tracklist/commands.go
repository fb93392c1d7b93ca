package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/five82/tracklist/internal/app"
	"github.com/five82/tracklist/internal/config"
	"github.com/five82/tracklist/internal/logging"
	"github.com/five82/tracklist/internal/mpv"
	"github.com/five82/tracklist/internal/state"
)

var errNotTerminal = errors.New("the TUI needs an interactive terminal; use a subcommand for scripted use")

var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "tracklist",
		Usage:   "Keep an mpv playlist sorted by group, favorites and name",
		Version: version,
		Writer:  os.Stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config.toml (default ~/.config/tracklist/config.toml)",
			},
			&cli.StringFlag{
				Name:    "socket",
				Aliases: []string{"s"},
				Usage:   "mpv IPC socket path",
				Sources: cli.EnvVars("TRACKLIST_SOCKET"),
			},
			&cli.StringFlag{
				Name:  "mpv",
				Usage: "mpv binary launched when no engine is running",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Sources: cli.EnvVars("TRACKLIST_LOG_LEVEL"),
			},
			&cli.DurationFlag{
				Name:  "poll",
				Usage: "heartbeat interval",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this address (e.g. 127.0.0.1:9310)",
			},
			&cli.BoolFlag{
				Name:  "notify",
				Usage: "show a desktop notification when the track changes",
			},
		},
		Action: runTUI,
		Commands: []*cli.Command{
			discoverCommand(),
			reconcileCommand(),
			favoritesCommand(),
		},
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	if cmd.IsSet("socket") {
		cfg.SocketPath = cmd.String("socket")
	}
	if cmd.IsSet("mpv") {
		cfg.MPVBinary = cmd.String("mpv")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = strings.ToLower(cmd.String("log-level"))
	}
	if cmd.IsSet("poll") && cmd.Duration("poll") > 0 {
		cfg.PollInterval = cmd.Duration("poll")
	}
	if cmd.IsSet("metrics-addr") {
		cfg.MetricsAddr = cmd.String("metrics-addr")
	}
	if cmd.IsSet("notify") {
		cfg.Notify = cmd.Bool("notify")
	}
	return cfg, nil
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !isTerminal() {
		return errNotTerminal
	}
	return app.Run(ctx, cfg)
}

func discoverCommand() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "List mpv IPC sockets matching the discovery patterns",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "pattern",
				Usage: "glob to search instead of the configured patterns (repeatable)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			patterns := cfg.DiscoverPatterns
			if cmd.IsSet("pattern") {
				patterns = cmd.StringSlice("pattern")
			}
			endpoints := mpv.Discover(ctx, patterns, cfg.ProbeTimeout)
			renderEndpoints(cmd.Root().Writer, endpoints)
			return nil
		},
	}
}

func reconcileCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "Run one reconciliation pass against mpv and print the result",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := logging.New(os.Stderr, cfg.LogLevel)
			snap, res, err := app.ReconcileOnce(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", cfg.SocketPath, err)
			}
			favs := app.NewStore(cfg, logger).Favorites()
			out := cmd.Root().Writer
			renderTracks(out, snap, favs)
			fmt.Fprintf(out, "%d moves, %d failed, %s\n", res.Moves, res.FailedMoves, res.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
}

func favoritesCommand() *cli.Command {
	list := func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store := app.NewStore(cfg, nil)
		renderFavorites(cmd.Root().Writer, store.FavoriteNames())
		return nil
	}
	return &cli.Command{
		Name:   "favorites",
		Usage:  "List or toggle favorite track names",
		Action: list,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List favorite track names",
				Action: list,
			},
			{
				Name:      "toggle",
				Usage:     "Add or remove a favorite",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
					if name == "" {
						return fmt.Errorf("track name is required")
					}
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					store := app.NewStore(cfg, logging.New(os.Stderr, cfg.LogLevel))
					if store.ToggleFavorite(name) {
						fmt.Fprintf(cmd.Root().Writer, "★ %s\n", name)
					} else {
						fmt.Fprintf(cmd.Root().Writer, "removed %s\n", name)
					}
					return nil
				},
			},
		},
	}
}

func newTable(w io.Writer) table.Writer {
	if w == nil {
		w = os.Stdout
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderEndpoints(w io.Writer, endpoints []mpv.Endpoint) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Socket", "Alive", "PID", "Title"})
	for _, ep := range endpoints {
		alive := "no"
		if ep.Alive {
			alive = "yes"
		}
		pid := "-"
		if ep.PID > 0 {
			pid = fmt.Sprint(ep.PID)
		}
		t.AppendRow(table.Row{ep.Path, alive, pid, ep.Title})
	}
	t.Render()
}

func renderTracks(w io.Writer, snap state.Snapshot, favs map[string]bool) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "", "Name", "Group"})
	for _, tr := range snap.Tracks {
		mark := ""
		if tr.Path != "" && tr.Path == snap.CurrentPath {
			mark = "▶"
		}
		if favs[tr.Name] {
			mark += "★"
		}
		t.AppendRow(table.Row{tr.RemoteIndex + 1, mark, tr.Name, tr.Group})
	}
	t.Render()
}

func renderFavorites(w io.Writer, names []string) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Favorite"})
	for _, name := range names {
		t.AppendRow(table.Row{name})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d total", len(names))})
	t.Render()
}
