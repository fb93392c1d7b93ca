package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything tracklist needs to reach mpv and persist state.
type Config struct {
	SocketPath       string
	MPVBinary        string
	MPVArgs          []string
	CallTimeout      time.Duration
	ProbeTimeout     time.Duration
	PollInterval     time.Duration
	StateDir         string
	LogFile          string
	LogLevel         string
	DiscoverPatterns []string
	Notify           bool
	MetricsAddr      string
}

const (
	defaultConfigPath   = "~/.config/tracklist/config.toml"
	defaultSocketPath   = "/tmp/mpvsocket"
	defaultMPVBinary    = "mpv"
	defaultStateDir     = "~/.config/tracklist"
	defaultLogFile      = "~/.local/state/tracklist/tracklist.log"
	defaultLogLevel     = "info"
	defaultCallTimeout  = 500 * time.Millisecond
	defaultProbeTimeout = 250 * time.Millisecond
	defaultPollInterval = 2 * time.Second
)

var defaultDiscoverPatterns = []string{
	"/tmp/mpvsocket*",
	"/tmp/mpv*.sock",
	"$XDG_RUNTIME_DIR/mpv*.sock",
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		SocketPath:       defaultSocketPath,
		MPVBinary:        defaultMPVBinary,
		CallTimeout:      defaultCallTimeout,
		ProbeTimeout:     defaultProbeTimeout,
		PollInterval:     defaultPollInterval,
		StateDir:         mustExpand(defaultStateDir),
		LogFile:          mustExpand(defaultLogFile),
		LogLevel:         defaultLogLevel,
		DiscoverPatterns: expandPatterns(defaultDiscoverPatterns),
	}
}

// Load locates and parses the tracklist config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		SocketPath       string   `toml:"socket_path"`
		MPVBinary        string   `toml:"mpv_binary"`
		MPVArgs          []string `toml:"mpv_args"`
		CallTimeout      string   `toml:"call_timeout"`
		ProbeTimeout     string   `toml:"probe_timeout"`
		PollInterval     string   `toml:"poll_interval"`
		StateDir         string   `toml:"state_dir"`
		LogFile          string   `toml:"log_file"`
		LogLevel         string   `toml:"log_level"`
		DiscoverPatterns []string `toml:"discover_patterns"`
		Notify           bool     `toml:"notify"`
		MetricsAddr      string   `toml:"metrics_addr"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.SocketPath); v != "" {
		cfg.SocketPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.MPVBinary); v != "" {
		cfg.MPVBinary = v
	}
	cfg.MPVArgs = raw.MPVArgs
	if cfg.CallTimeout, err = parseDuration("call_timeout", raw.CallTimeout, defaultCallTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ProbeTimeout, err = parseDuration("probe_timeout", raw.ProbeTimeout, defaultProbeTimeout); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = parseDuration("poll_interval", raw.PollInterval, defaultPollInterval); err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(raw.StateDir); v != "" {
		cfg.StateDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if len(raw.DiscoverPatterns) > 0 {
		cfg.DiscoverPatterns = expandPatterns(raw.DiscoverPatterns)
	}
	cfg.Notify = raw.Notify
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)

	return cfg, nil
}

// FavoritesPath returns the favorites file inside the state directory.
func (c Config) FavoritesPath() string {
	return filepath.Join(c.stateDir(), "favorites.toml")
}

// SessionPath returns the session file inside the state directory.
func (c Config) SessionPath() string {
	return filepath.Join(c.stateDir(), "session.toml")
}

// LastPlaylistPath returns the last-playlist pointer file inside the state directory.
func (c Config) LastPlaylistPath() string {
	return filepath.Join(c.stateDir(), "last_playlist.toml")
}

func (c Config) stateDir() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return mustExpand(defaultStateDir)
	}
	return c.StateDir
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return fallback, nil
	}
	return d, nil
}

func expandPatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		// An unset variable would otherwise turn the pattern into a root glob.
		if strings.Contains(p, "$XDG_RUNTIME_DIR") && os.Getenv("XDG_RUNTIME_DIR") == "" {
			continue
		}
		p = strings.TrimSpace(os.ExpandEnv(p))
		if p == "" {
			continue
		}
		out = append(out, mustExpand(p))
	}
	return out
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
