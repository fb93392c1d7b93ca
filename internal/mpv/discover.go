package mpv

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/samber/lo"
)

// Endpoint describes one discovered mpv socket.
type Endpoint struct {
	Path  string
	Alive bool
	Title string
	PID   int32
}

// Discover globs patterns for mpv sockets and probes each one independently for
// liveness and its current media title. Results are sorted by path.
func Discover(ctx context.Context, patterns []string, timeout time.Duration) []Endpoint {
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		paths = append(paths, matches...)
	}
	paths = lo.Uniq(paths)
	slices.Sort(paths)

	endpoints := make([]Endpoint, 0, len(paths))
	for _, path := range paths {
		ep := Endpoint{Path: path}
		if probe(ctx, path, timeout) {
			ep.Alive = true
			c := NewClient(ClientOptions{SocketPath: path, Timeout: timeout})
			ep.Title, _ = GetString(ctx, c, PropMediaTitle)
		}
		if pid, ok := EngineProcess(ctx, path); ok {
			ep.PID = pid
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints
}
