package app

import (
	"context"
	"time"

	"github.com/five82/tracklist/internal/mpv"
)

const defaultPollInterval = 2 * time.Second

// NowPlaying holds the cheap properties the heartbeat watches.
type NowPlaying struct {
	Path   string
	Paused bool
	Title  string
}

// StartHeartbeat launches a background goroutine that reads path, pause and
// media-title at a fixed cadence and calls onChange when any of them differs
// from the last accepted state. The first tick always counts as a change.
// onChange reports whether it acted on the change; until it does, the same
// change is offered again on every tick. It returns immediately.
func StartHeartbeat(ctx context.Context, caller mpv.Caller, interval time.Duration, onChange func(NowPlaying) bool) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last NowPlaying
		first := true
		for {
			now := observe(ctx, caller)
			if (first || now != last) && onChange(now) {
				first = false
				last = now
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func observe(ctx context.Context, caller mpv.Caller) NowPlaying {
	var np NowPlaying
	np.Path, _ = mpv.GetString(ctx, caller, mpv.PropPath)
	np.Paused, _ = mpv.GetBool(ctx, caller, mpv.PropPause)
	np.Title, _ = mpv.GetString(ctx, caller, mpv.PropMediaTitle)
	return np
}
