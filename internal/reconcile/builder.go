package reconcile

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/five82/tracklist/internal/mpv"
	"github.com/five82/tracklist/internal/playlist"
	"github.com/five82/tracklist/internal/state"
)

// ErrFetchFailed is returned when the engine playlist could not be read.
var ErrFetchFailed = errors.New("fetch playlist from mpv")

// Builder reads the engine playlist and joins it with cached group labels.
type Builder struct {
	caller mpv.Caller
}

// NewBuilder returns a Builder issuing calls through c.
func NewBuilder(c mpv.Caller) *Builder {
	return &Builder{caller: c}
}

// Fetch builds a Snapshot. Only a missing playlist fails the fetch; the
// current path, pause flag and title degrade to zero values.
func (b *Builder) Fetch(ctx context.Context, groups playlist.GroupCache) (state.Snapshot, error) {
	entries, ok := mpv.GetPlaylist(ctx, b.caller)
	if !ok {
		return state.Snapshot{}, ErrFetchFailed
	}
	current, _ := mpv.GetString(ctx, b.caller, mpv.PropPath)
	paused, _ := mpv.GetBool(ctx, b.caller, mpv.PropPause)
	title, _ := mpv.GetString(ctx, b.caller, mpv.PropMediaTitle)

	snap := state.Snapshot{
		Tracks:      make([]state.Track, len(entries)),
		CurrentPath: current,
		Paused:      paused,
		GroupTally:  make(map[string]int),
		Title:       title,
		FetchedAt:   time.Now(),
	}
	for i, entry := range entries {
		name := DisplayName(entry)
		group := groups.Group(name)
		snap.Tracks[i] = state.Track{
			Name:        name,
			Path:        entry.Filename,
			RemoteIndex: i,
			Group:       group,
		}
		snap.GroupTally[group]++
	}
	return snap, nil
}

// DisplayName is the entry title, or the file's base name when mpv has none.
func DisplayName(entry mpv.PlaylistEntry) string {
	if entry.Title != "" {
		return entry.Title
	}
	return filepath.Base(entry.Filename)
}
