package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/tracklist/internal/mpv"
	"github.com/five82/tracklist/internal/mpv/mpvtest"
)

func TestStartHeartbeat_ReportsOnlyChanges(t *testing.T) {
	eng := mpvtest.NewEngine("/m/a", "/m/b")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan NowPlaying, 8)
	StartHeartbeat(ctx, eng, 10*time.Millisecond, func(np NowPlaying) bool {
		changes <- np
		return true
	})

	first := receive(t, changes)
	if first.Path != "" {
		t.Fatalf("first observation = %+v", first)
	}

	select {
	case np := <-changes:
		t.Fatalf("unchanged state reported: %+v", np)
	case <-time.After(60 * time.Millisecond):
	}

	mpv.Do(ctx, eng, mpv.SetProperty(mpv.PropPlaylistPos, 1))
	next := receive(t, changes)
	if next.Path != "/m/b" || next.Title != "/m/b" {
		t.Fatalf("change = %+v", next)
	}

	for _, c := range eng.Calls() {
		if len(c) > 1 && c[1] == mpv.PropPlaylist {
			t.Fatalf("heartbeat read the full playlist")
		}
	}
}

func TestStartHeartbeat_RetriesUntilAccepted(t *testing.T) {
	eng := mpvtest.NewEngine("/m/a")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	changes := make(chan NowPlaying, 16)
	StartHeartbeat(ctx, eng, 10*time.Millisecond, func(np NowPlaying) bool {
		changes <- np
		return calls.Add(1) >= 3
	})

	for range 3 {
		receive(t, changes)
	}
	select {
	case np := <-changes:
		t.Fatalf("accepted state offered again: %+v", np)
	case <-time.After(60 * time.Millisecond):
	}
}

func receive(t *testing.T, ch <-chan NowPlaying) NowPlaying {
	t.Helper()
	select {
	case np := <-ch:
		return np
	case <-time.After(2 * time.Second):
		t.Fatalf("no heartbeat change")
		return NowPlaying{}
	}
}
