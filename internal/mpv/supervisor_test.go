package mpv

import (
	"context"
	"errors"
	"os"
	"slices"
	"sync"
	"testing"
	"time"
)

type launchRecorder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
	onRun func()
}

func (l *launchRecorder) start(name string, args ...string) error {
	l.mu.Lock()
	l.calls = append(l.calls, append([]string{name}, args...))
	l.mu.Unlock()
	if l.onRun != nil {
		l.onRun()
	}
	return l.err
}

func (l *launchRecorder) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func TestSupervisor_AliveEngineIsLeftAlone(t *testing.T) {
	path := shortSocketPath(t, "mpv.sock")
	startFakeMPV(t, path, success("false"))
	rec := &launchRecorder{}
	s := NewSupervisor(SupervisorOptions{SocketPath: path, Start: rec.start})

	if !s.Alive(context.Background()) {
		t.Fatalf("Alive = false for a serving socket")
	}
	s.EnsureRunning(context.Background())
	if rec.count() != 0 {
		t.Fatalf("launches = %d, want 0", rec.count())
	}
}

func TestSupervisor_LaunchesAndRemovesStaleSocket(t *testing.T) {
	path := shortSocketPath(t, "mpv.sock")
	if err := os.WriteFile(path, []byte("stale"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	rec := &launchRecorder{}
	rec.onRun = func() {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("stale socket still present at launch: %v", err)
		}
		startFakeMPV(t, path, success("true"))
	}
	s := NewSupervisor(SupervisorOptions{
		SocketPath: path,
		Binary:     "/usr/bin/mpv",
		Args:       []string{"--no-video"},
		Start:      rec.start,
	})

	s.EnsureRunning(context.Background())

	if rec.count() != 1 {
		t.Fatalf("launches = %d, want 1", rec.count())
	}
	want := []string{"/usr/bin/mpv", "--idle", "--input-ipc-server=" + path, "--no-video"}
	if !slices.Equal(rec.calls[0], want) {
		t.Fatalf("launch = %v, want %v", rec.calls[0], want)
	}
	if !s.Alive(context.Background()) {
		t.Fatalf("Alive = false after launch")
	}
}

func TestSupervisor_LaunchesAreRateLimited(t *testing.T) {
	path := shortSocketPath(t, "mpv.sock")
	rec := &launchRecorder{err: errors.New("exec: not found")}
	s := NewSupervisor(SupervisorOptions{SocketPath: path, Start: rec.start, LaunchEvery: time.Hour})

	for range 5 {
		s.EnsureRunning(context.Background())
	}
	if rec.count() != 1 {
		t.Fatalf("launches = %d, want 1", rec.count())
	}
}

func TestSupervisor_WaitIsBoundedWhenSocketNeverAppears(t *testing.T) {
	path := shortSocketPath(t, "mpv.sock")
	rec := &launchRecorder{}
	s := NewSupervisor(SupervisorOptions{SocketPath: path, Start: rec.start})

	start := time.Now()
	s.EnsureRunning(context.Background())
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("EnsureRunning took %v", elapsed)
	}
	if rec.count() != 1 {
		t.Fatalf("launches = %d, want 1", rec.count())
	}
}

func TestClientWithSupervisor_AbsentEngine(t *testing.T) {
	path := shortSocketPath(t, "mpv.sock")
	rec := &launchRecorder{}
	s := NewSupervisor(SupervisorOptions{SocketPath: path, Start: rec.start})
	c := NewClient(ClientOptions{SocketPath: path, Timeout: 50 * time.Millisecond, Restarter: s})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, ok := c.Call(ctx, GetProperty(PropPath)); ok {
		t.Fatalf("Call ok=true with no engine")
	}
	if rec.count() != 1 {
		t.Fatalf("launches = %d, want 1", rec.count())
	}
}
