package mpv

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/time/rate"

	"github.com/five82/tracklist/internal/logging"
	"github.com/five82/tracklist/internal/metrics"
)

const (
	defaultProbeTimeout = 250 * time.Millisecond
	defaultLaunchEvery  = 3 * time.Second
	socketWaitTimeout   = 1500 * time.Millisecond
	socketWaitStep      = 50 * time.Millisecond
)

// Ensure Supervisor implements Restarter at compile time.
var _ Restarter = (*Supervisor)(nil)

// StartFunc launches a process without waiting for it to exit.
type StartFunc func(name string, args ...string) error

// Supervisor keeps an mpv instance serving the configured socket.
type Supervisor struct {
	socketPath   string
	binary       string
	args         []string
	probeTimeout time.Duration
	limiter      *rate.Limiter
	start        StartFunc
	logger       *log.Logger

	mu sync.Mutex
}

// SupervisorOptions configure a Supervisor.
type SupervisorOptions struct {
	SocketPath   string
	Binary       string
	Args         []string
	ProbeTimeout time.Duration
	// LaunchEvery bounds how often mpv may be launched. Zero uses 3s.
	LaunchEvery time.Duration
	// Start overrides process creation; tests use it to observe launches.
	Start  StartFunc
	Logger *log.Logger
}

// NewSupervisor builds a Supervisor.
func NewSupervisor(opts SupervisorOptions) *Supervisor {
	probe := opts.ProbeTimeout
	if probe <= 0 {
		probe = defaultProbeTimeout
	}
	every := opts.LaunchEvery
	if every <= 0 {
		every = defaultLaunchEvery
	}
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "mpv"
	}
	start := opts.Start
	if start == nil {
		start = startDetached
	}
	return &Supervisor{
		socketPath:   opts.SocketPath,
		binary:       binary,
		args:         opts.Args,
		probeTimeout: probe,
		limiter:      rate.NewLimiter(rate.Every(every), 1),
		start:        start,
		logger:       logging.OrDiscard(opts.Logger),
	}
}

// Alive reports whether the socket exists and mpv answers a trivial property read.
func (s *Supervisor) Alive(ctx context.Context) bool {
	return probe(ctx, s.socketPath, s.probeTimeout)
}

// EnsureRunning launches mpv on the socket when nothing answers there. Errors are
// logged and swallowed; callers only observe whether later calls succeed.
func (s *Supervisor) EnsureRunning(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Alive(ctx) {
		return
	}
	if !s.limiter.Allow() {
		s.logger.Debug("mpv launch suppressed by rate limit", "socket", s.socketPath)
		return
	}

	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("remove stale socket", "socket", s.socketPath, "err", err)
	}

	args := append([]string{"--idle", "--input-ipc-server=" + s.socketPath}, s.args...)
	if err := s.start(s.binary, args...); err != nil {
		s.logger.Warn("launch mpv", "binary", s.binary, "err", err)
		return
	}
	metrics.SupervisorLaunchesTotal.Inc()
	s.logger.Info("launched mpv", "binary", s.binary, "socket", s.socketPath)

	s.waitForSocket(ctx)
}

func (s *Supervisor) waitForSocket(ctx context.Context) {
	deadline := time.NewTimer(socketWaitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(socketWaitStep)
	defer ticker.Stop()
	for {
		if _, err := os.Stat(s.socketPath); err == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			s.logger.Debug("socket did not appear after launch", "socket", s.socketPath)
			return
		case <-ticker.C:
		}
	}
}

func probe(ctx context.Context, socketPath string, timeout time.Duration) bool {
	if _, err := os.Stat(socketPath); err != nil {
		return false
	}
	c := NewClient(ClientOptions{SocketPath: socketPath, Timeout: timeout})
	_, ok := c.Call(ctx, GetProperty(PropIdleActive))
	return ok
}

// EngineProcess finds the process whose command line serves socketPath.
func EngineProcess(ctx context.Context, socketPath string) (int32, bool) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, false
	}
	needle := "--input-ipc-server=" + socketPath
	for _, p := range procs {
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.Contains(cmdline, needle) {
			return p.Pid, true
		}
	}
	return 0, false
}
