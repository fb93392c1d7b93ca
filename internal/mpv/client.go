package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/tracklist/internal/logging"
	"github.com/five82/tracklist/internal/metrics"
)

// Caller issues one command and reports its response. ok is false when no
// response could be obtained; it is the only failure signal.
type Caller interface {
	Call(ctx context.Context, cmd Command) (Response, bool)
}

// Restarter brings the engine back when the socket stops answering.
type Restarter interface {
	EnsureRunning(ctx context.Context)
}

// Ensure Client implements Caller at compile time.
var _ Caller = (*Client)(nil)

// ErrNoResponse is returned by a round trip that read no usable reply line.
var ErrNoResponse = errors.New("no response from mpv")

const (
	defaultCallTimeout = 500 * time.Millisecond
	maxLineBytes       = 16 * 1024 * 1024
)

// Client talks to mpv over its JSON IPC socket. Every call opens its own
// connection, so a Client is safe for concurrent use.
type Client struct {
	socketPath string
	timeout    time.Duration
	restarter  Restarter
	logger     *log.Logger
	nextID     atomic.Int64
}

// ClientOptions configure a Client.
type ClientOptions struct {
	SocketPath string
	Timeout    time.Duration
	// Restarter is asked once per failed call to revive the engine. Nil disables retries.
	Restarter Restarter
	Logger    *log.Logger
}

// NewClient builds a Client for the given socket.
func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Client{
		socketPath: opts.SocketPath,
		timeout:    timeout,
		restarter:  opts.Restarter,
		logger:     logging.OrDiscard(opts.Logger),
	}
}

// SocketPath returns the socket this client dials.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// Call sends cmd and waits for the correlated reply. On any transport failure
// the restarter gets exactly one chance to revive mpv, followed by one retry.
func (c *Client) Call(ctx context.Context, cmd Command) (Response, bool) {
	verb := cmd.Verb()
	resp, err := c.roundTrip(ctx, cmd)
	if err == nil {
		metrics.IPCCallsTotal.WithLabelValues(verb, "ok").Inc()
		return resp, true
	}
	c.logger.Debug("ipc call failed", "verb", verb, "err", err)

	if c.restarter == nil || ctx.Err() != nil {
		metrics.IPCCallsTotal.WithLabelValues(verb, "failed").Inc()
		return Response{}, false
	}

	c.restarter.EnsureRunning(ctx)
	resp, err = c.roundTrip(ctx, cmd)
	if err != nil {
		c.logger.Debug("ipc retry failed", "verb", verb, "err", err)
		metrics.IPCCallsTotal.WithLabelValues(verb, "failed").Inc()
		return Response{}, false
	}
	metrics.IPCCallsTotal.WithLabelValues(verb, "retried").Inc()
	return resp, true
}

func (c *Client) roundTrip(ctx context.Context, cmd Command) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return Response{}, fmt.Errorf("dial %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	id := c.nextID.Add(1)
	payload, err := json.Marshal(request{Command: cmd, RequestID: id})
	if err != nil {
		return Response{}, fmt.Errorf("encode command: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := conn.Write(payload); err != nil {
		return Response{}, fmt.Errorf("write command: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if resp, ok := matchResponse(scanner.Bytes(), id); ok {
			return resp, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return Response{}, ErrNoResponse
}

// matchResponse decodes one line and reports whether it is the reply to id.
// Events, malformed lines and replies to other requests are skipped.
func matchResponse(line []byte, id int64) (Response, bool) {
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, false
	}
	if resp.Event != "" || resp.Error == "" {
		return Response{}, false
	}
	if resp.RequestID != nil && *resp.RequestID != id {
		return Response{}, false
	}
	return resp, true
}

// Get fetches a property and decodes it into dest. It reports false when there
// was no response, mpv refused the request, or the value did not decode.
func Get(ctx context.Context, c Caller, name string, dest any) bool {
	resp, ok := c.Call(ctx, GetProperty(name))
	if !ok || !resp.OK() || len(resp.Data) == 0 {
		return false
	}
	return json.Unmarshal(resp.Data, dest) == nil
}

// GetString fetches a string property.
func GetString(ctx context.Context, c Caller, name string) (string, bool) {
	var v string
	ok := Get(ctx, c, name, &v)
	return v, ok
}

// GetBool fetches a boolean property.
func GetBool(ctx context.Context, c Caller, name string) (bool, bool) {
	var v bool
	ok := Get(ctx, c, name, &v)
	return v, ok
}

// GetFloat fetches a numeric property.
func GetFloat(ctx context.Context, c Caller, name string) (float64, bool) {
	var v float64
	ok := Get(ctx, c, name, &v)
	return v, ok
}

// GetPlaylist fetches the playlist property.
func GetPlaylist(ctx context.Context, c Caller) ([]PlaylistEntry, bool) {
	var entries []PlaylistEntry
	ok := Get(ctx, c, PropPlaylist, &entries)
	return entries, ok
}

// Do sends a command whose reply carries no data and reports whether mpv accepted it.
func Do(ctx context.Context, c Caller, cmd Command) bool {
	resp, ok := c.Call(ctx, cmd)
	return ok && resp.OK()
}
