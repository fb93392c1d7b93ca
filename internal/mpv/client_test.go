package mpv

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

type countingRestarter struct {
	calls atomic.Int32
	fn    func()
}

func (r *countingRestarter) EnsureRunning(context.Context) {
	r.calls.Add(1)
	if r.fn != nil {
		r.fn()
	}
}

func TestClient_CallSkipsEventsAndMalformedLines(t *testing.T) {
	path := shortSocketPath(t, "mpv.sock")
	startFakeMPV(t, path, func(id int64, _ []any) []string {
		return []string{
			`{"event":"playback-restart"}`,
			`not json at all`,
			replyLine(id+100, `"wrong"`, "success"),
			replyLine(id, `"/music/a.flac"`, "success"),
		}
	})

	c := NewClient(ClientOptions{SocketPath: path, Timeout: time.Second})
	resp, ok := c.Call(context.Background(), GetProperty(PropPath))
	if !ok {
		t.Fatalf("Call returned ok=false")
	}
	if !resp.OK() {
		t.Fatalf("resp.Error = %q, want success", resp.Error)
	}
	if string(resp.Data) != `"/music/a.flac"` {
		t.Fatalf("resp.Data = %s", resp.Data)
	}
}

func TestClient_SendsCommandWithRequestID(t *testing.T) {
	path := shortSocketPath(t, "mpv.sock")
	srv := startFakeMPV(t, path, success(""))

	c := NewClient(ClientOptions{SocketPath: path, Timeout: time.Second})
	ctx := context.Background()
	if !Do(ctx, c, Move(3, 0)) {
		t.Fatalf("Do(Move) = false")
	}
	if !Do(ctx, c, LoadList("/tmp/list.m3u")) {
		t.Fatalf("Do(LoadList) = false")
	}

	reqs := srv.Requests()
	if len(reqs) != 2 {
		t.Fatalf("requests = %d, want 2", len(reqs))
	}
	if reqs[0][0] != "playlist-move" || reqs[0][1] != float64(3) || reqs[0][2] != float64(0) {
		t.Errorf("move request = %v", reqs[0])
	}
	if reqs[1][0] != "loadlist" || reqs[1][1] != "/tmp/list.m3u" || reqs[1][2] != "replace" {
		t.Errorf("loadlist request = %v", reqs[1])
	}
}

func TestClient_EngineErrorIsAResponse(t *testing.T) {
	path := shortSocketPath(t, "mpv.sock")
	startFakeMPV(t, path, func(id int64, _ []any) []string {
		return []string{replyLine(id, "", "property unavailable")}
	})

	c := NewClient(ClientOptions{SocketPath: path, Timeout: time.Second})
	resp, ok := c.Call(context.Background(), GetProperty(PropMediaTitle))
	if !ok {
		t.Fatalf("engine refusal should still be a response")
	}
	if resp.OK() {
		t.Fatalf("resp.OK() = true for %q", resp.Error)
	}
	if _, ok := GetString(context.Background(), c, PropMediaTitle); ok {
		t.Fatalf("GetString should treat a refusal as absent")
	}
}

func TestClient_AbsentEndpointRestartsExactlyOnce(t *testing.T) {
	path := shortSocketPath(t, "missing.sock")
	r := &countingRestarter{}
	c := NewClient(ClientOptions{SocketPath: path, Timeout: 100 * time.Millisecond, Restarter: r})

	if _, ok := c.Call(context.Background(), GetProperty(PropPlaylist)); ok {
		t.Fatalf("Call against absent socket returned ok=true")
	}
	if got := r.calls.Load(); got != 1 {
		t.Fatalf("EnsureRunning calls = %d, want 1", got)
	}
}

func TestClient_RetrySucceedsAfterRestart(t *testing.T) {
	path := shortSocketPath(t, "mpv.sock")
	r := &countingRestarter{}
	r.fn = func() { startFakeMPV(t, path, success("true")) }
	c := NewClient(ClientOptions{SocketPath: path, Timeout: time.Second, Restarter: r})

	v, ok := GetBool(context.Background(), c, PropPause)
	if !ok || !v {
		t.Fatalf("GetBool = %v/%v, want true/true", v, ok)
	}
	if got := r.calls.Load(); got != 1 {
		t.Fatalf("EnsureRunning calls = %d, want 1", got)
	}
}

func TestClient_TimeoutWhenEngineHangs(t *testing.T) {
	path := shortSocketPath(t, "mpv.sock")
	startFakeMPV(t, path, func(int64, []any) []string {
		return []string{`{"event":"idle"}`}
	})

	c := NewClient(ClientOptions{SocketPath: path, Timeout: 100 * time.Millisecond})
	start := time.Now()
	if _, ok := c.Call(context.Background(), GetProperty(PropPath)); ok {
		t.Fatalf("Call returned ok=true without a reply")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Call took %v, want about the 100ms timeout", elapsed)
	}
}

func TestClient_NoRetryWithoutRestarter(t *testing.T) {
	path := shortSocketPath(t, "stale.sock")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	c := NewClient(ClientOptions{SocketPath: path, Timeout: 50 * time.Millisecond})
	if _, ok := c.Call(context.Background(), GetProperty(PropPath)); ok {
		t.Fatalf("Call against a regular file returned ok=true")
	}
}

func TestGetPlaylist(t *testing.T) {
	path := shortSocketPath(t, "mpv.sock")
	startFakeMPV(t, path, success(`[{"filename":"/m/a.mp3","id":1},{"filename":"/m/b.mp3","title":"Bee","current":true,"id":2}]`))

	c := NewClient(ClientOptions{SocketPath: path, Timeout: time.Second})
	entries, ok := GetPlaylist(context.Background(), c)
	if !ok {
		t.Fatalf("GetPlaylist ok=false")
	}
	if len(entries) != 2 || entries[1].Title != "Bee" || !entries[1].Current {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestMatchResponse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"matching id", `{"error":"success","request_id":7}`, true},
		{"no id", `{"error":"success"}`, true},
		{"other id", `{"error":"success","request_id":8}`, false},
		{"event", `{"event":"pause"}`, false},
		{"missing error", `{"data":1,"request_id":7}`, false},
		{"malformed", `{"error":`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, got := matchResponse([]byte(tt.line), 7); got != tt.want {
				t.Fatalf("matchResponse(%s) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestCommandVerb(t *testing.T) {
	if got := Cycle(PropPause).Verb(); got != "cycle" {
		t.Errorf("Cycle verb = %q", got)
	}
	if got := (Command{}).Verb(); got != "" {
		t.Errorf("empty verb = %q", got)
	}
	if got := (Command{42}).Verb(); got != "unknown" {
		t.Errorf("non-string verb = %q", got)
	}
}
