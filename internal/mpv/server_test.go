package mpv

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// fakeMPV serves the JSON IPC protocol on a unix socket. For every request line
// it writes the lines returned by reply.
type fakeMPV struct {
	path     string
	listener net.Listener
	reply    func(id int64, cmd []any) []string

	mu       sync.Mutex
	requests [][]any
	wg       sync.WaitGroup
}

// shortSocketPath keeps unix socket paths below the sun_path limit, which long
// test temp directories can exceed.
func shortSocketPath(t *testing.T, name string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "tl")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, name)
}

func startFakeMPV(t *testing.T, path string, reply func(id int64, cmd []any) []string) *fakeMPV {
	t.Helper()
	l, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen %s: %v", path, err)
	}
	f := &fakeMPV{path: path, listener: l, reply: reply}
	f.wg.Add(1)
	go f.serve()
	t.Cleanup(f.Close)
	return f
}

func (f *fakeMPV) serve() {
	defer f.wg.Done()
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		f.wg.Add(1)
		go f.handle(conn)
	}
}

func (f *fakeMPV) handle(conn net.Conn) {
	defer f.wg.Done()
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var req struct {
			Command   []any `json:"command"`
			RequestID int64 `json:"request_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req.Command)
		f.mu.Unlock()
		for _, line := range f.reply(req.RequestID, req.Command) {
			if _, err := conn.Write([]byte(line + "\n")); err != nil {
				return
			}
		}
	}
}

func (f *fakeMPV) Requests() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]any(nil), f.requests...)
}

func (f *fakeMPV) Close() {
	_ = f.listener.Close()
	f.wg.Wait()
}

// success replies with data for every request.
func success(data string) func(int64, []any) []string {
	return func(id int64, _ []any) []string {
		return []string{replyLine(id, data, "success")}
	}
}

func replyLine(id int64, data, errText string) string {
	if data == "" {
		data = "null"
	}
	b, _ := json.Marshal(map[string]any{
		"data":       json.RawMessage(data),
		"error":      errText,
		"request_id": id,
	})
	return string(b)
}
