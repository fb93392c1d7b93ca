// Package mpvtest provides an in-memory mpv stand-in implementing mpv.Caller.
package mpvtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/five82/tracklist/internal/mpv"
)

// Engine simulates the subset of mpv's IPC surface tracklist uses.
type Engine struct {
	mu sync.Mutex

	Entries []mpv.PlaylistEntry
	Path    string
	Paused  bool
	Title   string
	Volume  float64
	Pos     int

	// Lists maps playlist file paths to the entries loadlist should install.
	Lists map[string][]mpv.PlaylistEntry
	// Offline makes every call fail as if the socket were gone.
	Offline bool
	// FailOn makes matching calls fail as if the connection dropped.
	FailOn func(cmd mpv.Command) bool

	calls []mpv.Command
}

// NewEngine builds an engine holding files, titled by their base name.
func NewEngine(files ...string) *Engine {
	e := &Engine{Volume: 100, Pos: -1, Lists: map[string][]mpv.PlaylistEntry{}}
	for _, f := range files {
		e.Entries = append(e.Entries, mpv.PlaylistEntry{Filename: f})
	}
	return e
}

// Call implements mpv.Caller.
func (e *Engine) Call(_ context.Context, cmd mpv.Command) (mpv.Response, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, cmd)
	if e.Offline || (e.FailOn != nil && e.FailOn(cmd)) {
		return mpv.Response{}, false
	}
	data, err := e.apply(cmd)
	if err != nil {
		return mpv.Response{Error: err.Error()}, true
	}
	return mpv.Response{Error: "success", Data: data}, true
}

func (e *Engine) apply(cmd mpv.Command) (json.RawMessage, error) {
	switch cmd.Verb() {
	case "get_property":
		return e.get(argString(cmd, 1))
	case "set_property":
		return nil, e.set(argString(cmd, 1), arg(cmd, 2))
	case "playlist-move":
		from, to := argInt(cmd, 1), argInt(cmd, 2)
		if from < 0 || from >= len(e.Entries) || to < 0 || to > len(e.Entries) {
			return nil, fmt.Errorf("invalid parameter")
		}
		e.Entries = moveEntry(e.Entries, from, to)
		return nil, nil
	case "playlist-clear":
		e.Entries = nil
		return nil, nil
	case "playlist-next":
		return nil, e.setPos(e.Pos + 1)
	case "playlist-prev":
		return nil, e.setPos(e.Pos - 1)
	case "cycle":
		if argString(cmd, 1) == mpv.PropPause {
			e.Paused = !e.Paused
			return nil, nil
		}
		return nil, fmt.Errorf("property not found")
	case "loadlist":
		entries, ok := e.Lists[argString(cmd, 1)]
		if !ok {
			return nil, fmt.Errorf("loading failed")
		}
		e.Entries = append([]mpv.PlaylistEntry(nil), entries...)
		return nil, nil
	}
	return nil, fmt.Errorf("invalid parameter")
}

func (e *Engine) get(name string) (json.RawMessage, error) {
	var v any
	switch name {
	case mpv.PropPlaylist:
		entries := make([]mpv.PlaylistEntry, 0, len(e.Entries))
		entries = append(entries, e.Entries...)
		v = entries
	case mpv.PropPath:
		if e.Path == "" {
			return nil, fmt.Errorf("property unavailable")
		}
		v = e.Path
	case mpv.PropPause:
		v = e.Paused
	case mpv.PropMediaTitle:
		if e.Title == "" {
			return nil, fmt.Errorf("property unavailable")
		}
		v = e.Title
	case mpv.PropVolume:
		v = e.Volume
	case mpv.PropPlaylistPos:
		v = e.Pos
	case mpv.PropIdleActive:
		v = e.Path == ""
	default:
		return nil, fmt.Errorf("property not found")
	}
	return json.Marshal(v)
}

func (e *Engine) set(name string, value any) error {
	switch name {
	case mpv.PropPlaylistPos:
		return e.setPos(toInt(value))
	case mpv.PropPause:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("unsupported format")
		}
		e.Paused = b
	case mpv.PropVolume:
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("unsupported format")
		}
		e.Volume = f
	default:
		return fmt.Errorf("property not found")
	}
	return nil
}

func (e *Engine) setPos(pos int) error {
	if pos < 0 || pos >= len(e.Entries) {
		return fmt.Errorf("invalid parameter")
	}
	e.Pos = pos
	e.Path = e.Entries[pos].Filename
	e.Title = e.Entries[pos].Title
	if e.Title == "" {
		e.Title = e.Path
	}
	return nil
}

// moveEntry applies mpv's playlist-move semantics: the entry at from takes the
// place of the entry currently at to.
func moveEntry(entries []mpv.PlaylistEntry, from, to int) []mpv.PlaylistEntry {
	item := entries[from]
	rest := append(append([]mpv.PlaylistEntry(nil), entries[:from]...), entries[from+1:]...)
	if to > from {
		to--
	}
	out := make([]mpv.PlaylistEntry, 0, len(entries))
	out = append(out, rest[:to]...)
	out = append(out, item)
	out = append(out, rest[to:]...)
	return out
}

// Calls returns every command received so far.
func (e *Engine) Calls() []mpv.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]mpv.Command(nil), e.calls...)
}

// CallsWithVerb returns the received commands with the given verb.
func (e *Engine) CallsWithVerb(verb string) []mpv.Command {
	var out []mpv.Command
	for _, c := range e.Calls() {
		if c.Verb() == verb {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets the recorded commands.
func (e *Engine) ResetCalls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

// Filenames returns the playlist filenames in engine order.
func (e *Engine) Filenames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		out[i] = entry.Filename
	}
	return out
}

// Set runs fn with the engine locked, for tests that mutate state mid-run.
func (e *Engine) Set(fn func(e *Engine)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e)
}

func arg(cmd mpv.Command, i int) any {
	if i >= len(cmd) {
		return nil
	}
	return cmd[i]
}

func argString(cmd mpv.Command, i int) string {
	s, _ := arg(cmd, i).(string)
	return s
}

func argInt(cmd mpv.Command, i int) int {
	return toInt(arg(cmd, i))
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return -1
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
