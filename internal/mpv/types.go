package mpv

import (
	"encoding/json"
)

// Property names read and written by tracklist.
const (
	PropPlaylist    = "playlist"
	PropPath        = "path"
	PropPause       = "pause"
	PropMediaTitle  = "media-title"
	PropVolume      = "volume"
	PropPlaylistPos = "playlist-pos"
	PropIdleActive  = "idle-active"
)

// Command is an mpv IPC command: a verb followed by its ordered arguments.
type Command []any

// Verb returns the command name, used for logging and metrics labels.
func (c Command) Verb() string {
	if len(c) == 0 {
		return ""
	}
	if s, ok := c[0].(string); ok {
		return s
	}
	return "unknown"
}

// GetProperty builds a get_property command.
func GetProperty(name string) Command { return Command{"get_property", name} }

// SetProperty builds a set_property command.
func SetProperty(name string, value any) Command { return Command{"set_property", name, value} }

// Move builds a playlist-move command. mpv moves the entry at from so that it ends
// up at index to when to < from.
func Move(from, to int) Command { return Command{"playlist-move", from, to} }

// Clear builds a playlist-clear command.
func Clear() Command { return Command{"playlist-clear"} }

// Next builds a playlist-next command.
func Next() Command { return Command{"playlist-next"} }

// Prev builds a playlist-prev command.
func Prev() Command { return Command{"playlist-prev"} }

// Cycle builds a cycle command toggling a boolean property.
func Cycle(name string) Command { return Command{"cycle", name} }

// LoadList builds a loadlist command in replace mode.
func LoadList(path string) Command { return Command{"loadlist", path, "replace"} }

type request struct {
	Command   Command `json:"command"`
	RequestID int64   `json:"request_id"`
}

// Response mirrors one reply line from mpv. Event lines carry Event instead of Error.
type Response struct {
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID *int64          `json:"request_id,omitempty"`
	Event     string          `json:"event,omitempty"`
}

// OK reports whether mpv accepted the command.
func (r Response) OK() bool {
	return r.Error == "success"
}

// PlaylistEntry mirrors one element of the playlist property.
type PlaylistEntry struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Current  bool   `json:"current"`
	Playing  bool   `json:"playing"`
	ID       int64  `json:"id"`
}
