package state

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/five82/tracklist/internal/playlist"
	"github.com/five82/tracklist/internal/prefs"
)

// Group sentinels.
const (
	AllGroup       = "All"
	FavoritesGroup = "★ Favorites"
	Uncategorized  = playlist.Uncategorized
)

// Sort modes.
const (
	SortAscending  = prefs.SortAscending
	SortDescending = prefs.SortDescending
)

// Track is one playlist entry as seen at snapshot time.
type Track struct {
	Name        string
	Path        string
	RemoteIndex int
	Group       string
}

// Snapshot is the engine's playlist at one point in time. It is replaced
// wholesale, never patched.
type Snapshot struct {
	Tracks      []Track
	CurrentPath string
	Paused      bool
	GroupTally  map[string]int
	Title       string
	FetchedAt   time.Time
	Generation  uint64
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Tracks = slices.Clone(s.Tracks)
	if s.GroupTally != nil {
		out.GroupTally = maps.Clone(s.GroupTally)
	}
	return out
}

// TrackByPath finds the track whose file path equals path.
func (s Snapshot) TrackByPath(path string) (Track, bool) {
	if path == "" {
		return Track{}, false
	}
	for _, t := range s.Tracks {
		if t.Path == path {
			return t, true
		}
	}
	return Track{}, false
}

// Policy is the ordering input a reconciliation pass reads. Workers receive a
// copy so they never touch the store while a pass runs.
type Policy struct {
	Favorites   map[string]bool
	ActiveGroup string
	SortMode    int
	Groups      playlist.GroupCache
	Generation  uint64
}

// IsFavorite reports whether name is a favorite.
func (p Policy) IsFavorite(name string) bool {
	return p.Favorites[name]
}

// InGroup reports whether t belongs to the active group.
func (p Policy) InGroup(t Track) bool {
	switch p.ActiveGroup {
	case AllGroup, "":
		return true
	case FavoritesGroup:
		return p.Favorites[t.Name]
	default:
		return t.Group == p.ActiveGroup
	}
}

// Descending reports whether the sort mode reverses the order.
func (p Policy) Descending() bool {
	return p.SortMode == SortDescending
}

// NormalizeGroup maps blank input to the All group.
func NormalizeGroup(name string) string {
	if strings.TrimSpace(name) == "" {
		return AllGroup
	}
	return name
}
