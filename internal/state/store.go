package state

import (
	"maps"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/five82/tracklist/internal/logging"
	"github.com/five82/tracklist/internal/playlist"
	"github.com/five82/tracklist/internal/prefs"
)

// Paths locates the persisted files.
type Paths struct {
	Favorites    string
	Session      string
	LastPlaylist string
}

// Store owns the local state: favorites, the group cache, the session, the
// last playlist pointer, the resume flag and the authoritative snapshot. One
// mutex guards all of it together with file I/O. Persistence is best effort:
// failures are logged and never returned.
type Store struct {
	mu     sync.Mutex
	paths  Paths
	logger *log.Logger

	favorites  map[string]bool
	groups     playlist.GroupCache
	session    prefs.Session
	last       prefs.LastPlaylist
	snapshot   Snapshot
	generation uint64
	resumed    bool
}

// NewStore builds a store with default session values. Call Load to read the
// persisted files.
func NewStore(paths Paths, logger *log.Logger) *Store {
	return &Store{
		paths:     paths,
		logger:    logging.OrDiscard(logger),
		favorites: map[string]bool{},
		groups:    playlist.GroupCache{},
		session:   prefs.DefaultSession(),
	}
}

// Load reads favorites, session and last playlist pointer. Missing or malformed
// files leave defaults in place.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.favorites = map[string]bool{}
	for _, name := range prefs.LoadFavorites(s.paths.Favorites) {
		s.favorites[name] = true
	}
	s.session = prefs.LoadSession(s.paths.Session)
	s.session.ActiveGroup = NormalizeGroup(s.session.ActiveGroup)
	s.last = prefs.LoadLastPlaylist(s.paths.LastPlaylist)
	if s.last.Path != "" {
		s.session.SortMode = s.last.SortMode
	}
	s.generation++
}

// Save writes favorites and the session.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveFavoritesLocked()
	s.saveSessionLocked()
}

// ToggleFavorite flips name's membership, persists the set and reports whether
// name is now a favorite.
func (s *Store) ToggleFavorite(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := !s.favorites[name]
	if now {
		s.favorites[name] = true
	} else {
		delete(s.favorites, name)
	}
	s.generation++
	s.saveFavoritesLocked()
	return now
}

// SetActiveGroup switches the active group and persists the session.
func (s *Store) SetActiveGroup(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.ActiveGroup = NormalizeGroup(name)
	s.generation++
	s.saveSessionLocked()
}

// SetSortMode sets the sort mode and persists it with the session and the last
// playlist pointer.
func (s *Store) SetSortMode(mode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSortModeLocked(mode)
}

// ToggleSort flips between ascending and descending and returns the new mode.
func (s *Store) ToggleSort() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	mode := SortDescending
	if s.session.SortMode == SortDescending {
		mode = SortAscending
	}
	s.setSortModeLocked(mode)
	return mode
}

func (s *Store) setSortModeLocked(mode int) {
	if mode != SortDescending {
		mode = SortAscending
	}
	s.session.SortMode = mode
	s.generation++
	s.saveSessionLocked()
	if s.last.Path != "" {
		s.last.SortMode = mode
		s.saveLastLocked()
	}
}

// ReplaceGroups swaps in a freshly parsed group cache.
func (s *Store) ReplaceGroups(groups playlist.GroupCache) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if groups == nil {
		groups = playlist.GroupCache{}
	}
	s.groups = groups.Clone()
	s.generation++
}

// SetLastPlaylist records path as the most recently loaded playlist.
func (s *Store) SetLastPlaylist(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = prefs.LastPlaylist{Path: path, SortMode: s.session.SortMode}
	s.saveLastLocked()
}

// LastPlaylist returns the last playlist pointer.
func (s *Store) LastPlaylist() prefs.LastPlaylist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// UpdateSession applies fn to the session and persists it.
func (s *Store) UpdateSession(fn func(*prefs.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.session)
	s.session.ActiveGroup = NormalizeGroup(s.session.ActiveGroup)
	s.saveSessionLocked()
}

// Session returns a copy of the session.
func (s *Store) Session() prefs.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// ReplaceSnapshot installs snap as the authoritative snapshot.
func (s *Store) ReplaceSnapshot(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap.Clone()
}

// Snapshot returns a copy of the authoritative snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// Policy returns a copy of everything a reconciliation pass needs.
func (s *Store) Policy() Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Policy{
		Favorites:   maps.Clone(s.favorites),
		ActiveGroup: s.session.ActiveGroup,
		SortMode:    s.session.SortMode,
		Groups:      s.groups.Clone(),
		Generation:  s.generation,
	}
}

// Generation returns the current policy generation. It changes whenever an
// input to the target order changes.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Favorites returns a copy of the favorite set.
func (s *Store) Favorites() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.favorites)
}

// FavoriteNames returns the favorites sorted by name.
func (s *Store) FavoriteNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.favorites))
}

// TakeResume returns the track matching the session's resume path if resume has
// not happened yet in this process and snap contains it. A returned track is
// marked honored; later calls report false.
func (s *Store) TakeResume(snap Snapshot) (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resumed {
		return Track{}, false
	}
	t, ok := snap.TrackByPath(s.session.LastPath)
	if !ok {
		return Track{}, false
	}
	s.resumed = true
	return t, true
}

func (s *Store) saveFavoritesLocked() {
	names := slices.Sorted(maps.Keys(s.favorites))
	if err := prefs.SaveFavorites(s.paths.Favorites, names); err != nil {
		s.logger.Warn("save favorites", "path", s.paths.Favorites, "err", err)
	}
}

func (s *Store) saveSessionLocked() {
	if err := prefs.SaveSession(s.paths.Session, s.session); err != nil {
		s.logger.Warn("save session", "path", s.paths.Session, "err", err)
	}
}

func (s *Store) saveLastLocked() {
	if err := prefs.SaveLastPlaylist(s.paths.LastPlaylist, s.last); err != nil {
		s.logger.Warn("save last playlist", "path", s.paths.LastPlaylist, "err", err)
	}
}
