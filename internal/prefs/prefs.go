// Package prefs reads and writes the small TOML files tracklist persists between runs:
// the favorites list, the session (window geometry, active group, resume path, sort
// mode, theme) and the last loaded playlist pointer.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Sort modes shared by the session and last-playlist files.
const (
	SortAscending  = 0
	SortDescending = 1
)

const (
	defaultTheme = "Nightfox"
	defaultGroup = "All"
	defaultX     = 100
	defaultY     = 100
	defaultW     = 320
	defaultH     = 750
)

// Session holds per-user UI state restored at startup.
type Session struct {
	X           int    `toml:"x"`
	Y           int    `toml:"y"`
	W           int    `toml:"w"`
	H           int    `toml:"h"`
	LastPath    string `toml:"last_path"`
	ActiveGroup string `toml:"active_group"`
	SortMode    int    `toml:"sort_mode"`
	Theme       string `toml:"theme"`
}

// LastPlaylist points at the playlist file loaded most recently.
type LastPlaylist struct {
	Path     string `toml:"path"`
	SortMode int    `toml:"sort_mode"`
}

type favoritesFile struct {
	Names []string `toml:"names"`
}

// DefaultSession returns the session used when no file exists.
func DefaultSession() Session {
	return Session{
		X:           defaultX,
		Y:           defaultY,
		W:           defaultW,
		H:           defaultH,
		ActiveGroup: defaultGroup,
		SortMode:    SortAscending,
		Theme:       defaultTheme,
	}
}

// LoadSession reads the session file, falling back to defaults if it is missing or invalid.
func LoadSession(path string) Session {
	session := DefaultSession()
	if err := loadTOML(path, &session); err != nil {
		return DefaultSession()
	}
	if strings.TrimSpace(session.ActiveGroup) == "" {
		session.ActiveGroup = defaultGroup
	}
	if strings.TrimSpace(session.Theme) == "" {
		session.Theme = defaultTheme
	}
	session.SortMode = normalizeSort(session.SortMode)
	return session
}

// SaveSession writes the session file, creating directories as needed.
func SaveSession(path string, s Session) error {
	return saveTOML(path, s)
}

// LoadLastPlaylist reads the last playlist pointer. A zero value means none.
func LoadLastPlaylist(path string) LastPlaylist {
	var last LastPlaylist
	if err := loadTOML(path, &last); err != nil {
		return LastPlaylist{}
	}
	last.Path = strings.TrimSpace(last.Path)
	last.SortMode = normalizeSort(last.SortMode)
	return last
}

// SaveLastPlaylist writes the last playlist pointer.
func SaveLastPlaylist(path string, last LastPlaylist) error {
	return saveTOML(path, last)
}

// LoadFavorites reads the favorites list. Missing or invalid files yield an empty list.
func LoadFavorites(path string) []string {
	var file favoritesFile
	if err := loadTOML(path, &file); err != nil {
		return nil
	}
	names := make([]string, 0, len(file.Names))
	for _, name := range file.Names {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	return names
}

// SaveFavorites writes the favorites list in sorted order so the file is stable.
func SaveFavorites(path string, names []string) error {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	return saveTOML(path, favoritesFile{Names: sorted})
}

func normalizeSort(mode int) int {
	if mode == SortDescending {
		return SortDescending
	}
	return SortAscending
}

var errNoFile = errors.New("prefs file missing")

func loadTOML(path string, dest any) error {
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}
	bytes, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errNoFile
		}
		return err
	}
	return toml.Unmarshal(bytes, dest)
}

func saveTOML(path string, v any) error {
	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	// Write to a sibling temp file so a crash never leaves a truncated file behind.
	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
