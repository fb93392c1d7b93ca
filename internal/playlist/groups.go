// Package playlist reads group metadata from M3U playlist files and watches
// those files for edits.
package playlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Uncategorized is the group of tracks without a group-title attribute.
const Uncategorized = "Uncategorized"

// ErrNotFound is returned when the playlist file does not exist.
var ErrNotFound = errors.New("playlist file not found")

var groupTitleRe = regexp.MustCompile(`group-title="([^"]+)"`)

// GroupCache maps a track display name to its group.
type GroupCache map[string]string

// Group returns the group for name, or Uncategorized.
func (g GroupCache) Group(name string) string {
	if grp, ok := g[name]; ok && grp != "" {
		return grp
	}
	return Uncategorized
}

// Clone returns an independent copy.
func (g GroupCache) Clone() GroupCache {
	out := make(GroupCache, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}

// Parse scans #EXTINF lines for a group-title attribute and the trailing
// display name. Lines without a name are skipped; later duplicates win.
func Parse(r io.Reader) (GroupCache, error) {
	groups := GroupCache{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasPrefix(line, "#EXTINF") {
			continue
		}
		name := displayName(line)
		if name == "" {
			continue
		}
		group := Uncategorized
		if m := groupTitleRe.FindStringSubmatch(line); m != nil {
			group = m[1]
		}
		groups[name] = group
	}
	if err := scanner.Err(); err != nil {
		return groups, fmt.Errorf("scan playlist: %w", err)
	}
	return groups, nil
}

// displayName returns the text after the first comma that is not inside a
// quoted attribute value. Unbalanced quotes fall back to the first comma.
func displayName(line string) string {
	inQuotes := false
	for i, r := range line {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				return strings.TrimSpace(line[i+1:])
			}
		}
	}
	if !inQuotes {
		return ""
	}
	if _, name, ok := strings.Cut(line, ","); ok {
		return strings.TrimSpace(name)
	}
	return ""
}

// LoadFile parses the playlist at path. A missing file returns ErrNotFound; any
// other failure returns an empty cache together with the error.
func LoadFile(path string) (GroupCache, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return GroupCache{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return GroupCache{}, fmt.Errorf("open playlist: %w", err)
	}
	defer func() { _ = f.Close() }()

	groups, err := Parse(f)
	if err != nil {
		return GroupCache{}, err
	}
	return groups, nil
}
