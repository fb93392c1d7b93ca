// Package view projects a snapshot into the rows and group menu the UI renders.
package view

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/five82/tracklist/internal/state"
)

// Row is one visible track.
type Row struct {
	Track    state.Track
	Favorite bool
	Playing  bool
}

// Group is one entry of the group menu.
type Group struct {
	Name   string
	Count  int
	Active bool
}

// Project filters snap by group and query in snapshot order. The favorites
// group keeps favorites only, any other group except All keeps exact group
// matches, and a non-empty query keeps names containing it case-insensitively.
func Project(snap state.Snapshot, favorites map[string]bool, group, query string) []Row {
	q := strings.ToLower(strings.TrimSpace(query))
	group = state.NormalizeGroup(group)

	visible := lo.Filter(snap.Tracks, func(t state.Track, _ int) bool {
		switch group {
		case state.AllGroup:
		case state.FavoritesGroup:
			if !favorites[t.Name] {
				return false
			}
		default:
			if t.Group != group {
				return false
			}
		}
		return q == "" || strings.Contains(strings.ToLower(t.Name), q)
	})

	return lo.Map(visible, func(t state.Track, _ int) Row {
		return Row{
			Track:    t,
			Favorite: favorites[t.Name],
			Playing:  snap.CurrentPath != "" && t.Path == snap.CurrentPath,
		}
	})
}

// Groups lists All, the favorites group, then every group in the snapshot
// tally in name order, each with its track count.
func Groups(snap state.Snapshot, favorites map[string]bool, active string) []Group {
	active = state.NormalizeGroup(active)
	favCount := lo.CountBy(snap.Tracks, func(t state.Track) bool { return favorites[t.Name] })

	out := []Group{
		{Name: state.AllGroup, Count: len(snap.Tracks), Active: active == state.AllGroup},
		{Name: state.FavoritesGroup, Count: favCount, Active: active == state.FavoritesGroup},
	}
	names := lo.Keys(snap.GroupTally)
	slices.Sort(names)
	for _, name := range names {
		out = append(out, Group{Name: name, Count: snap.GroupTally[name], Active: active == name})
	}
	return out
}

// NextGroup returns the group after active in the menu order, wrapping around.
func NextGroup(groups []Group, active string, step int) string {
	if len(groups) == 0 {
		return state.AllGroup
	}
	i := slices.IndexFunc(groups, func(g Group) bool { return g.Name == active })
	if i < 0 {
		return groups[0].Name
	}
	n := len(groups)
	return groups[((i+step)%n+n)%n].Name
}

// PlayingIndex returns the row index of the playing track, or -1.
func PlayingIndex(rows []Row) int {
	return slices.IndexFunc(rows, func(r Row) bool { return r.Playing })
}
