package view

import (
	"testing"

	"github.com/five82/tracklist/internal/state"
)

func snapshot() state.Snapshot {
	return state.Snapshot{
		Tracks: []state.Track{
			{Name: "Song A", Path: "/m/a.mp3", RemoteIndex: 0, Group: "Rock"},
			{Name: "Blue B", Path: "/m/b.mp3", RemoteIndex: 1, Group: "Jazz"},
			{Name: "song c", Path: "/m/c.mp3", RemoteIndex: 2, Group: state.Uncategorized},
		},
		CurrentPath: "/m/b.mp3",
		GroupTally:  map[string]int{"Rock": 1, "Jazz": 1, state.Uncategorized: 1},
	}
}

func rowNames(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Track.Name
	}
	return out
}

func TestProject_RockJazzScenario(t *testing.T) {
	snap := state.Snapshot{
		Tracks: []state.Track{
			{Name: "A", Path: "/a", RemoteIndex: 0, Group: "Rock"},
			{Name: "B", Path: "/b", RemoteIndex: 1, Group: "Jazz"},
		},
	}
	favs := map[string]bool{}

	rock := Project(snap, favs, "Rock", "")
	if len(rock) != 1 || rock[0].Track.Name != "A" {
		t.Fatalf("Rock rows = %v", rowNames(rock))
	}

	favs["B"] = true
	fav := Project(snap, favs, state.FavoritesGroup, "")
	if len(fav) != 1 || fav[0].Track.Name != "B" || !fav[0].Favorite {
		t.Fatalf("Favorites rows = %+v", fav)
	}
}

func TestProject_Filters(t *testing.T) {
	tests := []struct {
		name  string
		group string
		query string
		want  []string
	}{
		{"all", state.AllGroup, "", []string{"Song A", "Blue B", "song c"}},
		{"blank group is all", "", "", []string{"Song A", "Blue B", "song c"}},
		{"query case-insensitive", state.AllGroup, "  SONG ", []string{"Song A", "song c"}},
		{"group and query", "Rock", "blue", nil},
		{"uncategorized", state.Uncategorized, "", []string{"song c"}},
		{"unknown group", "Metal", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rowNames(Project(snapshot(), nil, tt.group, tt.query))
			if len(got) != len(tt.want) {
				t.Fatalf("rows = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("rows = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestProject_MarksPlaying(t *testing.T) {
	rows := Project(snapshot(), map[string]bool{"Song A": true}, state.AllGroup, "")
	if !rows[0].Favorite || rows[1].Favorite {
		t.Errorf("favorite flags = %+v", rows)
	}
	if idx := PlayingIndex(rows); idx != 1 {
		t.Errorf("PlayingIndex = %d, want 1", idx)
	}

	snap := snapshot()
	snap.CurrentPath = ""
	if idx := PlayingIndex(Project(snap, nil, state.AllGroup, "")); idx != -1 {
		t.Errorf("PlayingIndex with no current path = %d", idx)
	}
}

func TestGroups(t *testing.T) {
	got := Groups(snapshot(), map[string]bool{"Blue B": true, "gone": true}, "Rock")
	want := []Group{
		{Name: state.AllGroup, Count: 3},
		{Name: state.FavoritesGroup, Count: 1},
		{Name: "Jazz", Count: 1},
		{Name: "Rock", Count: 1, Active: true},
		{Name: state.Uncategorized, Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Groups = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Groups[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNextGroup(t *testing.T) {
	groups := Groups(snapshot(), nil, state.AllGroup)
	if got := NextGroup(groups, state.AllGroup, 1); got != state.FavoritesGroup {
		t.Errorf("next after All = %q", got)
	}
	if got := NextGroup(groups, state.AllGroup, -1); got != state.Uncategorized {
		t.Errorf("prev before All = %q", got)
	}
	if got := NextGroup(groups, "missing", 1); got != state.AllGroup {
		t.Errorf("next after missing = %q", got)
	}
	if got := NextGroup(nil, "x", 1); got != state.AllGroup {
		t.Errorf("next on empty = %q", got)
	}
}
