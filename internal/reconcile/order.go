package reconcile

import (
	"cmp"
	"slices"
	"strings"

	"github.com/five82/tracklist/internal/state"
)

// Move relocates the entry at From so that it ends up at To. From is always
// greater than To.
type Move struct {
	From int
	To   int
}

// TargetOrder sorts tracks by (not in active group, not favorite, lowercase
// name), keeping input order among equal keys. Descending mode reverses the
// whole sorted slice. The input is not modified.
func TargetOrder(tracks []state.Track, pol state.Policy) []state.Track {
	type keyed struct {
		track   state.Track
		outside bool
		notFav  bool
		name    string
	}
	items := make([]keyed, len(tracks))
	for i, t := range tracks {
		items[i] = keyed{
			track:   t,
			outside: !pol.InGroup(t),
			notFav:  !pol.IsFavorite(t.Name),
			name:    strings.ToLower(t.Name),
		}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		if c := compareBool(a.outside, b.outside); c != 0 {
			return c
		}
		if c := compareBool(a.notFav, b.notFav); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})

	out := make([]state.Track, len(items))
	for i, it := range items {
		out[i] = it.track
	}
	if pol.Descending() {
		slices.Reverse(out)
	}
	return out
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// PlanMoves computes the moves that turn the current order into target,
// placing target items front to back. A move from r to p shifts every item
// still sitting in [p, r) down by one, so indices stay correct without
// requerying. Tracks are identified by their RemoteIndex in the current
// order. The returned tracks carry their final indices.
func PlanMoves(current, target []state.Track) ([]Move, []state.Track) {
	pos := make(map[int]int, len(current))
	for _, t := range current {
		pos[t.RemoteIndex] = t.RemoteIndex
	}

	var moves []Move
	placed := make([]state.Track, len(target))
	for p, t := range target {
		id := t.RemoteIndex
		r := pos[id]
		if r != p {
			moves = append(moves, Move{From: r, To: p})
			for other, at := range pos {
				if other != id && at >= p && at < r {
					pos[other] = at + 1
				}
			}
			pos[id] = p
		}
		t.RemoteIndex = p
		placed[p] = t
	}
	return moves, placed
}
