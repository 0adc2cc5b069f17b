// Package delta computes rank movement between two snapshots.
package delta

import "github.com/pablohpsilva/something-something-sub003/internal/domain/types"

// WithDeltas returns a copy of current with RankDelta populated from
// the previous snapshot.
//
// delta = prevRank - currentRank, so positive means the entry moved up
// the board. Entries absent from the previous snapshot keep a nil
// delta: a new entrant is not the same as "moved zero places", and
// coercing it to 0 or to the list length would misrepresent it. A nil
// previous snapshot (day one) leaves every delta nil.
func WithDeltas(current []types.Entry, previous *types.Snapshot) []types.Entry {
	var prevRanks map[string]int
	if previous != nil {
		prevRanks = make(map[string]int, len(previous.Rank.Entries))
		for _, e := range previous.Rank.Entries {
			prevRanks[e.ContentID] = e.Rank
		}
	}

	out := make([]types.Entry, len(current))
	for i, e := range current {
		if prev, ok := prevRanks[e.ContentID]; ok {
			d := prev - e.Rank
			e.RankDelta = &d
		} else {
			e.RankDelta = nil
		}
		out[i] = e
	}
	return out
}
