// Package rank orders aggregation candidates into a dense-ranked
// leaderboard.
package rank

import (
	"math"
	"sort"

	"github.com/pablohpsilva/something-something-sub003/internal/domain/aggregate"
	"github.com/pablohpsilva/something-something-sub003/internal/domain/types"
)

// DefaultLimit caps a leaderboard when the caller does not supply one.
const DefaultLimit = 100

// Rank orders candidates and assigns dense ranks 1..N.
//
// Ordering is score descending; ties break on content id ascending so
// two runs over identical input produce identical output. Ranks are
// dense with no gaps and no shared ranks: ties are broken before rank
// assignment, never reflected as equal ranks. Truncation to limit
// happens after ranking so rank numbers are stable regardless of limit.
func Rank(cands []aggregate.Candidate, limit int) []types.Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	sorted := make([]aggregate.Candidate, len(cands))
	copy(sorted, cands)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Content.ID < sorted[j].Content.ID
	})

	entries := make([]types.Entry, len(sorted))
	for i, c := range sorted {
		entries[i] = types.Entry{
			Rank:      i + 1,
			ContentID: c.Content.ID,
			Slug:      c.Content.Slug,
			Title:     c.Content.Title,
			Author:    c.Content.Author,
			Score:     c.Score,
			Views:     c.Views,
			Copies:    c.Copies,
			Saves:     c.Saves,
			Forks:     c.Forks,
			Votes:     c.Votes,
		}
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Percentile returns the percentile of a rank within a board of total
// entries, rounded to two decimals. Rank 1 of N is the 100th
// percentile; rank N is the lowest.
func Percentile(rank, total int) float64 {
	if total <= 0 || rank <= 0 || rank > total {
		return 0
	}
	p := float64(total-rank+1) / float64(total) * 100
	return math.Round(p*100) / 100
}

// Lookup finds the entry for a content id in an already-ranked board.
func Lookup(entries []types.Entry, contentID string) (types.Entry, bool) {
	for _, e := range entries {
		if e.ContentID == contentID {
			return e, true
		}
	}
	return types.Entry{}, false
}
