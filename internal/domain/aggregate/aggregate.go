// Package aggregate reduces per-day activity counters into one ranking
// candidate per content item.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/pablohpsilva/something-something-sub003/internal/domain/types"
)

// DailyRecord is one day of activity counters for a content item. The
// score column is a precomputed daily quality signal; the aggregator
// takes its max across the window and never recomputes it.
type DailyRecord struct {
	ContentID string
	Date      time.Time
	Views     int64
	Copies    int64
	Saves     int64
	Forks     int64
	Votes     int64
	Score     float64
}

// ContentRef identifies a rankable content item plus the denormalized
// author block the leaderboard embeds.
type ContentRef struct {
	ID     string
	Slug   string
	Title  string
	Author types.Author
}

// Source is the read interface the aggregator pulls from. It is backed
// by the platform's relational store; the aggregator does not own the
// storage format.
type Source interface {
	// PublishedInScope returns all published content matching the scope
	// filter. ScopeRef is nil iff scope is GLOBAL.
	PublishedInScope(ctx context.Context, scope types.Scope, scopeRef *string) ([]ContentRef, error)

	// DailyRecordsSince returns the daily records for the given content
	// ids with date >= since. A nil since means no date filter.
	DailyRecordsSince(ctx context.Context, contentIDs []string, since *time.Time) ([]DailyRecord, error)
}

// Window describes one aggregation run. Now is injected rather than
// read from the wall clock so runs are deterministic and testable.
type Window struct {
	Scope      types.Scope
	ScopeRef   *string
	WindowDays *int // nil means unbounded (period ALL)
	Now        time.Time
}

// Cutoff returns the inclusive lower bound for record dates, or nil
// when the window is unbounded.
func (w Window) Cutoff() *time.Time {
	if w.WindowDays == nil {
		return nil
	}
	t := w.Now.AddDate(0, 0, -*w.WindowDays)
	return &t
}

// Candidate is the aggregate of one content item over the window:
// counters are summed, score is the max daily score seen.
type Candidate struct {
	Content ContentRef
	Views   int64
	Copies  int64
	Saves   int64
	Forks   int64
	Votes   int64
	Score   float64
}

// Aggregator computes ranking candidates for a window.
type Aggregator struct {
	src Source
}

// New creates an Aggregator over the given source.
func New(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Aggregate returns one candidate per eligible content item in the
// window's scope. Content with zero aggregate activity (both views and
// copies are zero) is absent from the result, not ranked last. The
// result order is unspecified; ranking happens downstream. Pure read,
// no side effects.
func (a *Aggregator) Aggregate(ctx context.Context, w Window) ([]Candidate, error) {
	contents, err := a.src.PublishedInScope(ctx, w.Scope, w.ScopeRef)
	if err != nil {
		return nil, fmt.Errorf("aggregate: list content in scope: %w", err)
	}
	if len(contents) == 0 {
		return nil, nil
	}

	ids := make([]string, len(contents))
	for i, c := range contents {
		ids[i] = c.ID
	}

	records, err := a.src.DailyRecordsSince(ctx, ids, w.Cutoff())
	if err != nil {
		return nil, fmt.Errorf("aggregate: load daily records: %w", err)
	}

	return Reduce(contents, records), nil
}

// Reduce folds daily records into candidates, keyed by content id.
// Exported separately from Aggregate so the reduction can be tested
// without a source.
func Reduce(contents []ContentRef, records []DailyRecord) []Candidate {
	byID := make(map[string]*Candidate, len(contents))
	for _, c := range contents {
		byID[c.ID] = &Candidate{Content: c}
	}

	// Score is an opaque signal with no sign guarantee, so the max must
	// be seeded from the first record rather than the zero value.
	scored := make(map[string]bool, len(contents))
	for _, r := range records {
		cand, ok := byID[r.ContentID]
		if !ok {
			// Record for content outside the scope filter; skip.
			continue
		}
		cand.Views += r.Views
		cand.Copies += r.Copies
		cand.Saves += r.Saves
		cand.Forks += r.Forks
		cand.Votes += r.Votes
		if !scored[r.ContentID] || r.Score > cand.Score {
			cand.Score = r.Score
			scored[r.ContentID] = true
		}
	}

	out := make([]Candidate, 0, len(contents))
	for _, c := range contents {
		cand := byID[c.ID]
		if cand.Views == 0 && cand.Copies == 0 {
			continue
		}
		out = append(out, *cand)
	}
	return out
}
