// Package service provides the leaderboard snapshot and achievement
// engine behind the (external) API layer.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pablohpsilva/something-something-sub003/internal/adapters/repository"
	"github.com/pablohpsilva/something-something-sub003/internal/domain/aggregate"
	"github.com/pablohpsilva/something-something-sub003/internal/domain/delta"
	"github.com/pablohpsilva/something-something-sub003/internal/domain/rank"
	"github.com/pablohpsilva/something-something-sub003/internal/domain/types"
	"github.com/pablohpsilva/something-something-sub003/pkg/logger"
	"github.com/pablohpsilva/something-something-sub003/pkg/metrics"
)

// defaultPageSize bounds a leaderboard read when the caller passes no
// limit.
const defaultPageSize = 20

// Default aggregation windows in days per period. ALL is unbounded:
// the aggregator gets a nil window and applies no date filter.
var defaultWindows = map[types.Period]int{
	types.PeriodDaily:   1,
	types.PeriodWeekly:  7,
	types.PeriodMonthly: 30,
	types.PeriodAll:     0, // 0 means unbounded
}

// Params identifies one leaderboard: its window period and its scope
// partition. ScopeRef must be nil iff Scope is GLOBAL.
type Params struct {
	Period   types.Period
	Scope    types.Scope
	ScopeRef *string
}

// Validate checks the params against the period/scope invariants.
func (p Params) Validate() error {
	if !p.Period.Valid() {
		return fmt.Errorf("%w: %s", repository.ErrInvalidPeriod, p.Period)
	}
	if !p.Scope.Valid() {
		return fmt.Errorf("%w: %s", repository.ErrInvalidScope, p.Scope)
	}
	if (p.Scope == types.ScopeGlobal) != (p.ScopeRef == nil) {
		return fmt.Errorf("%w: scopeRef must be set iff scope is not GLOBAL", repository.ErrInvalidScope)
	}
	return nil
}

// SideEffect is a pending fire-and-forget action produced by an award,
// e.g. a notification dispatch. The caller delivers it and may drop it
// on failure; the award's durability never depends on it.
type SideEffect struct {
	Kind      string
	UserID    string
	BadgeSlug string
	Metadata  map[string]any
}

// Engine implements the snapshot and achievement operations.
type Engine struct {
	store *repository.Store
	agg   *aggregate.Aggregator

	limit   int
	windows map[types.Period]int
	now     func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLimit caps the number of ranked entries per snapshot.
func WithLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.limit = limit
		}
	}
}

// WithWindowDays overrides the aggregation window for one period.
// Days <= 0 means unbounded.
func WithWindowDays(period types.Period, days int) Option {
	return func(e *Engine) {
		if period.Valid() {
			e.windows[period] = days
		}
	}
}

// WithNow injects the clock, keeping snapshot runs deterministic in
// tests.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an Engine over the given store.
func New(store *repository.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		agg:     aggregate.New(store),
		limit:   rank.DefaultLimit,
		windows: make(map[types.Period]int, len(defaultWindows)),
		now:     time.Now,
	}
	for p, d := range defaultWindows {
		e.windows[p] = d
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get()
	}
	return e
}

// windowDays returns the window for a period, nil when unbounded.
func (e *Engine) windowDays(period types.Period) *int {
	d, ok := e.windows[period]
	if !ok || d <= 0 {
		return nil
	}
	return &d
}

// startOfDay truncates t to its UTC calendar day. UTC is the fixed
// reference timezone for the engine: it defines which recomputes count
// as "the same day" for snapshot idempotency.
func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ComputeLeaderboard aggregates the window and ranks the result. For
// fixed store contents and a fixed injected clock the output is fully
// deterministic, tie-breaks included. Failures propagate: there is no
// safe default for a board that cannot be computed.
func (e *Engine) ComputeLeaderboard(ctx context.Context, p Params) ([]types.Entry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	cands, err := e.agg.Aggregate(ctx, aggregate.Window{
		Scope:      p.Scope,
		ScopeRef:   p.ScopeRef,
		WindowDays: e.windowDays(p.Period),
		Now:        e.now(),
	})
	if err != nil {
		metrics.RecordComputeError()
		return nil, err
	}

	entries := rank.Rank(cands, e.limit)
	metrics.RecordComputeDuration(time.Since(start))
	metrics.UpdateLeaderboardSize(string(p.Period), string(p.Scope), len(entries))

	e.logger.Debug(ctx, "leaderboard computed",
		logger.String("period", string(p.Period)),
		logger.String("scope", string(p.Scope)),
		logger.Int("entries", len(entries)),
	)
	return entries, nil
}

// UpsertSnapshot persists a computed ranking as the day's snapshot for
// the params key. Repeated calls within one UTC day overwrite the same
// row and return its unchanged id; a new day inserts a fresh row, which
// is how yesterday's board becomes the delta baseline for today's.
func (e *Engine) UpsertSnapshot(ctx context.Context, p Params, entries []types.Entry) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	now := e.now()
	blob := types.RankBlob{
		Entries: entries,
		Meta: types.SnapshotMeta{
			Period:      p.Period,
			Scope:       p.Scope,
			ScopeRef:    p.ScopeRef,
			WindowDays:  e.windowDays(p.Period),
			GeneratedAt: now,
		},
	}

	id, err := e.store.UpsertSnapshot(ctx, p.Period, p.Scope, p.ScopeRef, startOfDay(now), blob, now)
	if err != nil {
		e.logger.Error(ctx, "snapshot upsert failed",
			logger.String("period", string(p.Period)),
			logger.String("scope", string(p.Scope)),
			logger.Error(err),
		)
		return "", err
	}

	metrics.RecordSnapshotUpserted()
	e.logger.Info(ctx, "snapshot stored",
		logger.String("snapshotID", id),
		logger.String("period", string(p.Period)),
		logger.String("scope", string(p.Scope)),
		logger.Int("entries", len(entries)),
	)
	return id, nil
}

// RecomputeSnapshot runs the full aggregate → rank → persist pipeline
// for one leaderboard key.
func (e *Engine) RecomputeSnapshot(ctx context.Context, p Params) (string, error) {
	entries, err := e.ComputeLeaderboard(ctx, p)
	if err != nil {
		return "", err
	}
	return e.UpsertSnapshot(ctx, p, entries)
}

// PreviousSnapshot returns the snapshot immediately preceding the
// latest one for the key, or nil when there is none yet (day one).
func (e *Engine) PreviousSnapshot(ctx context.Context, p Params) (*types.Snapshot, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	snaps, err := e.store.LatestSnapshots(ctx, p.Period, p.Scope, p.ScopeRef, 2)
	if err != nil {
		return nil, err
	}
	if len(snaps) < 2 {
		return nil, nil
	}
	return &snaps[1], nil
}

// RankOf looks one content id up in the latest snapshot for the params
// key. It returns the entry with its delta applied plus the content's
// percentile, or nil when the content is not ranked there.
func (e *Engine) RankOf(ctx context.Context, p Params, contentID string) (*types.Entry, float64, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, err
	}

	snaps, err := e.store.LatestSnapshots(ctx, p.Period, p.Scope, p.ScopeRef, 2)
	if err != nil {
		return nil, 0, err
	}
	if len(snaps) == 0 {
		return nil, 0, nil
	}

	current := snaps[0]
	var previous *types.Snapshot
	if len(snaps) > 1 {
		previous = &snaps[1]
	}
	entries := delta.WithDeltas(current.Rank.Entries, previous)

	entry, ok := rank.Lookup(entries, contentID)
	if !ok {
		return nil, 0, nil
	}
	return &entry, rank.Percentile(entry.Rank, len(entries)), nil
}

// UserBadges lists the badges a user holds, most recent first.
func (e *Engine) UserBadges(ctx context.Context, userID string) ([]repository.AwardedBadge, error) {
	return e.store.BadgesOfUser(ctx, userID)
}

// ReadLeaderboard serves one cursor-paginated page of the latest
// snapshot, with rank deltas against the previous one.
//
// The cursor is the content id of the last entry the caller saw. An
// unknown or stale cursor restarts from the top instead of erroring: a
// same-day overwrite between two page fetches legitimately invalidates
// cursors, and that overlap is the accepted trade-off of latest-wins
// snapshots. Pagination walks the snapshot's frozen entries array, so
// pages against the same snapshot never overlap or skip.
func (e *Engine) ReadLeaderboard(ctx context.Context, p Params, cursor *string, limit int) (types.Page, error) {
	if err := p.Validate(); err != nil {
		return types.Page{}, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}

	snaps, err := e.store.LatestSnapshots(ctx, p.Period, p.Scope, p.ScopeRef, 2)
	if err != nil {
		return types.Page{}, err
	}
	metrics.RecordLeaderboardRead()

	if len(snaps) == 0 {
		return types.Page{
			Entries: []types.Entry{},
			Meta: types.PageMeta{
				Period:       p.Period,
				Scope:        p.Scope,
				ScopeRef:     p.ScopeRef,
				WindowDays:   e.windowDays(p.Period),
				TotalEntries: 0,
			},
			Pagination: types.Pagination{HasMore: false},
		}, nil
	}

	current := snaps[0]
	var previous *types.Snapshot
	if len(snaps) > 1 {
		previous = &snaps[1]
	}

	entries := delta.WithDeltas(current.Rank.Entries, previous)

	start := 0
	if cursor != nil {
		for i, ent := range entries {
			if ent.ContentID == *cursor {
				start = i + 1
				break
			}
		}
	}
	if start > len(entries) {
		start = len(entries)
	}

	end := start + limit
	hasMore := end < len(entries)
	if end > len(entries) {
		end = len(entries)
	}
	page := entries[start:end]

	var nextCursor *string
	if hasMore && len(page) > 0 {
		id := page[len(page)-1].ContentID
		nextCursor = &id
	}

	return types.Page{
		Entries: page,
		Meta: types.PageMeta{
			Period:       current.Rank.Meta.Period,
			Scope:        current.Rank.Meta.Scope,
			ScopeRef:     current.Rank.Meta.ScopeRef,
			WindowDays:   current.Rank.Meta.WindowDays,
			GeneratedAt:  current.Rank.Meta.GeneratedAt,
			TotalEntries: len(entries),
		},
		Pagination: types.Pagination{HasMore: hasMore, NextCursor: nextCursor},
	}, nil
}
