// Package types contains common types shared across the engine.
package types

import "time"

// Period selects the aggregation window of a leaderboard.
type Period string

// Supported leaderboard periods.
const (
	PeriodDaily   Period = "DAILY"
	PeriodWeekly  Period = "WEEKLY"
	PeriodMonthly Period = "MONTHLY"
	PeriodAll     Period = "ALL"
)

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAll:
		return true
	}
	return false
}

// Scope selects the partition of a leaderboard.
type Scope string

// Supported leaderboard scopes.
const (
	ScopeGlobal Scope = "GLOBAL"
	ScopeTag    Scope = "TAG"
	ScopeModel  Scope = "MODEL"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopeTag, ScopeModel:
		return true
	}
	return false
}

// Author is the denormalized author block embedded in a leaderboard entry.
type Author struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// Entry is one ranked row of a leaderboard.
//
// RankDelta is populated only at read time by comparing against the
// previous snapshot; it is never part of the persisted rank blob. A nil
// RankDelta means the entry is a new entrant, which is distinct from a
// delta of zero (same position as in the previous snapshot).
type Entry struct {
	Rank      int     `json:"rank"`
	ContentID string  `json:"contentId"`
	Slug      string  `json:"slug"`
	Title     string  `json:"title"`
	Author    Author  `json:"author"`
	Score     float64 `json:"score"`
	Views     int64   `json:"views"`
	Copies    int64   `json:"copies"`
	Saves     int64   `json:"saves"`
	Forks     int64   `json:"forks"`
	Votes     int64   `json:"votes"`
	RankDelta *int    `json:"rankDelta,omitempty"`
}

// SnapshotMeta describes how a snapshot's ranking was produced.
type SnapshotMeta struct {
	Period      Period    `json:"period"`
	Scope       Scope     `json:"scope"`
	ScopeRef    *string   `json:"scopeRef"`
	WindowDays  *int      `json:"windowDays"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// RankBlob is the persisted payload of a snapshot: the frozen entries
// plus the metadata of the run that produced them.
type RankBlob struct {
	Entries []Entry      `json:"entries"`
	Meta    SnapshotMeta `json:"meta"`
}

// Snapshot is a persisted, day-bucketed leaderboard.
type Snapshot struct {
	ID        string
	Period    Period
	Scope     Scope
	ScopeRef  *string
	Rank      RankBlob
	CreatedAt time.Time
}

// PageMeta is the metadata block returned alongside a leaderboard page.
type PageMeta struct {
	Period       Period    `json:"period"`
	Scope        Scope     `json:"scope"`
	ScopeRef     *string   `json:"scopeRef"`
	WindowDays   *int      `json:"windowDays"`
	GeneratedAt  time.Time `json:"generatedAt"`
	TotalEntries int       `json:"totalEntries"`
}

// Pagination carries the cursor state of a leaderboard page.
type Pagination struct {
	HasMore    bool    `json:"hasMore"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// Page is one cursor-paginated slice of a snapshot's entries.
type Page struct {
	Entries    []Entry    `json:"entries"`
	Meta       PageMeta   `json:"meta"`
	Pagination Pagination `json:"pagination"`
}
