// Package repository persists the engine's state in a relational store
// via GORM and mirrors the platform tables it reads from.
package repository

import "time"

// Content status values. Only published content is rankable.
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusArchived  = "ARCHIVED"
)

// MetricDaily is one row of activity counters per content item per
// calendar day. Owned by the platform's metrics pipeline; the engine
// only reads it. Score is an opaque precomputed daily quality signal.
type MetricDaily struct {
	ID        uint      `gorm:"primaryKey"`
	ContentID string    `gorm:"size:36;not null;uniqueIndex:idx_metric_content_date,priority:1"`
	Date      time.Time `gorm:"not null;uniqueIndex:idx_metric_content_date,priority:2;index:idx_metric_date"`
	Views     int64     `gorm:"not null;default:0"`
	Copies    int64     `gorm:"not null;default:0"`
	Saves     int64     `gorm:"not null;default:0"`
	Forks     int64     `gorm:"not null;default:0"`
	Votes     int64     `gorm:"not null;default:0"`
	Score     float64   `gorm:"not null;default:0"`
}

// TableName maps MetricDaily onto the platform's table.
func (MetricDaily) TableName() string { return "metric_dailies" }

// Content mirrors the platform's content table. Tags is a
// comma-separated list with leading/trailing commas (",a,b,") so a TAG
// scope filter is a single LIKE on ",tag,".
type Content struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Slug      string    `gorm:"size:160;uniqueIndex"`
	Title     string    `gorm:"size:300"`
	AuthorID  string    `gorm:"size:36;index"`
	Status    string    `gorm:"size:20;index"`
	Tags      string    `gorm:"size:600"`
	Model     string    `gorm:"size:120;index"`
	CreatedAt time.Time
}

// Author mirrors the platform's user profile table.
type Author struct {
	ID          string `gorm:"primaryKey;size:36"`
	Handle      string `gorm:"size:80;uniqueIndex"`
	DisplayName string `gorm:"size:160"`
	AvatarURL   string `gorm:"size:400"`
	Verified    bool   `gorm:"not null;default:false"`
}

// Vote mirrors the platform's vote table; one row per user per content,
// value +1 or -1. Read by the ten-upvotes checker as a net score.
type Vote struct {
	ContentID string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:36"`
	Value     int    `gorm:"not null"`
	CreatedAt time.Time
}

// SnapshotRecord is a persisted, day-bucketed leaderboard.
//
// The unique index on (period, scope, scope_ref, day) is the
// serialization point for same-day idempotency: concurrent writers for
// the same key collapse to one row at the database, not in process.
// ScopeRef is stored as "" for GLOBAL because NULLs do not collide in
// unique indexes.
type SnapshotRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Period    string    `gorm:"size:10;not null;uniqueIndex:idx_snapshot_key,priority:1"`
	Scope     string    `gorm:"size:10;not null;uniqueIndex:idx_snapshot_key,priority:2"`
	ScopeRef  string    `gorm:"size:160;not null;default:'';uniqueIndex:idx_snapshot_key,priority:3"`
	Day       time.Time `gorm:"not null;uniqueIndex:idx_snapshot_key,priority:4"`
	RankBlob  string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName keeps the historical table name.
func (SnapshotRecord) TableName() string { return "leaderboard_snapshots" }

// BadgeRecord is one seeded achievement definition. Immutable after
// seeding; the criterion variant is flattened into columns.
type BadgeRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	Slug          string `gorm:"size:80;not null;uniqueIndex"`
	Name          string `gorm:"size:160;not null"`
	Description   string `gorm:"size:400"`
	CriteriaType  string `gorm:"size:20;not null"`
	CriteriaName  string `gorm:"size:80"`
	CriteriaValue int64  `gorm:"not null;default:0"`
	CreatedAt     time.Time
}

// TableName maps BadgeRecord onto the badges table.
func (BadgeRecord) TableName() string { return "badges" }

// UserBadge is an append-only award. The composite primary key makes a
// concurrent double-award a constraint violation, which the store
// resolves as the idempotent no-op case.
type UserBadge struct {
	UserID    string    `gorm:"primaryKey;size:36"`
	BadgeID   string    `gorm:"primaryKey;size:36"`
	AwardedAt time.Time `gorm:"not null"`
}

// AuditEntry is one append-only audit row per badge award, written in
// the same transaction as the award itself.
type AuditEntry struct {
	ID        string    `gorm:"primaryKey;size:36"`
	ActorID   string    `gorm:"size:36;index"`
	Action    string    `gorm:"size:40;not null"`
	BadgeSlug string    `gorm:"size:80"`
	Metadata  string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName maps AuditEntry onto the audit log table.
func (AuditEntry) TableName() string { return "audit_log_entries" }
