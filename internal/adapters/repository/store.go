package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pablohpsilva/something-something-sub003/internal/domain/aggregate"
	"github.com/pablohpsilva/something-something-sub003/internal/domain/badges"
	"github.com/pablohpsilva/something-something-sub003/internal/domain/types"
)

// Store provides read/write access to the engine's relational state.
// It implements aggregate.Source for the metrics read path.
type Store struct {
	db *gorm.DB
}

// New creates a Store over an open GORM connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for wiring and tests.
func (s *Store) DB() *gorm.DB { return s.db }

// AutoMigrate creates or updates the tables the engine owns.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&SnapshotRecord{}); err != nil {
		return fmt.Errorf("auto-migrate leaderboard_snapshots: %w", err)
	}
	if err := s.db.AutoMigrate(&BadgeRecord{}); err != nil {
		return fmt.Errorf("auto-migrate badges: %w", err)
	}
	if err := s.db.AutoMigrate(&UserBadge{}); err != nil {
		return fmt.Errorf("auto-migrate user_badges: %w", err)
	}
	if err := s.db.AutoMigrate(&AuditEntry{}); err != nil {
		return fmt.Errorf("auto-migrate audit_log_entries: %w", err)
	}
	return nil
}

// AutoMigrateMirrors creates the platform-owned tables the engine only
// reads. Production schemas already have them; tests and local setups
// use this to seed fixtures.
func (s *Store) AutoMigrateMirrors() error {
	for _, m := range []any{&Content{}, &Author{}, &MetricDaily{}, &Vote{}} {
		if err := s.db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto-migrate mirror table: %w", err)
		}
	}
	return nil
}

// scopeRefKey maps the engine's nullable scope ref onto the stored
// form. GLOBAL rows store "" because NULLs do not collide in the
// snapshot unique index.
func scopeRefKey(ref *string) string {
	if ref == nil {
		return ""
	}
	return *ref
}

func refOf(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}

// escapeLike escapes LIKE metacharacters so a scope ref only ever
// matches itself literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// PublishedInScope implements aggregate.Source.
func (s *Store) PublishedInScope(ctx context.Context, scope types.Scope, scopeRef *string) ([]aggregate.ContentRef, error) {
	q := s.db.WithContext(ctx).Where("status = ?", StatusPublished)
	switch scope {
	case types.ScopeGlobal:
		// no extra filter
	case types.ScopeTag:
		q = q.Where(`tags LIKE ? ESCAPE '\'`, "%,"+escapeLike(scopeRefKey(scopeRef))+",%")
	case types.ScopeModel:
		q = q.Where("model = ?", scopeRefKey(scopeRef))
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidScope, scope)
	}

	var contents []Content
	if err := q.Order("id ASC").Find(&contents).Error; err != nil {
		return nil, fmt.Errorf("list published content: %w", err)
	}
	if len(contents) == 0 {
		return nil, nil
	}

	authorIDs := make([]string, 0, len(contents))
	seen := make(map[string]struct{}, len(contents))
	for _, c := range contents {
		if _, ok := seen[c.AuthorID]; !ok {
			seen[c.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, c.AuthorID)
		}
	}
	var authors []Author
	if err := s.db.WithContext(ctx).Where("id IN ?", authorIDs).Find(&authors).Error; err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	byID := make(map[string]Author, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}

	refs := make([]aggregate.ContentRef, 0, len(contents))
	for _, c := range contents {
		a := byID[c.AuthorID]
		refs = append(refs, aggregate.ContentRef{
			ID:    c.ID,
			Slug:  c.Slug,
			Title: c.Title,
			Author: types.Author{
				ID:          c.AuthorID,
				Handle:      a.Handle,
				DisplayName: a.DisplayName,
				AvatarURL:   a.AvatarURL,
			},
		})
	}
	return refs, nil
}

// DailyRecordsSince implements aggregate.Source.
func (s *Store) DailyRecordsSince(ctx context.Context, contentIDs []string, since *time.Time) ([]aggregate.DailyRecord, error) {
	if len(contentIDs) == 0 {
		return nil, nil
	}
	q := s.db.WithContext(ctx).Where("content_id IN ?", contentIDs)
	if since != nil {
		q = q.Where("date >= ?", *since)
	}
	var rows []MetricDaily
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load daily records: %w", err)
	}
	out := make([]aggregate.DailyRecord, len(rows))
	for i, r := range rows {
		out[i] = aggregate.DailyRecord{
			ContentID: r.ContentID,
			Date:      r.Date,
			Views:     r.Views,
			Copies:    r.Copies,
			Saves:     r.Saves,
			Forks:     r.Forks,
			Votes:     r.Votes,
			Score:     r.Score,
		}
	}
	return out, nil
}

// UpsertSnapshot stores a ranking under its (period, scope, scopeRef,
// day) key. A same-day recompute overwrites only the rank blob: the
// row id and created_at stay untouched so the snapshot keeps its place
// in the recency ordering the delta path depends on. The conflict is
// resolved on the snapshot unique index, so two concurrent writers for
// the same key still produce exactly one row.
func (s *Store) UpsertSnapshot(ctx context.Context, period types.Period, scope types.Scope, scopeRef *string, day time.Time, blob types.RankBlob, now time.Time) (string, error) {
	raw, err := json.Marshal(blob)
	if err != nil {
		return "", fmt.Errorf("marshal rank blob: %w", err)
	}

	rec := SnapshotRecord{
		ID:        uuid.New().String(),
		Period:    string(period),
		Scope:     string(scope),
		ScopeRef:  scopeRefKey(scopeRef),
		Day:       day,
		RankBlob:  string(raw),
		CreatedAt: now,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "period"}, {Name: "scope"}, {Name: "scope_ref"}, {Name: "day"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"rank_blob"}),
	}).Create(&rec).Error
	if err != nil {
		return "", fmt.Errorf("upsert snapshot: %w", err)
	}

	// On conflict the surviving row keeps its original id; read it back
	// by key rather than trusting rec.ID.
	var stored SnapshotRecord
	err = s.db.WithContext(ctx).
		Select("id").
		Where("period = ? AND scope = ? AND scope_ref = ? AND day = ?",
			rec.Period, rec.Scope, rec.ScopeRef, rec.Day).
		First(&stored).Error
	if err != nil {
		return "", fmt.Errorf("read back snapshot id: %w", err)
	}
	return stored.ID, nil
}

// LatestSnapshots returns up to n snapshots for the key, most recent
// first. n=2 serves the rank-delta path: index 0 is the current board,
// index 1 the comparison baseline.
func (s *Store) LatestSnapshots(ctx context.Context, period types.Period, scope types.Scope, scopeRef *string, n int) ([]types.Snapshot, error) {
	var rows []SnapshotRecord
	err := s.db.WithContext(ctx).
		Where("period = ? AND scope = ? AND scope_ref = ?", string(period), string(scope), scopeRefKey(scopeRef)).
		Order("created_at DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]types.Snapshot, 0, len(rows))
	for _, r := range rows {
		var blob types.RankBlob
		if err := json.Unmarshal([]byte(r.RankBlob), &blob); err != nil {
			return nil, fmt.Errorf("unmarshal rank blob %s: %w", r.ID, err)
		}
		out = append(out, types.Snapshot{
			ID:        r.ID,
			Period:    types.Period(r.Period),
			Scope:     types.Scope(r.Scope),
			ScopeRef:  refOf(r.ScopeRef),
			Rank:      blob,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// BadgeBySlug returns the badge for a slug, or nil when none exists.
func (s *Store) BadgeBySlug(ctx context.Context, slug string) (*BadgeRecord, error) {
	var rec BadgeRecord
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get badge by slug: %w", err)
	}
	return &rec, nil
}

// SeedBadge creates the badge for a catalog definition iff its slug is
// not stored yet. Safe to run on every boot.
func (s *Store) SeedBadge(ctx context.Context, def badges.Definition, now time.Time) (bool, error) {
	rec := BadgeRecord{
		ID:           uuid.New().String(),
		Slug:         def.Slug,
		Name:         def.Name,
		Description:  def.Description,
		CriteriaType: def.Criteria.Type(),
		CreatedAt:    now,
	}
	switch c := def.Criteria.(type) {
	case badges.EventCriterion:
		rec.CriteriaName = c.Name
	case badges.ThresholdCriterion:
		rec.CriteriaName = c.Metric
		rec.CriteriaValue = c.Value
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("seed badge %s: %w", def.Slug, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// HasUserBadge reports whether the user already holds the badge.
func (s *Store) HasUserBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&UserBadge{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check user badge: %w", err)
	}
	return n > 0, nil
}

// AwardedBadge is the read shape for one badge a user holds.
type AwardedBadge struct {
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	AwardedAt time.Time `json:"awardedAt"`
}

// BadgesOfUser lists the user's badges joined with their catalog rows,
// most recent award first.
func (s *Store) BadgesOfUser(ctx context.Context, userID string) ([]AwardedBadge, error) {
	var out []AwardedBadge
	err := s.db.WithContext(ctx).Model(&UserBadge{}).
		Select("badges.slug AS slug, badges.name AS name, user_badges.awarded_at AS awarded_at").
		Joins("JOIN badges ON badges.id = user_badges.badge_id").
		Where("user_badges.user_id = ?", userID).
		Order("user_badges.awarded_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list user badges: %w", err)
	}
	return out, nil
}

// Award durably grants a badge and writes its audit row in one
// transaction. A concurrent duplicate surfaces as the composite key
// conflict on user_badges; that resolves to a no-op and false, not an
// error, and the audit row is not written.
func (s *Store) Award(ctx context.Context, userID, badgeID, badgeSlug string, metadata map[string]any, now time.Time) (bool, error) {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return false, fmt.Errorf("marshal award metadata: %w", err)
	}

	awarded := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&UserBadge{
			UserID:    userID,
			BadgeID:   badgeID,
			AwardedAt: now,
		})
		if res.Error != nil {
			return fmt.Errorf("insert user badge: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Already held; leave awarded false and write nothing else.
			return nil
		}
		if err := tx.Create(&AuditEntry{
			ID:        uuid.New().String(),
			ActorID:   userID,
			Action:    "badge.award",
			BadgeSlug: badgeSlug,
			Metadata:  string(raw),
			CreatedAt: now,
		}).Error; err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
		awarded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return awarded, nil
}

// CountPublishedByAuthor returns the number of published content items
// owned by the user.
func (s *Store) CountPublishedByAuthor(ctx context.Context, authorID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Content{}).
		Where("author_id = ? AND status = ?", authorID, StatusPublished).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count published content: %w", err)
	}
	return n, nil
}

// PublishedByAuthor returns the user's published content items.
func (s *Store) PublishedByAuthor(ctx context.Context, authorID string) ([]Content, error) {
	var rows []Content
	err := s.db.WithContext(ctx).
		Where("author_id = ? AND status = ?", authorID, StatusPublished).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list published content: %w", err)
	}
	return rows, nil
}

// NetVotes returns upvotes minus downvotes for a content item.
func (s *Store) NetVotes(ctx context.Context, contentID string) (int64, error) {
	var net int64
	err := s.db.WithContext(ctx).Model(&Vote{}).
		Select("COALESCE(SUM(value), 0)").
		Where("content_id = ?", contentID).
		Scan(&net).Error
	if err != nil {
		return 0, fmt.Errorf("sum votes: %w", err)
	}
	return net, nil
}

// TotalCopies sums the copies counter across all daily records of a
// content item.
func (s *Store) TotalCopies(ctx context.Context, contentID string) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&MetricDaily{}).
		Select("COALESCE(SUM(copies), 0)").
		Where("content_id = ?", contentID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum copies: %w", err)
	}
	return total, nil
}

// ContentByID returns a content row, or nil when it no longer resolves.
func (s *Store) ContentByID(ctx context.Context, id string) (*Content, error) {
	var rec Content
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get content: %w", err)
	}
	return &rec, nil
}
