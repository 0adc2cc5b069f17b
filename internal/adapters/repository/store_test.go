package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	repository "github.com/pablohpsilva/something-something-sub003/internal/adapters/repository"
	"github.com/pablohpsilva/something-something-sub003/internal/domain/badges"
	"github.com/pablohpsilva/something-something-sub003/internal/domain/types"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store := repository.New(db)
	require.NoError(t, store.AutoMigrate())
	require.NoError(t, store.AutoMigrateMirrors())
	return store
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedContent(t *testing.T, store *repository.Store, c repository.Content) {
	t.Helper()
	require.NoError(t, store.DB().Create(&c).Error)
}

func seedAuthor(t *testing.T, store *repository.Store, a repository.Author) {
	t.Helper()
	require.NoError(t, store.DB().Create(&a).Error)
}

func blobOf(ids ...string) types.RankBlob {
	entries := make([]types.Entry, len(ids))
	for i, id := range ids {
		entries[i] = types.Entry{Rank: i + 1, ContentID: id, Score: float64(100 - i)}
	}
	return types.RankBlob{
		Entries: entries,
		Meta:    types.SnapshotMeta{Period: types.PeriodWeekly, Scope: types.ScopeGlobal},
	}
}

func TestUpsertSnapshotSameDayIdempotency(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := utcDay(2026, 8, 28)
	first := day.Add(9 * time.Hour)

	id1, err := store.UpsertSnapshot(ctx, types.PeriodWeekly, types.ScopeGlobal, nil, day, blobOf("a"), first)
	require.NoError(t, err)
	id2, err := store.UpsertSnapshot(ctx, types.PeriodWeekly, types.ScopeGlobal, nil, day, blobOf("a", "b"), first.Add(time.Hour))
	require.NoError(t, err)
	id3, err := store.UpsertSnapshot(ctx, types.PeriodWeekly, types.ScopeGlobal, nil, day, blobOf("c"), first.Add(2*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, id1, id3)

	var count int64
	require.NoError(t, store.DB().Model(&repository.SnapshotRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	snaps, err := store.LatestSnapshots(ctx, types.PeriodWeekly, types.ScopeGlobal, nil, 2)
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	// Content reflects the third call; created_at still the first call's.
	require.Len(t, snaps[0].Rank.Entries, 1)
	assert.Equal(t, "c", snaps[0].Rank.Entries[0].ContentID)
	assert.True(t, snaps[0].CreatedAt.Equal(first))
}

func TestUpsertSnapshotNewDayInsertsNewRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	day1 := utcDay(2026, 8, 27)
	day2 := utcDay(2026, 8, 28)

	id1, err := store.UpsertSnapshot(ctx, types.PeriodDaily, types.ScopeGlobal, nil, day1, blobOf("a"), day1.Add(time.Hour))
	require.NoError(t, err)
	id2, err := store.UpsertSnapshot(ctx, types.PeriodDaily, types.ScopeGlobal, nil, day2, blobOf("b"), day2.Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	snaps, err := store.LatestSnapshots(ctx, types.PeriodDaily, types.ScopeGlobal, nil, 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	// Most recent first.
	assert.Equal(t, id2, snaps[0].ID)
	assert.Equal(t, id1, snaps[1].ID)
	assert.Equal(t, "b", snaps[0].Rank.Entries[0].ContentID)
}

func TestSnapshotKeysDoNotCollideAcrossScopes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := utcDay(2026, 8, 28)
	now := day.Add(time.Hour)

	tag := "golang"
	_, err := store.UpsertSnapshot(ctx, types.PeriodWeekly, types.ScopeGlobal, nil, day, blobOf("a"), now)
	require.NoError(t, err)
	_, err = store.UpsertSnapshot(ctx, types.PeriodWeekly, types.ScopeTag, &tag, day, blobOf("b"), now)
	require.NoError(t, err)
	_, err = store.UpsertSnapshot(ctx, types.PeriodDaily, types.ScopeGlobal, nil, day, blobOf("c"), now)
	require.NoError(t, err)

	var count int64
	require.NoError(t, store.DB().Model(&repository.SnapshotRecord{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	snaps, err := store.LatestSnapshots(ctx, types.PeriodWeekly, types.ScopeTag, &tag, 2)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.NotNil(t, snaps[0].ScopeRef)
	assert.Equal(t, "golang", *snaps[0].ScopeRef)
}

func TestSeedBadgeIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	def, _ := badges.Lookup(badges.SlugTenUpvotes)

	created, err := store.SeedBadge(ctx, def, now)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.SeedBadge(ctx, def, now)
	require.NoError(t, err)
	assert.False(t, created)

	rec, err := store.BadgeBySlug(ctx, badges.SlugTenUpvotes)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "threshold", rec.CriteriaType)
	assert.Equal(t, badges.MetricNetUpvotes, rec.CriteriaName)
	assert.EqualValues(t, 10, rec.CriteriaValue)
}

func TestBadgeBySlugAbsent(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.BadgeBySlug(context.Background(), "no-such-badge")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAwardIsIdempotentAndAudited(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	def, _ := badges.Lookup(badges.SlugFirstContribution)
	_, err := store.SeedBadge(ctx, def, now)
	require.NoError(t, err)
	badge, err := store.BadgeBySlug(ctx, def.Slug)
	require.NoError(t, err)

	awarded, err := store.Award(ctx, "u1", badge.ID, def.Slug, map[string]any{"via": "test"}, now)
	require.NoError(t, err)
	assert.True(t, awarded)

	awarded, err = store.Award(ctx, "u1", badge.ID, def.Slug, nil, now)
	require.NoError(t, err)
	assert.False(t, awarded)

	held, err := store.HasUserBadge(ctx, "u1", badge.ID)
	require.NoError(t, err)
	assert.True(t, held)

	var userBadges, audits int64
	require.NoError(t, store.DB().Model(&repository.UserBadge{}).Count(&userBadges).Error)
	require.NoError(t, store.DB().Model(&repository.AuditEntry{}).Count(&audits).Error)
	assert.EqualValues(t, 1, userBadges)
	// The duplicate attempt must not have written a second audit row.
	assert.EqualValues(t, 1, audits)
}

func TestBadgesOfUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	first, _ := badges.Lookup(badges.SlugFirstContribution)
	verified, _ := badges.Lookup(badges.SlugVerifiedAuthor)
	for _, def := range []badges.Definition{first, verified} {
		_, err := store.SeedBadge(ctx, def, base)
		require.NoError(t, err)
	}
	firstRec, err := store.BadgeBySlug(ctx, first.Slug)
	require.NoError(t, err)
	verifiedRec, err := store.BadgeBySlug(ctx, verified.Slug)
	require.NoError(t, err)

	_, err = store.Award(ctx, "u1", firstRec.ID, first.Slug, nil, base)
	require.NoError(t, err)
	_, err = store.Award(ctx, "u1", verifiedRec.ID, verified.Slug, nil, base.Add(time.Hour))
	require.NoError(t, err)

	held, err := store.BadgesOfUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, held, 2)
	// Most recent award first.
	assert.Equal(t, verified.Slug, held[0].Slug)
	assert.Equal(t, "Verified Author", held[0].Name)
	assert.Equal(t, first.Slug, held[1].Slug)

	none, err := store.BadgesOfUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPublishedInScope(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedAuthor(t, store, repository.Author{ID: "a1", Handle: "ada", DisplayName: "Ada", AvatarURL: "http://x/a.png"})
	seedAuthor(t, store, repository.Author{ID: "a2", Handle: "bob", DisplayName: "Bob"})

	seedContent(t, store, repository.Content{ID: "c1", Slug: "s1", Title: "T1", AuthorID: "a1", Status: repository.StatusPublished, Tags: ",golang,testing,", Model: "gpt-4"})
	seedContent(t, store, repository.Content{ID: "c2", Slug: "s2", Title: "T2", AuthorID: "a2", Status: repository.StatusPublished, Tags: ",rust,", Model: "claude"})
	seedContent(t, store, repository.Content{ID: "c3", Slug: "s3", Title: "T3", AuthorID: "a1", Status: repository.StatusDraft, Tags: ",golang,"})

	global, err := store.PublishedInScope(ctx, types.ScopeGlobal, nil)
	require.NoError(t, err)
	require.Len(t, global, 2) // drafts excluded
	assert.Equal(t, "c1", global[0].ID)
	assert.Equal(t, "ada", global[0].Author.Handle)
	assert.Equal(t, "Ada", global[0].Author.DisplayName)

	tag := "golang"
	tagged, err := store.PublishedInScope(ctx, types.ScopeTag, &tag)
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "c1", tagged[0].ID)

	model := "claude"
	modeled, err := store.PublishedInScope(ctx, types.ScopeModel, &model)
	require.NoError(t, err)
	require.Len(t, modeled, 1)
	assert.Equal(t, "c2", modeled[0].ID)
}

func TestPublishedInScopeTagMatchesLiterally(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedAuthor(t, store, repository.Author{ID: "a1", Handle: "ada"})
	seedContent(t, store, repository.Content{ID: "c1", Slug: "s1", AuthorID: "a1", Status: repository.StatusPublished, Tags: ",golang,"})
	seedContent(t, store, repository.Content{ID: "c2", Slug: "s2", AuthorID: "a1", Status: repository.StatusPublished, Tags: ",go_lang,"})

	// An underscore in the ref is a literal character, not a wildcard.
	tag := "go_lang"
	got, err := store.PublishedInScope(ctx, types.ScopeTag, &tag)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c2", got[0].ID)

	// And a percent ref cannot match everything.
	tag = "go%"
	got, err = store.PublishedInScope(ctx, types.ScopeTag, &tag)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDailyRecordsSince(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.DB().Create(&repository.MetricDaily{
			ContentID: "c1",
			Date:      utcDay(2026, 8, 20+i),
			Views:     int64(i),
			Copies:    1,
		}).Error)
	}

	all, err := store.DailyRecordsSince(ctx, []string{"c1"}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	since := utcDay(2026, 8, 24)
	recent, err := store.DailyRecordsSince(ctx, []string{"c1"}, &since)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	none, err := store.DailyRecordsSince(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestVoteAndCopyAggregates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	net, err := store.NetVotes(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, net)

	for i, v := range []int{1, 1, 1, -1} {
		require.NoError(t, store.DB().Create(&repository.Vote{
			ContentID: "c1", UserID: fmt.Sprintf("u%d", i), Value: v,
		}).Error)
	}
	net, err = store.NetVotes(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, net)

	total, err := store.TotalCopies(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	require.NoError(t, store.DB().Create(&repository.MetricDaily{ContentID: "c1", Date: utcDay(2026, 8, 27), Copies: 60}).Error)
	require.NoError(t, store.DB().Create(&repository.MetricDaily{ContentID: "c1", Date: utcDay(2026, 8, 28), Copies: 45}).Error)

	total, err = store.TotalCopies(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 105, total)
}

func TestContentLookups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedContent(t, store, repository.Content{ID: "c1", Slug: "s1", AuthorID: "a1", Status: repository.StatusPublished})
	seedContent(t, store, repository.Content{ID: "c2", Slug: "s2", AuthorID: "a1", Status: repository.StatusDraft})

	n, err := store.CountPublishedByAuthor(ctx, "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	published, err := store.PublishedByAuthor(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "c1", published[0].ID)

	got, err := store.ContentByID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.Slug)

	missing, err := store.ContentByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
