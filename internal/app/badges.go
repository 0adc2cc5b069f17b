package service

import (
	"context"

	"github.com/pablohpsilva/something-something-sub003/internal/domain/badges"
	"github.com/pablohpsilva/something-something-sub003/pkg/logger"
	"github.com/pablohpsilva/something-something-sub003/pkg/metrics"
)

// SideEffectBadgeAwarded tags the notification descriptor emitted for
// every fresh award.
const SideEffectBadgeAwarded = "notification.badge_awarded"

// SeedBadgeCatalog stores every catalog definition whose slug is not
// persisted yet and returns the number created. Safe to run on every
// boot: existing slugs are left untouched.
func (e *Engine) SeedBadgeCatalog(ctx context.Context) (int, error) {
	created := 0
	for _, def := range badges.Catalog() {
		ok, err := e.store.SeedBadge(ctx, def, e.now())
		if err != nil {
			return created, err
		}
		if ok {
			created++
			e.logger.Info(ctx, "badge seeded", logger.String("slug", def.Slug))
		}
	}
	return created, nil
}

// AwardIfEligible turns an eligibility decision into a durable,
// non-duplicated award plus its audit record.
//
// It never returns an error and never panics: a missing badge slug is a
// configuration problem, a duplicate award is the expected idempotent
// case, and a store failure is logged and swallowed; the caller's
// primary action (publishing, voting, copying) must not fail because
// badge bookkeeping did. Calling it twice for the same (user, slug)
// yields one stored award and true followed by false.
//
// The returned side effects are pending notifications for the caller to
// dispatch fire-and-forget; they are emitted only on a fresh award.
func (e *Engine) AwardIfEligible(ctx context.Context, userID, slug string, metadata map[string]any) (bool, []SideEffect) {
	badge, err := e.store.BadgeBySlug(ctx, slug)
	if err != nil {
		metrics.RecordAwardError()
		e.logger.Error(ctx, "award aborted: badge lookup failed",
			logger.String("slug", slug),
			logger.String("userID", userID),
			logger.Error(err),
		)
		return false, nil
	}
	if badge == nil {
		e.logger.Warn(ctx, "award skipped: badge slug not seeded",
			logger.String("slug", slug),
			logger.String("userID", userID),
		)
		return false, nil
	}

	held, err := e.store.HasUserBadge(ctx, userID, badge.ID)
	if err != nil {
		metrics.RecordAwardError()
		e.logger.Error(ctx, "award aborted: badge ownership check failed",
			logger.String("slug", slug),
			logger.String("userID", userID),
			logger.Error(err),
		)
		return false, nil
	}
	if held {
		metrics.RecordBadgeDuplicate()
		return false, nil
	}

	awarded, err := e.store.Award(ctx, userID, badge.ID, slug, metadata, e.now())
	if err != nil {
		metrics.RecordAwardError()
		e.logger.Error(ctx, "award failed",
			logger.String("slug", slug),
			logger.String("userID", userID),
			logger.Error(err),
		)
		return false, nil
	}
	if !awarded {
		// Lost a race to a concurrent award; the constraint made that a
		// no-op rather than a duplicate row.
		metrics.RecordBadgeDuplicate()
		return false, nil
	}

	metrics.RecordBadgeAwarded(slug)
	e.logger.Info(ctx, "badge awarded",
		logger.String("slug", slug),
		logger.String("userID", userID),
	)
	return true, []SideEffect{{
		Kind:      SideEffectBadgeAwarded,
		UserID:    userID,
		BadgeSlug: slug,
		Metadata:  metadata,
	}}
}

// CheckFirstContribution awards first-contribution iff the user's
// published count is exactly 1. The equality is deliberate: the checker
// fires at the moment of the first publish, so callers invoke it after
// each publish rather than as a periodic sweep.
func (e *Engine) CheckFirstContribution(ctx context.Context, userID string) (bool, []SideEffect) {
	n, err := e.store.CountPublishedByAuthor(ctx, userID)
	if err != nil {
		e.logger.Error(ctx, "first-contribution check failed",
			logger.String("userID", userID),
			logger.Error(err),
		)
		return false, nil
	}
	if n != 1 {
		return false, nil
	}
	return e.AwardIfEligible(ctx, userID, badges.SlugFirstContribution, nil)
}

// CheckTenUpvotes awards ten-upvotes to the content's author once its
// net score (upvotes minus downvotes) reaches 10. The award metadata
// snapshots the net score at decision time.
func (e *Engine) CheckTenUpvotes(ctx context.Context, contentID string) (bool, []SideEffect) {
	net, err := e.store.NetVotes(ctx, contentID)
	if err != nil {
		e.logger.Error(ctx, "ten-upvotes check failed",
			logger.String("contentID", contentID),
			logger.Error(err),
		)
		return false, nil
	}
	if net < 10 {
		return false, nil
	}

	content, err := e.store.ContentByID(ctx, contentID)
	if err != nil || content == nil {
		if err != nil {
			e.logger.Error(ctx, "ten-upvotes check failed",
				logger.String("contentID", contentID),
				logger.Error(err),
			)
		}
		return false, nil
	}
	return e.AwardIfEligible(ctx, content.AuthorID, badges.SlugTenUpvotes, map[string]any{
		"contentId": contentID,
		"netScore":  net,
	})
}

// CheckHundredCopies awards hundred-copies to the content's author once
// its copies counter, summed across all daily records, reaches 100.
func (e *Engine) CheckHundredCopies(ctx context.Context, contentID string) (bool, []SideEffect) {
	total, err := e.store.TotalCopies(ctx, contentID)
	if err != nil {
		e.logger.Error(ctx, "hundred-copies check failed",
			logger.String("contentID", contentID),
			logger.Error(err),
		)
		return false, nil
	}
	if total < 100 {
		return false, nil
	}

	content, err := e.store.ContentByID(ctx, contentID)
	if err != nil || content == nil {
		if err != nil {
			e.logger.Error(ctx, "hundred-copies check failed",
				logger.String("contentID", contentID),
				logger.Error(err),
			)
		}
		return false, nil
	}
	return e.AwardIfEligible(ctx, content.AuthorID, badges.SlugHundredCopies, map[string]any{
		"contentId": contentID,
		"copies":    total,
	})
}

// AwardVerifiedAuthor grants verified-author directly; the trigger is
// the (external) moderation flow granting verification, so there is no
// threshold to check.
func (e *Engine) AwardVerifiedAuthor(ctx context.Context, userID string) (bool, []SideEffect) {
	return e.AwardIfEligible(ctx, userID, badges.SlugVerifiedAuthor, nil)
}

// AwardTop10WeeklyBadges awards top-10-week to the authors of up to the
// first ten ranked content ids. Ids whose content no longer resolves
// are skipped. Returns the number actually awarded, which can be less
// than ten.
func (e *Engine) AwardTop10WeeklyBadges(ctx context.Context, rankedContentIDs []string) (int, []SideEffect) {
	if len(rankedContentIDs) > 10 {
		rankedContentIDs = rankedContentIDs[:10]
	}

	awarded := 0
	var effects []SideEffect
	for i, id := range rankedContentIDs {
		content, err := e.store.ContentByID(ctx, id)
		if err != nil {
			e.logger.Error(ctx, "top-10 award: content lookup failed",
				logger.String("contentID", id),
				logger.Error(err),
			)
			continue
		}
		if content == nil {
			e.logger.Warn(ctx, "top-10 award: content no longer resolves",
				logger.String("contentID", id),
			)
			continue
		}
		ok, fx := e.AwardIfEligible(ctx, content.AuthorID, badges.SlugTop10Week, map[string]any{
			"contentId": id,
			"rank":      i + 1,
		})
		if ok {
			awarded++
			effects = append(effects, fx...)
		}
	}
	return awarded, effects
}

// RecheckUserBadges re-runs the metric-driven checkers for one user:
// first-contribution once, then ten-upvotes and hundred-copies once per
// published content the user owns. It exists for backfill and repair,
// not for the steady-state event path: a badge that silently failed to
// award is picked up here. Returns the number of badges newly awarded.
func (e *Engine) RecheckUserBadges(ctx context.Context, userID string) (int, []SideEffect) {
	total := 0
	var effects []SideEffect

	if ok, fx := e.CheckFirstContribution(ctx, userID); ok {
		total++
		effects = append(effects, fx...)
	}

	contents, err := e.store.PublishedByAuthor(ctx, userID)
	if err != nil {
		e.logger.Error(ctx, "badge recheck: content listing failed",
			logger.String("userID", userID),
			logger.Error(err),
		)
		return total, effects
	}
	for _, c := range contents {
		if ok, fx := e.CheckTenUpvotes(ctx, c.ID); ok {
			total++
			effects = append(effects, fx...)
		}
		if ok, fx := e.CheckHundredCopies(ctx, c.ID); ok {
			total++
			effects = append(effects, fx...)
		}
	}
	return total, effects
}
