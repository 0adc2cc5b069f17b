package service

import (
	"context"

	"github.com/pablohpsilva/something-something-sub003/internal/domain/types"
	"github.com/pablohpsilva/something-something-sub003/pkg/logger"
)

// allPeriods is the recompute order for one scope.
var allPeriods = []types.Period{
	types.PeriodDaily,
	types.PeriodWeekly,
	types.PeriodMonthly,
	types.PeriodAll,
}

// RecomputeAll recomputes every configured leaderboard (GLOBAL plus
// one TAG scope per tag and one MODEL scope per model) for all four
// periods, then awards top-10-week from the weekly GLOBAL board. This
// is the entry point the cron-style trigger calls.
//
// A failing scope is logged and skipped so one bad partition does not
// starve the rest; the first error is still returned to the trigger
// for visibility. Returned side effects are the pending award
// notifications for the caller to dispatch.
func (e *Engine) RecomputeAll(ctx context.Context, tags, models []string) ([]SideEffect, error) {
	var firstErr error

	keys := make([]Params, 0, (1+len(tags)+len(models))*len(allPeriods))
	for _, period := range allPeriods {
		keys = append(keys, Params{Period: period, Scope: types.ScopeGlobal})
		for _, tag := range tags {
			t := tag
			keys = append(keys, Params{Period: period, Scope: types.ScopeTag, ScopeRef: &t})
		}
		for _, model := range models {
			m := model
			keys = append(keys, Params{Period: period, Scope: types.ScopeModel, ScopeRef: &m})
		}
	}

	var weeklyGlobal []types.Entry
	for _, p := range keys {
		entries, err := e.ComputeLeaderboard(ctx, p)
		if err == nil {
			_, err = e.UpsertSnapshot(ctx, p, entries)
		}
		if err != nil {
			e.logger.Error(ctx, "recompute failed for scope",
				logger.String("period", string(p.Period)),
				logger.String("scope", string(p.Scope)),
				logger.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if p.Period == types.PeriodWeekly && p.Scope == types.ScopeGlobal {
			weeklyGlobal = entries
		}
	}

	var effects []SideEffect
	if len(weeklyGlobal) > 0 {
		ids := make([]string, 0, 10)
		for _, entry := range weeklyGlobal {
			if len(ids) == 10 {
				break
			}
			ids = append(ids, entry.ContentID)
		}
		awarded, fx := e.AwardTop10WeeklyBadges(ctx, ids)
		effects = append(effects, fx...)
		e.logger.Info(ctx, "weekly top-10 badges processed",
			logger.Int("candidates", len(ids)),
			logger.Int("awarded", awarded),
		)
	}

	return effects, firstErr
}
