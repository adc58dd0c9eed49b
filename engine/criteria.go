package engine

import (
	"context"
	"sync"

	"questkit/core"
	"questkit/leaderboard"
)

// CriteriaEnv is the derived state a badge predicate may consult: the
// user's totals row (zero-valued if absent), the collaborator counts, the
// ledger, and a leaderboard read-through supplied by the service.
type CriteriaEnv struct {
	Store       Store
	Social      SocialGraph
	Points      core.UserPoints
	Leaderboard func(ctx context.Context, period leaderboard.Period, limit int) ([]core.LeaderboardRow, error)
}

// BadgePredicate reports whether the user currently satisfies a badge's
// earning criteria. Predicates are pure reads; the grant itself happens in
// EvaluateBadges.
type BadgePredicate func(ctx context.Context, env *CriteriaEnv, user core.UserID) (bool, error)

// CriteriaRegistry maps criteria keys to predicates. Registering a
// predicate is how new badges become evaluable without touching the
// evaluation loop.
type CriteriaRegistry struct {
	mu sync.RWMutex
	m  map[core.CriteriaKey]BadgePredicate
}

func NewCriteriaRegistry() *CriteriaRegistry {
	return &CriteriaRegistry{m: make(map[core.CriteriaKey]BadgePredicate)}
}

func (r *CriteriaRegistry) Register(key core.CriteriaKey, pred BadgePredicate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = pred
}

func (r *CriteriaRegistry) Lookup(key core.CriteriaKey) (BadgePredicate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pred, ok := r.m[key]
	return pred, ok
}

// countPredicate builds a predicate over a collaborator count function.
func countPredicate(count func(context.Context, SocialGraph, core.UserID) (int, error), min int) BadgePredicate {
	return func(ctx context.Context, env *CriteriaEnv, user core.UserID) (bool, error) {
		n, err := count(ctx, env.Social, user)
		if err != nil {
			return false, err
		}
		return n >= min, nil
	}
}

// pointsPredicate matches cumulative point thresholds.
func pointsPredicate(min int64) BadgePredicate {
	return func(_ context.Context, env *CriteriaEnv, _ core.UserID) (bool, error) {
		return env.Points.TotalPoints >= min, nil
	}
}

// levelPredicate matches current level thresholds.
func levelPredicate(min int) BadgePredicate {
	return func(_ context.Context, env *CriteriaEnv, _ core.UserID) (bool, error) {
		return env.Points.Level >= min, nil
	}
}

// boardPredicate matches leaderboard membership at evaluation time.
func boardPredicate(period leaderboard.Period, topN int) BadgePredicate {
	return func(ctx context.Context, env *CriteriaEnv, user core.UserID) (bool, error) {
		rows, err := env.Leaderboard(ctx, period, topN)
		if err != nil {
			return false, err
		}
		for _, row := range rows {
			if row.UserID == user {
				return true, nil
			}
		}
		return false, nil
	}
}

// DefaultCriteria returns the stock predicate table matching the seeded
// badge catalog.
func DefaultCriteria() *CriteriaRegistry {
	r := NewCriteriaRegistry()

	r.Register(core.CriteriaFirstSteps, countPredicate(
		func(ctx context.Context, s SocialGraph, u core.UserID) (int, error) { return s.PostCount(ctx, u) }, 1))
	r.Register(core.CriteriaPhotographer, countPredicate(
		func(ctx context.Context, s SocialGraph, u core.UserID) (int, error) { return s.MediaPostCount(ctx, u) }, 1))
	r.Register(core.CriteriaEngager, countPredicate(
		func(ctx context.Context, s SocialGraph, u core.UserID) (int, error) { return s.CommentCount(ctx, u) }, 10))
	r.Register(core.CriteriaInfluencer, countPredicate(
		func(ctx context.Context, s SocialGraph, u core.UserID) (int, error) { return s.FollowerCount(ctx, u) }, 10))
	r.Register(core.CriteriaSocialButterfly, countPredicate(
		func(ctx context.Context, s SocialGraph, u core.UserID) (int, error) { return s.FollowingCount(ctx, u) }, 5))

	r.Register(core.CriteriaDedicatedMember, func(ctx context.Context, env *CriteriaEnv, user core.UserID) (bool, error) {
		days, err := env.Store.CountDistinctActivityDays(ctx, user, core.ActivityDailyLogin)
		if err != nil {
			return false, err
		}
		return days >= 7, nil
	})

	r.Register(core.CriteriaPointCollector, pointsPredicate(100))
	r.Register(core.CriteriaPointHoarder, pointsPredicate(500))
	r.Register(core.CriteriaRisingStar, levelPredicate(5))

	r.Register(core.CriteriaWeeklyContender, boardPredicate(leaderboard.PeriodWeekly, 10))
	r.Register(core.CriteriaPodiumFinisher, boardPredicate(leaderboard.PeriodMonthly, 3))

	return r
}

// QuestFilter is a quest-specific eligibility check applied before a
// matching activity increments the counter.
type QuestFilter func(related *core.RelatedEntity) bool

// FilterRegistry maps quest criteria keys to eligibility filters. Keys
// without a filter accept every matching activity.
type FilterRegistry struct {
	mu sync.RWMutex
	m  map[core.CriteriaKey]QuestFilter
}

func NewFilterRegistry() *FilterRegistry {
	return &FilterRegistry{m: make(map[core.CriteriaKey]QuestFilter)}
}

func (r *FilterRegistry) Register(key core.CriteriaKey, f QuestFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = f
}

func (r *FilterRegistry) Lookup(key core.CriteriaKey) (QuestFilter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.m[key]
	return f, ok
}

// DefaultFilters returns the stock filter table: media-gated post quests
// only count posts that actually carry attachments.
func DefaultFilters() *FilterRegistry {
	r := NewFilterRegistry()
	r.Register(core.CriteriaPostWithMedia, func(related *core.RelatedEntity) bool {
		return related != nil && related.MediaCount > 0
	})
	return r
}
