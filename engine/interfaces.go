package engine

import (
	"context"
	"time"

	"questkit/core"
	"questkit/leaderboard"
)

// Store abstracts persistence for progression state. Implementations must
// enforce the uniqueness invariants (one UserPoints row per user, one
// EarnedBadge per user+badge, one QuestProgress per user+quest) and treat
// duplicate inserts under a race as successful no-ops.
type Store interface {
	// AddPoints appends a ledger entry and applies delta to the user's
	// running total in a single transaction, creating the totals row on
	// first award. Returns the updated totals.
	AddPoints(ctx context.Context, user core.UserID, activity core.ActivityType, delta int64, related *core.RelatedEntity) (core.UserPoints, error)

	// AppendAudit writes a zero-impact ledger entry (badge earned, reward
	// granted) without touching the totals row.
	AppendAudit(ctx context.Context, entry core.ActivityEntry) error

	// SetLevel stores the recomputed level on the totals row.
	SetLevel(ctx context.Context, user core.UserID, level int) error

	// GetUserPoints returns core.ErrNotFound when the user has no totals
	// row yet.
	GetUserPoints(ctx context.Context, user core.UserID) (core.UserPoints, error)

	// AllUserPoints lists every totals row; backs the all-time leaderboard.
	AllUserPoints(ctx context.Context) ([]core.UserPoints, error)

	// SumDeltasSince aggregates ledger deltas per user for entries with
	// occurred_at >= since. Users without entries in the window are absent
	// from the result.
	SumDeltasSince(ctx context.Context, since time.Time) (map[core.UserID]int64, error)

	// CountDistinctActivityDays counts distinct UTC calendar days on which
	// the user logged the given activity type.
	CountDistinctActivityDays(ctx context.Context, user core.UserID, activity core.ActivityType) (int, error)

	// Badge catalog and grants.
	ListBadges(ctx context.Context) ([]core.Badge, error)
	GetBadge(ctx context.Context, id int64) (core.Badge, error)
	CreateBadge(ctx context.Context, b *core.Badge) error
	EarnedBadgeIDs(ctx context.Context, user core.UserID) (map[int64]struct{}, error)
	// GrantBadge inserts the earned-badge row. A duplicate (already earned,
	// or lost race) returns (false, nil).
	GrantBadge(ctx context.Context, user core.UserID, badgeID int64) (bool, error)

	// Quest configuration and progress.
	ListQuests(ctx context.Context) ([]core.Quest, error)
	GetQuest(ctx context.Context, id int64) (core.Quest, error)
	CreateQuest(ctx context.Context, q *core.Quest) error
	ActiveQuestsByCriteria(ctx context.Context, key core.CriteriaKey) ([]core.Quest, error)
	GetProgress(ctx context.Context, user core.UserID, questID int64) (core.QuestProgress, error)
	GetProgressByID(ctx context.Context, id int64) (core.QuestProgress, error)
	// SaveProgress creates or updates the row keyed by (user, quest),
	// assigning ID on create. A duplicate insert under a race folds into
	// an update of the surviving row.
	SaveProgress(ctx context.Context, p *core.QuestProgress) error
	// ClaimProgress atomically moves the row from completed to claimed.
	// Returns false when the row is not currently completed, which covers
	// both premature and repeated claims.
	ClaimProgress(ctx context.Context, id int64) (bool, error)

	// GrantVirtualGood idempotently grants a cosmetic item; duplicates
	// return (false, nil).
	GrantVirtualGood(ctx context.Context, user core.UserID, goodID int64) (bool, error)
}

// SocialGraph is the read-only collaborator surface for identity checks and
// the aggregate counts badge predicates need. The engine never traverses
// the social graph's own models.
type SocialGraph interface {
	UserExists(ctx context.Context, user core.UserID) (bool, error)
	PostCount(ctx context.Context, user core.UserID) (int, error)
	MediaPostCount(ctx context.Context, user core.UserID) (int, error)
	CommentCount(ctx context.Context, user core.UserID) (int, error)
	FollowerCount(ctx context.Context, user core.UserID) (int, error)
	FollowingCount(ctx context.Context, user core.UserID) (int, error)
}

// RewardCatalog resolves named cosmetic rewards. Absence is a valid,
// non-fatal outcome expressed as (nil, nil).
type RewardCatalog interface {
	FindVirtualGood(ctx context.Context, name, kind string) (*core.VirtualGood, error)
}

// LeaderboardIndex is an optional windowed score index (e.g. Redis sorted
// sets) fed on every award and consulted first for windowed leaderboard
// reads. The ledger remains the source of truth; index misses fall back to
// ledger aggregation.
type LeaderboardIndex interface {
	Record(ctx context.Context, user core.UserID, delta int64, at time.Time) error
	Top(ctx context.Context, period leaderboard.Period, limit int, now time.Time) ([]leaderboard.Entry, error)
}
