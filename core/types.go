package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// UserID uniquely identifies a user in the progression domain. Identity
// itself (accounts, profiles) lives in the collaborating identity store.
type UserID string

// ActivityType identifies the cause of a ledger entry for auditing.
type ActivityType string

const (
	ActivityCreatePost    ActivityType = "create_post"
	ActivityCreateComment ActivityType = "create_comment"
	ActivityDailyLogin    ActivityType = "daily_login"
	ActivityEarnBadge     ActivityType = "earn_badge"
	ActivityQuestReward   ActivityType = "quest_reward"
	ActivityRewardBadge   ActivityType = "quest_reward_badge"
	ActivityRewardGood    ActivityType = "quest_reward_good"
	ActivitySpendPoints   ActivityType = "spend_points"
)

// CriteriaKey selects a badge predicate or quest activity signal from the
// registered criteria tables.
type CriteriaKey string

// Well-known criteria keys used by the seeded catalogs.
const (
	CriteriaFirstSteps       CriteriaKey = "first_steps"
	CriteriaPhotographer     CriteriaKey = "photographer"
	CriteriaEngager          CriteriaKey = "engager"
	CriteriaInfluencer       CriteriaKey = "influencer"
	CriteriaSocialButterfly  CriteriaKey = "social_butterfly"
	CriteriaDedicatedMember  CriteriaKey = "dedicated_member"
	CriteriaPointCollector   CriteriaKey = "point_collector"
	CriteriaPointHoarder     CriteriaKey = "point_hoarder"
	CriteriaRisingStar       CriteriaKey = "rising_star"
	CriteriaWeeklyContender  CriteriaKey = "weekly_contender"
	CriteriaPodiumFinisher   CriteriaKey = "podium_finisher"
	CriteriaPostWithMedia    CriteriaKey = "create_post_with_media"
	CriteriaCreateComment    CriteriaKey = "create_comment"
	CriteriaDailyLogin       CriteriaKey = "daily_login"
	CriteriaCompleteProfile  CriteriaKey = "complete_profile"
	CriteriaWeeklyEngagement CriteriaKey = "general_engagement_weekly"
)

// QuestKind classifies quests by cadence.
type QuestKind string

const (
	QuestDaily       QuestKind = "daily"
	QuestWeekly      QuestKind = "weekly"
	QuestAchievement QuestKind = "achievement"
)

// ProgressStatus is the quest progress state machine state.
type ProgressStatus string

const (
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
	StatusClaimed    ProgressStatus = "claimed"
)

// RelatedEntity links a ledger entry or activity signal to the collaborator
// entity that caused it. MediaCount carries the attachment count for
// media-gated quest filters; callers that don't track it leave it zero.
type RelatedEntity struct {
	ID         int64  `json:"id"`
	Type       string `json:"type"`
	MediaCount int    `json:"media_count,omitempty"`
}

// ActivityEntry is one immutable row of the append-only points ledger.
// The ledger is the sole source of truth for point history and windowed
// leaderboard aggregation.
type ActivityEntry struct {
	ID          int64          `json:"id"`
	UserID      UserID         `json:"user_id"`
	Activity    ActivityType   `json:"activity_type"`
	PointsDelta int64          `json:"points_delta"`
	Related     *RelatedEntity `json:"related,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// UserPoints is the derived running total and level for one user.
// Invariant: TotalPoints equals the sum of the user's ledger deltas at
// every commit boundary.
type UserPoints struct {
	UserID      UserID    `json:"user_id"`
	TotalPoints int64     `json:"total_points"`
	Level       int       `json:"level"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Badge is one entry of the static badge catalog.
type Badge struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	IconRef     string      `json:"icon_ref"`
	CriteriaKey CriteriaKey `json:"criteria_key"`
}

// EarnedBadge records a one-time, non-revocable badge grant.
type EarnedBadge struct {
	UserID   UserID    `json:"user_id"`
	BadgeID  int64     `json:"badge_id"`
	EarnedAt time.Time `json:"earned_at"`
}

// ActiveWindow bounds a quest's validity in time. Nil ends are open.
type ActiveWindow struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Contains reports whether t falls inside the window.
func (w ActiveWindow) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// Quest is one entry of the seeded quest configuration.
type Quest struct {
	ID                  int64        `json:"id"`
	Title               string       `json:"title"`
	Description         string       `json:"description"`
	Kind                QuestKind    `json:"kind"`
	CriteriaKey         CriteriaKey  `json:"criteria_key"`
	TargetCount         int          `json:"target_count"`
	RewardPoints        int64        `json:"reward_points"`
	RewardBadgeID       *int64       `json:"reward_badge_id,omitempty"`
	RewardVirtualGoodID *int64       `json:"reward_virtual_good_id,omitempty"`
	IsActive            bool         `json:"is_active"`
	CooldownHours       *int         `json:"repeat_cooldown_hours,omitempty"`
	Window              ActiveWindow `json:"active_window"`
}

// Repeatable reports whether the quest resets after a cooldown.
func (q Quest) Repeatable() bool { return q.CooldownHours != nil }

// Cooldown returns the repeat cooldown; zero for non-repeatable quests.
func (q Quest) Cooldown() time.Duration {
	if q.CooldownHours == nil {
		return 0
	}
	return time.Duration(*q.CooldownHours) * time.Hour
}

// QuestProgress is one user's per-quest progress row.
// Invariant: at most one row per (UserID, QuestID).
type QuestProgress struct {
	ID              int64          `json:"id"`
	UserID          UserID         `json:"user_id"`
	QuestID         int64          `json:"quest_id"`
	CurrentCount    int            `json:"current_count"`
	Status          ProgressStatus `json:"status"`
	LastProgressAt  time.Time      `json:"last_progress_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	LastCompletedAt *time.Time     `json:"last_completed_at,omitempty"`
}

// VirtualGood is a cosmetic reward item (title/flair) from the rewards
// catalog collaborator.
type VirtualGood struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	TitleText string `json:"title_text,omitempty"`
	IsActive  bool   `json:"is_active"`
}

// LeaderboardRow is one computed rank. Never persisted.
type LeaderboardRow struct {
	Rank   int    `json:"rank"`
	UserID UserID `json:"user_id"`
	Score  int64  `json:"score"`
	Level  int    `json:"level"`
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}
