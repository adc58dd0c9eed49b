package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"questkit/core"
	"questkit/leaderboard"
)

// Service wires storage, collaborators, event bus, and the criteria tables
// into the engine's five entry points: AwardPoints, EvaluateBadges,
// AdvanceQuest, ClaimQuestReward, GetLeaderboard.
type Service struct {
	store    Store
	social   SocialGraph
	rewards  RewardCatalog
	index    LeaderboardIndex
	bus      *EventBus
	criteria *CriteriaRegistry
	filters  *FilterRegistry
	levels   core.LevelTable
	log      *slog.Logger
	now      func() time.Time

	// name of the cosmetic title granted alongside the first-achievement
	// badge; absence in the rewards catalog is non-fatal.
	firstStepsTitle string
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithRewardCatalog wires the cosmetic rewards collaborator.
func WithRewardCatalog(rc RewardCatalog) ServiceOption { return func(s *Service) { s.rewards = rc } }

// WithLeaderboardIndex wires a windowed score index consulted before
// falling back to ledger aggregation.
func WithLeaderboardIndex(idx LeaderboardIndex) ServiceOption {
	return func(s *Service) { s.index = idx }
}

// WithLevelTable overrides the default level threshold table.
func WithLevelTable(t core.LevelTable) ServiceOption { return func(s *Service) { s.levels = t } }

// WithCriteria overrides the badge predicate registry.
func WithCriteria(r *CriteriaRegistry) ServiceOption { return func(s *Service) { s.criteria = r } }

// WithFilters overrides the quest eligibility filter registry.
func WithFilters(r *FilterRegistry) ServiceOption { return func(s *Service) { s.filters = r } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServiceOption { return func(s *Service) { s.log = l } }

// WithClock overrides the time source, used by cooldown and window tests.
func WithClock(now func() time.Time) ServiceOption { return func(s *Service) { s.now = now } }

func NewService(store Store, social SocialGraph, bus *EventBus, opts ...ServiceOption) *Service {
	if store == nil || social == nil || bus == nil {
		panic("NewService requires non-nil store, social graph, and bus")
	}
	s := &Service{
		store:           store,
		social:          social,
		bus:             bus,
		criteria:        DefaultCriteria(),
		filters:         DefaultFilters(),
		levels:          core.DefaultLevelTable(),
		log:             slog.Default(),
		now:             func() time.Time { return time.Now().UTC() },
		firstStepsTitle: "First Steps Title",
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe convenience method.
func (s *Service) Subscribe(kind core.EventKind, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(kind, handler)
}

func (s *Service) Publish(ctx context.Context, ev core.Event) { s.bus.Publish(ctx, ev) }

func (s *Service) Close() { s.bus.Close() }

// AwardResult reports the outcome of one AwardPoints call.
type AwardResult struct {
	Points        core.UserPoints
	PreviousLevel int
	LeveledUp     bool
	NewBadges     []core.Badge
}

// AwardPoints appends a ledger entry, applies delta to the user's total,
// recomputes the level, and re-evaluates badges. The ledger entry and the
// totals update commit together. Delta may be negative (spending); the
// ledger never self-validates sufficiency, that is the purchase flow's
// job. Crossing several level thresholds in one call emits a single
// level_up event naming the final level.
func (s *Service) AwardPoints(ctx context.Context, user core.UserID, activity core.ActivityType, delta int64, related *core.RelatedEntity) (AwardResult, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return AwardResult{}, err
	}
	exists, err := s.social.UserExists(ctx, user)
	if err != nil {
		return AwardResult{}, fmt.Errorf("identity lookup for %s: %w", user, err)
	}
	if !exists {
		return AwardResult{}, fmt.Errorf("user %s: %w", user, core.ErrNotFound)
	}

	prevLevel := 1
	if prev, err := s.store.GetUserPoints(ctx, user); err == nil {
		prevLevel = prev.Level
	} else if !errors.Is(err, core.ErrNotFound) {
		return AwardResult{}, err
	}

	up, err := s.store.AddPoints(ctx, user, activity, delta, related)
	if err != nil {
		return AwardResult{}, err
	}
	s.bus.Publish(ctx, core.NewPointsAwarded(user, delta, up.TotalPoints))
	if s.index != nil {
		if err := s.index.Record(ctx, user, delta, s.now()); err != nil {
			s.log.Warn("leaderboard index record failed", "user", user, "error", err)
		}
	}

	newLevel := s.levels.LevelFor(up.TotalPoints)
	if newLevel != up.Level {
		if err := s.store.SetLevel(ctx, user, newLevel); err != nil {
			return AwardResult{}, err
		}
		up.Level = newLevel
	}
	result := AwardResult{Points: up, PreviousLevel: prevLevel}
	// Level decreases (negative deltas crossing a threshold downward) are
	// stored silently; the event is a one-way congratulation.
	if newLevel > prevLevel {
		result.LeveledUp = true
		s.bus.Publish(ctx, core.NewLevelUp(user, newLevel))
	}

	// Badge re-evaluation is always the final step. The award is already
	// committed, so evaluation failures are logged rather than surfaced.
	badges, err := s.EvaluateBadges(ctx, user)
	if err != nil {
		s.log.Error("badge evaluation after award failed", "user", user, "error", err)
	}
	result.NewBadges = badges
	return result, nil
}

// EvaluateBadges evaluates every unearned catalog badge against the user's
// current derived state and grants matches. The earned-badge set is
// snapshotted once at the start, so grants within this pass are not
// re-evaluated against later predicates. Repeated calls with unchanged
// state grant nothing and emit nothing.
func (s *Service) EvaluateBadges(ctx context.Context, user core.UserID) ([]core.Badge, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, err
	}
	catalog, err := s.store.ListBadges(ctx)
	if err != nil {
		return nil, err
	}
	earned, err := s.store.EarnedBadgeIDs(ctx, user)
	if err != nil {
		return nil, err
	}

	points := core.UserPoints{UserID: user, Level: 1}
	if up, err := s.store.GetUserPoints(ctx, user); err == nil {
		points = up
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	env := &CriteriaEnv{
		Store:  s.store,
		Social: s.social,
		Points: points,
		Leaderboard: func(ctx context.Context, period leaderboard.Period, limit int) ([]core.LeaderboardRow, error) {
			return s.GetLeaderboard(ctx, period, limit)
		},
	}

	var awarded []core.Badge
	for _, badge := range catalog {
		if _, ok := earned[badge.ID]; ok {
			continue
		}
		pred, ok := s.criteria.Lookup(badge.CriteriaKey)
		if !ok {
			s.log.Debug("no predicate registered for badge", "badge", badge.Name, "criteria", badge.CriteriaKey)
			continue
		}
		match, err := pred(ctx, env, user)
		if err != nil {
			// One collaborator failure must not block the remaining badges.
			s.log.Error("badge predicate failed", "badge", badge.Name, "user", user, "error", err)
			continue
		}
		if !match {
			continue
		}
		granted, err := s.store.GrantBadge(ctx, user, badge.ID)
		if err != nil {
			return awarded, err
		}
		if !granted {
			// lost a concurrent race; the other grant emitted the event
			continue
		}
		if err := s.store.AppendAudit(ctx, core.ActivityEntry{
			UserID:     user,
			Activity:   core.ActivityEarnBadge,
			Related:    &core.RelatedEntity{ID: badge.ID, Type: "badge"},
			OccurredAt: s.now(),
		}); err != nil {
			s.log.Error("audit entry for badge grant failed", "badge", badge.Name, "user", user, "error", err)
		}
		if badge.CriteriaKey == core.CriteriaFirstSteps {
			s.grantFirstStepsTitle(ctx, user)
		}
		s.log.Info("badge earned", "user", user, "badge", badge.Name)
		s.bus.Publish(ctx, core.NewBadgeEarned(user, badge))
		awarded = append(awarded, badge)
	}
	return awarded, nil
}

// grantFirstStepsTitle attempts the cosmetic title reward attached to the
// first-achievement badge. A missing catalog item or a failed grant is
// logged and never fails the badge grant.
func (s *Service) grantFirstStepsTitle(ctx context.Context, user core.UserID) {
	if s.rewards == nil {
		return
	}
	good, err := s.rewards.FindVirtualGood(ctx, s.firstStepsTitle, "title")
	if err != nil {
		s.log.Error("reward catalog lookup failed", "user", user, "title", s.firstStepsTitle, "error", err)
		return
	}
	if good == nil {
		s.log.Warn("cosmetic reward not found in catalog", "title", s.firstStepsTitle)
		return
	}
	if _, err := s.store.GrantVirtualGood(ctx, user, good.ID); err != nil {
		s.log.Error("cosmetic reward grant failed", "user", user, "good", good.Name, "error", err)
	}
}

// AdvanceQuest applies an activity signal to every active, in-window quest
// whose criteria key matches. Out-of-window quests are skipped silently
// with no row created. Repeatable quests reset after their cooldown;
// non-repeatable quests never accrue again once completed. Reaching the
// target transitions the row to completed and emits one quest_completed
// event for the completion instance.
func (s *Service) AdvanceQuest(ctx context.Context, user core.UserID, key core.CriteriaKey, increment int, related *core.RelatedEntity) error {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return err
	}
	if increment <= 0 {
		increment = 1
	}
	quests, err := s.store.ActiveQuestsByCriteria(ctx, key)
	if err != nil {
		return err
	}
	now := s.now()

	for _, quest := range quests {
		if !quest.Window.Contains(now) {
			continue
		}
		if filter, ok := s.filters.Lookup(key); ok && !filter(related) {
			continue
		}

		progress, err := s.store.GetProgress(ctx, user, quest.ID)
		created := false
		if errors.Is(err, core.ErrNotFound) {
			progress = core.QuestProgress{
				UserID:         user,
				QuestID:        quest.ID,
				CurrentCount:   0,
				Status:         core.StatusInProgress,
				LastProgressAt: now,
			}
			created = true
		} else if err != nil {
			return err
		}

		if progress.Status == core.StatusCompleted || progress.Status == core.StatusClaimed {
			if !quest.Repeatable() {
				continue
			}
			if progress.LastCompletedAt != nil && now.Before(progress.LastCompletedAt.Add(quest.Cooldown())) {
				continue // still in cooldown
			}
			s.log.Info("quest cooldown elapsed, resetting progress", "user", user, "quest", quest.Title)
			progress.CurrentCount = 0
			progress.Status = core.StatusInProgress
			progress.CompletedAt = nil
		}

		if progress.Status != core.StatusInProgress {
			continue
		}
		progress.CurrentCount += increment
		progress.LastProgressAt = now

		completed := false
		if progress.CurrentCount >= quest.TargetCount {
			progress.Status = core.StatusCompleted
			completedAt := now
			progress.CompletedAt = &completedAt
			progress.LastCompletedAt = &completedAt
			completed = true
		}

		if err := s.store.SaveProgress(ctx, &progress); err != nil {
			return err
		}
		if created {
			s.log.Debug("quest progress started", "user", user, "quest", quest.Title)
		}
		if completed {
			s.log.Info("quest completed", "user", user, "quest", quest.Title)
			s.bus.Publish(ctx, core.NewQuestCompleted(user, quest, progress.ID))
		}
	}
	return nil
}

// ClaimResult reports the grants made by one successful claim.
type ClaimResult struct {
	Progress      core.QuestProgress
	PointsAwarded int64
	Badge         *core.Badge
	VirtualGood   *core.VirtualGood
}

// ClaimQuestReward moves a completed progress row to claimed and grants the
// quest's rewards. The claimed transition is a compare-and-swap, so a
// second claim attempt fails with ErrInvalidState and grants nothing.
// Progress rows owned by other users are reported as ErrNotFound.
//
// Reward delivery is at most once: the row flips to claimed before the
// grants run, so a store failure mid-grant leaves that instance partially
// rewarded and the CAS blocks a retry. Callers that need recovery should
// reconcile the returned ClaimResult and error against the audit ledger.
func (s *Service) ClaimQuestReward(ctx context.Context, user core.UserID, progressID int64) (ClaimResult, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return ClaimResult{}, err
	}
	progress, err := s.store.GetProgressByID(ctx, progressID)
	if err != nil {
		return ClaimResult{}, err
	}
	if progress.UserID != user {
		return ClaimResult{}, fmt.Errorf("progress %d: %w", progressID, core.ErrNotFound)
	}

	claimed, err := s.store.ClaimProgress(ctx, progressID)
	if err != nil {
		return ClaimResult{}, err
	}
	if !claimed {
		return ClaimResult{}, fmt.Errorf("progress %d is not claimable: %w", progressID, core.ErrInvalidState)
	}
	progress.Status = core.StatusClaimed

	quest, err := s.store.GetQuest(ctx, progress.QuestID)
	if err != nil {
		return ClaimResult{}, err
	}

	result := ClaimResult{Progress: progress}
	questRef := &core.RelatedEntity{ID: quest.ID, Type: "quest"}

	if quest.RewardPoints > 0 {
		// AwardPoints writes its own ledger entry, so the point reward is
		// individually auditable; it also re-triggers leveling and badges.
		if _, err := s.AwardPoints(ctx, user, core.ActivityQuestReward, quest.RewardPoints, questRef); err != nil {
			return result, fmt.Errorf("granting quest point reward: %w", err)
		}
		result.PointsAwarded = quest.RewardPoints
	}

	if quest.RewardBadgeID != nil {
		granted, err := s.store.GrantBadge(ctx, user, *quest.RewardBadgeID)
		if err != nil {
			return result, fmt.Errorf("granting quest badge reward: %w", err)
		}
		if granted {
			badge, err := s.store.GetBadge(ctx, *quest.RewardBadgeID)
			if err == nil {
				result.Badge = &badge
				s.bus.Publish(ctx, core.NewBadgeEarned(user, badge))
			}
			if err := s.store.AppendAudit(ctx, core.ActivityEntry{
				UserID:     user,
				Activity:   core.ActivityRewardBadge,
				Related:    questRef,
				OccurredAt: s.now(),
			}); err != nil {
				s.log.Error("audit entry for badge reward failed", "user", user, "quest", quest.Title, "error", err)
			}
		}
	}

	if quest.RewardVirtualGoodID != nil {
		granted, err := s.store.GrantVirtualGood(ctx, user, *quest.RewardVirtualGoodID)
		if err != nil {
			return result, fmt.Errorf("granting quest virtual good reward: %w", err)
		}
		if granted {
			result.VirtualGood = &core.VirtualGood{ID: *quest.RewardVirtualGoodID}
			if err := s.store.AppendAudit(ctx, core.ActivityEntry{
				UserID:     user,
				Activity:   core.ActivityRewardGood,
				Related:    questRef,
				OccurredAt: s.now(),
			}); err != nil {
				s.log.Error("audit entry for virtual good reward failed", "user", user, "quest", quest.Title, "error", err)
			}
		}
	}

	s.log.Info("quest reward claimed", "user", user, "quest", quest.Title, "points", result.PointsAwarded)
	return result, nil
}

// GetLeaderboard computes the ranked score table for the period. Windowed
// periods aggregate ledger deltas from the window start (UTC day, ISO
// week, calendar month); "all" ranks current totals. Rows carry the user's
// stored level, not one recomputed from the windowed score. Users without
// window activity are excluded. Ties break by ascending user ID.
func (s *Service) GetLeaderboard(ctx context.Context, period leaderboard.Period, limit int) ([]core.LeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}
	now := s.now()

	var entries []leaderboard.Entry
	since, windowed := period.WindowStart(now)
	switch {
	case !windowed:
		all, err := s.store.AllUserPoints(ctx)
		if err != nil {
			return nil, err
		}
		scores := make(map[core.UserID]int64, len(all))
		for _, up := range all {
			scores[up.UserID] = up.TotalPoints
		}
		entries = leaderboard.Rank(scores, limit)
	case s.index != nil:
		var err error
		entries, err = s.index.Top(ctx, period, limit, now)
		if err != nil {
			s.log.Warn("leaderboard index read failed, falling back to ledger", "period", period, "error", err)
			entries = nil
		}
	}
	if windowed && entries == nil {
		scores, err := s.store.SumDeltasSince(ctx, since)
		if err != nil {
			return nil, err
		}
		entries = leaderboard.Rank(scores, limit)
	}

	rows := make([]core.LeaderboardRow, 0, len(entries))
	for i, e := range entries {
		level := 1
		if up, err := s.store.GetUserPoints(ctx, e.User); err == nil {
			level = up.Level
		}
		rows = append(rows, core.LeaderboardRow{
			Rank:   i + 1,
			UserID: e.User,
			Score:  e.Score,
			Level:  level,
		})
	}
	return rows, nil
}
