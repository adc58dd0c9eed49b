package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"questkit/core"
)

type progressKey struct {
	user  core.UserID
	quest int64
}

// Store is a concurrent in-memory implementation of the engine's Store and
// RewardCatalog interfaces. Suitable for tests and demos; real deployments
// use the sqlx adapter.
type Store struct {
	mu sync.Mutex

	// Clock stamps ledger entries; tests override it to place entries in
	// past leaderboard windows.
	Clock func() time.Time

	entries  []core.ActivityEntry
	points   map[core.UserID]core.UserPoints
	badges   []core.Badge
	earned   map[core.UserID]map[int64]time.Time
	quests   []core.Quest
	progress map[progressKey]*core.QuestProgress
	byID     map[int64]*core.QuestProgress
	goods    []core.VirtualGood
	owned    map[core.UserID]map[int64]struct{}

	nextEntry    int64
	nextBadge    int64
	nextQuest    int64
	nextProgress int64
	nextGood     int64
}

func New() *Store {
	return &Store{
		Clock:    func() time.Time { return time.Now().UTC() },
		points:   map[core.UserID]core.UserPoints{},
		earned:   map[core.UserID]map[int64]time.Time{},
		progress: map[progressKey]*core.QuestProgress{},
		byID:     map[int64]*core.QuestProgress{},
		owned:    map[core.UserID]map[int64]struct{}{},
	}
}

func (s *Store) AddPoints(_ context.Context, user core.UserID, activity core.ActivityType, delta int64, related *core.RelatedEntity) (core.UserPoints, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Clock()

	up, ok := s.points[user]
	if !ok {
		up = core.UserPoints{UserID: user, TotalPoints: 0, Level: 1}
	}
	next, err := core.AddSafe(up.TotalPoints, delta)
	if err != nil {
		return core.UserPoints{}, core.NewStoreError("add points", err)
	}
	up.TotalPoints = next
	up.UpdatedAt = now
	s.points[user] = up

	s.nextEntry++
	s.entries = append(s.entries, core.ActivityEntry{
		ID:          s.nextEntry,
		UserID:      user,
		Activity:    activity,
		PointsDelta: delta,
		Related:     related,
		OccurredAt:  now,
	})
	return up, nil
}

func (s *Store) AppendAudit(_ context.Context, entry core.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEntry++
	entry.ID = s.nextEntry
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = s.Clock()
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) SetLevel(_ context.Context, user core.UserID, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.points[user]
	if !ok {
		return fmt.Errorf("user points for %s: %w", user, core.ErrNotFound)
	}
	up.Level = level
	up.UpdatedAt = s.Clock()
	s.points[user] = up
	return nil
}

func (s *Store) GetUserPoints(_ context.Context, user core.UserID) (core.UserPoints, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.points[user]
	if !ok {
		return core.UserPoints{}, fmt.Errorf("user points for %s: %w", user, core.ErrNotFound)
	}
	return up, nil
}

func (s *Store) AllUserPoints(_ context.Context) ([]core.UserPoints, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.UserPoints, 0, len(s.points))
	for _, up := range s.points {
		out = append(out, up)
	}
	return out, nil
}

func (s *Store) SumDeltasSince(_ context.Context, since time.Time) (map[core.UserID]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := map[core.UserID]int64{}
	for _, e := range s.entries {
		if e.OccurredAt.Before(since) {
			continue
		}
		sums[e.UserID] += e.PointsDelta
	}
	return sums, nil
}

func (s *Store) CountDistinctActivityDays(_ context.Context, user core.UserID, activity core.ActivityType) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	days := map[string]struct{}{}
	for _, e := range s.entries {
		if e.UserID == user && e.Activity == activity {
			days[e.OccurredAt.UTC().Format("2006-01-02")] = struct{}{}
		}
	}
	return len(days), nil
}

func (s *Store) ListBadges(_ context.Context) ([]core.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Badge, len(s.badges))
	copy(out, s.badges)
	return out, nil
}

func (s *Store) GetBadge(_ context.Context, id int64) (core.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.badges {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Badge{}, fmt.Errorf("badge %d: %w", id, core.ErrNotFound)
}

func (s *Store) CreateBadge(_ context.Context, b *core.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBadge++
	b.ID = s.nextBadge
	s.badges = append(s.badges, *b)
	return nil
}

func (s *Store) EarnedBadgeIDs(_ context.Context, user core.UserID) (map[int64]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64]struct{}{}
	for id := range s.earned[user] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *Store) GrantBadge(_ context.Context, user core.UserID, badgeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, b := range s.badges {
		if b.ID == badgeID {
			found = true
			break
		}
	}
	if !found {
		return false, fmt.Errorf("badge %d: %w", badgeID, core.ErrNotFound)
	}
	if s.earned[user] == nil {
		s.earned[user] = map[int64]time.Time{}
	}
	if _, ok := s.earned[user][badgeID]; ok {
		return false, nil
	}
	s.earned[user][badgeID] = s.Clock()
	return true, nil
}

func (s *Store) ListQuests(_ context.Context) ([]core.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Quest, len(s.quests))
	copy(out, s.quests)
	return out, nil
}

func (s *Store) GetQuest(_ context.Context, id int64) (core.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quests {
		if q.ID == id {
			return q, nil
		}
	}
	return core.Quest{}, fmt.Errorf("quest %d: %w", id, core.ErrNotFound)
}

func (s *Store) CreateQuest(_ context.Context, q *core.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextQuest++
	q.ID = s.nextQuest
	s.quests = append(s.quests, *q)
	return nil
}

func (s *Store) ActiveQuestsByCriteria(_ context.Context, key core.CriteriaKey) ([]core.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Quest
	for _, q := range s.quests {
		if q.IsActive && q.CriteriaKey == key {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Store) GetProgress(_ context.Context, user core.UserID, questID int64) (core.QuestProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.progress[progressKey{user, questID}]; ok {
		return *p, nil
	}
	return core.QuestProgress{}, fmt.Errorf("progress for user %s quest %d: %w", user, questID, core.ErrNotFound)
}

func (s *Store) GetProgressByID(_ context.Context, id int64) (core.QuestProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byID[id]; ok {
		return *p, nil
	}
	return core.QuestProgress{}, fmt.Errorf("progress %d: %w", id, core.ErrNotFound)
}

func (s *Store) SaveProgress(_ context.Context, p *core.QuestProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey{p.UserID, p.QuestID}
	if existing, ok := s.progress[key]; ok {
		// fold duplicate inserts from a lost race into an update
		p.ID = existing.ID
	} else if p.ID == 0 {
		s.nextProgress++
		p.ID = s.nextProgress
	}
	cp := *p
	s.progress[key] = &cp
	s.byID[cp.ID] = &cp
	return nil
}

func (s *Store) ClaimProgress(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return false, fmt.Errorf("progress %d: %w", id, core.ErrNotFound)
	}
	if p.Status != core.StatusCompleted {
		return false, nil
	}
	p.Status = core.StatusClaimed
	return true, nil
}

func (s *Store) GrantVirtualGood(_ context.Context, user core.UserID, goodID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owned[user] == nil {
		s.owned[user] = map[int64]struct{}{}
	}
	if _, ok := s.owned[user][goodID]; ok {
		return false, nil
	}
	s.owned[user][goodID] = struct{}{}
	return true, nil
}

// AddVirtualGood registers a cosmetic item in the in-memory rewards
// catalog and assigns its ID.
func (s *Store) AddVirtualGood(g *core.VirtualGood) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGood++
	g.ID = s.nextGood
	s.goods = append(s.goods, *g)
}

// FindVirtualGood implements the engine's RewardCatalog; absence returns
// (nil, nil).
func (s *Store) FindVirtualGood(_ context.Context, name, kind string) (*core.VirtualGood, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goods {
		if g.Name == name && g.Kind == kind && g.IsActive {
			cp := g
			return &cp, nil
		}
	}
	return nil, nil
}

// OwnsVirtualGood reports ownership; used by tests.
func (s *Store) OwnsVirtualGood(user core.UserID, goodID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.owned[user][goodID]
	return ok
}

// Entries returns a copy of the ledger; used by tests to reconcile totals.
func (s *Store) Entries() []core.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ActivityEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
