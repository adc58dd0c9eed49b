package memory

import (
	"context"
	"testing"
	"time"

	"questkit/core"
)

func TestLedgerAndTotalsStayReconciled(t *testing.T) {
	s := New()
	ctx := context.Background()

	deltas := []int64{10, 25, -5, 100}
	var want int64
	for _, d := range deltas {
		up, err := s.AddPoints(ctx, "u1", core.ActivityCreatePost, d, nil)
		if err != nil {
			t.Fatal(err)
		}
		want += d
		if up.TotalPoints != want {
			t.Fatalf("total = %d, want %d", up.TotalPoints, want)
		}
	}

	var sum int64
	for _, e := range s.Entries() {
		sum += e.PointsDelta
	}
	if sum != want {
		t.Fatalf("ledger sum = %d, want %d", sum, want)
	}
}

func TestSumDeltasSinceExcludesOldEntries(t *testing.T) {
	s := New()
	ctx := context.Background()

	old := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Clock = func() time.Time { return old }
	if _, err := s.AddPoints(ctx, "u1", core.ActivityCreatePost, 100, nil); err != nil {
		t.Fatal(err)
	}

	recent := old.Add(48 * time.Hour)
	s.Clock = func() time.Time { return recent }
	if _, err := s.AddPoints(ctx, "u1", core.ActivityCreateComment, 15, nil); err != nil {
		t.Fatal(err)
	}

	sums, err := s.SumDeltasSince(ctx, recent.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if sums["u1"] != 15 {
		t.Fatalf("windowed sum = %d, want 15", sums["u1"])
	}
}

func TestGrantBadgeIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	b := core.Badge{Name: "Engager", CriteriaKey: core.CriteriaEngager}
	if err := s.CreateBadge(ctx, &b); err != nil {
		t.Fatal(err)
	}

	granted, err := s.GrantBadge(ctx, "u1", b.ID)
	if err != nil || !granted {
		t.Fatalf("first grant: granted=%v err=%v", granted, err)
	}
	granted, err = s.GrantBadge(ctx, "u1", b.ID)
	if err != nil || granted {
		t.Fatalf("second grant must be a no-op: granted=%v err=%v", granted, err)
	}
}

func TestClaimProgressCompareAndSwap(t *testing.T) {
	s := New()
	ctx := context.Background()

	now := time.Now().UTC()
	p := core.QuestProgress{UserID: "u1", QuestID: 7, CurrentCount: 3, Status: core.StatusCompleted, LastProgressAt: now, CompletedAt: &now}
	if err := s.SaveProgress(ctx, &p); err != nil {
		t.Fatal(err)
	}

	ok, err := s.ClaimProgress(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}
	ok, err = s.ClaimProgress(ctx, p.ID)
	if err != nil || ok {
		t.Fatalf("second claim must fail the swap: ok=%v err=%v", ok, err)
	}
}

func TestSaveProgressFoldsDuplicate(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	a := core.QuestProgress{UserID: "u1", QuestID: 1, CurrentCount: 1, Status: core.StatusInProgress, LastProgressAt: now}
	if err := s.SaveProgress(ctx, &a); err != nil {
		t.Fatal(err)
	}
	b := core.QuestProgress{UserID: "u1", QuestID: 1, CurrentCount: 2, Status: core.StatusInProgress, LastProgressAt: now}
	if err := s.SaveProgress(ctx, &b); err != nil {
		t.Fatal(err)
	}
	if a.ID != b.ID {
		t.Fatalf("duplicate insert must reuse row id: %d vs %d", a.ID, b.ID)
	}
	got, err := s.GetProgress(ctx, "u1", 1)
	if err != nil || got.CurrentCount != 2 {
		t.Fatalf("got %+v err=%v", got, err)
	}
}

func TestCountDistinctActivityDays(t *testing.T) {
	s := New()
	ctx := context.Background()

	day := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		s.Clock = func() time.Time { return day }
		if _, err := s.AddPoints(ctx, "u1", core.ActivityDailyLogin, 5, nil); err != nil {
			t.Fatal(err)
		}
		// second login the same day must not add a distinct day
		if _, err := s.AddPoints(ctx, "u1", core.ActivityDailyLogin, 5, nil); err != nil {
			t.Fatal(err)
		}
		day = day.Add(24 * time.Hour)
	}

	n, err := s.CountDistinctActivityDays(ctx, "u1", core.ActivityDailyLogin)
	if err != nil || n != 3 {
		t.Fatalf("distinct days = %d err=%v", n, err)
	}
}

func TestFindVirtualGood(t *testing.T) {
	s := New()
	g := core.VirtualGood{Name: "First Steps Title", Kind: "title", TitleText: "Newbie", IsActive: true}
	s.AddVirtualGood(&g)

	found, err := s.FindVirtualGood(context.Background(), "First Steps Title", "title")
	if err != nil || found == nil || found.ID != g.ID {
		t.Fatalf("found=%v err=%v", found, err)
	}
	missing, err := s.FindVirtualGood(context.Background(), "No Such Title", "title")
	if err != nil || missing != nil {
		t.Fatalf("absence must be (nil, nil), got %v %v", missing, err)
	}
}
