package leaderboard

import (
	"testing"
	"time"

	"questkit/core"
)

func TestWindowStartBoundaries(t *testing.T) {
	// Wednesday 2024-01-17 15:04:05 UTC
	now := time.Date(2024, time.January, 17, 15, 4, 5, 0, time.UTC)

	day, ok := PeriodDaily.WindowStart(now)
	if !ok || !day.Equal(time.Date(2024, time.January, 17, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("daily window start = %v", day)
	}

	week, ok := PeriodWeekly.WindowStart(now)
	if !ok || !week.Equal(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("weekly window start = %v, want Monday", week)
	}

	month, ok := PeriodMonthly.WindowStart(now)
	if !ok || !month.Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("monthly window start = %v", month)
	}

	if _, ok := PeriodAll.WindowStart(now); ok {
		t.Fatal("all period must be unwindowed")
	}
}

func TestWindowStartSundayBelongsToPriorISOWeek(t *testing.T) {
	// Sunday 2024-01-21: ISO week started Monday 2024-01-15.
	sunday := time.Date(2024, time.January, 21, 10, 0, 0, 0, time.UTC)
	week, ok := PeriodWeekly.WindowStart(sunday)
	if !ok || !week.Equal(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("weekly window start on Sunday = %v", week)
	}
}

func TestPeriodKey(t *testing.T) {
	now := time.Date(2024, time.January, 3, 12, 0, 0, 0, time.UTC)
	if got := PeriodDaily.Key(now); got != "2024-01-03" {
		t.Fatalf("daily key = %q", got)
	}
	if got := PeriodWeekly.Key(now); got != "2024-W01" {
		t.Fatalf("weekly key = %q", got)
	}
	if got := PeriodMonthly.Key(now); got != "2024-01" {
		t.Fatalf("monthly key = %q", got)
	}
	if got := PeriodAll.Key(now); got != "all" {
		t.Fatalf("all key = %q", got)
	}
}

func TestParsePeriod(t *testing.T) {
	if _, err := ParsePeriod("weekly"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParsePeriod("fortnightly"); err == nil {
		t.Fatal("expected error for unknown period")
	}
}

func TestRankOrderingAndTieBreak(t *testing.T) {
	rows := Rank(map[core.UserID]int64{
		"carol": 10,
		"alice": 15,
		"dave":  10,
		"bob":   3,
	}, 3)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].User != "alice" || rows[0].Score != 15 {
		t.Fatalf("rank 1 = %+v", rows[0])
	}
	// carol and dave tie on 10; ascending user id breaks the tie
	if rows[1].User != "carol" || rows[2].User != "dave" {
		t.Fatalf("tie-break wrong: %+v %+v", rows[1], rows[2])
	}
}

func TestSkipListUpdateMove(t *testing.T) {
	s := NewSkipList()
	s.Update("u1", 5)
	s.Update("u2", 7)
	s.Update("u1", 20)
	if s.Len() != 2 {
		t.Fatalf("re-updating a user must not grow the board, len %d", s.Len())
	}
	top := s.TopN(2)
	if top[0].User != "u1" || top[0].Score != 20 {
		t.Fatalf("got %+v", top)
	}
	s.Remove("u1")
	if _, ok := s.Get("u1"); ok {
		t.Fatal("u1 should be removed")
	}
	if s.Len() != 1 {
		t.Fatalf("len after remove = %d", s.Len())
	}
}
