package core

import (
	"math"
	"testing"
	"time"
)

func TestAddSafe(t *testing.T) {
	if v, err := AddSafe(10, -3); err != nil || v != 7 {
		t.Fatalf("got %v %v", v, err)
	}
	if _, err := AddSafe(math.MaxInt64, 1); err == nil {
		t.Fatal("expected overflow error")
	}
	if _, err := AddSafe(math.MinInt64, -1); err == nil {
		t.Fatal("expected underflow error")
	}
}

func TestNormalizeUserID(t *testing.T) {
	id, err := NormalizeUserID("  Alice ")
	if err != nil || id != "alice" {
		t.Fatalf("got %q %v", id, err)
	}
	if _, err := NormalizeUserID("   "); err == nil {
		t.Fatal("expected error for blank id")
	}
}

func TestActiveWindowContains(t *testing.T) {
	now := time.Now().UTC()
	earlier := now.Add(-time.Hour)
	later := now.Add(time.Hour)

	open := ActiveWindow{}
	if !open.Contains(now) {
		t.Fatal("open window should contain any time")
	}
	bounded := ActiveWindow{Start: &earlier, End: &later}
	if !bounded.Contains(now) {
		t.Fatal("now should be inside bounded window")
	}
	if bounded.Contains(now.Add(2 * time.Hour)) {
		t.Fatal("time after end should be outside")
	}
	if bounded.Contains(now.Add(-2 * time.Hour)) {
		t.Fatal("time before start should be outside")
	}
}

func TestQuestCooldown(t *testing.T) {
	q := Quest{}
	if q.Repeatable() || q.Cooldown() != 0 {
		t.Fatal("quest without cooldown hours must not be repeatable")
	}
	hours := 24
	q.CooldownHours = &hours
	if !q.Repeatable() || q.Cooldown() != 24*time.Hour {
		t.Fatalf("got repeatable=%v cooldown=%v", q.Repeatable(), q.Cooldown())
	}
}
