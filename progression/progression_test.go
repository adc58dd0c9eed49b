package progression

import (
	"context"
	"testing"

	mem "questkit/adapters/memory"
	"questkit/core"
	"questkit/engine"
	"questkit/notify"
)

func TestNewDefaultsAndOptions(t *testing.T) {
	hub := notify.NewHub()
	store := mem.New()
	social := mem.NewSocialGraph()
	social.AddUser("alice")

	svc := New(
		WithStore(store),
		WithSocialGraph(social),
		WithRewardCatalog(store),
		WithNotifications(hub),
		WithDispatchMode(engine.DispatchSync),
	)
	defer svc.Close()

	// basic operation
	res, err := svc.AwardPoints(context.Background(), "alice", core.ActivityCreatePost, 150, nil)
	if err != nil || res.Points.TotalPoints != 150 {
		t.Fatalf("award points res=%+v err=%v", res, err)
	}

	// crossing the level threshold must reach the notification hub
	sub := hub.Subscribe(4)
	defer sub.Close()
	svc.Publish(context.Background(), core.NewLevelUp("alice", 2))
	note := <-sub.C
	if note.UserID != "alice" || note.Kind != core.EventLevelUp {
		t.Fatalf("unexpected notification: %+v", note)
	}
}

func TestNewMemoryFallback(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	defer svc.Close()

	// the permissive defaults accept unknown users
	res, err := svc.AwardPoints(context.Background(), "bob", core.ActivityDailyLogin, 3, nil)
	if err != nil {
		t.Fatalf("fallback award points: %v", err)
	}
	if res.Points.TotalPoints != 3 {
		t.Fatalf("expected 3 points, got %d", res.Points.TotalPoints)
	}
}
