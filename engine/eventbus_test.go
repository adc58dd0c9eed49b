package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"questkit/core"
)

func TestEventBusSyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var got []core.Event
	bus.Subscribe(core.EventPointsAwarded, func(_ context.Context, e core.Event) {
		got = append(got, e)
	})
	bus.Subscribe(core.EventLevelUp, func(_ context.Context, e core.Event) {
		t.Errorf("level_up handler received %v", e.Kind)
	})

	bus.Publish(context.Background(), core.NewPointsAwarded("alice", 10, 10))
	if len(got) != 1 || got[0].Recipient != "alice" || got[0].Delta != 10 {
		t.Fatalf("got %+v", got)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var calls int
	off := bus.Subscribe(core.EventBadgeEarned, func(context.Context, core.Event) { calls++ })

	ev := core.NewBadgeEarned("bob", core.Badge{ID: 1, Name: "First Steps"})
	bus.Publish(context.Background(), ev)
	off()
	bus.Publish(context.Background(), ev)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestEventBusAsyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	var count atomic.Int64
	bus.Subscribe(core.EventQuestCompleted, func(context.Context, core.Event) {
		count.Add(1)
		wg.Done()
	})

	quest := core.Quest{ID: 7, Title: "Daily Login"}
	for i := 0; i < n; i++ {
		bus.Publish(context.Background(), core.NewQuestCompleted("carol", quest, int64(i)))
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("async dispatch delivered %d of %d events", count.Load(), n)
	}
}

func TestEventBusConcurrentSubscribePublish(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			off := bus.Subscribe(core.EventPointsAwarded, func(context.Context, core.Event) {})
			off()
		}()
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), core.NewPointsAwarded("dave", 1, 1))
		}()
	}
	wg.Wait()
}
