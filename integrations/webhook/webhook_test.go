package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"questkit/core"
	"questkit/engine"
)

func TestSink_OnEventPostsToEndpoints(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.ReadAll(r.Body)
		_ = r.Body.Close()
	}))
	defer srv.Close()

	sink := New([]string{srv.URL})
	sink.OnEvent(core.NewPointsAwarded("u1", 5, 5))

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", hits)
	}
}

func TestSink_AttachForwardsBusEvents(t *testing.T) {
	var payloads []core.Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev core.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		payloads = append(payloads, ev)
	}))
	defer srv.Close()

	bus := engine.NewEventBus(engine.DispatchSync)
	defer bus.Close()

	sink := New([]string{srv.URL})
	detach := sink.Attach(bus)

	bus.Publish(context.Background(), core.NewLevelUp("u1", 3))
	if len(payloads) != 1 || payloads[0].Kind != core.EventLevelUp || payloads[0].Level != 3 {
		t.Fatalf("payloads: %+v", payloads)
	}

	detach()
	bus.Publish(context.Background(), core.NewLevelUp("u1", 4))
	if len(payloads) != 1 {
		t.Fatal("detached sink must not receive events")
	}
}
