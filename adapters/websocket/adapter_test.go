package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"questkit/core"
	"questkit/notify"
)

func TestHandlerStreamsNotifications(t *testing.T) {
	hub := notify.NewHub()
	server := httptest.NewServer(Handler(hub))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):] // convert http->ws
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	// ensure subscriber goroutine is ready
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(context.Background(), notify.Notification{
		UserID:  "alice",
		Kind:    core.EventBadgeEarned,
		Message: `Congratulations! You've earned the "First Steps" badge!`,
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var received notify.Notification
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("decode notification: %v", err)
	}
	if received.UserID != "alice" || received.Kind != core.EventBadgeEarned {
		t.Fatalf("unexpected notification: %+v", received)
	}
}
