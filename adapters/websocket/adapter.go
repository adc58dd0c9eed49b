// Package websocket streams notifications to browser clients. The handler
// is transport only; hosts mount it on whatever HTTP stack they run.
package websocket

import (
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"questkit/notify"
)

// Handler returns an http.Handler that upgrades to WebSocket and streams
// notifications from the hub.
func Handler(hub *notify.Hub) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		sub := hub.Subscribe(256)
		defer sub.Close()

		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		for n := range sub.C {
			if err := conn.WriteMessage(gorillaws.TextMessage, n.JSON()); err != nil {
				return
			}
		}
	})
}
