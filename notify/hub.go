// Package notify turns progression events into user-facing notifications
// and fans them out to connected delivery channels.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"questkit/core"
)

// Notification is one user-facing message derived from a progression event.
type Notification struct {
	UserID    core.UserID    `json:"user_id"`
	Kind      core.EventKind `json:"kind"`
	Message   string         `json:"message"`
	CreatedAt time.Time      `json:"created_at"`
}

// JSON renders the notification for WebSocket/SSE delivery.
func (n Notification) JSON() []byte {
	b, _ := json.Marshal(n)
	return b
}

// Subscription is one delivery channel attached to a Hub. Receive from C;
// Close detaches and closes C.
type Subscription struct {
	C <-chan Notification

	hub  *Hub
	ch   chan Notification
	once sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.drop(s) })
}

// Hub broadcasts notifications to its subscriptions. Delivery is lossy: a
// subscription whose buffer is full misses the notification rather than
// stalling the rest.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub { return &Hub{subs: map[*Subscription]struct{}{}} }

func (h *Hub) Subscribe(buffer int) *Subscription {
	ch := make(chan Notification, buffer)
	sub := &Subscription{C: ch, hub: h, ch: ch}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) drop(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

func (h *Hub) Broadcast(_ context.Context, n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	// sends never block, so holding the read lock is safe
	for sub := range h.subs {
		select {
		case sub.ch <- n:
		default:
		}
	}
}
