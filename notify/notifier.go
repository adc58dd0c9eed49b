package notify

import (
	"context"
	"log/slog"

	"questkit/core"
)

// Bus is the subscription surface the notifier attaches to.
type Bus interface {
	Subscribe(kind core.EventKind, handler func(context.Context, core.Event)) func()
}

// Recorder persists notifications for later retrieval (inbox views).
// Optional; delivery proceeds when persistence fails.
type Recorder func(ctx context.Context, n Notification) error

// Notifier converts the user-facing event kinds into notifications and
// broadcasts them on the hub. Raw point awards are deliberately not
// notified; they would drown everything else.
type Notifier struct {
	hub    *Hub
	record Recorder
	log    *slog.Logger
}

type NotifierOption func(*Notifier)

func WithRecorder(r Recorder) NotifierOption {
	return func(n *Notifier) { n.record = r }
}

func WithLogger(l *slog.Logger) NotifierOption {
	return func(n *Notifier) { n.log = l }
}

func NewNotifier(hub *Hub, opts ...NotifierOption) *Notifier {
	n := &Notifier{hub: hub, log: slog.Default()}
	for _, o := range opts {
		o(n)
	}
	return n
}

var notifiedKinds = []core.EventKind{
	core.EventLevelUp,
	core.EventBadgeEarned,
	core.EventQuestCompleted,
}

// Attach subscribes to the notification-worthy event kinds. The returned
// func detaches all subscriptions.
func (n *Notifier) Attach(bus Bus) func() {
	offs := make([]func(), 0, len(notifiedKinds))
	for _, kind := range notifiedKinds {
		offs = append(offs, bus.Subscribe(kind, n.handle))
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func (n *Notifier) handle(ctx context.Context, ev core.Event) {
	note := Notification{
		UserID:    ev.Recipient,
		Kind:      ev.Kind,
		Message:   ev.Message,
		CreatedAt: ev.Time,
	}
	if n.record != nil {
		if err := n.record(ctx, note); err != nil {
			n.log.Error("notification record failed", "user", note.UserID, "kind", note.Kind, "error", err)
		}
	}
	n.hub.Broadcast(ctx, note)
}
