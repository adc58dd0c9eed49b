package core

import (
	"fmt"
	"time"
)

// EventKind enumerates domain events.
type EventKind string

const (
	EventPointsAwarded  EventKind = "points_awarded"
	EventLevelUp        EventKind = "level_up"
	EventBadgeEarned    EventKind = "badge_earned"
	EventQuestCompleted EventKind = "quest_completed"
)

// Event is an immutable domain event describing a progression transition.
// The engine decides which events fire and with what payload; delivery is
// the receiver's responsibility.
type Event struct {
	Kind       EventKind `json:"kind"`
	Time       time.Time `json:"time"`
	Recipient  UserID    `json:"recipient_id"`
	Message    string    `json:"message,omitempty"`
	Delta      int64     `json:"delta,omitempty"`
	Total      int64     `json:"total,omitempty"`
	Level      int       `json:"level,omitempty"`
	BadgeID    int64     `json:"badge_id,omitempty"`
	BadgeName  string    `json:"badge_name,omitempty"`
	QuestID    int64     `json:"quest_id,omitempty"`
	QuestTitle string    `json:"quest_title,omitempty"`
	ProgressID int64     `json:"progress_id,omitempty"`
}

func NewPointsAwarded(user UserID, delta, total int64) Event {
	return Event{Kind: EventPointsAwarded, Time: time.Now().UTC(), Recipient: user, Delta: delta, Total: total}
}

func NewLevelUp(user UserID, level int) Event {
	return Event{
		Kind:      EventLevelUp,
		Time:      time.Now().UTC(),
		Recipient: user,
		Level:     level,
		Message:   fmt.Sprintf("You reached level %d!", level),
	}
}

func NewBadgeEarned(user UserID, badge Badge) Event {
	return Event{
		Kind:      EventBadgeEarned,
		Time:      time.Now().UTC(),
		Recipient: user,
		BadgeID:   badge.ID,
		BadgeName: badge.Name,
		Message:   fmt.Sprintf("Congratulations! You've earned the %q badge!", badge.Name),
	}
}

func NewQuestCompleted(user UserID, quest Quest, progressID int64) Event {
	return Event{
		Kind:       EventQuestCompleted,
		Time:       time.Now().UTC(),
		Recipient:  user,
		QuestID:    quest.ID,
		QuestTitle: quest.Title,
		ProgressID: progressID,
		Message:    fmt.Sprintf("Quest Completed: %s! You can now claim your reward.", quest.Title),
	}
}
