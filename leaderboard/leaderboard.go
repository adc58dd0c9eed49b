package leaderboard

import (
	"fmt"
	"time"

	"questkit/core"
)

// Period selects the aggregation window for a leaderboard query.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAll     Period = "all"
)

// ParsePeriod validates a period string.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAll:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown leaderboard period %q", s)
}

// WindowStart returns the inclusive lower bound of the period's window
// anchored to now, and whether the period is windowed at all (false for
// PeriodAll). Boundaries are explicit:
//   - daily:   start of the current UTC day
//   - weekly:  Monday 00:00 UTC of the current ISO-8601 week
//   - monthly: the 1st 00:00 UTC of the current calendar month
func (p Period) WindowStart(now time.Time) (time.Time, bool) {
	now = now.UTC()
	switch p {
	case PeriodDaily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	case PeriodWeekly:
		daysSinceMonday := int(now.Weekday()-time.Monday) % 7
		if daysSinceMonday < 0 {
			daysSinceMonday += 7
		}
		return time.Date(now.Year(), now.Month(), now.Day()-daysSinceMonday, 0, 0, 0, 0, time.UTC), true
	case PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), true
	default:
		return time.Time{}, false
	}
}

// Key returns the bucket key for the period containing now, e.g.
// "2024-01-01" for daily, "2024-W01" for weekly, "2024-01" for monthly,
// "all" for the unwindowed board. Used by index adapters to name buckets.
func (p Period) Key(now time.Time) string {
	now = now.UTC()
	switch p {
	case PeriodDaily:
		return now.Format("2006-01-02")
	case PeriodWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case PeriodMonthly:
		return now.Format("2006-01")
	default:
		return "all"
	}
}

// Entry represents a score entry.
type Entry struct {
	User  core.UserID
	Score int64
}

// Board abstracts ranked score operations. Ordering is score descending
// with user ID ascending as the deterministic tie-break.
type Board interface {
	Update(user core.UserID, score int64)
	Remove(user core.UserID)
	TopN(n int) []Entry
	Get(user core.UserID) (Entry, bool)
}

// Rank assembles ranked rows from an aggregated score set, truncated to
// limit. Levels are attached by the caller; this only orders and ranks.
func Rank(scores map[core.UserID]int64, limit int) []Entry {
	board := NewSkipList()
	for user, score := range scores {
		board.Update(user, score)
	}
	return board.TopN(limit)
}
