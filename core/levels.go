package core

import (
	"fmt"
	"sort"
)

// LevelThreshold maps a level to the minimum cumulative points required to
// hold it.
type LevelThreshold struct {
	Level     int   `json:"level"`
	MinPoints int64 `json:"min_points"`
}

// LevelTable is an ascending threshold table driving the leveling function.
// Thresholds are configuration, not logic: tables are tunable per
// deployment without touching LevelFor.
type LevelTable []LevelThreshold

// DefaultLevelTable returns the stock threshold curve.
func DefaultLevelTable() LevelTable {
	return LevelTable{
		{Level: 1, MinPoints: 0},
		{Level: 2, MinPoints: 100},
		{Level: 3, MinPoints: 250},
		{Level: 4, MinPoints: 500},
		{Level: 5, MinPoints: 1000},
		{Level: 6, MinPoints: 2500},
		{Level: 7, MinPoints: 5000},
		{Level: 8, MinPoints: 10000},
		{Level: 9, MinPoints: 25000},
		{Level: 10, MinPoints: 50000},
	}
}

// Validate checks the table is non-empty and strictly ascending in both
// level and points, starting at level 1.
func (t LevelTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("level table is empty")
	}
	if t[0].Level != 1 || t[0].MinPoints != 0 {
		return fmt.Errorf("level table must start at level 1 with 0 points")
	}
	for i := 1; i < len(t); i++ {
		if t[i].Level <= t[i-1].Level {
			return fmt.Errorf("level table not ascending at index %d: level %d", i, t[i].Level)
		}
		if t[i].MinPoints <= t[i-1].MinPoints {
			return fmt.Errorf("level table not ascending at index %d: min_points %d", i, t[i].MinPoints)
		}
	}
	return nil
}

// LevelFor returns the highest level whose threshold is at or below total.
// Level 1 is the floor for any total below the second threshold, including
// negative totals. A single large award can skip several levels; callers
// emit one event for the final level reached.
func (t LevelTable) LevelFor(total int64) int {
	if len(t) == 0 {
		return 1
	}
	// first index whose threshold exceeds total
	i := sort.Search(len(t), func(i int) bool { return t[i].MinPoints > total })
	if i == 0 {
		return t[0].Level
	}
	return t[i-1].Level
}
