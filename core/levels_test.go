package core

import "testing"

func TestLevelForDefaults(t *testing.T) {
	table := DefaultLevelTable()
	cases := []struct {
		total int64
		want  int
	}{
		{-50, 1},
		{0, 1},
		{90, 1},
		{99, 1},
		{100, 2},
		{105, 2},
		{249, 2},
		{250, 3},
		{600, 4},
		{1000, 5},
		{24999, 8},
		{25000, 9},
		{50000, 10},
		{1 << 40, 10},
	}
	for _, c := range cases {
		if got := table.LevelFor(c.total); got != c.want {
			t.Errorf("LevelFor(%d) = %d, want %d", c.total, got, c.want)
		}
	}
}

func TestLevelTableValidate(t *testing.T) {
	if err := DefaultLevelTable().Validate(); err != nil {
		t.Fatalf("default table should validate: %v", err)
	}
	bad := []LevelTable{
		{},
		{{Level: 2, MinPoints: 0}},
		{{Level: 1, MinPoints: 0}, {Level: 1, MinPoints: 100}},
		{{Level: 1, MinPoints: 0}, {Level: 2, MinPoints: 0}},
	}
	for i, tbl := range bad {
		if err := tbl.Validate(); err == nil {
			t.Errorf("table %d should fail validation", i)
		}
	}
}
