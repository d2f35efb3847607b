package nutrition

import (
	"testing"
	"time"
)

/* ─── Levels ─────────────────────────────────────────────────────────── */

func TestLevelFor_Boundaries(t *testing.T) {
	cases := []struct {
		days int
		want Level
	}{
		{0, LevelSeed},
		{6, LevelSeed},
		{7, LevelRoot},
		{20, LevelRoot},
		{21, LevelStem},
		{59, LevelStem},
		{60, LevelFlower},
		{99, LevelFlower},
		{100, LevelFruit},
		{365, LevelFruit},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.days); got != tc.want {
			t.Errorf("LevelFor(%d) = %s, want %s", tc.days, got, tc.want)
		}
	}
}

// TestLevelFor_Monotonic walks 0..150 and checks the level never moves back.
func TestLevelFor_Monotonic(t *testing.T) {
	rank := map[Level]int{LevelSeed: 0, LevelRoot: 1, LevelStem: 2, LevelFlower: 3, LevelFruit: 4}
	prev := 0
	for d := 0; d <= 150; d++ {
		r := rank[LevelFor(d)]
		if r < prev {
			t.Fatalf("level dropped at %d flow days", d)
		}
		prev = r
	}
}

func TestNextLevel(t *testing.T) {
	next, remaining, ok := NextLevel(5)
	if !ok || next != LevelRoot || remaining != 2 {
		t.Errorf("NextLevel(5) = %s, %d, %v; want root, 2, true", next, remaining, ok)
	}
	if _, _, ok := NextLevel(100); ok {
		t.Error("NextLevel(100) should report no further level")
	}
}

/* ─── Progression ────────────────────────────────────────────────────── */

var progressionToday = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

// history builds DayScores counting back from today: scores[0] is today,
// scores[1] yesterday, and so on.
func history(scores ...int) []DayScore {
	out := make([]DayScore, 0, len(scores))
	for i, s := range scores {
		out = append(out, DayScore{
			Date:  progressionToday.AddDate(0, 0, -i).Format("2006-01-02"),
			Score: s,
		})
	}
	return out
}

func TestProgression_Empty(t *testing.T) {
	p := Progression(nil, progressionToday, 0)
	if p.CurrentStreak != 0 || p.LongestStreak != 0 || p.TotalFlowDays != 0 || p.Level != LevelSeed {
		t.Errorf("empty history = %+v", p)
	}
	if p.NextLevel != LevelRoot || p.DaysToNextLevel != 7 {
		t.Errorf("next level = %s in %d, want root in 7", p.NextLevel, p.DaysToNextLevel)
	}
}

func TestProgression_StreakIncludesToday(t *testing.T) {
	p := Progression(history(80, 90, 75, 40, 100), progressionToday, 0)
	if p.CurrentStreak != 3 {
		t.Errorf("current streak = %d, want 3", p.CurrentStreak)
	}
	if p.TotalFlowDays != 4 {
		t.Errorf("total flow days = %d, want 4", p.TotalFlowDays)
	}
}

// TestProgression_TodayStillOpen: no qualifying score today yet keeps the run
// that ended yesterday.
func TestProgression_TodayStillOpen(t *testing.T) {
	p := Progression(history(30, 90, 88), progressionToday, 0)
	if p.CurrentStreak != 2 {
		t.Errorf("current streak = %d, want 2", p.CurrentStreak)
	}
	p = Progression(history(90, 88)[1:], progressionToday, 0)
	if p.CurrentStreak != 1 {
		t.Errorf("streak with no record today = %d, want 1", p.CurrentStreak)
	}
}

func TestProgression_GapResets(t *testing.T) {
	// yesterday missed entirely: today alone is the streak
	h := []DayScore{
		{Date: "2026-10-15", Score: 95},
		{Date: "2026-10-13", Score: 95},
		{Date: "2026-10-12", Score: 95},
	}
	p := Progression(h, progressionToday, 0)
	if p.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1", p.CurrentStreak)
	}
	if p.LongestStreak != 2 {
		t.Errorf("longest streak = %d, want 2", p.LongestStreak)
	}

	p = Progression(h[1:], progressionToday, 0)
	if p.CurrentStreak != 0 {
		t.Errorf("streak after two missed days = %d, want 0", p.CurrentStreak)
	}
}

func TestProgression_LongestCarriesStored(t *testing.T) {
	p := Progression(history(80, 80), progressionToday, 12)
	if p.LongestStreak != 12 {
		t.Errorf("longest = %d, want stored 12", p.LongestStreak)
	}
	p = Progression(history(80, 80, 80, 80), progressionToday, 3)
	if p.LongestStreak != 4 {
		t.Errorf("longest = %d, want current 4", p.LongestStreak)
	}
}

// TestProgression_SeedToRootAtBoundary: the seventh flow day promotes to root,
// the sixth does not.
func TestProgression_SeedToRootAtBoundary(t *testing.T) {
	six := history(0, 80, 80, 80, 80, 80, 80)
	if got := Progression(six, progressionToday, 0); got.TotalFlowDays != 6 || got.Level != LevelSeed {
		t.Fatalf("six flow days = %d/%s, want 6/seed", got.TotalFlowDays, got.Level)
	}
	six[0].Score = 80
	if got := Progression(six, progressionToday, 0); got.TotalFlowDays != 7 || got.Level != LevelRoot {
		t.Errorf("seven flow days = %d/%s, want 7/root", got.TotalFlowDays, got.Level)
	}
}

// TestProgression_Idempotent: recounting the same history, even with
// duplicated and malformed rows, gives the same answer.
func TestProgression_Idempotent(t *testing.T) {
	h := history(80, 80, 20, 90)
	h = append(h, h[0], DayScore{Date: "not-a-date", Score: 100})
	a := Progression(h, progressionToday, 0)
	b := Progression(h, progressionToday, a.LongestStreak)
	if a != b {
		t.Errorf("progression not idempotent: %+v vs %+v", a, b)
	}
	if a.TotalFlowDays != 3 {
		t.Errorf("total flow days = %d, want 3", a.TotalFlowDays)
	}
}

/* ─── Heatmap ────────────────────────────────────────────────────────── */

func TestHeatmap_FillsGaps(t *testing.T) {
	h := []DayScore{{Date: "2026-10-01", Score: 80}, {Date: "2026-10-03", Score: 50}}
	cells := Heatmap(h, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC))
	if len(cells) != 4 {
		t.Fatalf("got %d cells, want 4", len(cells))
	}
	if !cells[0].HasData || !cells[0].FlowDay || cells[0].FlowScore != 80 {
		t.Errorf("cell 0 = %+v", cells[0])
	}
	if cells[1].HasData || cells[1].Date != "2026-10-02" {
		t.Errorf("cell 1 = %+v, want gap on 2026-10-02", cells[1])
	}
	if !cells[2].HasData || cells[2].FlowDay {
		t.Errorf("cell 2 = %+v, want data but not a flow day", cells[2])
	}
}
