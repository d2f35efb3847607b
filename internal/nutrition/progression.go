package nutrition

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Level is the gamification stage a user has grown into.
type Level string

const (
	LevelSeed   Level = "seed"
	LevelRoot   Level = "root"
	LevelStem   Level = "stem"
	LevelFlower Level = "flower"
	LevelFruit  Level = "fruit"
)

// levelThresholds is ordered by minDays ascending.
var levelThresholds = []struct {
	level   Level
	minDays int
}{
	{LevelSeed, 0},
	{LevelRoot, 7},
	{LevelStem, 21},
	{LevelFlower, 60},
	{LevelFruit, 100},
}

// LevelFor returns the highest level whose threshold is <= totalFlowDays.
func LevelFor(totalFlowDays int) Level {
	level := LevelSeed
	for _, t := range levelThresholds {
		if totalFlowDays >= t.minDays {
			level = t.level
		}
	}
	return level
}

// NextLevel returns the level after the current one and how many more flow
// days it takes. ok is false at the top level.
func NextLevel(totalFlowDays int) (next Level, daysRemaining int, ok bool) {
	for _, t := range levelThresholds {
		if t.minDays > totalFlowDays {
			return t.level, t.minDays - totalFlowDays, true
		}
	}
	return "", 0, false
}

// DayScore is one day's cached flow score. Date is YYYY-MM-DD.
type DayScore struct {
	Date  string `json:"date"`
	Score int    `json:"flow_score"`
}

// Progress is the gamification state derived from the flow-score history.
// CurrentStreak counts the run of flow days ending today, or ending yesterday
// while today has not qualified yet, so an open day does not break a streak.
type Progress struct {
	CurrentStreak   int   `json:"current_streak"`
	LongestStreak   int   `json:"longest_streak"`
	TotalFlowDays   int   `json:"total_flow_days"`
	Level           Level `json:"level"`
	NextLevel       Level `json:"next_level,omitempty"`
	DaysToNextLevel int   `json:"days_to_next_level"`
}

// qualifyingDays returns the set of valid dates whose score crossed the threshold.
func qualifyingDays(history []DayScore) map[string]bool {
	days := make(map[string]bool, len(history))
	for _, d := range history {
		if !IsFlowDay(d.Score) {
			continue
		}
		if _, err := time.Parse(dateLayout, d.Date); err != nil {
			continue
		}
		days[d.Date] = true
	}
	return days
}

// longestRun finds the longest run of consecutive calendar days in the set.
func longestRun(days map[string]bool) int {
	dates := make([]time.Time, 0, len(days))
	for s := range days {
		t, _ := time.Parse(dateLayout, s)
		dates = append(dates, t)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	longest, run := 0, 0
	for i, d := range dates {
		if i > 0 && dates[i-1].AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// Progression recomputes streaks, flow-day count and level from the raw
// per-day history. today is the user's current day in their location.
//
// The current streak is the run of qualifying days ending today. Today is
// still open, so when it hasn't qualified yet the run ending yesterday counts.
// storedLongest carries forward a longest streak that predates the history.
func Progression(history []DayScore, today time.Time, storedLongest int) Progress {
	days := qualifyingDays(history)

	y, m, d := today.Date()
	cursor := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if !days[cursor.Format(dateLayout)] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	current := 0
	for days[cursor.Format(dateLayout)] {
		current++
		cursor = cursor.AddDate(0, 0, -1)
	}

	longest := max(storedLongest, longestRun(days), current)
	total := len(days)

	p := Progress{
		CurrentStreak: current,
		LongestStreak: longest,
		TotalFlowDays: total,
		Level:         LevelFor(total),
	}
	if next, remaining, ok := NextLevel(total); ok {
		p.NextLevel = next
		p.DaysToNextLevel = remaining
	}
	return p
}

// HeatmapCell is one calendar day in a heatmap. Days with no record have
// HasData=false and a zero score.
type HeatmapCell struct {
	Date      string `json:"date"`
	FlowScore int    `json:"flow_score"`
	FlowDay   bool   `json:"flow_day"`
	HasData   bool   `json:"has_data"`
}

// Heatmap lays the history out over every day in [start, end], filling gaps.
func Heatmap(history []DayScore, start, end time.Time) []HeatmapCell {
	byDate := make(map[string]int, len(history))
	for _, d := range history {
		byDate[d.Date] = d.Score
	}

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	first := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	last := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)

	cells := []HeatmapCell{}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		cell := HeatmapCell{Date: key}
		if score, ok := byDate[key]; ok {
			cell.HasData = true
			cell.FlowScore = score
			cell.FlowDay = IsFlowDay(score)
		}
		cells = append(cells, cell)
	}
	return cells
}
