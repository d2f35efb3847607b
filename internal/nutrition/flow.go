package nutrition

import "math"

// FlowThreshold is the score at or above which a day counts as a flow day.
const FlowThreshold = 75

// flowWeight is the weight of each of the four components (calories and the
// three macros) in the flow score.
const flowWeight = 0.25

// DailyStats is the derived view of one day: what was eaten against the targets.
type DailyStats struct {
	ConsumedCalories int     `json:"consumed_calories"`
	TargetCalories   int     `json:"target_calories"`
	Macros           Macros  `json:"macros"`
	TargetMacros     Targets `json:"target_macros"`
	FlowScore        int     `json:"flow_score"`
	FlowDay          bool    `json:"flow_day"`
}

// deviation is |consumed - target| / target. A non-positive target means any
// intake at all is a full miss.
func deviation(consumed, target float64) float64 {
	if target <= 0 {
		if consumed == 0 {
			return 0
		}
		return 1
	}
	return math.Abs(consumed-target) / target
}

// FlowScore compresses a day's intake versus its targets into 0..100.
// Over- and under-eating both lower the score.
func FlowScore(consumed Intake, target Targets) int {
	penalty := flowWeight * 100 * (deviation(float64(consumed.Calories), float64(target.Calories)) +
		deviation(consumed.Macros.Protein, float64(target.Protein)) +
		deviation(consumed.Macros.Carbs, float64(target.Carbs)) +
		deviation(consumed.Macros.Fats, float64(target.Fats)))
	score := 100 - math.Min(100, penalty)
	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// IsFlowDay reports whether a day's score crosses the flow threshold.
func IsFlowDay(score int) bool { return score >= FlowThreshold }

// BuildDailyStats combines the day's consumption with the targets.
func BuildDailyStats(consumed Intake, targets Targets) DailyStats {
	score := FlowScore(consumed, targets)
	return DailyStats{
		ConsumedCalories: consumed.Calories,
		TargetCalories:   targets.Calories,
		Macros:           consumed.Macros,
		TargetMacros:     targets,
		FlowScore:        score,
		FlowDay:          IsFlowDay(score),
	}
}
