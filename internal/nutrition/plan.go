package nutrition

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PlanPhaseCount is the number of phases in a quarterly plan, one per month.
const PlanPhaseCount = 3

var ErrPhaseCount = errors.New("quarterly plan must have exactly 3 phases")

type PlanStatus string

const (
	PlanActive   PlanStatus = "active"
	PlanArchived PlanStatus = "archived"
)

// Phase is one month of a quarterly plan.
type Phase struct {
	Month       int    `json:"month"`
	Title       string `json:"title"`
	Focus       string `json:"focus"`
	Description string `json:"description"`
}

// PlanDraft is what the AI collaborator hands back before shaping.
type PlanDraft struct {
	Calories        int     `json:"calories"`
	Macros          Macros  `json:"macros"`
	OptimizationTag string  `json:"optimization_tag"`
	Phases          []Phase `json:"phases"`
}

// QuarterlyPlan is a shaped plan ready to persist.
type QuarterlyPlan struct {
	Calories        int        `json:"calories"`
	Macros          Macros     `json:"macros"`
	OptimizationTag string     `json:"optimization_tag"`
	Phases          []Phase    `json:"phases"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	Status          PlanStatus `json:"status"`
}

// ShapePlan validates a draft and turns it into an active three-month plan
// starting on start's calendar day. Calories or macros the draft left at zero
// are taken from fallback.
func ShapePlan(draft PlanDraft, fallback Targets, start time.Time) (QuarterlyPlan, error) {
	if len(draft.Phases) != PlanPhaseCount {
		return QuarterlyPlan{}, fmt.Errorf("%w: got %d", ErrPhaseCount, len(draft.Phases))
	}

	phases := make([]Phase, PlanPhaseCount)
	for i, p := range draft.Phases {
		p.Month = i + 1
		p.Title = strings.TrimSpace(p.Title)
		if p.Title == "" {
			p.Title = fmt.Sprintf("Phase %d", i+1)
		}
		phases[i] = p
	}

	calories := draft.Calories
	if calories <= 0 {
		calories = fallback.Calories
	}
	macros := draft.Macros
	if macros.Protein <= 0 {
		macros.Protein = float64(fallback.Protein)
	}
	if macros.Carbs <= 0 {
		macros.Carbs = float64(fallback.Carbs)
	}
	if macros.Fats <= 0 {
		macros.Fats = float64(fallback.Fats)
	}

	tag := strings.TrimSpace(draft.OptimizationTag)
	if tag == "" {
		tag = "balanced"
	}

	y, m, d := start.Date()
	startDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return QuarterlyPlan{
		Calories:        calories,
		Macros:          macros,
		OptimizationTag: tag,
		Phases:          phases,
		StartDate:       startDay,
		EndDate:         startDay.AddDate(0, 3, 0),
		Status:          PlanActive,
	}, nil
}
