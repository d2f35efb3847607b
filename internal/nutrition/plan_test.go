package nutrition

import (
	"errors"
	"testing"
	"time"
)

func threePhases() []Phase {
	return []Phase{
		{Title: "Foundation", Focus: "habits"},
		{Title: " Build ", Focus: "protein"},
		{Focus: "consistency"},
	}
}

func TestShapePlan(t *testing.T) {
	start := time.Date(2026, 11, 30, 17, 0, 0, 0, time.UTC)
	draft := PlanDraft{
		Calories:        2400,
		Macros:          Macros{Protein: 180, Carbs: 240, Fats: 80},
		OptimizationTag: "lean-gain",
		Phases:          threePhases(),
	}
	plan, err := ShapePlan(draft, Targets{Calories: 1, Protein: 1, Carbs: 1, Fats: 1}, start)
	if err != nil {
		t.Fatalf("ShapePlan: %v", err)
	}
	if plan.Status != PlanActive {
		t.Errorf("status = %s, want active", plan.Status)
	}
	if plan.Calories != 2400 || plan.Macros.Protein != 180 {
		t.Errorf("AI values overwritten: %+v", plan)
	}
	if got := plan.StartDate.Format("2006-01-02"); got != "2026-11-30" {
		t.Errorf("start = %s", got)
	}
	// AddDate normalises Feb 30 to Mar 2
	if got := plan.EndDate.Format("2006-01-02"); got != "2027-03-02" {
		t.Errorf("end = %s, want 2027-03-02", got)
	}
	for i, p := range plan.Phases {
		if p.Month != i+1 {
			t.Errorf("phase %d month = %d", i, p.Month)
		}
	}
	if plan.Phases[1].Title != "Build" || plan.Phases[2].Title != "Phase 3" {
		t.Errorf("titles = %q, %q", plan.Phases[1].Title, plan.Phases[2].Title)
	}
}

func TestShapePlan_FallbackTargets(t *testing.T) {
	fallback := Targets{Calories: 2628, Protein: 197, Carbs: 263, Fats: 88}
	plan, err := ShapePlan(PlanDraft{Macros: Macros{Carbs: 300}, Phases: threePhases()}, fallback, time.Now())
	if err != nil {
		t.Fatalf("ShapePlan: %v", err)
	}
	if plan.Calories != 2628 || plan.Macros.Protein != 197 || plan.Macros.Carbs != 300 || plan.Macros.Fats != 88 {
		t.Errorf("fallback not applied: %+v", plan)
	}
	if plan.OptimizationTag != "balanced" {
		t.Errorf("tag = %q, want balanced", plan.OptimizationTag)
	}
}

func TestShapePlan_PhaseCount(t *testing.T) {
	for _, n := range []int{0, 2, 4} {
		_, err := ShapePlan(PlanDraft{Phases: make([]Phase, n)}, Targets{}, time.Now())
		if !errors.Is(err, ErrPhaseCount) {
			t.Errorf("%d phases: err = %v, want ErrPhaseCount", n, err)
		}
	}
}
