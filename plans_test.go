package main

import (
	"context"
	"net/http"
	"testing"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

const planReply = `{"calories":2500,"macros":{"protein":180,"carbs":250,"fats":80},"optimization_tag":"lean gain",
"phases":[{"title":"Foundation","focus":"consistency","description":"Hit targets daily."},
{"title":"Build","focus":"protein","description":"Raise protein."},
{"title":"Refine","focus":"timing","description":"Time carbs around training."}]}`

func TestGeneratePlan_ActivatesAndArchives(t *testing.T) {
	ts := setupTestServer(t)
	ts.setReferenceBiometrics(t, ts.userID)
	ts.setMock(http.StatusOK, openAIChatResponse(planReply))

	w := ts.do("GET", "/api/plans/active", "")
	if w.Body.String() != `{"plan":null}` {
		t.Errorf("expected {\"plan\":null} before any plan, got %s", w.Body.String())
	}

	w = ts.do("POST", "/api/plans/generate", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	first := decode[models.Plan](t, w)
	if first.Status != nutrition.PlanActive || len(first.Phases) != 3 {
		t.Errorf("unexpected plan: %+v", first)
	}
	if first.StartDate.String() != "2026-03-10" || first.EndDate.String() != "2026-06-10" {
		t.Errorf("unexpected window %s..%s", first.StartDate, first.EndDate)
	}
	if first.Phases[2].Month != 3 {
		t.Errorf("expected phase months numbered 1..3, got %+v", first.Phases)
	}

	w = ts.do("POST", "/api/plans/generate", `{"note":"vegetarian"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	second := decode[models.Plan](t, w)

	plans, err := ts.repo.ListPlans(context.Background(), ts.userID)
	if err != nil {
		t.Fatal(err)
	}
	active := 0
	for _, p := range plans {
		if p.Status == nutrition.PlanActive {
			active++
			if p.ID != second.ID {
				t.Errorf("wrong plan active: %s", p.ID)
			}
		}
	}
	if len(plans) != 2 || active != 1 {
		t.Errorf("expected 2 plans with exactly 1 active, got %d plans / %d active", len(plans), active)
	}

	view := decode[models.ActivePlanView](t, ts.do("GET", "/api/plans/active", ""))
	if view.Plan == nil || view.Plan.ID != second.ID {
		t.Errorf("active plan mismatch: %+v", view.Plan)
	}
	list := decode[[]models.Plan](t, ts.do("GET", "/api/plans", ""))
	if len(list) != 2 {
		t.Errorf("expected 2 plans in history, got %d", len(list))
	}
}

func TestGeneratePlan_FallsBackToTargets(t *testing.T) {
	ts := setupTestServer(t)
	ts.setReferenceBiometrics(t, ts.userID)
	ts.setMock(http.StatusOK, openAIChatResponse(`{"optimization_tag":"steady","phases":[{"title":"A"},{"title":"B"},{"title":""}]}`))

	w := ts.do("POST", "/api/plans/generate", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	plan := decode[models.Plan](t, w)
	if plan.Calories != 2628 || plan.Macros.Protein != 197 {
		t.Errorf("expected fallback to computed targets, got %d kcal / %.0f g", plan.Calories, plan.Macros.Protein)
	}
	if plan.Phases[2].Title != "Phase 3" {
		t.Errorf("expected default title for blank phase, got %q", plan.Phases[2].Title)
	}
}

func TestGeneratePlan_WrongPhaseCount(t *testing.T) {
	ts := setupTestServer(t)
	ts.setMock(http.StatusOK, openAIChatResponse(`{"calories":2000,"phases":[{"title":"Only one"}]}`))

	w := ts.do("POST", "/api/plans/generate", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	if view := decode[models.ActivePlanView](t, ts.do("GET", "/api/plans/active", "")); view.Plan != nil {
		t.Error("a rejected draft must not be stored")
	}
}

func TestGeneratePlan_KeepsPreviousOnAIFailure(t *testing.T) {
	ts := setupTestServer(t)
	ts.setMock(http.StatusOK, openAIChatResponse(planReply))
	first := decode[models.Plan](t, ts.do("POST", "/api/plans/generate", ""))

	ts.setMock(http.StatusBadGateway, map[string]string{"error": "upstream"})
	if w := ts.do("POST", "/api/plans/generate", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	view := decode[models.ActivePlanView](t, ts.do("GET", "/api/plans/active", ""))
	if view.Plan == nil || view.Plan.ID != first.ID {
		t.Errorf("previous plan should stay active, got %+v", view.Plan)
	}
}
