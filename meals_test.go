package main

import (
	"context"
	"net/http"
	"testing"

	"nura/go-api/internal/models"
)

// referenceMeal hits the reference targets exactly, scoring 100.
const referenceMeal = `{"name":"Feast","timestamp":"2026-03-10T08:00:00Z","calories":2628,"macros":{"protein":197,"carbs":263,"fats":88}}`

func TestCreateMeal_ReturnsStatsAndProgress(t *testing.T) {
	ts := setupTestServer(t)
	ts.setReferenceBiometrics(t, ts.userID)

	w := ts.do("POST", "/api/meals", referenceMeal)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[models.MealCreated](t, w)
	if resp.Meal.Source != models.SourceManual {
		t.Errorf("expected source manual, got %q", resp.Meal.Source)
	}
	if resp.Stats.ConsumedCalories != 2628 || resp.Stats.TargetCalories != 2628 {
		t.Errorf("unexpected stats: %+v", resp.Stats)
	}
	if resp.Stats.FlowScore != 100 || !resp.Stats.FlowDay {
		t.Errorf("expected a perfect flow day, got score %d", resp.Stats.FlowScore)
	}
	if resp.Progress.CurrentStreak != 1 || resp.Progress.TotalFlowDays != 1 {
		t.Errorf("unexpected progress: %+v", resp.Progress)
	}

	// The flow stat is cached and the profile counters persisted.
	day, _ := models.ParseDate("2026-03-10")
	stats, err := ts.repo.ListFlowStats(context.Background(), ts.userID, day, day)
	if err != nil || len(stats) != 1 || stats[0].FlowScore != 100 {
		t.Errorf("flow stat not cached: %+v, %v", stats, err)
	}
	p, _ := ts.repo.GetProfile(context.Background(), ts.userID)
	if p.TotalFlowDays != 1 {
		t.Errorf("expected total_flow_days 1 on profile, got %d", p.TotalFlowDays)
	}
}

func TestCreateMeal_IdempotentClientID(t *testing.T) {
	ts := setupTestServer(t)
	body := `{"client_id":"c-1","name":"Oats","calories":300,"macros":{"protein":10,"carbs":50,"fats":6}}`

	w := ts.do("POST", "/api/meals", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	first := decode[models.MealCreated](t, w)

	w = ts.do("POST", "/api/meals", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d: %s", w.Code, w.Body.String())
	}
	second := decode[models.MealCreated](t, w)
	if second.Meal.ID != first.Meal.ID {
		t.Errorf("replay created a new meal: %s vs %s", second.Meal.ID, first.Meal.ID)
	}
	if second.Stats.ConsumedCalories != 300 {
		t.Errorf("expected 300 kcal after replay, got %d", second.Stats.ConsumedCalories)
	}
}

func TestCreateMeal_Validation(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"calories":100,"macros":{"protein":1,"carbs":1,"fats":1}}`},
		{"missing calories", `{"name":"x","macros":{"protein":1,"carbs":1,"fats":1}}`},
		{"missing macros", `{"name":"x","calories":100}`},
		{"partial macros", `{"name":"x","calories":100,"macros":{"protein":1}}`},
		{"negative calories", `{"name":"x","calories":-5,"macros":{"protein":1,"carbs":1,"fats":1}}`},
		{"bad source", `{"name":"x","calories":100,"macros":{"protein":1,"carbs":1,"fats":1},"source":"fax"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do("POST", "/api/meals", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestListMeals_DayWindowAndTimezone(t *testing.T) {
	ts := setupTestServer(t)

	// 03:00 UTC on the 10th is still the 9th in New York.
	ts.do("POST", "/api/meals", `{"name":"Late snack","timestamp":"2026-03-10T03:00:00Z","calories":200,"macros":{"protein":5,"carbs":20,"fats":8}}`)
	ts.do("POST", "/api/meals", `{"name":"Lunch","timestamp":"2026-03-10T17:00:00Z","calories":600,"macros":{"protein":40,"carbs":60,"fats":20}}`)

	w := ts.do("GET", "/api/meals?date=2026-03-10", "")
	if meals := decode[[]models.Meal](t, w); len(meals) != 2 {
		t.Errorf("UTC day: expected 2 meals, got %d", len(meals))
	}

	w = ts.do("GET", "/api/meals?date=2026-03-10&tz=America/New_York", "")
	meals := decode[[]models.Meal](t, w)
	if len(meals) != 1 || meals[0].Name != "Lunch" {
		t.Errorf("New York day: expected only Lunch, got %+v", meals)
	}

	w = ts.do("GET", "/api/meals?date=2026-03-11", "")
	if w.Body.String() != "[]" {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}

	w = ts.do("GET", "/api/meals?date=10-03-2026", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", w.Code)
	}
	w = ts.do("GET", "/api/meals?tz=Mars/Base", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad tz, got %d", w.Code)
	}
}

func TestMeals_MidnightBoundary(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do("POST", "/api/meals", `{"name":"Late","timestamp":"2026-03-10T23:59:59.9995Z","calories":300,"macros":{"protein":20,"carbs":30,"fats":10}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if resp := decode[models.MealCreated](t, w); resp.Stats.ConsumedCalories != 300 {
		t.Errorf("late meal should count on the 10th, got %+v", resp.Stats)
	}
	ts.do("POST", "/api/meals", `{"name":"Midnight","timestamp":"2026-03-11T00:00:00Z","calories":500,"macros":{"protein":30,"carbs":50,"fats":15}}`)

	for date, want := range map[string]string{"2026-03-10": "Late", "2026-03-11": "Midnight"} {
		meals := decode[[]models.Meal](t, ts.do("GET", "/api/meals?date="+date, ""))
		if len(meals) != 1 || meals[0].Name != want {
			t.Errorf("%s: expected only %s, got %+v", date, want, meals)
		}
	}

	view := decode[models.DailyView](t, ts.do("GET", "/api/daily?date=2026-03-10", ""))
	if view.Stats.ConsumedCalories != 300 || len(view.Meals) != 1 {
		t.Errorf("daily 2026-03-10: expected 300 kcal from one meal, got %+v (%d meals)", view.Stats, len(view.Meals))
	}
}

func TestDeleteMeal_RescoresDay(t *testing.T) {
	ts := setupTestServer(t)
	ts.setReferenceBiometrics(t, ts.userID)

	created := decode[models.MealCreated](t, ts.do("POST", "/api/meals", referenceMeal))

	w := ts.do("DELETE", "/api/meals/"+created.Meal.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}

	day, _ := models.ParseDate("2026-03-10")
	stats, _ := ts.repo.ListFlowStats(context.Background(), ts.userID, day, day)
	if len(stats) != 1 || stats[0].FlowScore != 0 {
		t.Errorf("expected day re-scored to 0, got %+v", stats)
	}

	w = ts.do("DELETE", "/api/meals/"+created.Meal.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestDeleteMeal_OtherUsersMeal(t *testing.T) {
	ts := setupTestServer(t)
	bob := ts.createUser(t, "bob", "pw")

	created := decode[models.MealCreated](t, ts.do("POST", "/api/meals", referenceMeal))

	w := ts.doAs(bob.AuthToken, "DELETE", "/api/meals/"+created.Meal.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting another user's meal, got %d", w.Code)
	}
}

func TestDaily_View(t *testing.T) {
	ts := setupTestServer(t)
	ts.setReferenceBiometrics(t, ts.userID)
	ts.do("POST", "/api/meals", `{"name":"A","timestamp":"2026-03-10T08:00:00Z","calories":300,"macros":{"protein":20,"carbs":30,"fats":10}}`)
	ts.do("POST", "/api/meals", `{"name":"B","timestamp":"2026-03-10T13:00:00Z","calories":450,"macros":{"protein":35,"carbs":40,"fats":15}}`)

	w := ts.do("GET", "/api/daily", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	view := decode[models.DailyView](t, w)
	if view.Date.String() != "2026-03-10" {
		t.Errorf("expected today 2026-03-10, got %s", view.Date)
	}
	if view.Stats.ConsumedCalories != 750 || view.Stats.Macros.Protein != 55 {
		t.Errorf("expected 750 kcal / 55 g protein, got %+v", view.Stats)
	}
	if len(view.Meals) != 2 {
		t.Errorf("expected 2 meals, got %d", len(view.Meals))
	}
	if view.Log.WaterMl != 0 {
		t.Errorf("expected empty daily log, got %+v", view.Log)
	}
}

func TestDailyLog_WaterAndJournal(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do("PUT", "/api/daily-log", `{"add_water_ml":250}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	ts.do("PUT", "/api/daily-log", `{"add_water_ml":500}`)

	w = ts.do("PUT", "/api/daily-log", `{"journal":"felt good","mood":4}`)
	resp := decode[struct {
		Log      models.DailyLog `json:"log"`
		Progress *struct {
			Level string `json:"level"`
		} `json:"progress"`
	}](t, w)
	if resp.Log.WaterMl != 750 {
		t.Errorf("expected 750 ml, got %d", resp.Log.WaterMl)
	}
	if resp.Log.Journal == nil || *resp.Log.Journal != "felt good" {
		t.Errorf("journal not saved: %+v", resp.Log)
	}
	if resp.Progress == nil || resp.Progress.Level != "seed" {
		t.Errorf("journal save should return synced progress, got %+v", resp.Progress)
	}

	for _, body := range []string{`{"water_ml":1,"add_water_ml":1}`, `{"mood":9}`, `{"water_ml":-1}`} {
		if w := ts.do("PUT", "/api/daily-log", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}
}
