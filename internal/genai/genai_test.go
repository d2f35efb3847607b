package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nura/go-api/internal/nutrition"
)

// openAIChatResponse wraps a content string in the chat completions
// response shape (choices[0].message.content).
func openAIChatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

// mockOpenAI serves status/body and records the last request body.
func mockOpenAI(t *testing.T, status int, body any) (*Client, *map[string]any) {
	t.Helper()
	var last map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&last)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return New("test-key", srv.URL, "gpt-4o-mini", 5*time.Second), &last
}

/* ─── ExtractJSON ────────────────────────────────────────────────────── */

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Sure! Here you go: {"a":{"b":2}} Enjoy.`, `{"a":{"b":2}}`},
		{"brace in string", `{"msg":"use } and { freely","n":1}`, `{"msg":"use } and { freely","n":1}`},
		{"escaped quote", `{"msg":"say \"hi}\"","n":1} trailing`, `{"msg":"say \"hi}\"","n":1}`},
		{"first of two", `{"a":1}{"b":2}`, `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			if err != nil {
				t.Fatalf("ExtractJSON: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestExtractJSON_None(t *testing.T) {
	for _, in := range []string{"", "no json here", `{"unterminated": 1`} {
		if _, err := ExtractJSON(in); !errors.Is(err, ErrNoJSON) {
			t.Errorf("ExtractJSON(%q) err = %v, want ErrNoJSON", in, err)
		}
	}
}

/* ─── Meal analysis ──────────────────────────────────────────────────── */

func TestAnalyzeMeal_Text(t *testing.T) {
	reply := "```json\n" + `{"foodName":"Chicken Rice Bowl","calories":612.4,"macros":{"p":45,"c":70,"f":14},
		"items":[{"name":"chicken","quantity":"150g","calories":250},{"name":"rice","quantity":"1 cup","calories":205.6}],
		"message":"Great balance!"}` + "\n```"
	c, last := mockOpenAI(t, http.StatusOK, openAIChatResponse(reply))

	a, err := c.AnalyzeMeal(context.Background(), MealQuery{Text: "chicken and rice"})
	if err != nil {
		t.Fatalf("AnalyzeMeal: %v", err)
	}
	if a.FoodName != "Chicken Rice Bowl" || a.Calories != 612 || a.Macros.Protein != 45 {
		t.Errorf("analysis = %+v", a)
	}
	if len(a.Items) != 2 || a.Items[1].Calories != 206 {
		t.Errorf("items = %+v", a.Items)
	}

	msgs := (*last)["messages"].([]any)
	user := msgs[1].(map[string]any)
	if user["content"] != "chicken and rice" {
		t.Errorf("user content = %v", user["content"])
	}
	if (*last)["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", (*last)["model"])
	}
}

func TestAnalyzeMeal_PhotoSendsDataURL(t *testing.T) {
	c, last := mockOpenAI(t, http.StatusOK, openAIChatResponse(`{"foodName":"Salad","calories":200,"macros":{"p":5,"c":10,"f":15},"items":[]}`))

	img := &Image{Data: []byte{0xff, 0xd8, 0xff}, MimeType: "image/png"}
	if _, err := c.AnalyzeMeal(context.Background(), MealQuery{Image: img}); err != nil {
		t.Fatalf("AnalyzeMeal: %v", err)
	}

	msgs := (*last)["messages"].([]any)
	parts := msgs[1].(map[string]any)["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("parts = %v", parts)
	}
	if text := parts[0].(map[string]any)["text"]; text != photoPrompt {
		t.Errorf("text part = %v", text)
	}
	url := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("image url = %s", url)
	}
}

func TestAnalyzeMeal_VoicePreamble(t *testing.T) {
	c, last := mockOpenAI(t, http.StatusOK, openAIChatResponse(`{"foodName":"Toast","calories":150,"macros":{"p":5,"c":25,"f":3}}`))
	if _, err := c.AnalyzeMeal(context.Background(), MealQuery{Text: "uh two toast", Voice: true}); err != nil {
		t.Fatalf("AnalyzeMeal: %v", err)
	}
	user := (*last)["messages"].([]any)[1].(map[string]any)["content"].(string)
	if !strings.HasPrefix(user, voicePreamble) || !strings.HasSuffix(user, "uh two toast") {
		t.Errorf("voice content = %q", user)
	}
}

func TestAnalyzeMeal_Unrecognized(t *testing.T) {
	for _, reply := range []string{`{"error":"unrecognized"}`, `{"foodName":"","calories":0}`} {
		c, _ := mockOpenAI(t, http.StatusOK, openAIChatResponse(reply))
		if _, err := c.AnalyzeMeal(context.Background(), MealQuery{Text: "asdf"}); !errors.Is(err, ErrUnrecognized) {
			t.Errorf("reply %s: err = %v, want ErrUnrecognized", reply, err)
		}
	}
}

func TestAnalyzeMeal_Malformed(t *testing.T) {
	c, _ := mockOpenAI(t, http.StatusOK, openAIChatResponse("I think that's about 400 calories"))
	_, err := c.AnalyzeMeal(context.Background(), MealQuery{Text: "pizza"})
	if !errors.Is(err, ErrNoJSON) {
		t.Errorf("err = %v, want ErrNoJSON", err)
	}
}

func TestComplete_Errors(t *testing.T) {
	c, _ := mockOpenAI(t, http.StatusInternalServerError, map[string]any{"error": "boom"})
	if _, err := c.Complete(context.Background(), "s", "u", nil); err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Errorf("err = %v, want status 500", err)
	}

	c, _ = mockOpenAI(t, http.StatusOK, map[string]any{"choices": []any{}})
	if _, err := c.Complete(context.Background(), "s", "u", nil); err == nil {
		t.Error("empty choices should fail")
	}

	unconfigured := New("", "http://127.0.0.1:0", "m", time.Second)
	if _, err := unconfigured.Complete(context.Background(), "s", "u", nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

/* ─── Plans ──────────────────────────────────────────────────────────── */

func TestGeneratePlan(t *testing.T) {
	reply := `{"calories":2400,"macros":{"protein":180,"carbs":250,"fats":75},"optimization_tag":"lean gain",
		"phases":[{"title":"Adapt","focus":"habits"},{"title":"Build","focus":"protein"},{"title":"Refine","focus":"timing"}]}`
	c, last := mockOpenAI(t, http.StatusOK, openAIChatResponse(reply))

	b := nutrition.Biometrics{Gender: nutrition.Male, ActivityLevel: nutrition.Moderate, Goal: nutrition.GoalHealth, Biotype: nutrition.Meso}.WithDefaults()
	draft, err := c.GeneratePlan(context.Background(), b, nutrition.ComputeTargets(b), "")
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if draft.Calories != 2400 || draft.Macros.Fats != 75 || len(draft.Phases) != 3 || draft.Phases[2].Title != "Refine" {
		t.Errorf("draft = %+v", draft)
	}

	system := (*last)["messages"].([]any)[0].(map[string]any)["content"].(string)
	if !strings.Contains(system, "70 kg") || !strings.Contains(system, "2628 kcal") {
		t.Errorf("system prompt missing biometrics/targets:\n%s", system)
	}
}

func TestParsePlan_FractionalCalories(t *testing.T) {
	draft, err := ParsePlan(`{"calories": 2450.5, "macros": {"protein": 180.5, "carbs": 250, "fats": 80},
		"optimization_tag": "lean gain", "phases": [{"title": "A"}, {"title": "B"}, {"title": "C"}]}`)
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if draft.Calories != 2451 || draft.Macros.Protein != 180.5 || len(draft.Phases) != 3 {
		t.Errorf("unexpected draft %+v", draft)
	}
}

func TestParsePlan_Malformed(t *testing.T) {
	if _, err := ParsePlan(`{"calories": "lots"}`); err == nil {
		t.Error("wrong field type should fail")
	}
}
