package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"nura/go-api/internal/nutrition"
)

const planSystemPromptTemplate = `You are NURA, a nutrition strategist. Design a three-month nutrition plan for this person:
- Weight: %.0f kg
- Height: %.0f cm
- Age: %d years
- Gender: %s
- Activity level: %s
- Goal: %s
- Biotype: %s

Their computed daily targets are %d kcal, %d g protein, %d g carbs, %d g fat. Adjust only if the goal clearly calls for it.

Return a JSON object with:
- "calories" (integer, daily kcal)
- "macros" (object with "protein", "carbs", "fats" in grams per day)
- "optimization_tag" (string, 1-3 words naming the plan's emphasis, e.g. "lean gain")
- "phases" (array of exactly 3 objects, one per month, each with "title", "focus" and "description")

Return only valid JSON, no explanation.`

// PlanPrompt renders the system prompt for a plan request.
func PlanPrompt(b nutrition.Biometrics, t nutrition.Targets) string {
	return fmt.Sprintf(planSystemPromptTemplate,
		b.WeightKg, b.HeightCm, b.Age, b.Gender, b.ActivityLevel, b.Goal, b.Biotype,
		t.Calories, t.Protein, t.Carbs, t.Fats)
}

// GeneratePlan asks the model for a quarterly plan draft. The draft still
// needs nutrition.ShapePlan before it is stored.
func (c *Client) GeneratePlan(ctx context.Context, b nutrition.Biometrics, t nutrition.Targets, note string) (nutrition.PlanDraft, error) {
	user := "Create my quarterly plan."
	if note != "" {
		user += " " + note
	}
	content, err := c.Complete(ctx, PlanPrompt(b, t), user, nil)
	if err != nil {
		return nutrition.PlanDraft{}, err
	}
	return ParsePlan(content)
}

// planReply is the model's JSON shape. Calories is a float because models
// do not always return an integer.
type planReply struct {
	Calories        float64           `json:"calories"`
	Macros          nutrition.Macros  `json:"macros"`
	OptimizationTag string            `json:"optimization_tag"`
	Phases          []nutrition.Phase `json:"phases"`
}

// ParsePlan decodes a model reply into a PlanDraft.
func ParsePlan(content string) (nutrition.PlanDraft, error) {
	raw, err := ExtractJSON(content)
	if err != nil {
		return nutrition.PlanDraft{}, err
	}
	var reply planReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nutrition.PlanDraft{}, fmt.Errorf("parse plan reply: %w", err)
	}
	return nutrition.PlanDraft{
		Calories:        int(math.Round(reply.Calories)),
		Macros:          reply.Macros,
		OptimizationTag: reply.OptimizationTag,
		Phases:          reply.Phases,
	}, nil
}
