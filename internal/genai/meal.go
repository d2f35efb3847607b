package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

// ErrUnrecognized means the model judged the input not to be food.
var ErrUnrecognized = errors.New("unrecognized")

const mealSystemPrompt = `You are NURA, a warm nutrition coach. Identify the meal the user describes or shows and estimate its nutrition.
Return a JSON object with:
- "foodName" (string, short title case name of the whole meal)
- "calories" (integer, total kcal)
- "macros" (object with "p", "c", "f": total grams of protein, carbs and fat)
- "items" (array of {"name", "quantity", "calories"} for each component)
- "message" (string, one encouraging sentence about the meal)

Always give your best estimate for vague or partial descriptions. Only return {"error": "unrecognized"} if the input is not food at all.
Return only valid JSON, no explanation.`

const voicePreamble = "The following is a speech transcript and may contain filler words or recognition mistakes:\n\n"

const photoPrompt = "Estimate the nutrition of the meal in this photo."

// mealReply is the model's JSON shape.
type mealReply struct {
	Error    string  `json:"error"`
	FoodName string  `json:"foodName"`
	Calories float64 `json:"calories"`
	Macros   struct {
		P float64 `json:"p"`
		C float64 `json:"c"`
		F float64 `json:"f"`
	} `json:"macros"`
	Items []struct {
		Name     string  `json:"name"`
		Quantity string  `json:"quantity"`
		Calories float64 `json:"calories"`
	} `json:"items"`
	Message string `json:"message"`
}

// MealQuery is one analysis request: text, a voice transcript, or a photo
// with an optional caption.
type MealQuery struct {
	Text  string
	Voice bool
	Image *Image
}

// AnalyzeMeal asks the model for a nutrition estimate.
func (c *Client) AnalyzeMeal(ctx context.Context, q MealQuery) (models.Analysis, error) {
	user := strings.TrimSpace(q.Text)
	switch {
	case q.Image != nil && user == "":
		user = photoPrompt
	case q.Voice:
		user = voicePreamble + user
	}

	content, err := c.Complete(ctx, mealSystemPrompt, user, q.Image)
	if err != nil {
		return models.Analysis{}, err
	}
	return ParseMeal(content)
}

// ParseMeal decodes a model reply into an Analysis.
func ParseMeal(content string) (models.Analysis, error) {
	raw, err := ExtractJSON(content)
	if err != nil {
		return models.Analysis{}, err
	}
	var reply mealReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return models.Analysis{}, fmt.Errorf("parse meal reply: %w", err)
	}
	if reply.Error == "unrecognized" {
		return models.Analysis{}, ErrUnrecognized
	}
	if strings.TrimSpace(reply.FoodName) == "" || reply.Calories <= 0 {
		return models.Analysis{}, ErrUnrecognized
	}

	a := models.Analysis{
		FoodName: strings.TrimSpace(reply.FoodName),
		Calories: int(reply.Calories + 0.5),
		Macros: nutrition.Macros{
			Protein: max(0, reply.Macros.P),
			Carbs:   max(0, reply.Macros.C),
			Fats:    max(0, reply.Macros.F),
		},
		Items:   make([]models.MealItem, 0, len(reply.Items)),
		Message: reply.Message,
	}
	for _, it := range reply.Items {
		a.Items = append(a.Items, models.MealItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Calories: int(max(0, it.Calories) + 0.5),
		})
	}
	return a, nil
}
