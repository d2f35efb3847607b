package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"nura/go-api/internal/nutrition"
)

type MealSource string

const (
	SourceManual  MealSource = "manual"
	SourceAIChat  MealSource = "ai-chat"
	SourceAIPhoto MealSource = "ai-photo"
	SourceAIVoice MealSource = "ai-voice"
)

func IsValidMealSource(s string) bool {
	switch MealSource(s) {
	case SourceManual, SourceAIChat, SourceAIPhoto, SourceAIVoice:
		return true
	}
	return false
}

// MealItem is one component of a meal as itemised by the AI.
type MealItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Calories int    `json:"calories"`
}

// Meal maps to the meals table. Meals are never edited, only deleted.
type Meal struct {
	ID        string           `json:"id"         db:"id"`
	UserID    int              `json:"user_id"    db:"user_id"`
	ClientID  *string          `json:"client_id"  db:"client_id"`
	Name      string           `json:"name"       db:"name"`
	Timestamp time.Time        `json:"timestamp"  db:"logged_at"`
	Calories  int              `json:"calories"   db:"calories"`
	Macros    nutrition.Macros `json:"macros"     db:"-"`
	Source    MealSource       `json:"source"     db:"source"`
	Items     []MealItem       `json:"items"      db:"-"`
	ImageURL  *string          `json:"image_url"  db:"image_url"`
	CreatedAt *time.Time       `json:"created_at" db:"created_at"`
}

func (m Meal) LoggedAt() time.Time { return m.Timestamp }

func (m Meal) Intake() nutrition.Intake {
	return nutrition.Intake{Calories: m.Calories, Macros: m.Macros}
}

// MacrosInput distinguishes an omitted macro from an explicit zero.
type MacrosInput struct {
	Protein *float64 `json:"protein"`
	Carbs   *float64 `json:"carbs"`
	Fats    *float64 `json:"fats"`
}

// MealInput is the body of POST /api/meals.
type MealInput struct {
	ClientID  *string      `json:"client_id"`
	Name      string       `json:"name"`
	Timestamp *time.Time   `json:"timestamp"`
	Calories  *int         `json:"calories"`
	Macros    *MacrosInput `json:"macros"`
	Source    string       `json:"source"`
	Items     []MealItem   `json:"items"`
	ImageURL  *string      `json:"image_url"`
}

var ErrInvalidMeal = errors.New("invalid meal")

// Validate requires a name, calories and all three macros, none negative.
func (in MealInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMeal)
	}
	if in.Calories == nil {
		return fmt.Errorf("%w: calories is required", ErrInvalidMeal)
	}
	if *in.Calories < 0 {
		return fmt.Errorf("%w: calories must be non-negative", ErrInvalidMeal)
	}
	if in.Macros == nil || in.Macros.Protein == nil || in.Macros.Carbs == nil || in.Macros.Fats == nil {
		return fmt.Errorf("%w: macros.protein, macros.carbs and macros.fats are required", ErrInvalidMeal)
	}
	if *in.Macros.Protein < 0 || *in.Macros.Carbs < 0 || *in.Macros.Fats < 0 {
		return fmt.Errorf("%w: macros must be non-negative", ErrInvalidMeal)
	}
	if in.Source != "" && !IsValidMealSource(in.Source) {
		return fmt.Errorf("%w: source must be one of: manual, ai-chat, ai-photo, ai-voice", ErrInvalidMeal)
	}
	return nil
}

// Meal builds the record to insert. Call Validate first.
func (in MealInput) Meal(userID int, now time.Time) Meal {
	ts := now
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		ts = *in.Timestamp
	}
	source := MealSource(in.Source)
	if source == "" {
		source = SourceManual
	}
	items := in.Items
	if items == nil {
		items = []MealItem{}
	}
	return Meal{
		ID:        uuid.NewString(),
		UserID:    userID,
		ClientID:  in.ClientID,
		Name:      strings.TrimSpace(in.Name),
		Timestamp: ts.UTC().Truncate(time.Microsecond),
		Calories:  *in.Calories,
		Macros: nutrition.Macros{
			Protein: *in.Macros.Protein,
			Carbs:   *in.Macros.Carbs,
			Fats:    *in.Macros.Fats,
		},
		Source:   source,
		Items:    items,
		ImageURL: in.ImageURL,
	}
}

// NewMealInput fills a MealInput from concrete values, e.g. an AI analysis.
func NewMealInput(name string, calories int, macros nutrition.Macros, source MealSource) MealInput {
	return MealInput{
		Name:     name,
		Calories: &calories,
		Macros:   &MacrosInput{Protein: &macros.Protein, Carbs: &macros.Carbs, Fats: &macros.Fats},
		Source:   string(source),
	}
}

/* ─── Per-day records ────────────────────────────────────────────────── */

// FlowStat maps to flow_stats: the cached flow score, one row per user per day.
type FlowStat struct {
	UserID    int      `json:"-"          db:"user_id"`
	Date      DateOnly `json:"date"       db:"date"`
	FlowScore int      `json:"flow_score" db:"flow_score"`
}

func (f FlowStat) DayScore() nutrition.DayScore {
	return nutrition.DayScore{Date: f.Date.String(), Score: f.FlowScore}
}

// DailyLog maps to daily_logs: hydration, mood and journal per user per day.
type DailyLog struct {
	UserID    int        `json:"user_id"    db:"user_id"`
	Date      DateOnly   `json:"date"       db:"date"`
	WaterMl   int        `json:"water_ml"   db:"water_ml"`
	Mood      *int       `json:"mood"       db:"mood"`
	Journal   *string    `json:"journal"    db:"journal"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// DailyLogPatch is the body of PUT /api/daily-log. AddWaterMl increments,
// WaterMl replaces; sending both is an error.
type DailyLogPatch struct {
	Date       *DateOnly `json:"date"`
	WaterMl    *int      `json:"water_ml"`
	AddWaterMl *int      `json:"add_water_ml"`
	Mood       *int      `json:"mood"`
	Journal    *string   `json:"journal"`
}

func (p DailyLogPatch) Validate() error {
	if p.WaterMl != nil && p.AddWaterMl != nil {
		return fmt.Errorf("send water_ml or add_water_ml, not both")
	}
	if p.WaterMl != nil && *p.WaterMl < 0 {
		return fmt.Errorf("water_ml must be non-negative")
	}
	if p.Mood != nil && (*p.Mood < 1 || *p.Mood > 5) {
		return fmt.Errorf("mood must be between 1 and 5")
	}
	return nil
}

// Apply merges the patch into an existing log.
func (p DailyLogPatch) Apply(log DailyLog) DailyLog {
	if p.WaterMl != nil {
		log.WaterMl = *p.WaterMl
	}
	if p.AddWaterMl != nil {
		log.WaterMl = max(0, log.WaterMl+*p.AddWaterMl)
	}
	if p.Mood != nil {
		log.Mood = p.Mood
	}
	if p.Journal != nil {
		log.Journal = p.Journal
	}
	return log
}
