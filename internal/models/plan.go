package models

import (
	"time"

	"github.com/google/uuid"

	"nura/go-api/internal/nutrition"
)

// Plan maps to quarterly_plans.
type Plan struct {
	ID              string               `json:"id"               db:"id"`
	UserID          int                  `json:"user_id"          db:"user_id"`
	Calories        int                  `json:"calories"         db:"calories"`
	Macros          nutrition.Macros     `json:"macros"           db:"-"`
	OptimizationTag string               `json:"optimization_tag" db:"optimization_tag"`
	Phases          []nutrition.Phase    `json:"phases"           db:"-"`
	StartDate       DateOnly             `json:"start_date"       db:"start_date"`
	EndDate         DateOnly             `json:"end_date"         db:"end_date"`
	Status          nutrition.PlanStatus `json:"status"           db:"status"`
	CreatedAt       *time.Time           `json:"created_at"       db:"created_at"`
}

// NewPlan wraps a shaped plan for insertion.
func NewPlan(userID int, p nutrition.QuarterlyPlan) Plan {
	return Plan{
		ID:              uuid.NewString(),
		UserID:          userID,
		Calories:        p.Calories,
		Macros:          p.Macros,
		OptimizationTag: p.OptimizationTag,
		Phases:          p.Phases,
		StartDate:       NewDateOnly(p.StartDate),
		EndDate:         NewDateOnly(p.EndDate),
		Status:          p.Status,
	}
}

/* ─── Social ─────────────────────────────────────────────────────────── */

// ShareCard is the progress snapshot rendered onto a shared post.
type ShareCard struct {
	Date             DateOnly        `json:"date"`
	FlowScore        int             `json:"flow_score"`
	Level            nutrition.Level `json:"level"`
	CurrentStreak    int             `json:"current_streak"`
	TotalFlowDays    int             `json:"total_flow_days"`
	ConsumedCalories int             `json:"consumed_calories"`
	TargetCalories   int             `json:"target_calories"`
}

// Post maps to posts joined with the author and like counts.
type Post struct {
	ID        string     `json:"id"          db:"id"`
	UserID    int        `json:"user_id"     db:"user_id"`
	Username  string     `json:"username"    db:"username"`
	Caption   string     `json:"caption"     db:"caption"`
	ImageURL  *string    `json:"image_url"   db:"image_url"`
	Card      *ShareCard `json:"card"        db:"-"`
	LikeCount int        `json:"like_count"  db:"like_count"`
	LikedByMe bool       `json:"liked_by_me" db:"liked_by_me"`
	CreatedAt time.Time  `json:"created_at"  db:"created_at"`
}

// PostInput is the body of POST /api/posts. ShareProgress asks the server to
// attach a card built from today's stats.
type PostInput struct {
	Caption       string  `json:"caption"`
	ImageURL      *string `json:"image_url"`
	ShareProgress bool    `json:"share_progress"`
	Date          *string `json:"date"`
	TZ            string  `json:"tz"`
}

/* ─── Response views ─────────────────────────────────────────────────── */

// DailyView is the response of GET /api/daily.
type DailyView struct {
	Date     DateOnly             `json:"date"`
	Stats    nutrition.DailyStats `json:"stats"`
	Meals    []Meal               `json:"meals"`
	Log      DailyLog             `json:"log"`
	Progress nutrition.Progress   `json:"progress"`
}

// AnalyzeRequest is the body of POST /api/meals/analyze. Image is base64
// without the data-URL prefix; MimeType defaults to image/jpeg.
type AnalyzeRequest struct {
	Text     string  `json:"text"`
	Image    string  `json:"image"`
	MimeType string  `json:"mime_type"`
	Voice    bool    `json:"voice"`
	Log      bool    `json:"log"`
	ClientID *string `json:"client_id"`
	ImageURL *string `json:"image_url"`
}

// Analysis is the AI's reading of a meal.
type Analysis struct {
	FoodName string           `json:"food_name"`
	Calories int              `json:"calories"`
	Macros   nutrition.Macros `json:"macros"`
	Items    []MealItem       `json:"items"`
	Message  string           `json:"message"`
}

// AnalyzeResponse carries the analysis and, when requested, the logged meal.
type AnalyzeResponse struct {
	Analysis Analysis              `json:"analysis"`
	Meal     *Meal                 `json:"meal,omitempty"`
	Stats    *nutrition.DailyStats `json:"stats,omitempty"`
}

// MealCreated is the response of POST /api/meals.
type MealCreated struct {
	Meal     Meal                 `json:"meal"`
	Stats    nutrition.DailyStats `json:"stats"`
	Progress nutrition.Progress   `json:"progress"`
}

// ActivePlanView wraps the active plan so "none" encodes as {"plan": null}.
type ActivePlanView struct {
	Plan *Plan `json:"plan"`
}
