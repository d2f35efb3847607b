// Package store persists NURA data. Postgres (pgx) is the production backend;
// SQLite (modernc) serves local development, self-hosting and tests.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

// ErrNotFound is returned when a looked-up row does not exist or is not
// owned by the caller.
var ErrNotFound = errors.New("not found")

// Repository is the storage contract the API server depends on.
type Repository interface {
	// Accounts
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	UserIDByToken(ctx context.Context, token string) (int, error)
	CreateUser(ctx context.Context, u models.User, displayName string) (models.User, error)

	// Profile and cached progression
	GetProfile(ctx context.Context, userID int) (models.Profile, error)
	UpdateProfile(ctx context.Context, userID int, patch models.ProfilePatch) (models.Profile, error)
	SaveProgress(ctx context.Context, userID int, p nutrition.Progress) error

	// Meals. CreateMeal returns the existing row and created=false when the
	// meal's client id was already used by this user.
	CreateMeal(ctx context.Context, m models.Meal) (meal models.Meal, created bool, err error)
	GetMeal(ctx context.Context, userID int, id string) (models.Meal, error)
	// ListMeals is half-open: from <= logged_at < to.
	ListMeals(ctx context.Context, userID int, from, to time.Time) ([]models.Meal, error)
	DeleteMeal(ctx context.Context, userID int, id string) error

	// Flow stats and daily logs, one row per user per date
	UpsertFlowStat(ctx context.Context, s models.FlowStat) error
	ListFlowStats(ctx context.Context, userID int, start, end models.DateOnly) ([]models.FlowStat, error)
	FlowHistory(ctx context.Context, userID int) ([]models.FlowStat, error)
	GetDailyLog(ctx context.Context, userID int, date models.DateOnly) (models.DailyLog, error)
	UpsertDailyLog(ctx context.Context, l models.DailyLog) (models.DailyLog, error)

	// Quarterly plans. ActivatePlan archives any active plan and inserts p
	// in one transaction.
	ActivatePlan(ctx context.Context, p models.Plan) (models.Plan, error)
	ActivePlan(ctx context.Context, userID int) (*models.Plan, error)
	ListPlans(ctx context.Context, userID int) ([]models.Plan, error)

	// Social feed
	CreatePost(ctx context.Context, p models.Post) (models.Post, error)
	ListFeed(ctx context.Context, viewerID, limit int, before *time.Time) ([]models.Post, error)
	DeletePost(ctx context.Context, userID int, id string) error
	ToggleLike(ctx context.Context, userID int, postID string) (liked bool, count int, err error)

	// Weight log
	UpsertWeight(ctx context.Context, userID int, date models.DateOnly, kg float64) (models.WeightEntry, error)
	UpdateWeight(ctx context.Context, userID, id int, date *models.DateOnly, kg *float64) (models.WeightEntry, error)
	ListWeights(ctx context.Context, userID int, start, end models.DateOnly) ([]models.WeightEntry, error)
	LatestWeight(ctx context.Context, userID int) (*models.WeightEntry, error)
	DeleteWeight(ctx context.Context, userID, id int) error

	Ping(ctx context.Context) error
	Close() error
}

// IsSQLite reports whether url names a SQLite database: "sqlite://path",
// "file:path" or a path ending in .db.
func IsSQLite(url string) bool {
	return strings.HasPrefix(url, "sqlite://") ||
		strings.HasPrefix(url, "file:") ||
		strings.HasSuffix(url, ".db")
}

// Open picks a backend from the URL. SQLite URLs (see IsSQLite) open SQLite;
// anything else is handed to pgx.
func Open(ctx context.Context, url string) (Repository, error) {
	switch {
	case url == "":
		return nil, fmt.Errorf("DB_URL is not set")
	case IsSQLite(url):
		return OpenSQLite(strings.TrimPrefix(url, "sqlite://"))
	}
	return OpenPostgres(ctx, url)
}

/* ─── Row conversion shared by both backends ─────────────────────────── */

type mealRow struct {
	ID        string     `db:"id"`
	UserID    int        `db:"user_id"`
	ClientID  *string    `db:"client_id"`
	Name      string     `db:"name"`
	LoggedAt  time.Time  `db:"logged_at"`
	Calories  int        `db:"calories"`
	Protein   float64    `db:"protein"`
	Carbs     float64    `db:"carbs"`
	Fats      float64    `db:"fats"`
	Source    string     `db:"source"`
	Items     []byte     `db:"items"`
	ImageURL  *string    `db:"image_url"`
	CreatedAt *time.Time `db:"created_at"`
}

func (r mealRow) meal() models.Meal {
	items := []models.MealItem{}
	if len(r.Items) > 0 {
		if err := json.Unmarshal(r.Items, &items); err != nil {
			items = []models.MealItem{}
		}
	}
	return models.Meal{
		ID:        r.ID,
		UserID:    r.UserID,
		ClientID:  r.ClientID,
		Name:      r.Name,
		Timestamp: r.LoggedAt.UTC(),
		Calories:  r.Calories,
		Macros:    nutrition.Macros{Protein: r.Protein, Carbs: r.Carbs, Fats: r.Fats},
		Source:    models.MealSource(r.Source),
		Items:     items,
		ImageURL:  r.ImageURL,
		CreatedAt: r.CreatedAt,
	}
}

type planRow struct {
	ID              string          `db:"id"`
	UserID          int             `db:"user_id"`
	Calories        int             `db:"calories"`
	Protein         float64         `db:"protein"`
	Carbs           float64         `db:"carbs"`
	Fats            float64         `db:"fats"`
	OptimizationTag string          `db:"optimization_tag"`
	Phases          []byte          `db:"phases"`
	StartDate       models.DateOnly `db:"start_date"`
	EndDate         models.DateOnly `db:"end_date"`
	Status          string          `db:"status"`
	CreatedAt       *time.Time      `db:"created_at"`
}

func (r planRow) plan() models.Plan {
	var phases []nutrition.Phase
	if err := json.Unmarshal(r.Phases, &phases); err != nil || phases == nil {
		phases = []nutrition.Phase{}
	}
	return models.Plan{
		ID:              r.ID,
		UserID:          r.UserID,
		Calories:        r.Calories,
		Macros:          nutrition.Macros{Protein: r.Protein, Carbs: r.Carbs, Fats: r.Fats},
		OptimizationTag: r.OptimizationTag,
		Phases:          phases,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		Status:          nutrition.PlanStatus(r.Status),
		CreatedAt:       r.CreatedAt,
	}
}

type postRow struct {
	ID        string    `db:"id"`
	UserID    int       `db:"user_id"`
	Username  string    `db:"username"`
	Caption   string    `db:"caption"`
	ImageURL  *string   `db:"image_url"`
	Card      []byte    `db:"card"`
	LikeCount int       `db:"like_count"`
	LikedByMe bool      `db:"liked_by_me"`
	CreatedAt time.Time `db:"created_at"`
}

func (r postRow) post() models.Post {
	p := models.Post{
		ID:        r.ID,
		UserID:    r.UserID,
		Username:  r.Username,
		Caption:   r.Caption,
		ImageURL:  r.ImageURL,
		LikeCount: r.LikeCount,
		LikedByMe: r.LikedByMe,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if len(r.Card) > 0 {
		var card models.ShareCard
		if err := json.Unmarshal(r.Card, &card); err == nil {
			p.Card = &card
		}
	}
	return p
}

func itemsJSON(items []models.MealItem) string {
	if items == nil {
		items = []models.MealItem{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func phasesJSON(phases []nutrition.Phase) string {
	b, _ := json.Marshal(phases)
	return string(b)
}

// cardJSON returns nil for a post without a share card so the column stays NULL.
func cardJSON(card *models.ShareCard) *string {
	if card == nil {
		return nil
	}
	b, _ := json.Marshal(card)
	s := string(b)
	return &s
}
