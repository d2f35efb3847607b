package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

// Postgres implements Repository on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a connection pool. A pool (not a single conn) survives
// hosted providers closing idle connections.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	// Simple protocol avoids "cached plan must not change result type" errors
	// from server-side prepared statement caches after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

/* ─── Query helpers ──────────────────────────────────────────────────── */

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// queryOne runs a query and scans the first row into T using RowToStructByName.
// pgx.ErrNoRows becomes ErrNotFound; other errors are logged for debugging
// (e.g. struct/column mismatches).
func queryOne[T any](ctx context.Context, q querier, sql string, args pgx.NamedArgs) (T, error) {
	var zero T
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryOne] Query error: %v", err)
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		log.Printf("[queryOne] Scan error: %v", err)
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T. Never returns a nil
// slice on success so handlers encode [] rather than null.
func queryMany[T any](ctx context.Context, q querier, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryMany] Query error: %v", err)
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryMany] Scan error: %v", err)
		return nil, err
	}
	if results == nil {
		results = []T{}
	}
	return results, nil
}

/* ─── Accounts ───────────────────────────────────────────────────────── */

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return queryOne[models.User](ctx, p.pool,
		"SELECT * FROM users WHERE username = @username",
		pgx.NamedArgs{"username": username})
}

func (p *Postgres) UserIDByToken(ctx context.Context, token string) (int, error) {
	var userID int
	err := p.pool.QueryRow(ctx, "SELECT id FROM users WHERE auth_token = $1", token).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return userID, err
}

// CreateUser inserts the user and an empty profile in one transaction.
func (p *Postgres) CreateUser(ctx context.Context, u models.User, displayName string) (models.User, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback(ctx)

	created, err := queryOne[models.User](ctx, tx,
		`INSERT INTO users (username, email, password, auth_token)
		 VALUES (@username, @email, @password, @authToken)
		 RETURNING *`,
		pgx.NamedArgs{"username": u.Username, "email": u.Email, "password": u.Password, "authToken": u.AuthToken})
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO profiles (user_id, display_name) VALUES (@userID, @displayName)",
		pgx.NamedArgs{"userID": created.ID, "displayName": displayName}); err != nil {
		return models.User{}, fmt.Errorf("insert profile: %w", err)
	}
	return created, tx.Commit(ctx)
}

/* ─── Profile ────────────────────────────────────────────────────────── */

func (p *Postgres) GetProfile(ctx context.Context, userID int) (models.Profile, error) {
	return queryOne[models.Profile](ctx, p.pool,
		"SELECT * FROM profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
}

// UpdateProfile writes only the fields present in patch.
func (p *Postgres) UpdateProfile(ctx context.Context, userID int, patch models.ProfilePatch) (models.Profile, error) {
	assignments := patch.Assignments()
	if len(assignments) == 0 {
		return p.GetProfile(ctx, userID)
	}
	setClauses := make([]string, 0, len(assignments)+1)
	args := pgx.NamedArgs{"userID": userID}
	for _, a := range assignments {
		setClauses = append(setClauses, a.Column+" = @"+a.Column)
		args[a.Column] = a.Value
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := "UPDATE profiles SET " + strings.Join(setClauses, ", ") +
		" WHERE user_id = @userID RETURNING *"
	return queryOne[models.Profile](ctx, p.pool, query, args)
}

func (p *Postgres) SaveProgress(ctx context.Context, userID int, pr nutrition.Progress) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE profiles SET
			current_streak  = @current,
			longest_streak  = @longest,
			total_flow_days = @total,
			level           = @level,
			updated_at      = now()
		 WHERE user_id = @userID`,
		pgx.NamedArgs{
			"userID":  userID,
			"current": pr.CurrentStreak,
			"longest": pr.LongestStreak,
			"total":   pr.TotalFlowDays,
			"level":   string(pr.Level),
		})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

/* ─── Meals ──────────────────────────────────────────────────────────── */

const pgMealColumns = `id::text AS id, user_id, client_id, name, logged_at, calories,
	protein, carbs, fats, source, items, image_url, created_at`

func (p *Postgres) CreateMeal(ctx context.Context, m models.Meal) (models.Meal, bool, error) {
	row, err := queryOne[mealRow](ctx, p.pool,
		`INSERT INTO meals (id, user_id, client_id, name, logged_at, calories, protein, carbs, fats, source, items, image_url)
		 VALUES (@id, @userID, @clientID, @name, @loggedAt, @calories, @protein, @carbs, @fats, @source, @items::jsonb, @imageURL)
		 ON CONFLICT (user_id, client_id) DO NOTHING
		 RETURNING `+pgMealColumns,
		pgx.NamedArgs{
			"id":       m.ID,
			"userID":   m.UserID,
			"clientID": m.ClientID,
			"name":     m.Name,
			"loggedAt": m.Timestamp.UTC(),
			"calories": m.Calories,
			"protein":  m.Macros.Protein,
			"carbs":    m.Macros.Carbs,
			"fats":     m.Macros.Fats,
			"source":   string(m.Source),
			"items":    itemsJSON(m.Items),
			"imageURL": m.ImageURL,
		})
	if err == nil {
		return row.meal(), true, nil
	}
	if !errors.Is(err, ErrNotFound) || m.ClientID == nil {
		return models.Meal{}, false, err
	}
	// Conflict on client_id: a retried submission of a meal we already have.
	row, err = queryOne[mealRow](ctx, p.pool,
		"SELECT "+pgMealColumns+" FROM meals WHERE user_id = @userID AND client_id = @clientID",
		pgx.NamedArgs{"userID": m.UserID, "clientID": *m.ClientID})
	if err != nil {
		return models.Meal{}, false, err
	}
	return row.meal(), false, nil
}

func (p *Postgres) GetMeal(ctx context.Context, userID int, id string) (models.Meal, error) {
	row, err := queryOne[mealRow](ctx, p.pool,
		"SELECT "+pgMealColumns+" FROM meals WHERE id::text = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return models.Meal{}, err
	}
	return row.meal(), nil
}

// ListMeals returns the user's meals with from <= logged_at < to, oldest first.
func (p *Postgres) ListMeals(ctx context.Context, userID int, from, to time.Time) ([]models.Meal, error) {
	rows, err := queryMany[mealRow](ctx, p.pool,
		"SELECT "+pgMealColumns+` FROM meals
		 WHERE user_id = @userID AND logged_at >= @from AND logged_at < @to
		 ORDER BY logged_at ASC, created_at ASC`,
		pgx.NamedArgs{"userID": userID, "from": from.UTC(), "to": to.UTC()})
	if err != nil {
		return nil, err
	}
	meals := make([]models.Meal, len(rows))
	for i, r := range rows {
		meals[i] = r.meal()
	}
	return meals, nil
}

func (p *Postgres) DeleteMeal(ctx context.Context, userID int, id string) error {
	tag, err := p.pool.Exec(ctx,
		"DELETE FROM meals WHERE id::text = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

/* ─── Flow stats and daily logs ──────────────────────────────────────── */

func (p *Postgres) UpsertFlowStat(ctx context.Context, s models.FlowStat) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO flow_stats (user_id, date, flow_score)
		 VALUES (@userID, @date::date, @score)
		 ON CONFLICT (user_id, date) DO UPDATE SET flow_score = EXCLUDED.flow_score`,
		pgx.NamedArgs{"userID": s.UserID, "date": s.Date.String(), "score": s.FlowScore})
	return err
}

func (p *Postgres) ListFlowStats(ctx context.Context, userID int, start, end models.DateOnly) ([]models.FlowStat, error) {
	return queryMany[models.FlowStat](ctx, p.pool,
		`SELECT user_id, date, flow_score FROM flow_stats
		 WHERE user_id = @userID AND date >= @start::date AND date <= @end::date
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": start.String(), "end": end.String()})
}

func (p *Postgres) FlowHistory(ctx context.Context, userID int) ([]models.FlowStat, error) {
	return queryMany[models.FlowStat](ctx, p.pool,
		"SELECT user_id, date, flow_score FROM flow_stats WHERE user_id = @userID ORDER BY date ASC",
		pgx.NamedArgs{"userID": userID})
}

func (p *Postgres) GetDailyLog(ctx context.Context, userID int, date models.DateOnly) (models.DailyLog, error) {
	return queryOne[models.DailyLog](ctx, p.pool,
		"SELECT * FROM daily_logs WHERE user_id = @userID AND date = @date::date",
		pgx.NamedArgs{"userID": userID, "date": date.String()})
}

func (p *Postgres) UpsertDailyLog(ctx context.Context, l models.DailyLog) (models.DailyLog, error) {
	return queryOne[models.DailyLog](ctx, p.pool,
		`INSERT INTO daily_logs (user_id, date, water_ml, mood, journal)
		 VALUES (@userID, @date::date, @water, @mood, @journal)
		 ON CONFLICT (user_id, date) DO UPDATE SET
			water_ml   = EXCLUDED.water_ml,
			mood       = EXCLUDED.mood,
			journal    = EXCLUDED.journal,
			updated_at = now()
		 RETURNING *`,
		pgx.NamedArgs{"userID": l.UserID, "date": l.Date.String(), "water": l.WaterMl, "mood": l.Mood, "journal": l.Journal})
}

/* ─── Plans ──────────────────────────────────────────────────────────── */

const pgPlanColumns = `id::text AS id, user_id, calories, protein, carbs, fats,
	optimization_tag, phases, start_date, end_date, status, created_at`

func (p *Postgres) ActivatePlan(ctx context.Context, plan models.Plan) (models.Plan, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return models.Plan{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE quarterly_plans SET status = 'archived' WHERE user_id = @userID AND status = 'active'",
		pgx.NamedArgs{"userID": plan.UserID}); err != nil {
		return models.Plan{}, fmt.Errorf("archive active plans: %w", err)
	}
	row, err := queryOne[planRow](ctx, tx,
		`INSERT INTO quarterly_plans (id, user_id, calories, protein, carbs, fats, optimization_tag, phases, start_date, end_date, status)
		 VALUES (@id, @userID, @calories, @protein, @carbs, @fats, @tag, @phases::jsonb, @start::date, @end::date, 'active')
		 RETURNING `+pgPlanColumns,
		pgx.NamedArgs{
			"id":       plan.ID,
			"userID":   plan.UserID,
			"calories": plan.Calories,
			"protein":  plan.Macros.Protein,
			"carbs":    plan.Macros.Carbs,
			"fats":     plan.Macros.Fats,
			"tag":      plan.OptimizationTag,
			"phases":   phasesJSON(plan.Phases),
			"start":    plan.StartDate.String(),
			"end":      plan.EndDate.String(),
		})
	if err != nil {
		return models.Plan{}, fmt.Errorf("insert plan: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Plan{}, err
	}
	return row.plan(), nil
}

// ActivePlan returns nil, nil when the user has no active plan.
func (p *Postgres) ActivePlan(ctx context.Context, userID int) (*models.Plan, error) {
	row, err := queryOne[planRow](ctx, p.pool,
		"SELECT "+pgPlanColumns+" FROM quarterly_plans WHERE user_id = @userID AND status = 'active'",
		pgx.NamedArgs{"userID": userID})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	plan := row.plan()
	return &plan, nil
}

func (p *Postgres) ListPlans(ctx context.Context, userID int) ([]models.Plan, error) {
	rows, err := queryMany[planRow](ctx, p.pool,
		"SELECT "+pgPlanColumns+" FROM quarterly_plans WHERE user_id = @userID ORDER BY created_at DESC",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return nil, err
	}
	plans := make([]models.Plan, len(rows))
	for i, r := range rows {
		plans[i] = r.plan()
	}
	return plans, nil
}

/* ─── Social feed ────────────────────────────────────────────────────── */

const pgPostSelect = `SELECT p.id::text AS id, p.user_id, u.username, p.caption, p.image_url, p.card,
	(SELECT count(*) FROM post_likes l WHERE l.post_id = p.id) AS like_count,
	EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = @viewerID) AS liked_by_me,
	p.created_at
	FROM posts p JOIN users u ON u.id = p.user_id`

func (p *Postgres) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	if _, err := p.pool.Exec(ctx,
		`INSERT INTO posts (id, user_id, caption, image_url, card)
		 VALUES (@id, @userID, @caption, @imageURL, @card::jsonb)`,
		pgx.NamedArgs{
			"id":       post.ID,
			"userID":   post.UserID,
			"caption":  post.Caption,
			"imageURL": post.ImageURL,
			"card":     cardJSON(post.Card),
		}); err != nil {
		return models.Post{}, err
	}
	row, err := queryOne[postRow](ctx, p.pool, pgPostSelect+" WHERE p.id::text = @id",
		pgx.NamedArgs{"id": post.ID, "viewerID": post.UserID})
	if err != nil {
		return models.Post{}, err
	}
	return row.post(), nil
}

// ListFeed returns the newest posts first; before pages backwards.
func (p *Postgres) ListFeed(ctx context.Context, viewerID, limit int, before *time.Time) ([]models.Post, error) {
	query := pgPostSelect
	args := pgx.NamedArgs{"viewerID": viewerID, "limit": limit}
	if before != nil {
		query += " WHERE p.created_at < @before"
		args["before"] = before.UTC()
	}
	query += " ORDER BY p.created_at DESC LIMIT @limit"

	rows, err := queryMany[postRow](ctx, p.pool, query, args)
	if err != nil {
		return nil, err
	}
	posts := make([]models.Post, len(rows))
	for i, r := range rows {
		posts[i] = r.post()
	}
	return posts, nil
}

func (p *Postgres) DeletePost(ctx context.Context, userID int, id string) error {
	tag, err := p.pool.Exec(ctx,
		"DELETE FROM posts WHERE id::text = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike likes the post if the user has not, otherwise unlikes it.
func (p *Postgres) ToggleLike(ctx context.Context, userID int, postID string) (bool, int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM posts WHERE id::text = $1)", postID).Scan(&exists); err != nil {
		return false, 0, err
	}
	if !exists {
		return false, 0, ErrNotFound
	}

	args := pgx.NamedArgs{"postID": postID, "userID": userID}
	tag, err := tx.Exec(ctx, "DELETE FROM post_likes WHERE post_id::text = @postID AND user_id = @userID", args)
	if err != nil {
		return false, 0, err
	}
	liked := tag.RowsAffected() == 0
	if liked {
		if _, err := tx.Exec(ctx, "INSERT INTO post_likes (post_id, user_id) VALUES (@postID::uuid, @userID)", args); err != nil {
			return false, 0, err
		}
	}

	var count int
	if err := tx.QueryRow(ctx, "SELECT count(*) FROM post_likes WHERE post_id::text = $1", postID).Scan(&count); err != nil {
		return false, 0, err
	}
	return liked, count, tx.Commit(ctx)
}

/* ─── Weight log ─────────────────────────────────────────────────────── */

// UpsertWeight relies on UNIQUE(user_id, date): posting the same date updates in place.
func (p *Postgres) UpsertWeight(ctx context.Context, userID int, date models.DateOnly, kg float64) (models.WeightEntry, error) {
	return queryOne[models.WeightEntry](ctx, p.pool,
		`INSERT INTO weight_log (user_id, date, weight_kg)
		 VALUES (@userID, @date::date, @weightKg)
		 ON CONFLICT (user_id, date) DO UPDATE SET weight_kg = EXCLUDED.weight_kg
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "date": date.String(), "weightKg": kg})
}

// UpdateWeight uses COALESCE so omitted fields keep their current values.
func (p *Postgres) UpdateWeight(ctx context.Context, userID, id int, date *models.DateOnly, kg *float64) (models.WeightEntry, error) {
	var dateArg *string
	if date != nil {
		s := date.String()
		dateArg = &s
	}
	return queryOne[models.WeightEntry](ctx, p.pool,
		`UPDATE weight_log SET
			date      = COALESCE(@date::date, date),
			weight_kg = COALESCE(@weightKg, weight_kg)
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{"id": id, "userID": userID, "date": dateArg, "weightKg": kg})
}

func (p *Postgres) ListWeights(ctx context.Context, userID int, start, end models.DateOnly) ([]models.WeightEntry, error) {
	return queryMany[models.WeightEntry](ctx, p.pool,
		`SELECT * FROM weight_log
		 WHERE user_id = @userID AND date >= @start::date AND date <= @end::date
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": start.String(), "end": end.String()})
}

func (p *Postgres) LatestWeight(ctx context.Context, userID int) (*models.WeightEntry, error) {
	e, err := queryOne[models.WeightEntry](ctx, p.pool,
		"SELECT * FROM weight_log WHERE user_id = @userID ORDER BY date DESC LIMIT 1",
		pgx.NamedArgs{"userID": userID})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (p *Postgres) DeleteWeight(ctx context.Context, userID, id int) error {
	tag, err := p.pool.Exec(ctx,
		"DELETE FROM weight_log WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
