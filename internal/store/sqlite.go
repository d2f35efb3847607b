package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

// timeLayout is how the SQLite backend stores timestamps.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// SQLite implements Repository on a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates a database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; keeps pragmas applied to every statement's connection.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.configurePragmas(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure pragmas: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

/* ─── Scan helpers ───────────────────────────────────────────────────── */

type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func nowText() string { return formatTime(time.Now()) }

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func noRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

/* ─── Accounts ───────────────────────────────────────────────────────── */

func scanUser(r rowScanner) (models.User, error) {
	var u models.User
	var created sql.NullString
	if err := r.Scan(&u.ID, &u.Username, &u.Email, &u.AuthToken, &u.Password, &created); err != nil {
		return models.User{}, noRows(err)
	}
	t, err := parseNullTime(created)
	if err != nil {
		return models.User{}, err
	}
	u.CreatedAt = t
	return u, nil
}

const sqliteUserColumns = "id, username, email, auth_token, password, created_at"

func (s *SQLite) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+sqliteUserColumns+" FROM users WHERE username = ?", username))
}

func (s *SQLite) UserIDByToken(ctx context.Context, token string) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, "SELECT id FROM users WHERE auth_token = ?", token).Scan(&id)
	return id, noRows(err)
}

func (s *SQLite) CreateUser(ctx context.Context, u models.User, displayName string) (models.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	created, err := scanUser(tx.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password, auth_token, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING `+sqliteUserColumns,
		u.Username, u.Email, u.Password, u.AuthToken, nowText()))
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO profiles (user_id, display_name, updated_at) VALUES (?, ?, ?)",
		created.ID, displayName, nowText()); err != nil {
		return models.User{}, fmt.Errorf("insert profile: %w", err)
	}
	return created, tx.Commit()
}

/* ─── Profile ────────────────────────────────────────────────────────── */

const sqliteProfileColumns = `user_id, display_name, weight_kg, height_cm, age, gender, activity_level,
	goal, biotype, water_target_ml, setup_complete, current_streak, longest_streak,
	total_flow_days, level, updated_at`

func scanProfile(r rowScanner) (models.Profile, error) {
	var p models.Profile
	var weight, height sql.NullFloat64
	var age sql.NullInt64
	var updated sql.NullString
	err := r.Scan(&p.UserID, &p.DisplayName, &weight, &height, &age, &p.Gender, &p.ActivityLevel,
		&p.Goal, &p.Biotype, &p.WaterTargetMl, &p.SetupComplete, &p.CurrentStreak, &p.LongestStreak,
		&p.TotalFlowDays, &p.Level, &updated)
	if err != nil {
		return models.Profile{}, noRows(err)
	}
	if weight.Valid {
		p.WeightKg = &weight.Float64
	}
	if height.Valid {
		p.HeightCm = &height.Float64
	}
	if age.Valid {
		a := int(age.Int64)
		p.Age = &a
	}
	if p.UpdatedAt, err = parseNullTime(updated); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

func (s *SQLite) GetProfile(ctx context.Context, userID int) (models.Profile, error) {
	return scanProfile(s.db.QueryRowContext(ctx,
		"SELECT "+sqliteProfileColumns+" FROM profiles WHERE user_id = ?", userID))
}

func (s *SQLite) UpdateProfile(ctx context.Context, userID int, patch models.ProfilePatch) (models.Profile, error) {
	assignments := patch.Assignments()
	if len(assignments) == 0 {
		return s.GetProfile(ctx, userID)
	}
	setClauses := make([]string, 0, len(assignments)+1)
	args := make([]any, 0, len(assignments)+2)
	for _, a := range assignments {
		setClauses = append(setClauses, a.Column+" = ?")
		args = append(args, a.Value)
	}
	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, nowText(), userID)

	query := "UPDATE profiles SET " + strings.Join(setClauses, ", ") +
		" WHERE user_id = ? RETURNING " + sqliteProfileColumns
	return scanProfile(s.db.QueryRowContext(ctx, query, args...))
}

func (s *SQLite) SaveProgress(ctx context.Context, userID int, p nutrition.Progress) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET current_streak = ?, longest_streak = ?, total_flow_days = ?, level = ?, updated_at = ?
		 WHERE user_id = ?`,
		p.CurrentStreak, p.LongestStreak, p.TotalFlowDays, string(p.Level), nowText(), userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

/* ─── Meals ──────────────────────────────────────────────────────────── */

const sqliteMealColumns = `id, user_id, client_id, name, logged_at, calories, protein, carbs, fats,
	source, items, image_url, created_at`

func scanMeal(r rowScanner) (models.Meal, error) {
	var row mealRow
	var clientID, imageURL sql.NullString
	var loggedAt string
	var items string
	var created sql.NullString
	err := r.Scan(&row.ID, &row.UserID, &clientID, &row.Name, &loggedAt, &row.Calories,
		&row.Protein, &row.Carbs, &row.Fats, &row.Source, &items, &imageURL, &created)
	if err != nil {
		return models.Meal{}, noRows(err)
	}
	if clientID.Valid {
		row.ClientID = &clientID.String
	}
	if imageURL.Valid {
		row.ImageURL = &imageURL.String
	}
	row.Items = []byte(items)
	if row.LoggedAt, err = parseTime(loggedAt); err != nil {
		return models.Meal{}, err
	}
	if row.CreatedAt, err = parseNullTime(created); err != nil {
		return models.Meal{}, err
	}
	return row.meal(), nil
}

func (s *SQLite) CreateMeal(ctx context.Context, m models.Meal) (models.Meal, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO meals (id, user_id, client_id, name, logged_at, calories, protein, carbs, fats, source, items, image_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, client_id) DO NOTHING`,
		m.ID, m.UserID, m.ClientID, m.Name, formatTime(m.Timestamp), m.Calories,
		m.Macros.Protein, m.Macros.Carbs, m.Macros.Fats, string(m.Source), itemsJSON(m.Items), m.ImageURL, nowText())
	if err != nil {
		return models.Meal{}, false, err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		created, err := s.GetMeal(ctx, m.UserID, m.ID)
		return created, true, err
	}
	if m.ClientID == nil {
		return models.Meal{}, false, fmt.Errorf("insert meal %s: no row written", m.ID)
	}
	existing, err := scanMeal(s.db.QueryRowContext(ctx,
		"SELECT "+sqliteMealColumns+" FROM meals WHERE user_id = ? AND client_id = ?", m.UserID, *m.ClientID))
	return existing, false, err
}

func (s *SQLite) GetMeal(ctx context.Context, userID int, id string) (models.Meal, error) {
	return scanMeal(s.db.QueryRowContext(ctx,
		"SELECT "+sqliteMealColumns+" FROM meals WHERE id = ? AND user_id = ?", id, userID))
}

func (s *SQLite) ListMeals(ctx context.Context, userID int, from, to time.Time) ([]models.Meal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sqliteMealColumns+` FROM meals
		 WHERE user_id = ? AND logged_at >= ? AND logged_at < ?
		 ORDER BY logged_at ASC, created_at ASC`,
		userID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := []models.Meal{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

func (s *SQLite) DeleteMeal(ctx context.Context, userID int, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM meals WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

/* ─── Flow stats and daily logs ──────────────────────────────────────── */

func (s *SQLite) UpsertFlowStat(ctx context.Context, f models.FlowStat) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO flow_stats (user_id, date, flow_score) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, date) DO UPDATE SET flow_score = excluded.flow_score`,
		f.UserID, f.Date.String(), f.FlowScore)
	return err
}

func (s *SQLite) queryFlowStats(ctx context.Context, query string, args ...any) ([]models.FlowStat, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []models.FlowStat{}
	for rows.Next() {
		var f models.FlowStat
		if err := rows.Scan(&f.UserID, &f.Date, &f.FlowScore); err != nil {
			return nil, err
		}
		stats = append(stats, f)
	}
	return stats, rows.Err()
}

func (s *SQLite) ListFlowStats(ctx context.Context, userID int, start, end models.DateOnly) ([]models.FlowStat, error) {
	return s.queryFlowStats(ctx,
		"SELECT user_id, date, flow_score FROM flow_stats WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date ASC",
		userID, start.String(), end.String())
}

func (s *SQLite) FlowHistory(ctx context.Context, userID int) ([]models.FlowStat, error) {
	return s.queryFlowStats(ctx,
		"SELECT user_id, date, flow_score FROM flow_stats WHERE user_id = ? ORDER BY date ASC", userID)
}

func scanDailyLog(r rowScanner) (models.DailyLog, error) {
	var l models.DailyLog
	var mood sql.NullInt64
	var journal, updated sql.NullString
	if err := r.Scan(&l.UserID, &l.Date, &l.WaterMl, &mood, &journal, &updated); err != nil {
		return models.DailyLog{}, noRows(err)
	}
	if mood.Valid {
		m := int(mood.Int64)
		l.Mood = &m
	}
	if journal.Valid {
		l.Journal = &journal.String
	}
	var err error
	if l.UpdatedAt, err = parseNullTime(updated); err != nil {
		return models.DailyLog{}, err
	}
	return l, nil
}

func (s *SQLite) GetDailyLog(ctx context.Context, userID int, date models.DateOnly) (models.DailyLog, error) {
	return scanDailyLog(s.db.QueryRowContext(ctx,
		"SELECT user_id, date, water_ml, mood, journal, updated_at FROM daily_logs WHERE user_id = ? AND date = ?",
		userID, date.String()))
}

func (s *SQLite) UpsertDailyLog(ctx context.Context, l models.DailyLog) (models.DailyLog, error) {
	return scanDailyLog(s.db.QueryRowContext(ctx,
		`INSERT INTO daily_logs (user_id, date, water_ml, mood, journal, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, date) DO UPDATE SET
			water_ml   = excluded.water_ml,
			mood       = excluded.mood,
			journal    = excluded.journal,
			updated_at = excluded.updated_at
		 RETURNING user_id, date, water_ml, mood, journal, updated_at`,
		l.UserID, l.Date.String(), l.WaterMl, l.Mood, l.Journal, nowText()))
}

/* ─── Plans ──────────────────────────────────────────────────────────── */

const sqlitePlanColumns = `id, user_id, calories, protein, carbs, fats, optimization_tag, phases,
	start_date, end_date, status, created_at`

func scanPlan(r rowScanner) (models.Plan, error) {
	var row planRow
	var phases string
	var created sql.NullString
	err := r.Scan(&row.ID, &row.UserID, &row.Calories, &row.Protein, &row.Carbs, &row.Fats,
		&row.OptimizationTag, &phases, &row.StartDate, &row.EndDate, &row.Status, &created)
	if err != nil {
		return models.Plan{}, noRows(err)
	}
	row.Phases = []byte(phases)
	if row.CreatedAt, err = parseNullTime(created); err != nil {
		return models.Plan{}, err
	}
	return row.plan(), nil
}

func (s *SQLite) ActivatePlan(ctx context.Context, p models.Plan) (models.Plan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Plan{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE quarterly_plans SET status = 'archived' WHERE user_id = ? AND status = 'active'", p.UserID); err != nil {
		return models.Plan{}, fmt.Errorf("archive active plans: %w", err)
	}
	created, err := scanPlan(tx.QueryRowContext(ctx,
		`INSERT INTO quarterly_plans (id, user_id, calories, protein, carbs, fats, optimization_tag, phases, start_date, end_date, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'active', ?)
		 RETURNING `+sqlitePlanColumns,
		p.ID, p.UserID, p.Calories, p.Macros.Protein, p.Macros.Carbs, p.Macros.Fats, p.OptimizationTag,
		phasesJSON(p.Phases), p.StartDate.String(), p.EndDate.String(), nowText()))
	if err != nil {
		return models.Plan{}, fmt.Errorf("insert plan: %w", err)
	}
	return created, tx.Commit()
}

func (s *SQLite) ActivePlan(ctx context.Context, userID int) (*models.Plan, error) {
	p, err := scanPlan(s.db.QueryRowContext(ctx,
		"SELECT "+sqlitePlanColumns+" FROM quarterly_plans WHERE user_id = ? AND status = 'active'", userID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLite) ListPlans(ctx context.Context, userID int) ([]models.Plan, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sqlitePlanColumns+" FROM quarterly_plans WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

/* ─── Social feed ────────────────────────────────────────────────────── */

const sqlitePostSelect = `SELECT p.id, p.user_id, u.username, p.caption, p.image_url, p.card,
	(SELECT count(*) FROM post_likes l WHERE l.post_id = p.id),
	EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = ?),
	p.created_at
	FROM posts p JOIN users u ON u.id = p.user_id`

func scanPost(r rowScanner) (models.Post, error) {
	var row postRow
	var imageURL, card sql.NullString
	var created string
	err := r.Scan(&row.ID, &row.UserID, &row.Username, &row.Caption, &imageURL, &card,
		&row.LikeCount, &row.LikedByMe, &created)
	if err != nil {
		return models.Post{}, noRows(err)
	}
	if imageURL.Valid {
		row.ImageURL = &imageURL.String
	}
	if card.Valid {
		row.Card = []byte(card.String)
	}
	if row.CreatedAt, err = parseTime(created); err != nil {
		return models.Post{}, err
	}
	return row.post(), nil
}

func (s *SQLite) CreatePost(ctx context.Context, p models.Post) (models.Post, error) {
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO posts (id, user_id, caption, image_url, card, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.UserID, p.Caption, p.ImageURL, cardJSON(p.Card), formatTime(created)); err != nil {
		return models.Post{}, err
	}
	return scanPost(s.db.QueryRowContext(ctx, sqlitePostSelect+" WHERE p.id = ?", p.UserID, p.ID))
}

func (s *SQLite) ListFeed(ctx context.Context, viewerID, limit int, before *time.Time) ([]models.Post, error) {
	query := sqlitePostSelect
	args := []any{viewerID}
	if before != nil {
		query += " WHERE p.created_at < ?"
		args = append(args, formatTime(*before))
	}
	query += " ORDER BY p.created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *SQLite) DeletePost(ctx context.Context, userID int, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (s *SQLite) ToggleLike(ctx context.Context, userID int, postID string) (bool, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM posts WHERE id = ?)", postID).Scan(&exists); err != nil {
		return false, 0, err
	}
	if !exists {
		return false, 0, ErrNotFound
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM post_likes WHERE post_id = ? AND user_id = ?", postID, userID)
	if err != nil {
		return false, 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, 0, err
	}
	liked := n == 0
	if liked {
		if _, err := tx.ExecContext(ctx, "INSERT INTO post_likes (post_id, user_id) VALUES (?, ?)", postID, userID); err != nil {
			return false, 0, err
		}
	}

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT count(*) FROM post_likes WHERE post_id = ?", postID).Scan(&count); err != nil {
		return false, 0, err
	}
	return liked, count, tx.Commit()
}

/* ─── Weight log ─────────────────────────────────────────────────────── */

const sqliteWeightColumns = "id, user_id, date, weight_kg, created_at"

func scanWeight(r rowScanner) (models.WeightEntry, error) {
	var e models.WeightEntry
	var created sql.NullString
	if err := r.Scan(&e.ID, &e.UserID, &e.Date, &e.WeightKg, &created); err != nil {
		return models.WeightEntry{}, noRows(err)
	}
	var err error
	if e.CreatedAt, err = parseNullTime(created); err != nil {
		return models.WeightEntry{}, err
	}
	return e, nil
}

func (s *SQLite) UpsertWeight(ctx context.Context, userID int, date models.DateOnly, kg float64) (models.WeightEntry, error) {
	return scanWeight(s.db.QueryRowContext(ctx,
		`INSERT INTO weight_log (user_id, date, weight_kg, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, date) DO UPDATE SET weight_kg = excluded.weight_kg
		 RETURNING `+sqliteWeightColumns,
		userID, date.String(), kg, nowText()))
}

func (s *SQLite) UpdateWeight(ctx context.Context, userID, id int, date *models.DateOnly, kg *float64) (models.WeightEntry, error) {
	var dateArg *string
	if date != nil {
		d := date.String()
		dateArg = &d
	}
	return scanWeight(s.db.QueryRowContext(ctx,
		`UPDATE weight_log SET
			date      = COALESCE(?, date),
			weight_kg = COALESCE(?, weight_kg)
		 WHERE id = ? AND user_id = ?
		 RETURNING `+sqliteWeightColumns,
		dateArg, kg, id, userID))
}

func (s *SQLite) ListWeights(ctx context.Context, userID int, start, end models.DateOnly) ([]models.WeightEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sqliteWeightColumns+" FROM weight_log WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date ASC",
		userID, start.String(), end.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.WeightEntry{}
	for rows.Next() {
		e, err := scanWeight(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLite) LatestWeight(ctx context.Context, userID int) (*models.WeightEntry, error) {
	e, err := scanWeight(s.db.QueryRowContext(ctx,
		"SELECT "+sqliteWeightColumns+" FROM weight_log WHERE user_id = ? ORDER BY date DESC LIMIT 1", userID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLite) DeleteWeight(ctx context.Context, userID, id int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM weight_log WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}
