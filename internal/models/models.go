// Package models holds the JSON/DB shapes shared by the API server, the store
// and the API client.
package models

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"nura/go-api/internal/nutrition"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

// NewDateOnly truncates t to its calendar day.
func NewDateOnly(t time.Time) DateOnly {
	y, m, d := t.Date()
	return DateOnly{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (DateOnly, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return DateOnly{}, err
	}
	return DateOnly{t}, nil
}

func (d DateOnly) String() string { return d.Time.Format(DateLayout) }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(DateLayout) + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

// Scan implements sql.Scanner for SQLite, which stores dates as TEXT.
func (d *DateOnly) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case string:
		return d.parseText(v)
	case []byte:
		return d.parseText(string(v))
	case time.Time:
		*d = NewDateOnly(v)
		return nil
	}
	return fmt.Errorf("cannot scan %T into DateOnly", src)
}

func (d *DateOnly) parseText(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

/* ─── Accounts ───────────────────────────────────────────────────────── */

// User maps to the users table. AuthToken and Password are hidden from JSON responses.
type User struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	AuthToken string     `json:"-" db:"auth_token"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// Profile maps to the profiles table: one row per user with biometrics and
// the cached gamification counters. Numeric biometrics are nullable so a
// fresh profile still produces targets through the calculator defaults.
type Profile struct {
	UserID        int      `json:"user_id"         db:"user_id"`
	DisplayName   string   `json:"display_name"    db:"display_name"`
	WeightKg      *float64 `json:"weight_kg"       db:"weight_kg"`
	HeightCm      *float64 `json:"height_cm"       db:"height_cm"`
	Age           *int     `json:"age"             db:"age"`
	Gender        string   `json:"gender"          db:"gender"`
	ActivityLevel string   `json:"activity_level"  db:"activity_level"`
	Goal          string   `json:"goal"            db:"goal"`
	Biotype       string   `json:"biotype"         db:"biotype"`
	WaterTargetMl int      `json:"water_target_ml" db:"water_target_ml"`
	SetupComplete bool     `json:"setup_complete"  db:"setup_complete"`

	// Cached progression; the flow_stats history is the source of truth.
	CurrentStreak int    `json:"current_streak"  db:"current_streak"`
	LongestStreak int    `json:"longest_streak"  db:"longest_streak"`
	TotalFlowDays int    `json:"total_flow_days" db:"total_flow_days"`
	Level         string `json:"level"           db:"level"`

	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`

	// Computed server-side; not stored.
	Targets *nutrition.Targets `json:"targets,omitempty" db:"-"`
}

// Biometrics converts the profile into calculator input, applying the
// standard defaults for anything missing.
func (p Profile) Biometrics() nutrition.Biometrics {
	b := nutrition.Biometrics{
		Gender:        nutrition.Gender(p.Gender),
		ActivityLevel: nutrition.ActivityLevel(p.ActivityLevel),
		Goal:          nutrition.Goal(p.Goal),
		Biotype:       nutrition.Biotype(p.Biotype),
	}
	if p.WeightKg != nil {
		b.WeightKg = *p.WeightKg
	}
	if p.HeightCm != nil {
		b.HeightCm = *p.HeightCm
	}
	if p.Age != nil {
		b.Age = *p.Age
	}
	return b.WithDefaults()
}

// StoredProgress returns the cached gamification counters as a Progress.
func (p Profile) StoredProgress() nutrition.Progress {
	level := nutrition.Level(p.Level)
	if level == "" {
		level = nutrition.LevelFor(p.TotalFlowDays)
	}
	out := nutrition.Progress{
		CurrentStreak: p.CurrentStreak,
		LongestStreak: p.LongestStreak,
		TotalFlowDays: p.TotalFlowDays,
		Level:         level,
	}
	if next, remaining, ok := nutrition.NextLevel(p.TotalFlowDays); ok {
		out.NextLevel = next
		out.DaysToNextLevel = remaining
	}
	return out
}

// ProfilePatch is the body of PATCH /api/profile. All fields are pointers;
// only non-nil fields get written.
type ProfilePatch struct {
	DisplayName   *string  `json:"display_name"`
	WeightKg      *float64 `json:"weight_kg"`
	HeightCm      *float64 `json:"height_cm"`
	Age           *int     `json:"age"`
	Gender        *string  `json:"gender"`
	ActivityLevel *string  `json:"activity_level"`
	Goal          *string  `json:"goal"`
	Biotype       *string  `json:"biotype"`
	WaterTargetMl *int     `json:"water_target_ml"`
	SetupComplete *bool    `json:"setup_complete"`
}

// Assignment is one column = value pair of a partial update.
type Assignment struct {
	Column string
	Value  any
}

// Assignments lists the provided fields in a stable order.
func (p ProfilePatch) Assignments() []Assignment {
	var out []Assignment
	add := func(col string, set bool, v any) {
		if set {
			out = append(out, Assignment{col, v})
		}
	}
	add("display_name", p.DisplayName != nil, deref(p.DisplayName))
	add("weight_kg", p.WeightKg != nil, deref(p.WeightKg))
	add("height_cm", p.HeightCm != nil, deref(p.HeightCm))
	add("age", p.Age != nil, deref(p.Age))
	add("gender", p.Gender != nil, deref(p.Gender))
	add("activity_level", p.ActivityLevel != nil, deref(p.ActivityLevel))
	add("goal", p.Goal != nil, deref(p.Goal))
	add("biotype", p.Biotype != nil, deref(p.Biotype))
	add("water_target_ml", p.WaterTargetMl != nil, deref(p.WaterTargetMl))
	add("setup_complete", p.SetupComplete != nil, deref(p.SetupComplete))
	return out
}

// Validate rejects out-of-range numbers and unknown enum values. An unknown
// activity level would otherwise silently fall back to sedentary forever.
func (p ProfilePatch) Validate() error {
	if p.WeightKg != nil && (*p.WeightKg <= 0 || *p.WeightKg > 700) {
		return fmt.Errorf("weight_kg must be between 0 and 700")
	}
	if p.HeightCm != nil && (*p.HeightCm <= 0 || *p.HeightCm > 300) {
		return fmt.Errorf("height_cm must be between 0 and 300")
	}
	if p.Age != nil && (*p.Age <= 0 || *p.Age > 130) {
		return fmt.Errorf("age must be between 1 and 130")
	}
	if p.Gender != nil && !nutrition.IsValidGender(*p.Gender) {
		return fmt.Errorf("gender must be one of: male, female")
	}
	if p.ActivityLevel != nil && !nutrition.IsValidActivityLevel(*p.ActivityLevel) {
		return fmt.Errorf("activity_level must be one of: sedentary, moderate, intense")
	}
	if p.Goal != nil && !nutrition.IsValidGoal(*p.Goal) {
		return fmt.Errorf("goal must be one of: aesthetic, health, performance")
	}
	if p.Biotype != nil && !nutrition.IsValidBiotype(*p.Biotype) {
		return fmt.Errorf("biotype must be one of: ecto, meso, endo")
	}
	if p.WaterTargetMl != nil && (*p.WaterTargetMl < 0 || *p.WaterTargetMl > 10000) {
		return fmt.Errorf("water_target_ml must be between 0 and 10000")
	}
	return nil
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

/* ─── Weight ─────────────────────────────────────────────────────────── */

// WeightEntry maps to weight_log: one row per user per date.
type WeightEntry struct {
	ID        int        `json:"id"         db:"id"`
	UserID    int        `json:"user_id"    db:"user_id"`
	Date      DateOnly   `json:"date"       db:"date"`
	WeightKg  float64    `json:"weight_kg"  db:"weight_kg"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}
