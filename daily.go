package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
	"nura/go-api/internal/store"
)

/* ─── Derived-metrics pipeline ───────────────────────────────────────── */

// dayStats aggregates the meals on day's calendar day (in day's location)
// against the profile's targets.
func (h *Handler) dayStats(ctx context.Context, p models.Profile, day time.Time) (nutrition.DailyStats, []models.Meal, error) {
	start, end := nutrition.DayBounds(day)
	meals, err := h.store.ListMeals(ctx, p.UserID, start, end)
	if err != nil {
		return nutrition.DailyStats{}, nil, err
	}
	consumed := nutrition.SumDay(meals, day)
	return nutrition.BuildDailyStats(consumed, nutrition.ComputeTargets(p.Biometrics())), meals, nil
}

// refreshDay recomputes a day after a meal write: aggregate, score, cache
// the flow stat, then sync progression. Stats are returned even when the
// cache or sync fails; those failures are only logged.
func (h *Handler) refreshDay(ctx context.Context, userID int, day time.Time) (nutrition.DailyStats, nutrition.Progress, error) {
	p, err := h.store.GetProfile(ctx, userID)
	if err != nil {
		return nutrition.DailyStats{}, nutrition.Progress{}, err
	}
	stats, _, err := h.dayStats(ctx, p, day)
	if err != nil {
		return nutrition.DailyStats{}, p.StoredProgress(), err
	}
	stat := models.FlowStat{UserID: userID, Date: models.NewDateOnly(day), FlowScore: stats.FlowScore}
	if err := h.store.UpsertFlowStat(ctx, stat); err != nil {
		log.Printf("[refreshDay] cache flow stat for user %d on %s: %v", userID, stat.Date, err)
		return stats, p.StoredProgress(), nil
	}
	return stats, h.syncProgress(ctx, p, day.Location()), nil
}

// syncProgress recounts streaks and flow days from the full history and
// persists them. Best-effort: on failure the previously stored values are
// returned and the next meal log or journal save retries.
func (h *Handler) syncProgress(ctx context.Context, p models.Profile, loc *time.Location) nutrition.Progress {
	history, err := h.store.FlowHistory(ctx, p.UserID)
	if err != nil {
		log.Printf("[syncProgress] load history for user %d: %v", p.UserID, err)
		return p.StoredProgress()
	}
	days := make([]nutrition.DayScore, len(history))
	for i, s := range history {
		days[i] = s.DayScore()
	}
	progress := nutrition.Progression(days, h.clock().In(loc), p.LongestStreak)
	if err := h.store.SaveProgress(ctx, p.UserID, progress); err != nil {
		log.Printf("[syncProgress] save progress for user %d: %v", p.UserID, err)
		return p.StoredProgress()
	}
	return progress
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// getDaily returns the day's stats, meals, hydration/journal log and
// progression in one call.
// GET /api/daily?date=YYYY-MM-DD&tz=Area/City (both optional; defaults to today).
func (h *Handler) getDaily(c *gin.Context) {
	userID := c.GetInt("user_id")
	ctx := c.Request.Context()
	day, ok := h.requestDay(c)
	if !ok {
		return
	}

	p, err := h.store.GetProfile(ctx, userID)
	if err != nil {
		storeError(c, err, "profile not found", "failed to fetch profile")
		return
	}
	stats, meals, err := h.dayStats(ctx, p, day)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch meals")
		return
	}

	date := models.NewDateOnly(day)
	// A missing or unreadable log reads as an empty one.
	dailyLog, err := h.store.GetDailyLog(ctx, userID, date)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[getDaily] daily log for user %d on %s: %v", userID, date, err)
		}
		dailyLog = models.DailyLog{UserID: userID, Date: date}
	}

	c.JSON(http.StatusOK, models.DailyView{
		Date:     date,
		Stats:    stats,
		Meals:    meals,
		Log:      dailyLog,
		Progress: p.StoredProgress(),
	})
}

// putDailyLog upserts hydration, mood and journal for a day.
// PUT /api/daily-log?tz=Area/City. Body: { "date"?, "water_ml"?, "add_water_ml"?,
// "mood"?, "journal"? }. Saving a journal entry also re-syncs progression.
func (h *Handler) putDailyLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	ctx := c.Request.Context()

	var body models.DailyLogPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := body.Validate(); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	loc, err := h.location(c)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid tz, expected an IANA zone name")
		return
	}

	var date models.DateOnly
	if body.Date != nil {
		date = *body.Date
	} else {
		today, _ := h.dayIn("", loc)
		date = models.NewDateOnly(today)
	}

	current, err := h.store.GetDailyLog(ctx, userID, date)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			apiError(c, http.StatusInternalServerError, "failed to fetch daily log")
			return
		}
		current = models.DailyLog{UserID: userID, Date: date}
	}

	saved, err := h.store.UpsertDailyLog(ctx, body.Apply(current))
	if err != nil {
		log.Printf("[putDailyLog] user %d on %s: %v", userID, date, err)
		apiError(c, http.StatusInternalServerError, "failed to save daily log")
		return
	}

	resp := gin.H{"log": saved}
	if body.Journal != nil {
		if p, err := h.store.GetProfile(ctx, userID); err == nil {
			resp["progress"] = h.syncProgress(ctx, p, loc)
		} else {
			log.Printf("[putDailyLog] profile for user %d: %v", userID, err)
		}
	}
	c.JSON(http.StatusOK, resp)
}
