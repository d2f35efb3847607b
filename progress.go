package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

// maxHeatmapDays bounds a flow-stats range to about a year.
const maxHeatmapDays = 366

// getProgress recomputes streaks, flow days and level from the flow-stat
// history and persists them (best-effort).
// GET /api/progress?tz=Area/City.
func (h *Handler) getProgress(c *gin.Context) {
	userID := c.GetInt("user_id")
	ctx := c.Request.Context()

	loc, err := h.location(c)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid tz, expected an IANA zone name")
		return
	}
	p, err := h.store.GetProfile(ctx, userID)
	if err != nil {
		storeError(c, err, "profile not found", "failed to fetch profile")
		return
	}
	c.JSON(http.StatusOK, h.syncProgress(ctx, p, loc))
}

// getFlowStats returns one heatmap cell per day in [start, end], with gaps
// filled as has_data=false.
// GET /api/flow-stats?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
func (h *Handler) getFlowStats(c *gin.Context) {
	userID := c.GetInt("user_id")

	if c.Query("start") == "" || c.Query("end") == "" {
		apiError(c, http.StatusBadRequest, "start and end query params are required")
		return
	}
	start, err := models.ParseDate(c.Query("start"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	end, err := models.ParseDate(c.Query("end"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}
	if start.After(end.Time) {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}
	if end.Sub(start.Time).Hours()/24 >= maxHeatmapDays {
		apiError(c, http.StatusBadRequest, "range must not exceed 366 days")
		return
	}

	stats, err := h.store.ListFlowStats(c.Request.Context(), userID, start, end)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch flow stats")
		return
	}
	days := make([]nutrition.DayScore, len(stats))
	for i, s := range stats {
		days[i] = s.DayScore()
	}
	c.JSON(http.StatusOK, nutrition.Heatmap(days, start.Time, end.Time))
}
