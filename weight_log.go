package main

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nura/go-api/internal/models"
)

// maxWeightKg bounds weight entries.
const maxWeightKg = 999.9

func validWeight(kg float64) bool { return kg > 0 && kg <= maxWeightKg }

// syncProfileWeight copies the most recent weight entry onto the profile so
// targets follow the log. Best-effort.
func (h *Handler) syncProfileWeight(ctx context.Context, userID int) {
	latest, err := h.store.LatestWeight(ctx, userID)
	if err != nil {
		log.Printf("[syncProfileWeight] user %d: %v", userID, err)
		return
	}
	if latest == nil {
		return
	}
	if _, err := h.store.UpdateProfile(ctx, userID, models.ProfilePatch{WeightKg: &latest.WeightKg}); err != nil {
		log.Printf("[syncProfileWeight] update profile for user %d: %v", userID, err)
	}
}

// getWeightLog returns weight entries for the authenticated user within [start, end].
// GET /api/weight-log?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
// Returns an empty array (not null) if no entries exist in the range.
func (h *Handler) getWeightLog(c *gin.Context) {
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

	entries, err := h.store.ListWeights(c.Request.Context(), userID, start, end)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch weight log")
		return
	}
	// Ensure empty array (not null) in JSON
	if entries == nil {
		entries = []models.WeightEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// upsertWeightEntry creates or updates the weight entry for the given date.
// POST /api/weight-log. Body: { "date": "YYYY-MM-DD", "weight_kg": 72.4 }.
// The UNIQUE(user_id, date) constraint means posting the same date updates in place.
func (h *Handler) upsertWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	ctx := c.Request.Context()

	var body struct {
		Date     *models.DateOnly `json:"date"`
		WeightKg float64          `json:"weight_kg"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date == nil {
		apiError(c, http.StatusBadRequest, "date is required")
		return
	}
	if !validWeight(body.WeightKg) {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 999.9")
		return
	}

	entry, err := h.store.UpsertWeight(ctx, userID, *body.Date, body.WeightKg)
	if err != nil {
		log.Printf("[upsertWeightEntry] user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to upsert weight entry")
		return
	}
	h.syncProfileWeight(ctx, userID)

	c.JSON(http.StatusCreated, entry)
}

// updateWeightEntry partially updates an existing weight entry.
// PUT /api/weight-log/:id. Body: { "date"?, "weight_kg"? }.
// Omitted fields keep their current values.
func (h *Handler) updateWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	ctx := c.Request.Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid id")
		return
	}

	var body struct {
		Date     *models.DateOnly `json:"date"`
		WeightKg *float64         `json:"weight_kg"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.WeightKg != nil && !validWeight(*body.WeightKg) {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 999.9")
		return
	}

	entry, err := h.store.UpdateWeight(ctx, userID, id, body.Date, body.WeightKg)
	if err != nil {
		// Distinguish a missing row from a real DB failure so callers get an
		// actionable status code rather than a misleading 404.
		storeError(c, err, "weight entry not found", "failed to update weight entry")
		return
	}
	h.syncProfileWeight(ctx, userID)

	c.JSON(http.StatusOK, entry)
}

// deleteWeightEntry removes a weight log entry by ID.
// DELETE /api/weight-log/:id. Returns 204 on success, 404 if not found.
// Ownership is enforced by requiring both id and user_id to match.
func (h *Handler) deleteWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	ctx := c.Request.Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.store.DeleteWeight(ctx, userID, id); err != nil {
		storeError(c, err, "weight entry not found", "failed to delete weight entry")
		return
	}
	h.syncProfileWeight(ctx, userID)

	c.Status(http.StatusNoContent)
}
