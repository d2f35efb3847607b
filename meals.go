package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
	"nura/go-api/internal/store"
)

// createMeal logs a meal and returns it with the refreshed day stats.
// POST /api/meals?tz=Area/City. A repeated client_id returns the meal that was
// already stored (200) instead of inserting a duplicate (201).
func (h *Handler) createMeal(c *gin.Context) {
	userID := c.GetInt("user_id")
	ctx := c.Request.Context()

	var body models.MealInput
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

	meal, created, err := h.store.CreateMeal(ctx, body.Meal(userID, h.clock()))
	if err != nil {
		log.Printf("[createMeal] user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to create meal")
		return
	}

	stats, progress, err := h.refreshDay(ctx, userID, startOfDay(meal.Timestamp.In(loc)))
	if err != nil {
		log.Printf("[createMeal] refresh day for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to compute daily stats")
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, models.MealCreated{Meal: meal, Stats: stats, Progress: progress})
}

// listMeals returns meals for a calendar day, oldest first.
// GET /api/meals?date=YYYY-MM-DD&tz=Area/City (both optional).
func (h *Handler) listMeals(c *gin.Context) {
	userID := c.GetInt("user_id")
	day, ok := h.requestDay(c)
	if !ok {
		return
	}

	start, end := nutrition.DayBounds(day)
	meals, err := h.store.ListMeals(c.Request.Context(), userID, start, end)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch meals")
		return
	}
	// Ensure meals is an empty array (not null) in JSON
	if meals == nil {
		meals = []models.Meal{}
	}
	c.JSON(http.StatusOK, meals)
}

// deleteMeal removes a meal and re-scores the day it was logged on.
// DELETE /api/meals/:id?tz=Area/City. Returns 204 on success, 404 if not found.
func (h *Handler) deleteMeal(c *gin.Context) {
	userID := c.GetInt("user_id")
	ctx := c.Request.Context()
	id := c.Param("id")

	loc, err := h.location(c)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid tz, expected an IANA zone name")
		return
	}

	meal, err := h.store.GetMeal(ctx, userID, id)
	if err != nil {
		storeError(c, err, "meal not found", "failed to fetch meal")
		return
	}
	if err := h.store.DeleteMeal(ctx, userID, id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[deleteMeal] user %d meal %s: %v", userID, id, err)
		}
		storeError(c, err, "meal not found", "failed to delete meal")
		return
	}

	if _, _, err := h.refreshDay(ctx, userID, startOfDay(meal.Timestamp.In(loc))); err != nil {
		log.Printf("[deleteMeal] refresh day for user %d: %v", userID, err)
	}
	c.Status(http.StatusNoContent)
}

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
