package main

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

// withTargets attaches the computed targets to a profile for the response.
func withTargets(p models.Profile) models.Profile {
	t := nutrition.ComputeTargets(p.Biometrics())
	p.Targets = &t
	return p
}

// getProfile returns the authenticated user's profile with computed targets.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := h.store.GetProfile(c.Request.Context(), userID)
	if err != nil {
		storeError(c, err, "profile not found", "failed to fetch profile")
		return
	}
	c.JSON(http.StatusOK, withTargets(p))
}

// patchProfile updates only the provided profile fields.
// PATCH /api/profile. Uses pointer fields in the request body to distinguish
// "not provided" from zero: only non-nil fields get updated.
func (h *Handler) patchProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body models.ProfilePatch
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := body.Validate(); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(body.Assignments()) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	p, err := h.store.UpdateProfile(c.Request.Context(), userID, body)
	if err != nil {
		log.Printf("[patchProfile] user %d: %v", userID, err)
		storeError(c, err, "profile not found", "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, withTargets(p))
}

// getTargets computes calorie and macro targets.
// GET /api/targets. Starts from the stored profile; any of weight_kg,
// height_cm, age, gender, activity_level, goal, biotype in the query override
// it for a what-if calculation without saving.
func (h *Handler) getTargets(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := h.store.GetProfile(c.Request.Context(), userID)
	if err != nil {
		storeError(c, err, "profile not found", "failed to fetch profile")
		return
	}

	b := p.Biometrics()
	if v := c.Query("weight_kg"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid weight_kg")
			return
		}
		b.WeightKg = f
	}
	if v := c.Query("height_cm"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid height_cm")
			return
		}
		b.HeightCm = f
	}
	if v := c.Query("age"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid age")
			return
		}
		b.Age = n
	}
	if v := c.Query("gender"); v != "" {
		b.Gender = nutrition.Gender(v)
	}
	if v := c.Query("activity_level"); v != "" {
		b.ActivityLevel = nutrition.ActivityLevel(v)
	}
	if v := c.Query("goal"); v != "" {
		b.Goal = nutrition.Goal(v)
	}
	if v := c.Query("biotype"); v != "" {
		b.Biotype = nutrition.Biotype(v)
	}
	b = b.WithDefaults()

	c.JSON(http.StatusOK, gin.H{
		"biometrics": b,
		"targets":    nutrition.ComputeTargets(b),
		"bmr":        int(nutrition.BMR(b) + 0.5),
		"tdee":       int(nutrition.TDEE(b) + 0.5),
	})
}
