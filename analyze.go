package main

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nura/go-api/internal/genai"
	"nura/go-api/internal/models"
)

// aiError maps a genai failure to a response. Unrecognized input is a normal
// outcome (200), a missing API key is 503, anything else is 500.
func aiError(c *gin.Context, fn string, userID int, err error) {
	switch {
	case errors.Is(err, genai.ErrUnrecognized):
		c.JSON(http.StatusOK, gin.H{"error": "unrecognized"})
	case errors.Is(err, genai.ErrNotConfigured):
		apiError(c, http.StatusServiceUnavailable, "ai is not configured")
	default:
		log.Printf("[%s] user %d: %v", fn, userID, err)
		apiError(c, http.StatusInternalServerError, "ai request failed")
	}
}

// mealSource picks the meal source for an analyzed meal from its input mode.
func mealSource(req models.AnalyzeRequest) models.MealSource {
	switch {
	case req.Image != "":
		return models.SourceAIPhoto
	case req.Voice:
		return models.SourceAIVoice
	}
	return models.SourceAIChat
}

// analyzeMeal estimates nutrition for a text description, voice transcript or
// photo. With "log": true the result is stored as a meal and the day's stats
// are returned too.
// POST /api/meals/analyze?tz=Area/City.
func (h *Handler) analyzeMeal(c *gin.Context) {
	userID := c.GetInt("user_id")
	ctx := c.Request.Context()

	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" && req.Image == "" {
		apiError(c, http.StatusBadRequest, "text or image is required")
		return
	}
	loc, err := h.location(c)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid tz, expected an IANA zone name")
		return
	}

	q := genai.MealQuery{Text: req.Text, Voice: req.Voice}
	if req.Image != "" {
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			apiError(c, http.StatusBadRequest, "image must be base64 encoded")
			return
		}
		q.Image = &genai.Image{Data: data, MimeType: req.MimeType}
	}

	analysis, err := h.ai.AnalyzeMeal(ctx, q)
	if err != nil {
		aiError(c, "analyzeMeal", userID, err)
		return
	}

	resp := models.AnalyzeResponse{Analysis: analysis}
	if !req.Log {
		c.JSON(http.StatusOK, resp)
		return
	}

	in := models.NewMealInput(analysis.FoodName, analysis.Calories, analysis.Macros, mealSource(req))
	in.Items = analysis.Items
	in.ClientID = req.ClientID
	in.ImageURL = req.ImageURL
	meal, _, err := h.store.CreateMeal(ctx, in.Meal(userID, h.clock()))
	if err != nil {
		log.Printf("[analyzeMeal] log meal for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to create meal")
		return
	}
	resp.Meal = &meal

	stats, _, err := h.refreshDay(ctx, userID, startOfDay(meal.Timestamp.In(loc)))
	if err != nil {
		log.Printf("[analyzeMeal] refresh day for user %d: %v", userID, err)
	} else {
		resp.Stats = &stats
	}
	c.JSON(http.StatusOK, resp)
}
