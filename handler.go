package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nura/go-api/internal/blob"
	"nura/go-api/internal/genai"
	"nura/go-api/internal/models"
	"nura/go-api/internal/store"
)

// Handler holds shared dependencies (store, AI client, blob storage, auth
// settings) for all route handlers.
type Handler struct {
	store     store.Repository
	ai        *genai.Client
	blobs     blob.Store
	jwtSecret []byte
	jwtExpire time.Duration
	defaultTZ *time.Location
	aiLimiter *userLimiter
	now       func() time.Time // overridable for tests
}

func (h *Handler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// storeError maps store.ErrNotFound to 404 and everything else to 500.
func storeError(c *gin.Context, err error, notFound, failed string) {
	if errors.Is(err, store.ErrNotFound) {
		apiError(c, http.StatusNotFound, notFound)
		return
	}
	apiError(c, http.StatusInternalServerError, failed)
}

/* ─── Request helpers ────────────────────────────────────────────────── */

// location resolves the ?tz= query param (IANA name), falling back to the
// server default.
func (h *Handler) location(c *gin.Context) (*time.Location, error) {
	return h.resolveLocation(c.Query("tz"))
}

func (h *Handler) resolveLocation(tz string) (*time.Location, error) {
	if tz == "" {
		if h.defaultTZ != nil {
			return h.defaultTZ, nil
		}
		return time.UTC, nil
	}
	return time.LoadLocation(tz)
}

// dayIn parses a YYYY-MM-DD date as midnight in loc; empty means today.
func (h *Handler) dayIn(date string, loc *time.Location) (time.Time, error) {
	if date == "" {
		now := h.clock().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	return time.ParseInLocation(models.DateLayout, date, loc)
}

// requestDay reads ?date= and ?tz= and writes a 400 itself on bad input.
func (h *Handler) requestDay(c *gin.Context) (time.Time, bool) {
	loc, err := h.location(c)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid tz, expected an IANA zone name")
		return time.Time{}, false
	}
	day, err := h.dayIn(c.Query("date"), loc)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.POST("/api/login", h.login)
	router.GET("/healthz", h.healthz)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/profile", h.getProfile)
	api.PATCH("/profile", h.patchProfile)
	api.GET("/targets", h.getTargets)

	api.GET("/daily", h.getDaily)
	api.PUT("/daily-log", h.putDailyLog)

	api.POST("/meals", h.createMeal)
	api.GET("/meals", h.listMeals)
	api.DELETE("/meals/:id", h.deleteMeal)

	api.GET("/progress", h.getProgress)
	api.GET("/flow-stats", h.getFlowStats)

	api.GET("/plans", h.listPlans)
	api.GET("/plans/active", h.getActivePlan)

	api.POST("/uploads", h.uploadImage)

	api.GET("/feed", h.getFeed)
	api.POST("/posts", h.createPost)
	api.DELETE("/posts/:id", h.deletePost)
	api.POST("/posts/:id/like", h.toggleLike)

	api.GET("/weight-log", h.getWeightLog)
	api.POST("/weight-log", h.upsertWeightEntry)
	api.PUT("/weight-log/:id", h.updateWeightEntry)
	api.DELETE("/weight-log/:id", h.deleteWeightEntry)

	// AI routes share a per-user rate limit
	ai := api.Group("", h.aiLimiter.middleware())
	ai.POST("/meals/analyze", h.analyzeMeal)
	ai.POST("/plans/generate", h.generatePlan)
}

// healthz reports whether the database is reachable.
// GET /healthz (public).
func (h *Handler) healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
