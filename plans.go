package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

// generatePlan asks the AI for a three-month plan built around the user's
// biometrics and targets, then makes it the active plan. Any previously
// active plan is archived in the same transaction.
// POST /api/plans/generate?tz=Area/City. Body (optional): { "note": "..." }.
func (h *Handler) generatePlan(c *gin.Context) {
	userID := c.GetInt("user_id")
	ctx := c.Request.Context()

	var body struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
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
	b := p.Biometrics()
	targets := nutrition.ComputeTargets(b)

	draft, err := h.ai.GeneratePlan(ctx, b, targets, strings.TrimSpace(body.Note))
	if err != nil {
		aiError(c, "generatePlan", userID, err)
		return
	}
	shaped, err := nutrition.ShapePlan(draft, targets, h.clock().In(loc))
	if err != nil {
		log.Printf("[generatePlan] shape plan for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "ai request failed")
		return
	}

	plan, err := h.store.ActivatePlan(ctx, models.NewPlan(userID, shaped))
	if err != nil {
		log.Printf("[generatePlan] activate plan for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to save plan")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// getActivePlan returns the active plan, or {"plan": null} when there is none.
// GET /api/plans/active.
func (h *Handler) getActivePlan(c *gin.Context) {
	userID := c.GetInt("user_id")

	plan, err := h.store.ActivePlan(c.Request.Context(), userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch plan")
		return
	}
	c.JSON(http.StatusOK, models.ActivePlanView{Plan: plan})
}

// listPlans returns every plan the user has generated, newest first.
// GET /api/plans.
func (h *Handler) listPlans(c *gin.Context) {
	userID := c.GetInt("user_id")

	plans, err := h.store.ListPlans(c.Request.Context(), userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch plans")
		return
	}
	if plans == nil {
		plans = []models.Plan{}
	}
	c.JSON(http.StatusOK, plans)
}
