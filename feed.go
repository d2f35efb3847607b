package main

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nura/go-api/internal/models"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
	maxCaptionLen    = 500
)

// getFeed returns posts from everyone, newest first.
// GET /api/feed?limit=N&before=RFC3339. Page with before = last post's created_at.
func (h *Handler) getFeed(c *gin.Context) {
	userID := c.GetInt("user_id")

	limit := defaultFeedLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxFeedLimit {
			apiError(c, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	var before *time.Time
	if v := c.Query("before"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid before, expected RFC3339")
			return
		}
		before = &t
	}

	posts, err := h.store.ListFeed(c.Request.Context(), userID, limit, before)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch feed")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	c.JSON(http.StatusOK, posts)
}

// createPost publishes a post. With share_progress the server attaches a card
// built from the day's stats and the user's progression.
// POST /api/posts. Body: { "caption", "image_url"?, "share_progress"?, "date"?, "tz"? }.
func (h *Handler) createPost(c *gin.Context) {
	userID := c.GetInt("user_id")
	ctx := c.Request.Context()

	var body models.PostInput
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	body.Caption = strings.TrimSpace(body.Caption)
	if body.Caption == "" && body.ImageURL == nil && !body.ShareProgress {
		apiError(c, http.StatusBadRequest, "caption, image_url or share_progress is required")
		return
	}
	if len(body.Caption) > maxCaptionLen {
		apiError(c, http.StatusBadRequest, "caption must be at most 500 characters")
		return
	}

	post := models.Post{
		ID:       uuid.NewString(),
		UserID:   userID,
		Caption:  body.Caption,
		ImageURL: body.ImageURL,
	}

	if body.ShareProgress {
		loc, err := h.resolveLocation(body.TZ)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid tz, expected an IANA zone name")
			return
		}
		date := ""
		if body.Date != nil {
			date = *body.Date
		}
		day, err := h.dayIn(date, loc)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		p, err := h.store.GetProfile(ctx, userID)
		if err != nil {
			storeError(c, err, "profile not found", "failed to fetch profile")
			return
		}
		stats, _, err := h.dayStats(ctx, p, day)
		if err != nil {
			apiError(c, http.StatusInternalServerError, "failed to compute daily stats")
			return
		}
		progress := p.StoredProgress()
		post.Card = &models.ShareCard{
			Date:             models.NewDateOnly(day),
			FlowScore:        stats.FlowScore,
			Level:            progress.Level,
			CurrentStreak:    progress.CurrentStreak,
			TotalFlowDays:    progress.TotalFlowDays,
			ConsumedCalories: stats.ConsumedCalories,
			TargetCalories:   stats.TargetCalories,
		}
	}

	created, err := h.store.CreatePost(ctx, post)
	if err != nil {
		log.Printf("[createPost] user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to create post")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// deletePost removes one of the user's own posts.
// DELETE /api/posts/:id. Returns 204 on success, 404 if not found or not owned.
func (h *Handler) deletePost(c *gin.Context) {
	userID := c.GetInt("user_id")

	if err := h.store.DeletePost(c.Request.Context(), userID, c.Param("id")); err != nil {
		storeError(c, err, "post not found", "failed to delete post")
		return
	}
	c.Status(http.StatusNoContent)
}

// toggleLike likes a post, or unlikes it if already liked.
// POST /api/posts/:id/like. Returns { "liked": bool, "like_count": n }.
func (h *Handler) toggleLike(c *gin.Context) {
	userID := c.GetInt("user_id")

	liked, count, err := h.store.ToggleLike(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		storeError(c, err, "post not found", "failed to update like")
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "like_count": count})
}
