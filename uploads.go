package main

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nura/go-api/internal/blob"
)

// maxUploadBytes caps a single image upload.
const maxUploadBytes = 10 << 20

// uploadImage stores a meal or post photo and returns its public URL.
// POST /api/uploads, multipart form with a "file" field. Returns { "url": "..." }.
func (h *Handler) uploadImage(c *gin.Context) {
	userID := c.GetInt("user_id")

	if h.blobs == nil {
		apiError(c, http.StatusServiceUnavailable, "uploads are not configured")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		apiError(c, http.StatusBadRequest, "file is required (max 10MB)")
		return
	}
	f, err := fh.Open()
	if err != nil {
		apiError(c, http.StatusBadRequest, "failed to read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		apiError(c, http.StatusBadRequest, "failed to read file")
		return
	}

	// The part's declared Content-Type is ignored; only the bytes count.
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		apiError(c, http.StatusBadRequest, "file must be an image")
		return
	}

	url, err := h.blobs.Put(c.Request.Context(), blob.ImageKey(userID, h.clock()), data, contentType)
	if err != nil {
		log.Printf("[uploadImage] user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to store image")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
