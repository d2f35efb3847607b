// Package blob stores uploaded meal photos and returns their public URLs.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store puts a blob under key and returns a URL clients can fetch it from.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ImageKey names a user's upload: "<userID>/<unix millis>.jpg".
func ImageKey(userID int, t time.Time) string {
	return fmt.Sprintf("%d/%d.jpg", userID, t.UnixMilli())
}

// cleanKey rejects keys that could escape the storage root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+key)), "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("invalid blob key")
	}
	return key, nil
}

/* ─── Disk ───────────────────────────────────────────────────────────── */

// Disk writes blobs under Dir; the API serves Dir at /media.
type Disk struct {
	Dir     string
	BaseURL string // e.g. https://api.example.com/media; may be relative
}

func (d *Disk) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	path := filepath.Join(d.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return strings.TrimSuffix(d.BaseURL, "/") + "/" + key, nil
}

/* ─── HTTP object storage ────────────────────────────────────────────── */

// HTTP uploads to a Supabase-Storage-compatible endpoint:
// POST {URL}/storage/v1/object/{bucket}/{key}, public at
// {URL}/storage/v1/object/public/{bucket}/{key}.
type HTTP struct {
	URL        string
	Key        string
	Bucket     string
	HTTPClient *http.Client
}

func (h *HTTP) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(h.URL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		base+"/storage/v1/object/"+h.Bucket+"/"+key, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+h.Key)
	req.Header.Set("x-upsert", "true")

	client := h.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("storage returned status %d: %s", resp.StatusCode, string(body))
	}
	return base + "/storage/v1/object/public/" + h.Bucket + "/" + key, nil
}
