package main

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nura/go-api/internal/blob"
	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

func TestPosts_ShareProgressCard(t *testing.T) {
	ts := setupTestServer(t)
	ts.setReferenceBiometrics(t, ts.userID)
	ts.do("POST", "/api/meals", referenceMeal)

	w := ts.do("POST", "/api/posts", `{"caption":"Day one!","share_progress":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	post := decode[models.Post](t, w)
	if post.Username != "alice" {
		t.Errorf("expected author alice, got %q", post.Username)
	}
	if post.Card == nil {
		t.Fatal("expected a share card")
	}
	if post.Card.FlowScore != 100 || post.Card.ConsumedCalories != 2628 || post.Card.TotalFlowDays != 1 {
		t.Errorf("unexpected card: %+v", post.Card)
	}
	if post.Card.Level != nutrition.LevelSeed {
		t.Errorf("expected seed level, got %q", post.Card.Level)
	}
}

func TestPosts_Validation(t *testing.T) {
	ts := setupTestServer(t)

	bodies := []string{
		`{}`,
		`{"caption":"   "}`,
		`{"caption":"` + strings.Repeat("x", 501) + `"}`,
		`{"share_progress":true,"tz":"Nowhere/Land"}`,
	}
	for _, body := range bodies {
		if w := ts.do("POST", "/api/posts", body); w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d for %.40s", w.Code, body)
		}
	}
}

func TestFeed_LikesAndDelete(t *testing.T) {
	ts := setupTestServer(t)
	bob := ts.createUser(t, "bob", "pw")

	post := decode[models.Post](t, ts.do("POST", "/api/posts", `{"caption":"hello"}`))

	w := ts.doAs(bob.AuthToken, "POST", "/api/posts/"+post.ID+"/like", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	like := decode[struct {
		Liked     bool `json:"liked"`
		LikeCount int  `json:"like_count"`
	}](t, w)
	if !like.Liked || like.LikeCount != 1 {
		t.Errorf("expected liked with 1 like, got %+v", like)
	}

	feed := decode[[]models.Post](t, ts.doAs(bob.AuthToken, "GET", "/api/feed", ""))
	if len(feed) != 1 || !feed[0].LikedByMe || feed[0].LikeCount != 1 {
		t.Errorf("unexpected feed for bob: %+v", feed)
	}
	feed = decode[[]models.Post](t, ts.do("GET", "/api/feed", ""))
	if feed[0].LikedByMe {
		t.Error("alice has not liked the post")
	}

	// Toggling again unlikes.
	like = decode[struct {
		Liked     bool `json:"liked"`
		LikeCount int  `json:"like_count"`
	}](t, ts.doAs(bob.AuthToken, "POST", "/api/posts/"+post.ID+"/like", ""))
	if like.Liked || like.LikeCount != 0 {
		t.Errorf("expected unliked with 0 likes, got %+v", like)
	}

	if w := ts.doAs(bob.AuthToken, "DELETE", "/api/posts/"+post.ID, ""); w.Code != http.StatusNotFound {
		t.Errorf("bob deleting alice's post: expected 404, got %d", w.Code)
	}
	if w := ts.do("DELETE", "/api/posts/"+post.ID, ""); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w := ts.do("POST", "/api/posts/"+post.ID+"/like", ""); w.Code != http.StatusNotFound {
		t.Errorf("liking a deleted post: expected 404, got %d", w.Code)
	}
}

func TestFeed_QueryValidation(t *testing.T) {
	ts := setupTestServer(t)

	for _, q := range []string{"limit=0", "limit=101", "limit=abc", "before=yesterday"} {
		if w := ts.do("GET", "/api/feed?"+q, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}
	if w := ts.do("GET", "/api/feed?limit=5&before=2030-01-01T00:00:00Z", ""); w.Body.String() != "[]" {
		t.Errorf("expected empty feed, got %s", w.Body.String())
	}
}

func TestUploadImage_Disk(t *testing.T) {
	ts := setupTestServer(t)
	dir := t.TempDir()
	ts.h.blobs = &blob.Disk{Dir: dir, BaseURL: "/media"}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "meal.jpg")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("\xff\xd8\xff\xe0fake-jpeg"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.token)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[map[string]string](t, w)
	if !strings.HasPrefix(resp["url"], "/media/") || !strings.HasSuffix(resp["url"], ".jpg") {
		t.Errorf("unexpected url %q", resp["url"])
	}
	key := strings.TrimPrefix(resp["url"], "/media/")
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(key))); err != nil {
		t.Errorf("blob not written: %v", err)
	}
}

func TestUploadImage_DeclaredTypeIgnored(t *testing.T) {
	ts := setupTestServer(t)
	dir := t.TempDir()
	ts.h.blobs = &blob.Disk{Dir: dir, BaseURL: "/media"}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="meal.png"`)
	h.Set("Content-Type", "image/png")
	pw, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	pw.Write([]byte("<html><script>alert(1)</script></html>"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.token)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("nothing should be stored, found %d entries", len(entries))
	}
}

func TestUploadImage_MissingFile(t *testing.T) {
	ts := setupTestServer(t)

	if w := ts.do("POST", "/api/uploads", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
