package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"nura/go-api/internal/blob"
	"nura/go-api/internal/genai"
	"nura/go-api/internal/models"
	"nura/go-api/internal/store"
)

// testNow is the fixed clock for handler tests: midday UTC.
var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// testServer bundles a router backed by a temp SQLite store and a mock
// OpenAI server whose reply can be swapped per test.
type testServer struct {
	router *gin.Engine
	h      *Handler
	repo   *store.SQLite
	mock   *httptest.Server
	token  string // static API token of the default user
	userID int

	mockStatus int
	mockBody   interface{}
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{mockStatus: http.StatusOK}

	ts.mock = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(ts.mockStatus)
		json.NewEncoder(w).Encode(ts.mockBody)
	}))
	t.Cleanup(ts.mock.Close)

	repo, err := store.OpenSQLite(filepath.Join(t.TempDir(), "nura.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	ts.repo = repo

	gin.SetMode(gin.TestMode)
	ts.h = &Handler{
		store:     repo,
		ai:        genai.New("test-key", ts.mock.URL, "test-model", 5*time.Second),
		blobs:     &blob.Disk{Dir: t.TempDir(), BaseURL: "/media"},
		jwtSecret: []byte("test-secret"),
		jwtExpire: time.Hour,
		defaultTZ: time.UTC,
		aiLimiter: newUserLimiter(0, 0),
		now:       func() time.Time { return testNow },
	}
	ts.router = newTestRouter(ts.h)

	u := ts.createUser(t, "alice", "secret123")
	ts.userID = u.ID
	ts.token = u.AuthToken
	return ts
}

func newTestRouter(h *Handler) *gin.Engine {
	router := gin.New()
	h.registerRoutes(router)
	return router
}

func (ts *testServer) createUser(t *testing.T, username, password string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	u, err := ts.repo.CreateUser(context.Background(), models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  string(hash),
		AuthToken: uuid.NewString(),
	}, username)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// setReferenceBiometrics stores {70 kg, 175 cm, 30, male, moderate, health,
// meso}, whose targets are 2628 kcal / 197 g / 263 g / 88 g.
func (ts *testServer) setReferenceBiometrics(t *testing.T, userID int) {
	t.Helper()
	w, h, age := 70.0, 175.0, 30
	gender, activity, goal, biotype := "male", "moderate", "health", "meso"
	_, err := ts.repo.UpdateProfile(context.Background(), userID, models.ProfilePatch{
		WeightKg: &w, HeightCm: &h, Age: &age,
		Gender: &gender, ActivityLevel: &activity, Goal: &goal, Biotype: &biotype,
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
}

func (ts *testServer) setMock(status int, body interface{}) {
	ts.mockStatus = status
	ts.mockBody = body
}

// do sends a request authenticated with the default user's static token.
func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	return ts.doAs(ts.token, method, path, body)
}

func (ts *testServer) doAs(token, method, path, body string) *httptest.ResponseRecorder {
	var r *bytes.Reader
	if body != "" {
		r = bytes.NewReader([]byte(body))
	} else {
		r = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// openAIChatResponse wraps a content string in the OpenAI chat completions
// response shape (choices[0].message.content).
func openAIChatResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{
				"message": map[string]interface{}{
					"content": content,
				},
			},
		},
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.doAs("", "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestResolveLocation(t *testing.T) {
	h := &Handler{}
	loc, err := h.resolveLocation("")
	if err != nil || loc != time.UTC {
		t.Errorf("empty tz: got %v, %v; want UTC", loc, err)
	}
	if _, err := h.resolveLocation("Not/AZone"); err == nil {
		t.Error("expected error for unknown zone")
	}
	ny, err := h.resolveLocation("America/New_York")
	if err != nil {
		t.Fatalf("America/New_York: %v", err)
	}

	h.now = func() time.Time { return time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC) }
	day, err := h.dayIn("", ny)
	if err != nil {
		t.Fatal(err)
	}
	if got := day.Format("2006-01-02"); got != "2026-03-09" {
		t.Errorf("today in New York at 02:00 UTC = %s, want 2026-03-09", got)
	}
}

func TestProfile_GetAndPatch(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do("PATCH", "/api/profile", `{"weight_kg":70,"height_cm":175,"age":30,"gender":"male","activity_level":"moderate","goal":"health","biotype":"meso"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	p := decode[models.Profile](t, w)
	if p.Targets == nil || p.Targets.Calories != 2628 || p.Targets.Protein != 197 {
		t.Errorf("unexpected targets: %+v", p.Targets)
	}

	// Only the provided field changes.
	w = ts.do("PATCH", "/api/profile", `{"goal":"aesthetic"}`)
	p = decode[models.Profile](t, w)
	if p.Goal != "aesthetic" || p.WeightKg == nil || *p.WeightKg != 70 {
		t.Errorf("partial update lost fields: %+v", p)
	}
	if p.Targets.Calories != 2328 {
		t.Errorf("expected aesthetic calories 2328, got %d", p.Targets.Calories)
	}

	w = ts.do("GET", "/api/profile", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestProfile_PatchValidation(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad gender", `{"gender":"other"}`},
		{"bad goal", `{"goal":"bulk"}`},
		{"negative weight", `{"weight_kg":-3}`},
		{"empty", `{}`},
		{"not json", `nope`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do("PATCH", "/api/profile", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestTargets_QueryOverrides(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do("GET", "/api/targets?weight_kg=70&height_cm=175&age=30&gender=male&activity_level=moderate&goal=performance&biotype=meso", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[struct {
		Targets struct {
			Calories int `json:"calories"`
		} `json:"targets"`
	}](t, w)
	if resp.Targets.Calories != 2828 {
		t.Errorf("expected performance calories 2828, got %d", resp.Targets.Calories)
	}

	w = ts.do("GET", "/api/targets?age=abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad age, got %d", w.Code)
	}
}
