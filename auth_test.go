package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLogin_IssuesWorkingToken(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.doAs("", "POST", "/api/login", `{"username":"alice","password":"secret123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[struct {
		Token     string    `json:"token"`
		UserID    int       `json:"user_id"`
		ExpiresAt time.Time `json:"expires_at"`
	}](t, w)
	if resp.UserID != ts.userID {
		t.Errorf("expected user_id %d, got %d", ts.userID, resp.UserID)
	}
	if !resp.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Errorf("unexpected expiry %v", resp.ExpiresAt)
	}

	if w := ts.doAs(resp.Token, "GET", "/api/profile", ""); w.Code != http.StatusOK {
		t.Errorf("session token rejected: %d %s", w.Code, w.Body.String())
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ts := setupTestServer(t)

	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"nobody","password":"secret123"}`,
	} {
		w := ts.doAs("", "POST", "/api/login", body)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", body, w.Code)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	ts := setupTestServer(t)

	expired, _, err := ts.h.issueToken(ts.userID, "alice")
	if err != nil {
		t.Fatal(err)
	}
	ts.h.now = func() time.Time { return testNow.Add(2 * time.Hour) }

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Token " + ts.token, http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"expired session", "Bearer " + expired, http.StatusUnauthorized},
		{"static token", "Bearer " + ts.token, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/profile", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestParseToken_RejectsOtherSecret(t *testing.T) {
	ts := setupTestServer(t)

	other := &Handler{jwtSecret: []byte("other"), jwtExpire: time.Hour, now: ts.h.now}
	token, _, err := other.issueToken(ts.userID, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ts.h.parseToken(token); err == nil {
		t.Error("token signed with another secret should be rejected")
	}
	if id, err := other.parseToken(token); err != nil || id != ts.userID {
		t.Errorf("round trip: got %d, %v", id, err)
	}
}
