// Package client is a typed HTTP client for the NURA API, used by the nura
// CLI, the MCP server and the session state container.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nura/go-api/internal/models"
	"nura/go-api/internal/nutrition"
)

const defaultBaseURL = "http://localhost:3000"

// ErrUnrecognized is returned by Analyze when the model says the input is
// not food.
var ErrUnrecognized = errors.New("input not recognized as food")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("nura api: status %d", e.Status)
	}
	return fmt.Sprintf("nura api: %s (status %d)", e.Message, e.Status)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	BaseURL    string
	Token      string
	TZ         string // IANA zone sent as ?tz= on day-scoped calls
	HTTPClient *http.Client
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	if query == nil {
		query = url.Values{}
	}
	if c.TZ != "" && query.Get("tz") == "" {
		query.Set("tz", c.TZ)
	}
	u := baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

/* ─── Auth ───────────────────────────────────────────────────────────── */

type LoginResult struct {
	Token     string    `json:"token"`
	UserID    int       `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login exchanges credentials for a session token and stores it on c.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, body, &res); err != nil {
		return LoginResult{}, err
	}
	c.Token = res.Token
	return res, nil
}

/* ─── Profile and targets ────────────────────────────────────────────── */

func (c *Client) Profile(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, http.MethodGet, "/api/profile", nil, nil, &p)
	return p, err
}

func (c *Client) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, http.MethodPatch, "/api/profile", nil, patch, &p)
	return p, err
}

// TargetsResult is the response of GET /api/targets.
type TargetsResult struct {
	Biometrics nutrition.Biometrics `json:"biometrics"`
	Targets    nutrition.Targets    `json:"targets"`
	BMR        int                  `json:"bmr"`
	TDEE       int                  `json:"tdee"`
}

// Targets returns targets for the stored profile with optional overrides
// (weight_kg, height_cm, age, gender, activity_level, goal, biotype).
func (c *Client) Targets(ctx context.Context, overrides url.Values) (TargetsResult, error) {
	var res TargetsResult
	err := c.do(ctx, http.MethodGet, "/api/targets", overrides, nil, &res)
	return res, err
}

/* ─── Day ────────────────────────────────────────────────────────────── */

func dateQuery(date string) url.Values {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	return q
}

// Daily returns the day view; an empty date means today.
func (c *Client) Daily(ctx context.Context, date string) (models.DailyView, error) {
	var v models.DailyView
	err := c.do(ctx, http.MethodGet, "/api/daily", dateQuery(date), nil, &v)
	return v, err
}

func (c *Client) UpdateDailyLog(ctx context.Context, patch models.DailyLogPatch) (models.DailyLog, error) {
	var res struct {
		Log models.DailyLog `json:"log"`
	}
	err := c.do(ctx, http.MethodPut, "/api/daily-log", nil, patch, &res)
	return res.Log, err
}

/* ─── Meals ──────────────────────────────────────────────────────────── */

func (c *Client) LogMeal(ctx context.Context, in models.MealInput) (models.MealCreated, error) {
	var res models.MealCreated
	err := c.do(ctx, http.MethodPost, "/api/meals", nil, in, &res)
	return res, err
}

func (c *Client) Meals(ctx context.Context, date string) ([]models.Meal, error) {
	var meals []models.Meal
	err := c.do(ctx, http.MethodGet, "/api/meals", dateQuery(date), nil, &meals)
	return meals, err
}

func (c *Client) DeleteMeal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/meals/"+url.PathEscape(id), nil, nil, nil)
}

// Analyze runs AI meal analysis. An "unrecognized" reply maps to
// ErrUnrecognized.
func (c *Client) Analyze(ctx context.Context, req models.AnalyzeRequest) (models.AnalyzeResponse, error) {
	var res struct {
		models.AnalyzeResponse
		Error string `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/meals/analyze", nil, req, &res); err != nil {
		return models.AnalyzeResponse{}, err
	}
	if res.Error == "unrecognized" {
		return models.AnalyzeResponse{}, ErrUnrecognized
	}
	return res.AnalyzeResponse, nil
}

/* ─── Progress and plans ─────────────────────────────────────────────── */

func (c *Client) Progress(ctx context.Context) (nutrition.Progress, error) {
	var p nutrition.Progress
	err := c.do(ctx, http.MethodGet, "/api/progress", nil, nil, &p)
	return p, err
}

func (c *Client) FlowStats(ctx context.Context, start, end string) ([]nutrition.HeatmapCell, error) {
	var cells []nutrition.HeatmapCell
	q := url.Values{"start": {start}, "end": {end}}
	err := c.do(ctx, http.MethodGet, "/api/flow-stats", q, nil, &cells)
	return cells, err
}

// ActivePlan returns nil when the user has no active plan.
func (c *Client) ActivePlan(ctx context.Context) (*models.Plan, error) {
	var v models.ActivePlanView
	err := c.do(ctx, http.MethodGet, "/api/plans/active", nil, nil, &v)
	return v.Plan, err
}

func (c *Client) GeneratePlan(ctx context.Context, note string) (models.Plan, error) {
	var p models.Plan
	err := c.do(ctx, http.MethodPost, "/api/plans/generate", nil, map[string]string{"note": note}, &p)
	return p, err
}

func (c *Client) Plans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := c.do(ctx, http.MethodGet, "/api/plans", nil, nil, &plans)
	return plans, err
}
