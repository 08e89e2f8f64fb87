// Package client calls the life-os HTTP API.
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

	"life-os/internal/database"
	"life-os/internal/planner"
	"life-os/internal/services"
)

var (
	ErrUnauthenticated = errors.New("not signed in")
	ErrNotFound        = errors.New("not found")
)

// APIError is any other non-2xx answer.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthenticated, e.Error)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, e.Error)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) Signup(ctx context.Context, email, password, fullName string) (*services.Session, error) {
	var s services.Session
	err := c.do(ctx, http.MethodPost, "/auth/signup", map[string]string{
		"email": email, "password": password, "full_name": fullName,
	}, &s)
	if err != nil {
		return nil, err
	}
	c.SetToken(s.Token)
	return &s, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*services.Session, error) {
	var s services.Session
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &s)
	if err != nil {
		return nil, err
	}
	c.SetToken(s.Token)
	return &s, nil
}

// Me returns the signed-in user, or nil when the token is missing or stale.
func (c *Client) Me(ctx context.Context) (*database.User, error) {
	var out struct {
		User *database.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Table is the remote accessor for one table.
type Table[T any] struct {
	c    *Client
	name string
}

func NewTable[T any](c *Client, name string) *Table[T] {
	return &Table[T]{c: c, name: name}
}

// Filter is one query-string filter: col=value, or col.op=value.
type Filter struct {
	Column string
	Op     string
	Value  string
}

type ListOptions struct {
	Filters []Filter
	Order   string
	Desc    bool
	Limit   int
}

func (o ListOptions) encode() string {
	v := url.Values{}
	for _, f := range o.Filters {
		key := f.Column
		if f.Op != "" && f.Op != "eq" {
			key += "." + f.Op
		}
		v.Add(key, f.Value)
	}
	if o.Order != "" {
		v.Set("order", o.Order)
	}
	if o.Desc {
		v.Set("desc", "true")
	}
	if o.Limit > 0 {
		v.Set("limit", fmt.Sprint(o.Limit))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (t *Table[T]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	var out []T
	err := t.c.do(ctx, http.MethodGet, "/api/"+t.name+opts.encode(), nil, &out)
	return out, err
}

func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := t.c.do(ctx, http.MethodGet, t.path(id), nil, &out)
	return out, err
}

// Create sends fields; the server fills defaults for the rest.
func (t *Table[T]) Create(ctx context.Context, fields any) (T, error) {
	var out T
	if fields == nil {
		fields = map[string]any{}
	}
	err := t.c.do(ctx, http.MethodPost, "/api/"+t.name, fields, &out)
	return out, err
}

func (t *Table[T]) Update(ctx context.Context, id string, delta map[string]any) (T, error) {
	var out T
	err := t.c.do(ctx, http.MethodPatch, t.path(id), delta, &out)
	return out, err
}

// Delete succeeds whether or not the row existed.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	return t.c.do(ctx, http.MethodDelete, t.path(id), nil, nil)
}

func (t *Table[T]) Toggle(ctx context.Context, id string) (T, error) {
	var out T
	err := t.c.do(ctx, http.MethodPost, t.path(id)+"/toggle", nil, &out)
	return out, err
}

func (t *Table[T]) path(id string) string {
	return "/api/" + t.name + "/" + url.PathEscape(id)
}

func (c *Client) Tasks() *Table[*database.Task] { return NewTable[*database.Task](c, "tasks") }

func (c *Client) Habits() *Table[*database.Habit] { return NewTable[*database.Habit](c, "habits") }

func dateQuery(key, value string) string {
	if value == "" {
		return ""
	}
	return "?" + url.Values{key: {value}}.Encode()
}

// Upcoming fetches the Today/Tomorrow/Next 7 days buckets. An empty date
// means the server's today.
func (c *Client) Upcoming(ctx context.Context, date string) (planner.Buckets[planner.UpcomingItem], error) {
	var out planner.Buckets[planner.UpcomingItem]
	err := c.do(ctx, http.MethodGet, "/api/upcoming"+dateQuery("date", date), nil, &out)
	return out, err
}

func (c *Client) Calendar(ctx context.Context, month string) (planner.Month, error) {
	var out planner.Month
	err := c.do(ctx, http.MethodGet, "/api/calendar"+dateQuery("month", month), nil, &out)
	return out, err
}

func (c *Client) HabitSummary(ctx context.Context, date string) (planner.HabitsView, error) {
	var out planner.HabitsView
	err := c.do(ctx, http.MethodGet, "/api/habits/summary"+dateQuery("date", date), nil, &out)
	return out, err
}

func (c *Client) ToggleHabit(ctx context.Context, habitID, date string) (*services.HabitToggle, error) {
	var out services.HabitToggle
	err := c.do(ctx, http.MethodPost, "/api/habits/"+url.PathEscape(habitID)+"/toggle"+dateQuery("date", date), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GoalProgress(ctx context.Context) ([]planner.GoalStatus, error) {
	var out []planner.GoalStatus
	err := c.do(ctx, http.MethodGet, "/api/goals/progress", nil, &out)
	return out, err
}

func (c *Client) FinanceSummary(ctx context.Context) (planner.FinanceSummary, error) {
	var out planner.FinanceSummary
	err := c.do(ctx, http.MethodGet, "/api/finance/summary", nil, &out)
	return out, err
}

func (c *Client) HealthScore(ctx context.Context, date string) (planner.HealthScore, error) {
	var out planner.HealthScore
	err := c.do(ctx, http.MethodGet, "/api/health/score"+dateQuery("date", date), nil, &out)
	return out, err
}

func (c *Client) Overview(ctx context.Context) (*services.Overview, error) {
	var out services.Overview
	if err := c.do(ctx, http.MethodGet, "/api/overview", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Weekly(ctx context.Context) (*planner.WeeklyAnalytics, error) {
	var out planner.WeeklyAnalytics
	if err := c.do(ctx, http.MethodGet, "/api/analytics/week", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
