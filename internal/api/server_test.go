package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"life-os/internal/database"
	"life-os/internal/services"
)

type testServer struct {
	t     *testing.T
	srv   *httptest.Server
	sm    *services.ServiceManager
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "api.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sm := services.NewServiceManager(db, services.Options{
		Secret:   []byte("test-secret-0123456789"),
		TokenTTL: time.Hour,
		Clock:    services.FixedClock(time.Date(2024, 2, 19, 9, 0, 0, 0, time.UTC), time.UTC),
	}, nil)

	srv := httptest.NewServer(NewServer(sm, nil).Handler())
	t.Cleanup(srv.Close)

	ts := &testServer{t: t, srv: srv, sm: sm}
	var session services.Session
	status := ts.do(http.MethodPost, "/auth/signup", map[string]string{
		"email": "owner@example.com", "password": "password123", "full_name": "Owner",
	}, &session)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, session.Token)
	ts.token = session.Token
	return ts
}

func (ts *testServer) do(method, path string, body any, out any) int {
	return ts.doAs(ts.token, method, path, body, out)
}

func (ts *testServer) doAs(token, method, path string, body any, out any) int {
	ts.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, rd)
	require.NoError(ts.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.srv.Client().Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestUnauthenticatedCallsAreRejected(t *testing.T) {
	ts := newTestServer(t)

	var body errorBody
	assert.Equal(t, http.StatusUnauthorized, ts.doAs("", http.MethodGet, "/api/tasks", nil, &body))
	assert.NotEmpty(t, body.Error)
	assert.Equal(t, http.StatusUnauthorized, ts.doAs("garbage", http.MethodGet, "/api/upcoming", nil, nil))

	var me map[string]*database.User
	assert.Equal(t, http.StatusOK, ts.doAs("", http.MethodGet, "/auth/me", nil, &me))
	assert.Nil(t, me["user"])

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/auth/me", nil, &me))
	require.NotNil(t, me["user"])
	assert.Equal(t, "owner@example.com", me["user"].Email)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	var session services.Session
	assert.Equal(t, http.StatusOK, ts.doAs("", http.MethodPost, "/auth/login",
		map[string]string{"email": "owner@example.com", "password": "password123"}, &session))
	assert.NotEmpty(t, session.Token)

	assert.Equal(t, http.StatusUnauthorized, ts.doAs("", http.MethodPost, "/auth/login",
		map[string]string{"email": "owner@example.com", "password": "wrong-password"}, nil))
	assert.Equal(t, http.StatusBadRequest, ts.doAs("", http.MethodPost, "/auth/signup",
		map[string]string{"email": "owner@example.com", "password": "password123"}, nil), "duplicate email")
}

func TestTaskCrudAndToggle(t *testing.T) {
	ts := newTestServer(t)

	var created database.Task
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/tasks", map[string]any{
		"due_date": "2024-02-19", "priority": "high",
	}, &created))
	assert.Equal(t, "New task", created.Title)
	assert.Equal(t, int64(1), created.Version)

	var patched database.Task
	require.Equal(t, http.StatusOK, ts.do(http.MethodPatch, "/api/tasks/"+created.ID, map[string]any{
		"title": "Call the bank", "id": "hijack", "version": 99,
	}, &patched))
	assert.Equal(t, "Call the bank", patched.Title)
	assert.Equal(t, created.ID, patched.ID)
	assert.Equal(t, int64(2), patched.Version)

	var toggled database.Task
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/tasks/"+created.ID+"/toggle", nil, &toggled))
	assert.True(t, toggled.Completed)
	assert.NotNil(t, toggled.CompletedAt)

	var rows []database.Task
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/tasks?completed=true&order=due_date", nil, &rows))
	assert.Len(t, rows, 1)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/tasks/"+created.ID, nil, nil))
	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/tasks/"+created.ID, nil, nil), "repeat delete")
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/tasks/"+created.ID, nil, nil))
}

func TestGenericRouteErrors(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/nope", nil, nil))
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/tasks?bogus=1", nil, nil))
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/tasks?limit=x", nil, nil))
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/tasks", map[string]any{"priority": "urgent"}, nil))
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/books/x/toggle", nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPatch, "/api/tasks/missing", map[string]any{"title": "x"}, nil))
}

func TestOwnersCannotSeeEachOther(t *testing.T) {
	ts := newTestServer(t)

	var created database.Book
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/books", map[string]any{}, &created))
	assert.Equal(t, "New Book", created.Title)

	var other services.Session
	require.Equal(t, http.StatusCreated, ts.doAs("", http.MethodPost, "/auth/signup",
		map[string]string{"email": "other@example.com", "password": "password123"}, &other))

	var rows []database.Book
	require.Equal(t, http.StatusOK, ts.doAs(other.Token, http.MethodGet, "/api/books", nil, &rows))
	assert.Empty(t, rows)
	assert.Equal(t, http.StatusNotFound, ts.doAs(other.Token, http.MethodGet, "/api/books/"+created.ID, nil, nil))
}

func TestUpcomingScenario(t *testing.T) {
	ts := newTestServer(t)

	var task database.Task
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/tasks", map[string]any{
		"title": "A", "due_date": "2024-02-19", "priority": "high",
	}, &task))

	var buckets struct {
		Today []struct {
			Task  database.Task `json:"task"`
			Badge string        `json:"badge"`
		} `json:"today"`
	}
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/upcoming", nil, &buckets))
	require.Len(t, buckets.Today, 1)
	assert.Equal(t, "High", buckets.Today[0].Badge)

	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/tasks/"+task.ID+"/toggle", nil, nil))
	buckets.Today = nil
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/upcoming", nil, &buckets))
	assert.Empty(t, buckets.Today)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/tasks/"+task.ID, nil, nil), "row is kept")
}

func TestCalendarRoute(t *testing.T) {
	ts := newTestServer(t)

	var grid struct {
		Cells []json.RawMessage `json:"cells"`
	}
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/calendar?month=2024-09", nil, &grid))
	assert.Len(t, grid.Cells, 42)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/calendar?month=sept", nil, nil))
}

func TestHabitRoutes(t *testing.T) {
	ts := newTestServer(t)

	var habit database.Habit
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/habits", map[string]any{"name": "Read"}, &habit))

	for _, d := range []string{"2024-02-17", "2024-02-18", "2024-02-19"} {
		require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/habits/"+habit.ID+"/toggle?date="+d, nil, nil))
	}

	var res services.HabitToggle
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/habits/"+habit.ID+"/toggle?date=2024-02-18", nil, &res))
	assert.False(t, res.Completed)
	assert.Equal(t, 1, res.Habit.Streak)
	assert.Equal(t, 3, res.Habit.BestStreak)

	// Completions written through the generic table still refresh the cache.
	var c database.HabitCompletion
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/habit_completions", map[string]any{
		"habit_id": habit.ID, "completed_date": "2024-02-18",
	}, &c))
	var got database.Habit
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/habits/"+habit.ID, nil, &got))
	assert.Equal(t, 3, got.Streak)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/habit_completions", map[string]any{
		"habit_id": habit.ID, "completed_date": "2024-02-18",
	}, nil), "one record per habit and day")

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/habits/summary?date=yesterday", nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, "/api/habits/missing/toggle", nil, nil))
}

func TestMilestoneToggleSyncsGoal(t *testing.T) {
	ts := newTestServer(t)

	var goal database.Goal
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/goals", map[string]any{"title": "Run a marathon"}, &goal))
	var m1, m2 database.GoalMilestone
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/goal_milestones", map[string]any{"goal_id": goal.ID, "title": "10k"}, &m1))
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/goal_milestones", map[string]any{"goal_id": goal.ID, "title": "Half"}, &m2))

	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/goal_milestones/"+m1.ID+"/toggle", nil, nil))

	var stored database.Goal
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/goals/"+goal.ID, nil, &stored))
	assert.Equal(t, 50, stored.Progress)

	var progress []struct {
		Progress int `json:"progress"`
	}
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/goals/progress", nil, &progress))
	require.Len(t, progress, 1)
	assert.Equal(t, 50, progress[0].Progress)

	require.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/goal_milestones/"+m2.ID, nil, nil))
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/goals/"+goal.ID, nil, &stored))
	assert.Equal(t, 100, stored.Progress)
}

func TestFinanceSummaryRoute(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/transactions", map[string]any{
		"title": "Rent", "amount": "500000", "transaction_type": "expense", "transaction_date": "2024-02-05",
	}, nil))

	var summary struct {
		Expense       string  `json:"expense"`
		ExpenseChange float64 `json:"expense_change"`
	}
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/finance/summary", nil, &summary))
	assert.Equal(t, "500000", summary.Expense)
	assert.Zero(t, summary.ExpenseChange)
}

func TestPages(t *testing.T) {
	ts := newTestServer(t)

	var anon pageView
	require.Equal(t, http.StatusOK, ts.doAs("", http.MethodGet, "/daily/planner", nil, &anon))
	assert.Equal(t, "planner", anon.Page)
	assert.False(t, anon.Authenticated)
	assert.Nil(t, anon.Data)

	var home pageView
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/", nil, &home))
	assert.True(t, home.Authenticated)
	assert.NotNil(t, home.Data)

	var fallback pageView
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/planners/unknown", nil, &fallback))
	assert.Equal(t, "home", fallback.Page)

	for _, p := range []string{"/daily/habits", "/daily/journal", "/goals/list", "/goals/vision", "/goals/health",
		"/planners/meals", "/planners/workouts", "/planners/travel", "/personal/finance", "/personal/books", "/personal/movies"} {
		var v pageView
		require.Equal(t, http.StatusOK, ts.do(http.MethodGet, p, nil, &v), p)
		assert.True(t, v.Authenticated, p)
	}

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/nowhere", nil, nil))
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	require.Equal(t, http.StatusOK, ts.doAs("", http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestParseQuery(t *testing.T) {
	q, err := parseQuery(map[string][]string{
		"order":          {"due_date"},
		"desc":           {"true"},
		"limit":          {"5"},
		"completed":      {"false"},
		"due_date.gte":   {"2024-02-01"},
		"category_id.is": {"null"},
	})
	require.NoError(t, err)
	assert.Equal(t, "due_date", q.OrderBy)
	assert.True(t, q.Desc)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, []database.Filter{
		{Column: "category_id", Op: database.OpIsNull, Value: true},
		{Column: "completed", Op: database.OpEq, Value: false},
		{Column: "due_date", Op: database.OpGte, Value: "2024-02-01"},
	}, q.Filters)

	_, err = parseQuery(map[string][]string{"title.between": {"a"}})
	assert.Error(t, err)
}

func TestChildRowsStayWithTheirOwner(t *testing.T) {
	ts := newTestServer(t)

	var habit database.Habit
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/habits", map[string]any{"name": "Read"}, &habit))
	var goal database.Goal
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/goals", map[string]any{"title": "Run"}, &goal))

	var other services.Session
	require.Equal(t, http.StatusCreated, ts.doAs("", http.MethodPost, "/auth/signup",
		map[string]string{"email": "other@example.com", "password": "password123"}, &other))

	assert.Equal(t, http.StatusBadRequest, ts.doAs(other.Token, http.MethodPost, "/api/habit_completions", map[string]any{
		"habit_id": habit.ID, "completed_date": "2024-02-19",
	}, nil))
	var completions []database.HabitCompletion
	require.Equal(t, http.StatusOK, ts.doAs(other.Token, http.MethodGet, "/api/habit_completions", nil, &completions))
	assert.Empty(t, completions)

	assert.Equal(t, http.StatusBadRequest, ts.doAs(other.Token, http.MethodPost, "/api/goal_milestones", map[string]any{
		"goal_id": goal.ID, "title": "10k",
	}, nil))
	var milestones []database.GoalMilestone
	require.Equal(t, http.StatusOK, ts.doAs(other.Token, http.MethodGet, "/api/goal_milestones", nil, &milestones))
	assert.Empty(t, milestones)

	var stored database.Habit
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/habits/"+habit.ID, nil, &stored))
	assert.Equal(t, int64(1), stored.Version, "owner's habit untouched")
}

func TestChildRowsCannotChangeParent(t *testing.T) {
	ts := newTestServer(t)

	var read, walk database.Habit
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/habits", map[string]any{"name": "Read"}, &read))
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/habits", map[string]any{"name": "Walk"}, &walk))

	var c database.HabitCompletion
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/habit_completions", map[string]any{
		"habit_id": read.ID, "completed_date": "2024-02-19",
	}, &c))

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPatch, "/api/habit_completions/"+c.ID, map[string]any{
		"habit_id": walk.ID,
	}, nil))
	require.Equal(t, http.StatusOK, ts.do(http.MethodPatch, "/api/habit_completions/"+c.ID, map[string]any{
		"notes": "chapter 3",
	}, &c))
	assert.Equal(t, read.ID, c.HabitID)

	var stored database.Habit
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/habits/"+read.ID, nil, &stored))
	assert.Equal(t, 1, stored.Streak)

	var goal, other database.Goal
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/goals", map[string]any{"title": "Run"}, &goal))
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/goals", map[string]any{"title": "Swim"}, &other))
	var m database.GoalMilestone
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, "/api/goal_milestones", map[string]any{"goal_id": goal.ID, "title": "10k"}, &m))
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPatch, "/api/goal_milestones/"+m.ID, map[string]any{"goal_id": other.ID}, nil))
}
