package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"life-os/internal/database"
)

// page is one entry of the dashboard's path -> view dispatch table. load
// fetches the rows the page renders on mount.
type page struct {
	Name  string
	Title string
	load  func(ctx context.Context, owner string, today time.Time) (any, error)
}

type pageView struct {
	Page          string `json:"page"`
	Title         string `json:"title"`
	Path          string `json:"path"`
	Authenticated bool   `json:"authenticated"`
	Data          any    `json:"data"`
}

// Sections whose unknown sub-paths fall back to the home page.
var sectionFallbacks = []string{"/planners/", "/personal/"}

func listAll[T database.Model](table *database.Table[T], q database.Query) func(context.Context, string, time.Time) (any, error) {
	return func(ctx context.Context, owner string, _ time.Time) (any, error) {
		return table.List(ctx, owner, q)
	}
}

func (s *Server) buildPages() map[string]page {
	sm := s.services
	repo := sm.Repository()

	return map[string]page{
		"/": {Name: "home", Title: "Dashboard", load: func(ctx context.Context, owner string, today time.Time) (any, error) {
			return sm.Analytics.Overview(ctx, owner, today)
		}},
		"/daily/planner": {Name: "planner", Title: "Daily Planner", load: func(ctx context.Context, owner string, today time.Time) (any, error) {
			tasks, err := sm.Task.Due(ctx, owner, today)
			if err != nil {
				return nil, err
			}
			upcoming, err := sm.Task.Upcoming(ctx, owner, today)
			if err != nil {
				return nil, err
			}
			calendar, err := sm.Task.Calendar(ctx, owner, today)
			if err != nil {
				return nil, err
			}
			return map[string]any{"tasks": tasks, "upcoming": upcoming, "calendar": calendar}, nil
		}},
		"/daily/habits": {Name: "habits", Title: "Habits", load: func(ctx context.Context, owner string, today time.Time) (any, error) {
			return sm.Habit.Summary(ctx, owner, today)
		}},
		"/daily/journal": {Name: "journal", Title: "Journal", load: listAll(repo.Journal, database.Query{}.Order("entry_date", true))},
		"/goals/list": {Name: "goals", Title: "Goals", load: func(ctx context.Context, owner string, _ time.Time) (any, error) {
			return sm.Goal.Progress(ctx, owner)
		}},
		"/goals/vision": {Name: "vision", Title: "Vision Board", load: listAll(repo.Vision, database.Query{}.Order("sort_order", false))},
		"/goals/health": {Name: "health", Title: "Health", load: func(ctx context.Context, owner string, today time.Time) (any, error) {
			logs, err := repo.Health.List(ctx, owner, database.Query{}.Order("log_date", true))
			if err != nil {
				return nil, err
			}
			score, err := sm.Health.Score(ctx, owner, today)
			if err != nil {
				return nil, err
			}
			return map[string]any{"logs": logs, "score": score, "targets": sm.Health.Targets()}, nil
		}},
		"/planners/meals":    {Name: "meals", Title: "Meal Planner", load: listAll(repo.Meals, database.Query{}.Order("meal_date", false))},
		"/planners/workouts": {Name: "workouts", Title: "Workout Planner", load: listAll(repo.Workouts, database.Query{}.Order("workout_date", false))},
		"/planners/travel":   {Name: "travel", Title: "Travel Planner", load: listAll(repo.Travel, database.Query{}.Order("start_date", false))},
		"/personal/finance": {Name: "finance", Title: "Finance", load: func(ctx context.Context, owner string, today time.Time) (any, error) {
			rows, err := repo.Transactions.List(ctx, owner, database.Query{}.Order("transaction_date", true))
			if err != nil {
				return nil, err
			}
			summary, err := sm.Finance.Summary(ctx, owner, today)
			if err != nil {
				return nil, err
			}
			return map[string]any{"transactions": rows, "summary": summary}, nil
		}},
		"/personal/books":  {Name: "books", Title: "Books", load: listAll(repo.Books, database.Query{})},
		"/personal/movies": {Name: "movies", Title: "Movies & Series", load: listAll(repo.Media, database.Query{})},
	}
}

func (s *Server) resolvePage(path string) (page, bool) {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if p, ok := s.pages[path]; ok {
		return p, true
	}
	for _, prefix := range sectionFallbacks {
		if strings.HasPrefix(path, prefix) {
			return s.pages["/"], true
		}
	}
	return page{}, false
}

// handlePage renders a page's data. Without an identity the page is empty
// and nothing is fetched.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	p, ok := s.resolvePage(r.URL.Path)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "page not found"})
		return
	}
	view := pageView{Page: p.Name, Title: p.Title, Path: r.URL.Path}

	user, err := s.identify(r)
	if err != nil && !isUnauthenticated(err) {
		s.writeError(w, r, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusOK, view)
		return
	}

	data, err := p.load(r.Context(), user.ID, s.services.Clock.Today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view.Authenticated = true
	view.Data = data
	writeJSON(w, http.StatusOK, view)
}
