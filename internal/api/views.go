package api

import (
	"errors"
	"net/http"
	"time"

	"life-os/internal/database"
	"life-os/internal/services"
	"life-os/internal/utils"
)

func isUnauthenticated(err error) bool {
	return errors.Is(err, services.ErrUnauthenticated)
}

// day reads ?date=YYYY-MM-DD, defaulting to today.
func (s *Server) day(r *http.Request) (time.Time, error) {
	return s.services.Clock.Day(r.URL.Query().Get("date"))
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request, user *database.User) {
	today, err := s.day(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	buckets, err := s.services.Task.Upcoming(r.Context(), user.ID, today)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request, user *database.User) {
	month := s.services.Clock.Today()
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := utils.ParseMonth(v)
		if err != nil {
			s.writeError(w, r, badRequest("month must be YYYY-MM, got %q", v))
			return
		}
		month = m
	}
	grid, err := s.services.Task.Calendar(r.Context(), user.ID, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func (s *Server) handleHabitSummary(w http.ResponseWriter, r *http.Request, user *database.User) {
	day, err := s.day(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.services.Habit.Summary(r.Context(), user.ID, day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHabitToggle(w http.ResponseWriter, r *http.Request, user *database.User) {
	day, err := s.day(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.services.Habit.Toggle(r.Context(), user.ID, r.PathValue("id"), day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request, user *database.User) {
	goals, err := s.services.Goal.Progress(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleFinanceSummary(w http.ResponseWriter, r *http.Request, user *database.User) {
	day, err := s.day(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.services.Finance.Summary(r.Context(), user.ID, day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealthScore(w http.ResponseWriter, r *http.Request, user *database.User) {
	day, err := s.day(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	score, err := s.services.Health.Score(r.Context(), user.ID, day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, user *database.User) {
	day, err := s.day(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	overview, err := s.services.Analytics.Overview(r.Context(), user.ID, day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request, user *database.User) {
	day, err := s.day(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	weekly, err := s.services.Analytics.Weekly(r.Context(), user.ID, day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weekly)
}
