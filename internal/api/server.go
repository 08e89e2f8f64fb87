// Package api serves the dashboard's JSON API: sign-in, owner-scoped CRUD
// over every table, derived views and the page dispatch table.
package api

import (
	"net/http"

	"go.uber.org/zap"

	"life-os/internal/database"
	"life-os/internal/services"
)

type Server struct {
	services *services.ServiceManager
	tables   map[string]resource
	pages    map[string]page
	logger   *zap.Logger
}

func NewServer(sm *services.ServiceManager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		services: sm,
		tables:   buildTables(sm),
		logger:   logger,
	}
	s.pages = s.buildPages()
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/me", s.handleMe)

	mux.HandleFunc("GET /api/upcoming", s.authed(s.handleUpcoming))
	mux.HandleFunc("GET /api/calendar", s.authed(s.handleCalendar))
	mux.HandleFunc("GET /api/habits/summary", s.authed(s.handleHabitSummary))
	mux.HandleFunc("POST /api/habits/{id}/toggle", s.authed(s.handleHabitToggle))
	mux.HandleFunc("GET /api/goals/progress", s.authed(s.handleGoalProgress))
	mux.HandleFunc("GET /api/finance/summary", s.authed(s.handleFinanceSummary))
	mux.HandleFunc("GET /api/health/score", s.authed(s.handleHealthScore))
	mux.HandleFunc("GET /api/overview", s.authed(s.handleOverview))
	mux.HandleFunc("GET /api/analytics/week", s.authed(s.handleWeekly))

	mux.HandleFunc("GET /api/{table}", s.authed(s.handleList))
	mux.HandleFunc("POST /api/{table}", s.authed(s.handleCreate))
	mux.HandleFunc("GET /api/{table}/{id}", s.authed(s.handleGet))
	mux.HandleFunc("PATCH /api/{table}/{id}", s.authed(s.handlePatch))
	mux.HandleFunc("DELETE /api/{table}/{id}", s.authed(s.handleDelete))
	mux.HandleFunc("POST /api/{table}/{id}/toggle", s.authed(s.handleToggle))

	mux.HandleFunc("GET /", s.handlePage)
	return s.logRequests(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeBody(w, r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.services.Auth.Signup(r.Context(), c.Email, c.Password, c.FullName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeBody(w, r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.services.Auth.Login(r.Context(), c.Email, c.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleMe reports the current identity, or a null user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.identify(r)
	if err != nil && !isUnauthenticated(err) {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*database.User{"user": user})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, user *database.User) {
	res, err := lookupTable(s.tables, r.PathValue("table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := res.list(r.Context(), user.ID, q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, user *database.User) {
	res, err := lookupTable(s.tables, r.PathValue("table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	row, err := res.get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, user *database.User) {
	res, err := lookupTable(s.tables, r.PathValue("table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	row, err := res.create(r.Context(), user.ID, body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request, user *database.User) {
	res, err := lookupTable(s.tables, r.PathValue("table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	row, err := res.patch(r.Context(), user.ID, r.PathValue("id"), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// handleDelete answers 204 whether or not the row existed.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, user *database.User) {
	res, err := lookupTable(s.tables, r.PathValue("table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	deleted, err := res.remove(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !deleted {
		s.logger.Debug("delete of missing row", zap.String("table", r.PathValue("table")), zap.String("id", r.PathValue("id")))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request, user *database.User) {
	res, err := lookupTable(s.tables, r.PathValue("table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	row, err := res.toggle(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}
