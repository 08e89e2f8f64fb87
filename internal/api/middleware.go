package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"life-os/internal/database"
	"life-os/internal/services"
)

type requestInfoKey struct{}

// requestInfo is filled in by handlers for the access log.
type requestInfo struct {
	user string
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &requestInfo{}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("user", info.user),
		)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// identify resolves the caller. No token means no identity, not an error;
// a bad token is ErrUnauthenticated.
func (s *Server) identify(r *http.Request) (*database.User, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, nil
	}
	user, err := s.services.Auth.Authenticate(r.Context(), token)
	if err != nil {
		return nil, err
	}
	if info, ok := r.Context().Value(requestInfoKey{}).(*requestInfo); ok {
		info.user = user.ID
	}
	return user, nil
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user *database.User)

// authed rejects calls without a valid identity before any data is read.
func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.identify(r)
		if err == nil && user == nil {
			err = services.ErrUnauthenticated
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		h(w, r, user)
	}
}
