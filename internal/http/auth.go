package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/guthaVamshi/ExpenseTracker/internal/core"
	"github.com/guthaVamshi/ExpenseTracker/internal/log"
)

type callerKey struct{}

// requireAuth resolves the caller from HTTP basic credentials and binds the
// authenticated user to the request context. Authentication is stateless;
// every request carries credentials.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			s.writeError(w, r, core.ErrUnauthorized)
			return
		}

		user, err := s.users.Authenticate(r.Context(), username, password)
		if err != nil {
			if !errors.Is(err, core.ErrUnauthorized) {
				s.logger.ErrorContext(r.Context(), "Authentication lookup failed",
					log.FieldUsername, username,
					log.FieldError, err)
			} else {
				s.logger.WarnContext(r.Context(), "Authentication failed",
					log.FieldUsername, username)
			}
			s.writeError(w, r, core.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), callerKey{}, user)
		next(w, r.WithContext(ctx))
	}
}

// caller returns the authenticated user bound by requireAuth.
func caller(r *http.Request) core.User {
	u, _ := r.Context().Value(callerKey{}).(core.User)
	return u
}
