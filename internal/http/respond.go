package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/guthaVamshi/ExpenseTracker/internal/core"
	"github.com/guthaVamshi/ExpenseTracker/internal/log"
)

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to encode response",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
}

func (s *Server) writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// writeError maps domain errors onto HTTP responses. Anything unrecognized
// becomes a generic 500 with the detail kept server-side.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *core.ValidationError
	switch {
	case errors.As(err, &validation):
		s.writeJSON(w, r, http.StatusBadRequest, validation)

	case errors.Is(err, core.ErrInvalidYearMonth):
		s.writeJSON(w, r, http.StatusBadRequest, map[string]string{
			"error": "Invalid yearMonth format. Expected YYYY-MM",
		})

	case errors.Is(err, core.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", `Basic realm="ExpenseTracker"`)
		s.writeJSON(w, r, http.StatusUnauthorized, map[string]string{
			"error":   "Unauthorized",
			"message": "Authentication required",
		})

	case errors.Is(err, core.ErrForbidden):
		s.writeJSON(w, r, http.StatusForbidden, map[string]string{
			"error": core.ErrForbidden.Error(),
		})

	case errors.Is(err, core.ErrConflict):
		s.writeJSON(w, r, http.StatusConflict, map[string]string{
			"error": "Username already exists",
		})

	default:
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		s.writeJSON(w, r, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
	}
}
