package http

import (
	"encoding/json"
	"net/http"

	"github.com/guthaVamshi/ExpenseTracker/internal/core"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var candidate core.User
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
		return
	}

	registered, err := s.users.Register(r.Context(), candidate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, registered)
}
