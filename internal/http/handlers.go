package http

import (
	"net/http"
	"time"
)

type statusPayload struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, statusPayload{
		Status:    "UP",
		Service:   "Expense Tracker API",
		Message:   "Service is running successfully",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, statusPayload{
		Status:    "UP",
		Service:   "Expense Tracker API",
		Message:   "Health check passed",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleTestAuth(w http.ResponseWriter, r *http.Request) {
	s.writeText(w, http.StatusOK, "Authentication successful")
}

// handleAPIDocs returns a static endpoint map so the API is explorable
// without external documentation.
func (s *Server) handleAPIDocs(w http.ResponseWriter, r *http.Request) {
	docs := map[string]any{
		"service":        "Expense Tracker API",
		"authentication": "HTTP Basic (stateless, credentials on every request)",
		"endpoints": []map[string]string{
			{"method": "GET", "path": "/", "description": "Service status", "auth": "none"},
			{"method": "GET", "path": "/health", "description": "Health check with uptime", "auth": "none"},
			{"method": "GET", "path": "/api-docs", "description": "This document", "auth": "none"},
			{"method": "POST", "path": "/register", "description": "Register a new user", "auth": "none"},
			{"method": "GET", "path": "/test-auth", "description": "Verify credentials", "auth": "basic"},
			{"method": "GET", "path": "/all", "description": "List the caller's expenses", "auth": "basic"},
			{"method": "GET", "path": "/by-month/{yearMonth}", "description": "List the caller's expenses for a YYYY-MM month", "auth": "basic"},
			{"method": "POST", "path": "/add", "description": "Create an expense", "auth": "basic"},
			{"method": "PUT", "path": "/updateExpense", "description": "Update an owned expense", "auth": "basic"},
			{"method": "DELETE", "path": "/delete/{id}", "description": "Delete an owned expense", "auth": "basic"},
		},
	}
	s.writeJSON(w, r, http.StatusOK, docs)
}
