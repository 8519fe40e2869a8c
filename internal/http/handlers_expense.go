package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/guthaVamshi/ExpenseTracker/internal/core"
)

func (s *Server) handleListAll(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.ListAll(r.Context(), caller(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	s.writeJSON(w, r, http.StatusOK, expenses)
}

func (s *Server) handleListByMonth(w http.ResponseWriter, r *http.Request) {
	yearMonth := r.PathValue("yearMonth")

	expenses, err := s.expenses.ListByMonth(r.Context(), caller(r), yearMonth)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	s.writeJSON(w, r, http.StatusOK, expenses)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var draft core.Expense
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
		return
	}

	created, err := s.expenses.Create(r.Context(), caller(r), draft)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var draft core.Expense
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
		return
	}

	updated, err := s.expenses.Update(r.Context(), caller(r), draft)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, map[string]string{
			"error": "Invalid expense id",
		})
		return
	}

	if err := s.expenses.Delete(r.Context(), caller(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeText(w, http.StatusOK, fmt.Sprintf("Expense with ID %d deleted successfully", id))
}
