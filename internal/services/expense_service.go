package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/guthaVamshi/ExpenseTracker/internal/core"
)

// ExpenseStore is the narrow persistence surface the expense service needs.
// Implemented by storage.Repository.
type ExpenseStore interface {
	GetExpense(ctx context.Context, id int64) (*core.Expense, error)
	ListByOwner(ctx context.Context, userID int64) ([]core.Expense, error)
	ListByOwnerBetween(ctx context.Context, userID int64, start, end core.Date) ([]core.Expense, error)
	CreateExpense(ctx context.Context, e *core.Expense) error
	UpdateExpenseOwned(ctx context.Context, e *core.Expense, ownerID int64) error
	DeleteExpenseOwned(ctx context.Context, id, ownerID int64) error
}

// EventPublisher publishes export events for the sync worker. A nil
// publisher degrades to poll-only export.
type EventPublisher interface {
	PublishExport(ctx context.Context, id, version int64) error
	PublishDelete(ctx context.Context, id int64) error
}

// ExpenseService implements the ownership-scoped expense operations. The
// caller identity is always an explicit argument, resolved once at the API
// boundary.
type ExpenseService struct {
	store     ExpenseStore
	publisher EventPublisher
}

func NewExpenseService(store ExpenseStore, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
	}
}

// ListAll returns every expense owned by the caller.
func (s *ExpenseService) ListAll(ctx context.Context, caller core.User) ([]core.Expense, error) {
	slog.DebugContext(ctx, "Retrieving expenses", "username", caller.Username)
	expenses, err := s.store.ListByOwner(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// ListByMonth returns the caller's expenses whose date falls inside the
// given YYYY-MM calendar month, first and last day inclusive.
func (s *ExpenseService) ListByMonth(ctx context.Context, caller core.User, yearMonth string) ([]core.Expense, error) {
	start, end, err := core.ParseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Retrieving expenses for month",
		"username", caller.Username,
		"start", start.String(),
		"end", end.String())
	expenses, err := s.store.ListByOwnerBetween(ctx, caller.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses by month: %w", err)
	}
	return expenses, nil
}

// Create validates the draft, stamps the caller as owner, defaults the date
// to today when unset, and persists. Every violated field constraint is
// reported, not just the first.
func (s *ExpenseService) Create(ctx context.Context, caller core.User, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	e.ID = 0
	e.UserID = caller.ID
	if e.Date.IsZero() {
		e.Date = core.Today()
	}

	if err := s.store.CreateExpense(ctx, &e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishExport(ctx, e.ID, 1)
	return e, nil
}

// Update re-validates and persists under the transactional ownership guard.
// The stored owner is always forced back to the caller; a missing expense
// and a foreign-owned expense are indistinguishable to the caller.
func (s *ExpenseService) Update(ctx context.Context, caller core.User, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if e.Date.IsZero() {
		e.Date = core.Today()
	}

	err := s.store.UpdateExpenseOwned(ctx, &e, caller.ID)
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrNotOwned) {
		slog.WarnContext(ctx, "Rejected update of expense not owned by caller",
			"expense_id", e.ID,
			"username", caller.Username,
			"reason", err.Error())
		return core.Expense{}, core.ErrForbidden
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.publishExport(ctx, e.ID, 2)
	return e, nil
}

// Delete removes the expense under the same ownership guard as Update.
func (s *ExpenseService) Delete(ctx context.Context, caller core.User, id int64) error {
	err := s.store.DeleteExpenseOwned(ctx, id, caller.ID)
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrNotOwned) {
		slog.WarnContext(ctx, "Rejected delete of expense not owned by caller",
			"expense_id", id,
			"username", caller.Username,
			"reason", err.Error())
		return core.ErrForbidden
	}
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publishDelete(ctx, id)
	return nil
}

// GetByID fetches a single expense without any ownership check. Not routed;
// callers must re-check ownership before acting on the result.
func (s *ExpenseService) GetByID(ctx context.Context, id int64) (*core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

func (s *ExpenseService) publishExport(ctx context.Context, id, version int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExport(ctx, id, version); err != nil {
		// Export is best effort; the poller picks the row up later.
		slog.ErrorContext(ctx, "Failed to publish export message", "id", id, "error", err)
	}
}

func (s *ExpenseService) publishDelete(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
	}
}
