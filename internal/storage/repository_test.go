package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/guthaVamshi/ExpenseTracker/internal/core"
)

type RepositorySuite struct {
	suite.Suite
	repo *Repository
	ctx  context.Context
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	// Migrations open their own connection, so the database must live on
	// disk rather than in :memory:.
	dbPath := filepath.Join(s.T().TempDir(), "test.db")
	repo, err := NewRepository(dbPath)
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RepositorySuite) TearDownTest() {
	s.Require().NoError(s.repo.Close())
}

func (s *RepositorySuite) mustCreateUser(username string) *core.User {
	u := &core.User{Username: username, Password: "hash", Role: core.DefaultRole}
	s.Require().NoError(s.repo.CreateUser(s.ctx, u))
	return u
}

func (s *RepositorySuite) mustCreateExpense(userID int64, name, date string) *core.Expense {
	var d core.Date
	s.Require().NoError(d.UnmarshalJSON([]byte(`"` + date + `"`)))
	e := &core.Expense{
		Name:   name,
		Type:   "Food",
		Amount: "12.50",
		Date:   d,
		UserID: userID,
	}
	s.Require().NoError(s.repo.CreateExpense(s.ctx, e))
	return e
}

func (s *RepositorySuite) TestCreateAndGetUser() {
	created := s.mustCreateUser("alice")
	s.NotZero(created.ID)

	byName, err := s.repo.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(created.ID, byName.ID)
	s.Equal("USER", byName.Role)

	byID, err := s.repo.GetUserByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)
}

func (s *RepositorySuite) TestGetUserNotFound() {
	_, err := s.repo.GetUserByUsername(s.ctx, "ghost")
	s.ErrorIs(err, core.ErrNotFound)

	_, err = s.repo.GetUserByID(s.ctx, 9999)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *RepositorySuite) TestDuplicateUsernameIsConflict() {
	s.mustCreateUser("alice")
	err := s.repo.CreateUser(s.ctx, &core.User{Username: "alice", Password: "other", Role: "USER"})
	s.ErrorIs(err, core.ErrConflict)
}

func (s *RepositorySuite) TestCreateAndGetExpense() {
	u := s.mustCreateUser("alice")
	created := s.mustCreateExpense(u.ID, "Lunch", "2024-03-15")
	s.NotZero(created.ID)

	got, err := s.repo.GetExpense(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Lunch", got.Name)
	s.Equal("2024-03-15", got.Date.String())
	s.Equal(u.ID, got.UserID)
	s.Empty(got.PaymentMethod)
}

func (s *RepositorySuite) TestListByOwnerIsScoped() {
	alice := s.mustCreateUser("alice")
	bob := s.mustCreateUser("bob")
	s.mustCreateExpense(alice.ID, "Lunch", "2024-03-15")
	s.mustCreateExpense(alice.ID, "Coffee", "2024-03-16")
	s.mustCreateExpense(bob.ID, "Cinema", "2024-03-15")

	expenses, err := s.repo.ListByOwner(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Len(expenses, 2)
	for _, e := range expenses {
		s.Equal(alice.ID, e.UserID)
	}
	// Newest first
	s.Equal("Coffee", expenses[0].Name)
}

func (s *RepositorySuite) TestListByOwnerBetweenBoundaries() {
	u := s.mustCreateUser("alice")
	s.mustCreateExpense(u.ID, "last of feb", "2024-02-29")
	first := s.mustCreateExpense(u.ID, "first of march", "2024-03-01")
	last := s.mustCreateExpense(u.ID, "last of march", "2024-03-31")
	s.mustCreateExpense(u.ID, "first of april", "2024-04-01")

	start, end, err := core.ParseYearMonth("2024-03")
	s.Require().NoError(err)

	expenses, err := s.repo.ListByOwnerBetween(s.ctx, u.ID, start, end)
	s.Require().NoError(err)
	s.Require().Len(expenses, 2)

	ids := []int64{expenses[0].ID, expenses[1].ID}
	s.Contains(ids, first.ID)
	s.Contains(ids, last.ID)
}

func (s *RepositorySuite) TestUpdateExpenseOwned() {
	u := s.mustCreateUser("alice")
	e := s.mustCreateExpense(u.ID, "Lunch", "2024-03-15")

	e.Name = "Dinner"
	e.Amount = "30.00"
	// Payload trying to reassign ownership is overridden.
	e.UserID = 4242
	s.Require().NoError(s.repo.UpdateExpenseOwned(s.ctx, e, u.ID))

	got, err := s.repo.GetExpense(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal("Dinner", got.Name)
	s.Equal("30.00", got.Amount)
	s.Equal(u.ID, got.UserID)
}

func (s *RepositorySuite) TestUpdateExpenseOwnedGuards() {
	alice := s.mustCreateUser("alice")
	bob := s.mustCreateUser("bob")
	e := s.mustCreateExpense(alice.ID, "Lunch", "2024-03-15")

	err := s.repo.UpdateExpenseOwned(s.ctx, e, bob.ID)
	s.ErrorIs(err, core.ErrNotOwned)

	missing := &core.Expense{ID: 9999, Name: "x", Type: "y", Amount: "1", Date: e.Date}
	err = s.repo.UpdateExpenseOwned(s.ctx, missing, alice.ID)
	s.ErrorIs(err, core.ErrNotFound)

	// Original row untouched
	got, err := s.repo.GetExpense(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal("Lunch", got.Name)
}

func (s *RepositorySuite) TestDeleteExpenseOwned() {
	alice := s.mustCreateUser("alice")
	bob := s.mustCreateUser("bob")
	e := s.mustCreateExpense(alice.ID, "Lunch", "2024-03-15")

	s.ErrorIs(s.repo.DeleteExpenseOwned(s.ctx, e.ID, bob.ID), core.ErrNotOwned)
	s.ErrorIs(s.repo.DeleteExpenseOwned(s.ctx, 9999, alice.ID), core.ErrNotFound)

	s.Require().NoError(s.repo.DeleteExpenseOwned(s.ctx, e.ID, alice.ID))
	_, err := s.repo.GetExpense(s.ctx, e.ID)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *RepositorySuite) TestExportLifecycle() {
	u := s.mustCreateUser("alice")
	e1 := s.mustCreateExpense(u.ID, "Lunch", "2024-03-15")
	e2 := s.mustCreateExpense(u.ID, "Coffee", "2024-03-16")

	pending, err := s.repo.ListPendingExport(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(pending, 2)

	s.Require().NoError(s.repo.MarkExported(s.ctx, e1.ID))

	pending, err = s.repo.ListPendingExport(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(e2.ID, pending[0].ID)

	s.Require().NoError(s.repo.MarkExportError(s.ctx, e2.ID))

	pending, err = s.repo.ListPendingExport(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *RepositorySuite) TestUpdateResetsExportStatus() {
	u := s.mustCreateUser("alice")
	e := s.mustCreateExpense(u.ID, "Lunch", "2024-03-15")
	s.Require().NoError(s.repo.MarkExported(s.ctx, e.ID))

	s.Require().NoError(s.repo.UpdateExpenseOwned(s.ctx, e, u.ID))

	pending, err := s.repo.ListPendingExport(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(e.ID, pending[0].ID)
}

func TestNewRepositoryCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	repo, err := NewRepository(dbPath)
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}
