package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guthaVamshi/ExpenseTracker/internal/core"

	_ "modernc.org/sqlite"
)

// Export status values carried on each expense row.
const (
	ExportPending = "pending"
	ExportSynced  = "synced"
	ExportError   = "error"
)

// Repository is the SQLite-backed store for users and expenses.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// isUniqueViolation detects SQLite unique-constraint failures. The modernc
// driver does not export a typed error for this, so we match the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser inserts a credential record and fills in the generated ID.
// A duplicate username surfaces as core.ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, u *core.User) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password, role) VALUES (?, ?, ?)",
		u.Username, u.Password, u.Role,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user insert id: %w", err)
	}
	u.ID = id

	slog.InfoContext(ctx, "User saved", "id", u.ID, "username", u.Username, "role", u.Role)
	return nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, username, password, role FROM users WHERE username = ?", username)

	var u core.User
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, username, password, role FROM users WHERE id = ?", id)

	var u core.User
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// CreateExpense inserts an expense row (export status pending) and fills in
// the generated ID.
func (r *Repository) CreateExpense(ctx context.Context, e *core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (expense, expense_type, expense_amount, payment_method, date, user_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Name, e.Type, e.Amount, nullable(e.PaymentMethod), e.Date.String(), e.UserID,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("expense insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"expense", e.Name,
		"user_id", e.UserID,
		"date", e.Date.String())
	return nil
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, expense, expense_type, expense_amount, payment_method, date, user_id
		 FROM expenses WHERE id = ?`, id)
	return scanExpense(row)
}

// ListByOwner returns every expense owned by the given user, newest first.
func (r *Repository) ListByOwner(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, expense, expense_type, expense_amount, payment_method, date, user_id
		 FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses by owner: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

// ListByOwnerBetween returns the owner's expenses with date in [start, end]
// inclusive.
func (r *Repository) ListByOwnerBetween(ctx context.Context, userID int64, start, end core.Date) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, expense, expense_type, expense_amount, payment_method, date, user_id
		 FROM expenses WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date DESC, id DESC`,
		userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses by date range: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

// UpdateExpenseOwned updates the expense only if it is owned by ownerID.
// The ownership check and the write run in one transaction so a concurrent
// delete cannot slip between them. The owner column is always written from
// ownerID, never from the payload. The row is marked pending export again.
func (r *Repository) UpdateExpenseOwned(ctx context.Context, e *core.Expense, ownerID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tx: %w", err)
	}
	defer tx.Rollback()

	if err := checkOwner(ctx, tx, e.ID, ownerID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE expenses
		 SET expense = ?, expense_type = ?, expense_amount = ?, payment_method = ?, date = ?,
		     user_id = ?, export_status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		e.Name, e.Type, e.Amount, nullable(e.PaymentMethod), e.Date.String(),
		ownerID, ExportPending, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update tx: %w", err)
	}

	e.UserID = ownerID
	slog.InfoContext(ctx, "Expense updated", "id", e.ID, "user_id", ownerID)
	return nil
}

// DeleteExpenseOwned removes the expense only if it is owned by ownerID,
// under the same transactional guard as UpdateExpenseOwned.
func (r *Repository) DeleteExpenseOwned(ctx context.Context, id, ownerID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	if err := checkOwner(ctx, tx, id, ownerID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tx: %w", err)
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id, "user_id", ownerID)
	return nil
}

// checkOwner fails closed: an absent row is core.ErrNotFound, a row owned by
// someone else is core.ErrNotOwned.
func checkOwner(ctx context.Context, tx *sql.Tx, id, ownerID int64) error {
	var storedOwner int64
	err := tx.QueryRowContext(ctx, "SELECT user_id FROM expenses WHERE id = ?", id).Scan(&storedOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check expense owner: %w", err)
	}
	if storedOwner != ownerID {
		return core.ErrNotOwned
	}
	return nil
}

// PendingExport is the minimal row state the export worker needs.
type PendingExport struct {
	ID        int64
	Attempts  int64
	CreatedAt time.Time
}

// ListPendingExport returns expenses waiting to be exported, oldest first.
func (r *Repository) ListPendingExport(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, export_attempts, created_at FROM expenses
		 WHERE export_status = ? ORDER BY created_at ASC LIMIT ?`,
		ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()

	var pending []PendingExport
	for rows.Next() {
		var p PendingExport
		if err := rows.Scan(&p.ID, &p.Attempts, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkExported marks an expense as successfully exported.
func (r *Repository) MarkExported(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET export_status = ?, exported_at = CURRENT_TIMESTAMP WHERE id = ?`,
		ExportSynced, id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as exported", "id", id)
	return nil
}

// MarkExportError records a failed export attempt.
func (r *Repository) MarkExportError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET export_status = ?, export_attempts = export_attempts + 1 WHERE id = ?`,
		ExportError, id)
	if err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with export error", "id", id)
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*core.Expense, error) {
	var (
		e             core.Expense
		paymentMethod sql.NullString
		date          string
	)
	err := row.Scan(&e.ID, &e.Name, &e.Type, &e.Amount, &paymentMethod, &date, &e.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan expense: %w", err)
	}
	e.PaymentMethod = paymentMethod.String
	if t, perr := time.Parse("2006-01-02", date); perr == nil {
		e.Date = core.Date{Time: t}
	}
	return &e, nil
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}
