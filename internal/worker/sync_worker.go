package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/guthaVamshi/ExpenseTracker/internal/amqp"
	"github.com/guthaVamshi/ExpenseTracker/internal/core"
	"github.com/guthaVamshi/ExpenseTracker/internal/export"
	"github.com/guthaVamshi/ExpenseTracker/internal/storage"
)

// SyncWorker mirrors expense rows from SQLite to the export spreadsheet.
// It is driven by AMQP messages, with a periodic poll of pending rows as a
// backup for lost messages.
type SyncWorker struct {
	repo      *storage.Repository
	appender  export.Appender
	batchSize int
}

func NewSyncWorker(repo *storage.Repository, appender export.Appender, batchSize int) *SyncWorker {
	return &SyncWorker{
		repo:      repo,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleMessage processes a single expense message from AMQP.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.ExpenseMessage) error {
	switch msg.Kind {
	case amqp.KindExport:
		return w.exportExpense(ctx, msg.ID)
	case amqp.KindDelete:
		// The spreadsheet is an append-only journal; deletions stay local.
		slog.InfoContext(ctx, "Expense deleted locally, spreadsheet row kept", "id", msg.ID)
		return nil
	default:
		slog.WarnContext(ctx, "Dropping message with unknown kind", "kind", msg.Kind, "id", msg.ID)
		return nil
	}
}

// ProcessPending exports any rows that are still waiting. This is the
// backup mechanism in case AMQP messages were lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.repo.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending export: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending export rows", "count", len(pending))

	for _, p := range pending {
		if err := w.exportExpense(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense", "id", p.ID, "error", err)
		}
	}

	return nil
}

// StartupCheck exports rows missed while the worker was down. It uses a
// larger batch than the periodic poll.
func (w *SyncWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.repo.ListPendingExport(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending export for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending export rows found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending export rows on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, p := range pending {
		if err := w.exportExpense(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup export check completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) exportExpense(ctx context.Context, id int64) error {
	expense, err := w.repo.GetExpense(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between message and processing; nothing to export.
		slog.InfoContext(ctx, "Expense vanished before export, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}

	username := ""
	if owner, err := w.repo.GetUserByID(ctx, expense.UserID); err == nil {
		username = owner.Username
	} else {
		slog.WarnContext(ctx, "Could not resolve expense owner for export", "id", id, "error", err)
	}

	row := export.Row{
		ExpenseID:     expense.ID,
		Username:      username,
		Date:          expense.Date,
		Name:          expense.Name,
		Type:          expense.Type,
		Amount:        expense.Amount,
		PaymentMethod: expense.PaymentMethod,
	}

	ref, err := w.appender.Append(ctx, row)
	if err != nil {
		if markErr := w.repo.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append export row: %w", err)
	}

	if err := w.repo.MarkExported(ctx, id); err != nil {
		// Don't fail here, the export itself worked.
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Expense exported",
		"id", id,
		"export_ref", ref,
		"username", username)

	return nil
}
