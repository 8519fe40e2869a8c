// Package export defines the outbound port for mirroring expense rows to an
// external spreadsheet.
package export

import (
	"context"

	"github.com/guthaVamshi/ExpenseTracker/internal/core"
)

// Row is one exported expense line. Username is denormalized so the
// spreadsheet is readable without the database at hand.
type Row struct {
	ExpenseID     int64
	Username      string
	Date          core.Date
	Name          string
	Type          string
	Amount        string
	PaymentMethod string
}

// Appender writes rows to the export destination.
type Appender interface {
	Append(ctx context.Context, row Row) (ref string, err error)
}
