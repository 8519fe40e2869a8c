// Package memory provides an in-process export sink for tests and local
// runs without Google credentials.
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/guthaVamshi/ExpenseTracker/internal/export"
)

type Sink struct {
	mu   sync.Mutex
	rows []export.Row
}

var _ export.Appender = (*Sink)(nil)

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Append(_ context.Context, row export.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return "row-" + strconv.Itoa(len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Sink) Rows() []export.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]export.Row, len(s.rows))
	copy(out, s.rows)
	return out
}
