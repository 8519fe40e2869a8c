package core

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel errors forming the application error taxonomy. The HTTP layer
// maps these onto status codes; everything else surfaces as a generic 500.
var (
	ErrUnauthorized     = errors.New("authentication required")
	ErrForbidden        = errors.New("you can only modify your own expenses")
	ErrConflict         = errors.New("username already exists")
	ErrNotFound         = errors.New("record not found")
	ErrNotOwned         = errors.New("expense owned by another user")
	ErrInvalidYearMonth = errors.New("invalid year-month, expected YYYY-MM")
)

// ValidationError carries every violated field constraint, keyed by the
// wire field name. It satisfies error so services can return it directly.
type ValidationError struct {
	Fields map[string]string `json:"errors"`
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (v *ValidationError) Add(field, message string) {
	v.Fields[field] = message
}

func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
