package models

import "github.com/google/uuid"

const (
	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 500
)

// TransactionFilters narrows transaction listings and aggregates.
// Dates are inclusive; a zero CategoryID or empty Type means "any".
type TransactionFilters struct {
	StartDate  *Date
	EndDate    *Date
	CategoryID uuid.UUID
	Type       string
	Offset     int
	Limit      int
}

// Normalize clamps paging to sane bounds.
func (f *TransactionFilters) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultTransactionLimit
	}
	if f.Limit > MaxTransactionLimit {
		f.Limit = MaxTransactionLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// HasInvertedRange is true when both bounds are set and start is after end.
func (f *TransactionFilters) HasInvertedRange() bool {
	return f.StartDate != nil && f.EndDate != nil && f.StartDate.After(f.EndDate.Time)
}
