package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance is the income/expense split over a set of transactions.
type Balance struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// MonthlyStat is one "YYYY-MM" bucket of the monthly series.
type MonthlyStat struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CategoryStat is a per-category total for one entry type.
type CategoryStat struct {
	CategoryID       uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Color            string          `json:"color"`
	Amount           decimal.Decimal `json:"amount"`
	TransactionCount int64           `json:"transactionCount"`
	Percentage       decimal.Decimal `json:"percentage"`
}
