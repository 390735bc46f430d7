package dto

import (
	"time"

	"fintrack/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionQuery binds the list and stats query parameters.
// Dates are kept as strings so a malformed value can be reported as such.
type TransactionQuery struct {
	StartDate  string `query:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate    string `query:"endDate" validate:"omitempty,datetime=2006-01-02"`
	CategoryID string `query:"categoryId" validate:"omitempty,uuid"`
	Type       string `query:"type" validate:"omitempty,entry_type"`
	Limit      int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset     int    `query:"offset" validate:"omitempty,min=0"`
}

// ToFilters converts the validated query into repository filters.
func (q *TransactionQuery) ToFilters() (models.TransactionFilters, error) {
	filters := models.TransactionFilters{
		Type:   q.Type,
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	if q.StartDate != "" {
		start, err := models.ParseDate(q.StartDate)
		if err != nil {
			return filters, err
		}
		filters.StartDate = &start
	}
	if q.EndDate != "" {
		end, err := models.ParseDate(q.EndDate)
		if err != nil {
			return filters, err
		}
		filters.EndDate = &end
	}
	if q.CategoryID != "" {
		id, err := uuid.Parse(q.CategoryID)
		if err != nil {
			return filters, err
		}
		filters.CategoryID = id
	}
	return filters, nil
}

// CreateTransactionRequest contains a new entry; type defaults to the category type.
type CreateTransactionRequest struct {
	CategoryID  string `json:"categoryId" validate:"required,uuid"`
	Type        string `json:"type" validate:"omitempty,entry_type"`
	Amount      Amount `json:"amount" validate:"required,money_amount"`
	Description string `json:"description" validate:"max=255"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
}

// UpdateTransactionRequest is a partial update; nil fields are left unchanged.
type UpdateTransactionRequest struct {
	CategoryID  *string `json:"categoryId" validate:"omitempty,uuid"`
	Type        *string `json:"type" validate:"omitempty,entry_type"`
	Amount      *Amount `json:"amount" validate:"omitempty,money_amount"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// TransactionResponse is a transaction joined with its category
type TransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	CategoryID    uuid.UUID       `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	CategoryColor string          `json:"categoryColor"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Date          models.Date     `json:"date"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func NewTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		CategoryID:    t.CategoryID,
		CategoryName:  t.Category.Name,
		CategoryColor: t.Category.Color,
		Type:          t.Type,
		Amount:        t.Amount,
		Description:   t.Description,
		Date:          t.Date,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func NewTransactionResponses(transactions []models.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		responses = append(responses, NewTransactionResponse(&transactions[i]))
	}
	return responses
}

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
