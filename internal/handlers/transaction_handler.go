package handlers

import (
	stderrors "errors"
	"net/http"

	"fintrack/internal/dto"
	"fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/services"

	"github.com/labstack/echo/v4"
)

// TransactionHandler handles the /api/transactions endpoints
type TransactionHandler struct {
	transactionService services.TransactionServiceInterface
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService services.TransactionServiceInterface) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// ListTransactions returns the user's transactions, newest first
//
// Method: GET /api/transactions
//
// Query parameters:
//   - startDate, endDate: inclusive YYYY-MM-DD bounds
//   - categoryId: only this category
//   - type: income or expense
//   - limit: page size (default: 50, max: 500)
//   - offset: rows to skip
//
// Success Response: 200 OK with meta.total, meta.limit and meta.offset
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var query dto.TransactionQuery
	if err := c.Bind(&query); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}
	if err := c.Validate(query); err != nil {
		return err
	}

	filters, err := query.ToFilters()
	if err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
	}
	filters.Normalize()

	transactions, total, err := h.transactionService.List(requestContext(c), userID, filters)
	if err != nil {
		return h.sendTransactionError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data: dto.NewTransactionResponses(transactions),
		Meta: dto.PaginationInfo{
			Total:  total,
			Limit:  filters.Limit,
			Offset: filters.Offset,
		},
	})
}

// GetTransaction returns one transaction joined with its category
//
// Method: GET /api/transactions/:id
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactionID, ok := parseIDParam(c, "id")
	if !ok {
		return SendError(c, errors.TransactionInvalidID)
	}

	transaction, err := h.transactionService.Get(requestContext(c), userID, transactionID)
	if err != nil {
		return h.sendTransactionError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewTransactionResponse(transaction)})
}

// CreateTransaction records an income or expense entry
//
// Method: POST /api/transactions
//
// Success Response: 201 Created
// Error Responses:
//   - 400: Validation error or type differs from the category type (TRANSACTION_003)
//   - 404: Category not found for this user
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	transaction, err := h.transactionService.Create(requestContext(c), userID, &req)
	if err != nil {
		return h.sendTransactionError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:    dto.NewTransactionResponse(transaction),
		Message: "Transaction created successfully",
	})
}

// UpdateTransaction applies a partial update
//
// Method: PUT /api/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactionID, ok := parseIDParam(c, "id")
	if !ok {
		return SendError(c, errors.TransactionInvalidID)
	}

	var req dto.UpdateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	transaction, err := h.transactionService.Update(requestContext(c), userID, transactionID, &req)
	if err != nil {
		return h.sendTransactionError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data:    dto.NewTransactionResponse(transaction),
		Message: "Transaction updated successfully",
	})
}

// DeleteTransaction removes a transaction
//
// Method: DELETE /api/transactions/:id
//
// Success Response: 204 No Content
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactionID, ok := parseIDParam(c, "id")
	if !ok {
		return SendError(c, errors.TransactionInvalidID)
	}

	if err := h.transactionService.Delete(requestContext(c), userID, transactionID); err != nil {
		return h.sendTransactionError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *TransactionHandler) sendTransactionError(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, services.ErrTransactionNotFound):
		return SendError(c, errors.TransactionNotFound)
	case stderrors.Is(err, services.ErrCategoryNotFound):
		return SendError(c, errors.CategoryNotFound)
	case stderrors.Is(err, services.ErrCategoryTypeMismatch):
		return SendError(c, errors.TransactionTypeMismatch)
	case stderrors.Is(err, services.ErrInvalidAmount),
		stderrors.Is(err, models.ErrInvalidAmount),
		stderrors.Is(err, models.ErrAmountPrecision),
		stderrors.Is(err, models.ErrAmountTooLarge):
		return SendError(c, errors.TransactionInvalidAmount)
	case stderrors.Is(err, services.ErrInvalidDate),
		stderrors.Is(err, services.ErrInvalidDateRange):
		return SendError(c, errors.ValidationInvalidDate, errors.WithDetails(err.Error()))
	case stderrors.Is(err, services.ErrInvalidCategoryID):
		return SendError(c, errors.CategoryInvalidID)
	case stderrors.Is(err, models.ErrInvalidEntryType):
		return SendError(c, errors.TransactionInvalidType)
	case stderrors.Is(err, services.ErrNoTransactionChanges):
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("No fields to update"))
	case stderrors.Is(err, models.ErrDescriptionTooLong):
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
	default:
		return SendSystemError(c, err)
	}
}
