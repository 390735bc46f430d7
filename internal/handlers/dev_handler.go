package handlers

import (
	stderrors "errors"
	"net/http"

	"fintrack/internal/dto"
	"fintrack/internal/errors"
	"fintrack/internal/services"

	"github.com/labstack/echo/v4"
)

// DevHandler handles development-only endpoints
// These endpoints should only be available in development environments
type DevHandler struct {
	demoDataService services.DemoDataServiceInterface
}

// NewDevHandler creates a new development handler
func NewDevHandler(demoDataService services.DemoDataServiceInterface) *DevHandler {
	return &DevHandler{demoDataService: demoDataService}
}

// GenerateDemoData fills the caller's account with realistic transactions
//
// Method: POST /api/dev/demo-data
// Authentication: Required
// Environment: Development only
//
// Query parameters:
//   - count: Number of transactions to generate (default: 50, max: 1000)
//   - days: Number of days of history to generate (default: 90, max: 730)
//
// Success Response: 201 Created
//   - created: Number of transactions created
//   - days: Window the dates were drawn from
func (h *DevHandler) GenerateDemoData(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	// Bind skips query parameters on POST
	var query dto.DemoDataQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}
	if err := c.Validate(query); err != nil {
		return err
	}

	count := query.Count
	if count == 0 {
		count = services.DefaultDemoCount
	}
	days := query.Days
	if days == 0 {
		days = services.DefaultDemoDays
	}

	transactions, err := h.demoDataService.GenerateTransactions(requestContext(c), userID, count, days)
	if err != nil {
		if stderrors.Is(err, services.ErrInvalidUserID) {
			return SendError(c, errors.AuthMissingToken)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:    dto.DemoDataResponse{Created: len(transactions), Days: days},
		Message: "Demo data generated successfully",
	})
}
