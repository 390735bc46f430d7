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

// StatsHandler serves the balance and statistics endpoints
type StatsHandler struct {
	statsService services.StatsServiceInterface
}

func NewStatsHandler(statsService services.StatsServiceInterface) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetBalance returns income, expense and their difference
//
// Method: GET /api/balance?startDate=&endDate=
func (h *StatsHandler) GetBalance(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	filters, ok, err := h.bindFilters(c)
	if !ok {
		return err
	}

	balance, err := h.statsService.GetBalance(requestContext(c), userID, filters)
	if err != nil {
		return h.sendStatsError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Data: balance})
}

// GetMonthlyStats returns one row per YYYY-MM month in ascending order
//
// Method: GET /api/stats/monthly?startDate=&endDate=
func (h *StatsHandler) GetMonthlyStats(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	filters, ok, err := h.bindFilters(c)
	if !ok {
		return err
	}

	stats, err := h.statsService.GetMonthlyStats(requestContext(c), userID, filters)
	if err != nil {
		return h.sendStatsError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Data: stats})
}

// GetCategoryStats returns per-category totals, expenses unless type=income
//
// Method: GET /api/stats/categories?type=&startDate=&endDate=
func (h *StatsHandler) GetCategoryStats(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	filters, ok, err := h.bindFilters(c)
	if !ok {
		return err
	}

	stats, err := h.statsService.GetCategoryStats(requestContext(c), userID, filters)
	if err != nil {
		return h.sendStatsError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Data: stats})
}

// bindFilters parses the shared date window; when ok is false the response
// has already been written and err is what the handler should return
func (h *StatsHandler) bindFilters(c echo.Context) (models.TransactionFilters, bool, error) {
	var query dto.StatsQuery
	if err := c.Bind(&query); err != nil {
		return models.TransactionFilters{}, false, SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}
	if err := c.Validate(query); err != nil {
		return models.TransactionFilters{}, false, err
	}

	filters, err := query.TransactionQuery().ToFilters()
	if err != nil {
		return models.TransactionFilters{}, false, SendError(c, errors.ValidationInvalidDate, errors.WithDetails(err.Error()))
	}

	return filters, true, nil
}

func (h *StatsHandler) sendStatsError(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, services.ErrInvalidDateRange):
		return SendError(c, errors.ValidationInvalidDate, errors.WithDetails(err.Error()))
	case stderrors.Is(err, models.ErrInvalidEntryType):
		return SendError(c, errors.TransactionInvalidType)
	default:
		return SendSystemError(c, err)
	}
}
