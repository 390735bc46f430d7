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

// CategoryHandler handles the /api/categories endpoints
type CategoryHandler struct {
	categoryService services.CategoryServiceInterface
}

func NewCategoryHandler(categoryService services.CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// ListCategories returns the user's categories ordered by name
//
// Method: GET /api/categories?type=income|expense
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var query dto.CategoryListQuery
	if err := c.Bind(&query); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}
	if err := c.Validate(query); err != nil {
		return err
	}

	categories, err := h.categoryService.List(requestContext(c), userID, query.Type)
	if err != nil {
		return h.sendCategoryError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Data: categories})
}

// GetCategory returns one category
//
// Method: GET /api/categories/:id
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return SendError(c, errors.CategoryInvalidID)
	}

	category, err := h.categoryService.Get(requestContext(c), userID, categoryID)
	if err != nil {
		return h.sendCategoryError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Data: category})
}

// CreateCategory adds a category; color defaults by type
//
// Method: POST /api/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	category, err := h.categoryService.Create(requestContext(c), userID, &req)
	if err != nil {
		return h.sendCategoryError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:    category,
		Message: "Category created successfully",
	})
}

// UpdateCategory applies a partial update
//
// Method: PUT /api/categories/:id
//
// Error Responses:
//   - 400: Validation error, or a type change while transactions of the old type exist (CATEGORY_003)
//   - 404: Category not found
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return SendError(c, errors.CategoryInvalidID)
	}

	var req dto.UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	category, err := h.categoryService.Update(requestContext(c), userID, categoryID, &req)
	if err != nil {
		return h.sendCategoryError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data:    category,
		Message: "Category updated successfully",
	})
}

// DeleteCategory removes an unused category
//
// Method: DELETE /api/categories/:id
//
// Success Response: 204 No Content
// Error Responses:
//   - 400: Category still referenced by transactions (CATEGORY_002)
//   - 404: Category not found
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return SendError(c, errors.CategoryInvalidID)
	}

	if err := h.categoryService.Delete(requestContext(c), userID, categoryID); err != nil {
		return h.sendCategoryError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// RestoreDefaults recreates the default categories the user is missing
//
// Method: POST /api/categories/defaults
func (h *CategoryHandler) RestoreDefaults(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	created, err := h.categoryService.RestoreDefaults(requestContext(c), userID)
	if err != nil {
		return h.sendCategoryError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data: created,
		Meta: map[string]int{"created": len(created)},
	})
}

func (h *CategoryHandler) sendCategoryError(c echo.Context, err error) error {
	var inUse *services.CategoryInUseError
	var typeLocked *services.CategoryTypeLockedError

	switch {
	case stderrors.Is(err, services.ErrCategoryNotFound):
		return SendError(c, errors.CategoryNotFound)
	case stderrors.As(err, &inUse):
		return SendError(c, errors.CategoryInUse, errors.WithMessage(inUse.Error()))
	case stderrors.As(err, &typeLocked):
		return SendError(c, errors.CategoryTypeLocked, errors.WithMessage(typeLocked.Error()))
	case stderrors.Is(err, models.ErrInvalidEntryType):
		return SendError(c, errors.CategoryInvalidType)
	case stderrors.Is(err, services.ErrNoCategoryChanges):
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("No fields to update"))
	case stderrors.Is(err, services.ErrCategoryNameRequired),
		stderrors.Is(err, models.ErrCategoryNameRequired),
		stderrors.Is(err, models.ErrCategoryNameTooLong),
		stderrors.Is(err, models.ErrInvalidColor):
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
	default:
		return SendSystemError(c, err)
	}
}
