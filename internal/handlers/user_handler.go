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

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// UserHandler serves the authenticated user's own profile
type UserHandler struct {
	userService services.UserServiceInterface
}

func NewUserHandler(userService services.UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the current user
//
// Method: GET /users/profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	user, err := h.userService.GetProfile(requestContext(c), userID)
	if err != nil {
		if stderrors.Is(err, services.ErrUserNotFound) {
			return SendError(c, errors.UserNotFound)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewUserProfileResponse(user)})
}

// UpdateProfile changes name, email or currency
//
// Method: PUT /users/profile
//
// Error Responses:
//   - 400: Validation error, nothing to update, invalid currency (USER_006) or email in use (USER_002)
//   - 404: User not found
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := h.userService.UpdateProfile(requestContext(c), userID, &req)
	if err != nil {
		switch {
		case stderrors.Is(err, services.ErrNoProfileChanges):
			return SendError(c, errors.ValidationGeneral, errors.WithDetails("No fields to update"))
		case stderrors.Is(err, services.ErrEmailAlreadyExists):
			return SendError(c, errors.UserEmailExists)
		case stderrors.Is(err, models.ErrInvalidCurrency):
			return SendError(c, errors.UserInvalidCurrency)
		case stderrors.Is(err, services.ErrUserNotFound):
			return SendError(c, errors.UserNotFound)
		default:
			return SendSystemError(c, err)
		}
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data:    dto.NewUserProfileResponse(user),
		Message: "Profile updated successfully",
	})
}

// ChangePassword replaces the password and signs out every other session
//
// Method: PUT /users/change-password
func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	if err := h.userService.ChangePassword(requestContext(c), userID, &req); err != nil {
		switch {
		case stderrors.Is(err, services.ErrCurrentPasswordWrong):
			return SendError(c, errors.UserWrongPassword)
		case stderrors.Is(err, services.ErrSamePassword):
			return SendError(c, errors.UserSamePassword)
		case asPasswordPolicyError(err) != nil:
			return SendError(c, errors.UserWeakPassword, errors.WithDetails(err.Error()))
		case stderrors.Is(err, services.ErrUserNotFound):
			return SendError(c, errors.UserNotFound)
		default:
			return SendSystemError(c, err)
		}
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "Password changed successfully"})
}

// GetActivity lists the user's audit trail, newest first
//
// Method: GET /users/activity?limit=&offset=
func (h *UserHandler) GetActivity(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	limit := getIntParam(c, "limit", defaultActivityLimit)
	if limit < 1 || limit > maxActivityLimit {
		limit = defaultActivityLimit
	}
	offset := getIntParam(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	logs, total, err := h.userService.GetActivity(requestContext(c), userID, offset, limit)
	if err != nil {
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data: logs,
		Meta: dto.PaginationInfo{Total: total, Limit: limit, Offset: offset},
	})
}
