package handlers

import (
	stderrors "errors"
	"net/http"

	"fintrack/internal/dto"
	"fintrack/internal/errors"
	"fintrack/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService  services.AuthServiceInterface
	tokenService services.TokenServiceInterface
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService services.AuthServiceInterface, tokenService services.TokenServiceInterface) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenService: tokenService,
	}
}

// Register handles user registration
//
// Method: POST /users/register
//
// Success Response: 201 Created with the new profile
// Error Responses:
//   - 400: Validation error, weak password (USER_005) or email in use (USER_002)
//   - 500: Internal server error
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := h.authService.Register(requestContext(c), &req)
	if err != nil {
		if stderrors.Is(err, services.ErrUserAlreadyExists) {
			return SendError(c, errors.UserEmailExists)
		}
		if policyErr := asPasswordPolicyError(err); policyErr != nil {
			return SendError(c, errors.UserWeakPassword, errors.WithDetails(policyErr.Error()))
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:    dto.NewUserProfileResponse(user),
		Message: "User registered successfully",
	})
}

// Login handles user authentication
//
// Method: POST /users/login
//
// Success Response: 200 OK with access token, refresh token and profile
// Error Responses:
//   - 400: Validation error
//   - 401: Invalid credentials (AUTH_001)
//   - 403: Account locked (AUTH_006)
//   - 500: Internal server error
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	tokens, err := h.authService.Login(requestContext(c), &req)
	if err != nil {
		if stderrors.Is(err, services.ErrAccountLocked) {
			return SendError(c, errors.AuthAccountLocked)
		}
		if stderrors.Is(err, services.ErrInvalidCredentials) {
			return SendError(c, errors.AuthInvalidCredentials)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, tokens)
}

// RefreshToken exchanges a refresh token for a new token pair; the old refresh token is revoked
//
// Method: POST /users/refresh
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req dto.RefreshTokenRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	tokens, err := h.authService.RefreshTokens(requestContext(c), req.RefreshToken)
	if err != nil {
		if stderrors.Is(err, services.ErrInvalidRefreshToken) {
			return SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Invalid or expired refresh token"))
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, tokens)
}

// Logout blacklists the presented access token and revokes the user's refresh tokens
//
// Method: POST /users/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return SendError(c, errors.AuthMissingToken)
	}

	accessToken, err := h.tokenService.ExtractTokenFromHeader(authHeader)
	if err != nil {
		return SendError(c, errors.AuthInvalidTokenFormat)
	}

	if err := h.authService.Logout(requestContext(c), accessToken); err != nil {
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Message: "Logout successful",
	})
}

func asPasswordPolicyError(err error) *services.PasswordPolicyError {
	var policyErr *services.PasswordPolicyError
	if stderrors.As(err, &policyErr) {
		return policyErr
	}
	return nil
}
