package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/services"
	"fintrack/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

func TestAuthHandler(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

type AuthHandlerSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	authService  *service_mocks.MockAuthServiceInterface
	tokenService *service_mocks.MockTokenServiceInterface
	handler      *AuthHandler
	e            *echo.Echo
}

func (s *AuthHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.authService = service_mocks.NewMockAuthServiceInterface(s.ctrl)
	s.tokenService = service_mocks.NewMockTokenServiceInterface(s.ctrl)
	s.handler = NewAuthHandler(s.authService, s.tokenService)
	s.e = newTestEcho()
}

func (s *AuthHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AuthHandlerSuite) TestRegister() {
	s.Run("successful registration", func() {
		s.SetupTest()

		user := &models.User{
			ID:        uuid.New(),
			Name:      "Jane Doe",
			Email:     "jane@example.com",
			Currency:  "TRY",
			CreatedAt: time.Now(),
		}

		s.authService.EXPECT().
			Register(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *dto.RegisterRequest) (*models.User, error) {
				s.Equal("jane@example.com", req.Email)
				s.Equal("Jane Doe", req.Name)
				return user, nil
			})

		c, rec := newJSONContext(s.e, http.MethodPost, "/users/register", map[string]string{
			"name":     "Jane Doe",
			"email":    "jane@example.com",
			"password": "Secret123",
		})

		s.NoError(s.handler.Register(c))
		s.Equal(http.StatusCreated, rec.Code)

		var response struct {
			Data dto.UserProfileResponse `json:"data"`
		}
		s.NoError(json.Unmarshal(rec.Body.Bytes(), &response))
		s.Equal(user.ID.String(), response.Data.ID)
		s.Equal("TRY", response.Data.Currency)
		s.NotContains(rec.Body.String(), "password")
	})

	s.Run("duplicate email", func() {
		s.SetupTest()

		s.authService.EXPECT().
			Register(gomock.Any(), gomock.Any()).
			Return(nil, services.ErrUserAlreadyExists)

		c, rec := newJSONContext(s.e, http.MethodPost, "/users/register", map[string]string{
			"name":     "Jane",
			"email":    "taken@example.com",
			"password": "Secret123",
		})

		s.NoError(s.handler.Register(c))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("USER_002", decodeError(rec).Error.Code)
	})

	s.Run("weak password", func() {
		s.SetupTest()

		s.authService.EXPECT().
			Register(gomock.Any(), gomock.Any()).
			Return(nil, &services.PasswordPolicyError{Err: services.ErrPasswordNoUppercase, Min: 8})

		c, rec := newJSONContext(s.e, http.MethodPost, "/users/register", map[string]string{
			"name":     "Jane",
			"email":    "jane@example.com",
			"password": "secret123",
		})

		s.NoError(s.handler.Register(c))
		s.Equal(http.StatusBadRequest, rec.Code)
		resp := decodeError(rec)
		s.Equal("USER_005", resp.Error.Code)
		s.Contains(resp.Error.Details, services.ErrPasswordNoUppercase.Error())
	})

	s.Run("invalid request body", func() {
		s.SetupTest()

		c, rec := newJSONContext(s.e, http.MethodPost, "/users/register", "invalid json")

		s.NoError(s.handler.Register(c))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("VALIDATION_001", decodeError(rec).Error.Code)
	})

	s.Run("missing required fields", func() {
		s.SetupTest()

		c, _ := newJSONContext(s.e, http.MethodPost, "/users/register", map[string]string{
			"email": "jane@example.com",
		})

		// validation errors are returned for the HTTP error handler to format
		s.Error(s.handler.Register(c))
	})
}

func (s *AuthHandlerSuite) TestLogin() {
	s.Run("successful login", func() {
		s.SetupTest()

		tokens := &dto.TokenResponse{
			AccessToken:  "access.token.here",
			RefreshToken: "refresh.token.here",
			TokenType:    "Bearer",
			ExpiresAt:    time.Now().Add(time.Hour),
		}

		s.authService.EXPECT().
			Login(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
				s.Equal("login@example.com", req.Email)
				return tokens, nil
			})

		c, rec := newJSONContext(s.e, http.MethodPost, "/users/login", map[string]string{
			"email":    "login@example.com",
			"password": "Secret123",
		})

		s.NoError(s.handler.Login(c))
		s.Equal(http.StatusOK, rec.Code)

		var response map[string]interface{}
		s.NoError(json.Unmarshal(rec.Body.Bytes(), &response))
		s.Equal("access.token.here", response["accessToken"])
		s.Equal("Bearer", response["tokenType"])
	})

	s.Run("invalid credentials", func() {
		s.SetupTest()

		s.authService.EXPECT().
			Login(gomock.Any(), gomock.Any()).
			Return(nil, services.ErrInvalidCredentials)

		c, rec := newJSONContext(s.e, http.MethodPost, "/users/login", map[string]string{
			"email":    "login@example.com",
			"password": "wrong",
		})

		s.NoError(s.handler.Login(c))
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("AUTH_001", decodeError(rec).Error.Code)
	})

	s.Run("account locked", func() {
		s.SetupTest()

		s.authService.EXPECT().
			Login(gomock.Any(), gomock.Any()).
			Return(nil, services.ErrAccountLocked)

		c, rec := newJSONContext(s.e, http.MethodPost, "/users/login", map[string]string{
			"email":    "locked@example.com",
			"password": "Secret123",
		})

		s.NoError(s.handler.Login(c))
		s.Equal(http.StatusForbidden, rec.Code)
		s.Equal("AUTH_006", decodeError(rec).Error.Code)
	})
}

func (s *AuthHandlerSuite) TestRefreshToken() {
	s.Run("successful refresh", func() {
		s.SetupTest()

		s.authService.EXPECT().
			RefreshTokens(gomock.Any(), "valid.refresh.token").
			Return(&dto.TokenResponse{AccessToken: "new.access", RefreshToken: "new.refresh", TokenType: "Bearer"}, nil)

		c, rec := newJSONContext(s.e, http.MethodPost, "/users/refresh", map[string]string{
			"refreshToken": "valid.refresh.token",
		})

		s.NoError(s.handler.RefreshToken(c))
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), "new.refresh")
	})

	s.Run("invalid refresh token", func() {
		s.SetupTest()

		s.authService.EXPECT().
			RefreshTokens(gomock.Any(), gomock.Any()).
			Return(nil, services.ErrInvalidRefreshToken)

		c, rec := newJSONContext(s.e, http.MethodPost, "/users/refresh", map[string]string{
			"refreshToken": "revoked",
		})

		s.NoError(s.handler.RefreshToken(c))
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("AUTH_004", decodeError(rec).Error.Code)
	})
}

func (s *AuthHandlerSuite) TestLogout() {
	s.Run("successful logout", func() {
		s.SetupTest()

		s.tokenService.EXPECT().ExtractTokenFromHeader("Bearer access.token").Return("access.token", nil)
		s.authService.EXPECT().Logout(gomock.Any(), "access.token").Return(nil)

		c, rec := newJSONContext(s.e, http.MethodPost, "/users/logout", nil)
		c.Request().Header.Set(echo.HeaderAuthorization, "Bearer access.token")

		s.NoError(s.handler.Logout(c))
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("missing header", func() {
		s.SetupTest()

		c, rec := newJSONContext(s.e, http.MethodPost, "/users/logout", nil)

		s.NoError(s.handler.Logout(c))
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("AUTH_002", decodeError(rec).Error.Code)
	})

	s.Run("malformed header", func() {
		s.SetupTest()

		s.tokenService.EXPECT().ExtractTokenFromHeader("Token abc").Return("", services.ErrInvalidAuthHeader)

		c, rec := newJSONContext(s.e, http.MethodPost, "/users/logout", nil)
		c.Request().Header.Set(echo.HeaderAuthorization, "Token abc")

		s.NoError(s.handler.Logout(c))
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("AUTH_004", decodeError(rec).Error.Code)
	})
}
