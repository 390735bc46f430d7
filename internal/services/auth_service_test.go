package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/dto"
	"fintrack/internal/logging"
	"fintrack/internal/models"
	"fintrack/internal/repositories"
	"fintrack/internal/repositories/repository_mocks"
	"fintrack/internal/services/service_mocks"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type AuthServiceTestSuite struct {
	suite.Suite
	ctrl                 *gomock.Controller
	ctx                  context.Context
	userRepo             *repository_mocks.MockUserRepositoryInterface
	refreshTokenRepo     *repository_mocks.MockRefreshTokenRepositoryInterface
	blacklistedTokenRepo *repository_mocks.MockBlacklistedTokenRepositoryInterface
	categoryService      *service_mocks.MockCategoryServiceInterface
	passwordService      *service_mocks.MockPasswordServiceInterface
	tokenService         *service_mocks.MockTokenServiceInterface
	auditService         *service_mocks.MockAuditServiceInterface
	metrics              *service_mocks.MockMetricsRecorderInterface
	authService          AuthServiceInterface
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ctx = WithRequestMeta(context.Background(), "192.168.1.1", "Mozilla/5.0")
	s.userRepo = repository_mocks.NewMockUserRepositoryInterface(s.ctrl)
	s.refreshTokenRepo = repository_mocks.NewMockRefreshTokenRepositoryInterface(s.ctrl)
	s.blacklistedTokenRepo = repository_mocks.NewMockBlacklistedTokenRepositoryInterface(s.ctrl)
	s.categoryService = service_mocks.NewMockCategoryServiceInterface(s.ctrl)
	s.passwordService = service_mocks.NewMockPasswordServiceInterface(s.ctrl)
	s.tokenService = service_mocks.NewMockTokenServiceInterface(s.ctrl)
	s.auditService = service_mocks.NewMockAuditServiceInterface(s.ctrl)
	s.metrics = service_mocks.NewMockMetricsRecorderInterface(s.ctrl)
	s.metrics.EXPECT().IncrementCounter(gomock.Any(), gomock.Any()).AnyTimes()

	security := config.SecurityConfig{MaxFailedAttempts: 3, LockoutDuration: 15 * time.Minute}
	s.authService = NewAuthService(s.userRepo, s.refreshTokenRepo, s.blacklistedTokenRepo, s.categoryService,
		s.passwordService, s.tokenService, s.auditService, s.metrics, security, logging.Discard())
}

func (s *AuthServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) expectAudit(action string) {
	s.auditService.EXPECT().Record(gomock.Any(), gomock.Any(), action, gomock.Any(), gomock.Any(), gomock.Any()).Times(1)
}

func (s *AuthServiceTestSuite) TestRegister_SuccessfulRegistration() {
	req := &dto.RegisterRequest{
		Name:     "John Doe",
		Email:    "New@Example.com ",
		Password: "SecurePass123",
	}

	s.userRepo.EXPECT().GetByEmail("new@example.com").Return(nil, repositories.ErrUserNotFound)
	s.passwordService.EXPECT().ValidatePassword(req.Password).Return(nil)
	s.passwordService.EXPECT().HashPassword(req.Password).Return("hashed_password", nil)
	s.userRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(user *models.User) error {
		user.ID = uuid.New()
		return nil
	})
	s.categoryService.EXPECT().CreateDefaults(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.expectAudit(models.AuditActionRegister)

	user, err := s.authService.Register(s.ctx, req)

	s.NoError(err)
	s.Require().NotNil(user)
	s.Equal("new@example.com", user.Email)
	s.Equal("John Doe", user.Name)
	s.Equal("hashed_password", user.PasswordHash)
}

func (s *AuthServiceTestSuite) TestRegister_DefaultCategoryFailureIsNotFatal() {
	req := &dto.RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "SecurePass123"}

	s.userRepo.EXPECT().GetByEmail(req.Email).Return(nil, repositories.ErrUserNotFound)
	s.passwordService.EXPECT().ValidatePassword(req.Password).Return(nil)
	s.passwordService.EXPECT().HashPassword(req.Password).Return("hashed", nil)
	s.userRepo.EXPECT().Create(gomock.Any()).Return(nil)
	s.categoryService.EXPECT().CreateDefaults(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	s.expectAudit(models.AuditActionRegister)

	user, err := s.authService.Register(s.ctx, req)
	s.NoError(err)
	s.NotNil(user)
}

func (s *AuthServiceTestSuite) TestRegister_UserAlreadyExists() {
	req := &dto.RegisterRequest{Name: "Jane", Email: "existing@example.com", Password: "SecurePass123"}

	s.userRepo.EXPECT().GetByEmail(req.Email).Return(&models.User{Email: req.Email}, nil)
	s.expectAudit(models.AuditActionRegister)

	user, err := s.authService.Register(s.ctx, req)
	s.ErrorIs(err, ErrUserAlreadyExists)
	s.Nil(user)
}

func (s *AuthServiceTestSuite) TestRegister_DuplicateOnInsert() {
	req := &dto.RegisterRequest{Name: "Jane", Email: "race@example.com", Password: "SecurePass123"}

	s.userRepo.EXPECT().GetByEmail(req.Email).Return(nil, repositories.ErrUserNotFound)
	s.passwordService.EXPECT().ValidatePassword(req.Password).Return(nil)
	s.passwordService.EXPECT().HashPassword(req.Password).Return("hashed", nil)
	s.userRepo.EXPECT().Create(gomock.Any()).Return(repositories.ErrEmailAlreadyExists)

	_, err := s.authService.Register(s.ctx, req)
	s.ErrorIs(err, ErrUserAlreadyExists)
}

func (s *AuthServiceTestSuite) TestRegister_WeakPassword() {
	req := &dto.RegisterRequest{Name: "Weak", Email: "weak@example.com", Password: "123456"}
	policyErr := &PasswordPolicyError{Err: ErrPasswordTooShort, Min: 8}

	s.userRepo.EXPECT().GetByEmail(req.Email).Return(nil, repositories.ErrUserNotFound)
	s.passwordService.EXPECT().ValidatePassword(req.Password).Return(policyErr)

	user, err := s.authService.Register(s.ctx, req)
	s.ErrorIs(err, ErrPasswordTooShort)
	s.True(IsPasswordPolicyError(err))
	s.Nil(user)
}

func (s *AuthServiceTestSuite) TestLogin_Success() {
	user := &models.User{ID: uuid.New(), Name: "John", Email: "john@example.com", PasswordHash: "hash", FailedLoginAttempts: 2}
	req := &dto.LoginRequest{Email: "john@example.com", Password: "SecurePass123"}
	expiresAt := time.Now().Add(time.Hour)

	s.userRepo.EXPECT().GetByEmail(req.Email).Return(user, nil)
	s.passwordService.EXPECT().ComparePassword(req.Password, "hash").Return(true)
	s.userRepo.EXPECT().RecordLogin(user.ID, gomock.Any()).Return(nil)
	s.tokenService.EXPECT().GenerateAccessToken(user).Return("access", expiresAt, nil)
	s.tokenService.EXPECT().GenerateRefreshToken(user.ID).Return("refresh", expiresAt.Add(time.Hour), nil)
	s.refreshTokenRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(token *models.RefreshToken) error {
		s.Equal(hashToken("refresh"), token.TokenHash)
		s.Equal(user.ID, token.UserID)
		return nil
	})
	s.expectAudit(models.AuditActionLogin)

	tokens, err := s.authService.Login(s.ctx, req)

	s.NoError(err)
	s.Require().NotNil(tokens)
	s.Equal("access", tokens.AccessToken)
	s.Equal("refresh", tokens.RefreshToken)
	s.Equal("Bearer", tokens.TokenType)
	s.Require().NotNil(tokens.User)
	s.Equal(user.ID.String(), tokens.User.ID)
	s.NotNil(tokens.User.LastLoginAt)
	s.Zero(user.FailedLoginAttempts)
}

func (s *AuthServiceTestSuite) TestLogin_UnknownUser() {
	req := &dto.LoginRequest{Email: "ghost@example.com", Password: "whatever"}

	s.userRepo.EXPECT().GetByEmail(req.Email).Return(nil, repositories.ErrUserNotFound)
	s.expectAudit(models.AuditActionFailedLogin)

	_, err := s.authService.Login(s.ctx, req)
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLogin_WrongPasswordCounts() {
	user := &models.User{ID: uuid.New(), Email: "john@example.com", PasswordHash: "hash"}
	req := &dto.LoginRequest{Email: user.Email, Password: "wrong"}

	s.userRepo.EXPECT().GetByEmail(req.Email).Return(user, nil)
	s.passwordService.EXPECT().ComparePassword("wrong", "hash").Return(false)
	s.userRepo.EXPECT().UpdateFailedLoginAttempts(user).Return(nil)
	s.expectAudit(models.AuditActionFailedLogin)

	_, err := s.authService.Login(s.ctx, req)
	s.ErrorIs(err, ErrInvalidCredentials)
	s.Equal(1, user.FailedLoginAttempts)
	s.Nil(user.LockedAt)
}

func (s *AuthServiceTestSuite) TestLogin_LocksAfterMaxAttempts() {
	user := &models.User{ID: uuid.New(), Email: "john@example.com", PasswordHash: "hash", FailedLoginAttempts: 2}
	req := &dto.LoginRequest{Email: user.Email, Password: "wrong"}

	s.userRepo.EXPECT().GetByEmail(req.Email).Return(user, nil)
	s.passwordService.EXPECT().ComparePassword("wrong", "hash").Return(false)
	s.userRepo.EXPECT().UpdateFailedLoginAttempts(user).Return(nil)
	s.expectAudit(models.AuditActionAccountLocked)
	s.expectAudit(models.AuditActionFailedLogin)

	_, err := s.authService.Login(s.ctx, req)
	s.ErrorIs(err, ErrInvalidCredentials)
	s.NotNil(user.LockedAt)
}

func (s *AuthServiceTestSuite) TestLogin_LockedAccount() {
	lockedAt := time.Now().Add(-time.Minute)
	user := &models.User{ID: uuid.New(), Email: "john@example.com", PasswordHash: "hash", FailedLoginAttempts: 3, LockedAt: &lockedAt}
	req := &dto.LoginRequest{Email: user.Email, Password: "SecurePass123"}

	s.userRepo.EXPECT().GetByEmail(req.Email).Return(user, nil)
	s.expectAudit(models.AuditActionFailedLogin)

	_, err := s.authService.Login(s.ctx, req)
	s.ErrorIs(err, ErrAccountLocked)
}

func (s *AuthServiceTestSuite) TestLogin_ExpiredLockStartsAfresh() {
	lockedAt := time.Now().Add(-time.Hour)
	user := &models.User{ID: uuid.New(), Email: "john@example.com", PasswordHash: "hash", FailedLoginAttempts: 3, LockedAt: &lockedAt}
	req := &dto.LoginRequest{Email: user.Email, Password: "wrong"}

	s.userRepo.EXPECT().GetByEmail(req.Email).Return(user, nil)
	s.passwordService.EXPECT().ComparePassword("wrong", "hash").Return(false)
	s.userRepo.EXPECT().UpdateFailedLoginAttempts(user).Return(nil)
	s.expectAudit(models.AuditActionFailedLogin)

	_, err := s.authService.Login(s.ctx, req)
	s.ErrorIs(err, ErrInvalidCredentials)
	s.Equal(1, user.FailedLoginAttempts)
	s.Nil(user.LockedAt)
}

func (s *AuthServiceTestSuite) TestRefreshTokens_Rotates() {
	user := &models.User{ID: uuid.New(), Email: "john@example.com"}
	stored := &models.RefreshToken{ID: uuid.New(), UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	claims := &models.CustomClaims{UserID: user.ID.String(), TokenType: models.TokenTypeRefresh}

	s.tokenService.EXPECT().ValidateRefreshToken("old-refresh").Return(claims, nil)
	s.refreshTokenRepo.EXPECT().GetByTokenHash(hashToken("old-refresh")).Return(stored, nil)
	s.userRepo.EXPECT().GetByID(user.ID).Return(user, nil)
	s.tokenService.EXPECT().GenerateAccessToken(user).Return("new-access", time.Now().Add(time.Hour), nil)
	s.tokenService.EXPECT().GenerateRefreshToken(user.ID).Return("new-refresh", time.Now().Add(24*time.Hour), nil)
	s.refreshTokenRepo.EXPECT().Rotate(stored.ID, gomock.Any()).DoAndReturn(func(_ uuid.UUID, next *models.RefreshToken) error {
		s.Equal(hashToken("new-refresh"), next.TokenHash)
		return nil
	})
	s.expectAudit(models.AuditActionTokenRefresh)

	tokens, err := s.authService.RefreshTokens(s.ctx, "old-refresh")

	s.NoError(err)
	s.Equal("new-access", tokens.AccessToken)
	s.Equal("new-refresh", tokens.RefreshToken)
}

func (s *AuthServiceTestSuite) TestRefreshTokens_InvalidJWT() {
	s.tokenService.EXPECT().ValidateRefreshToken("garbage").Return(nil, ErrInvalidToken)
	s.expectAudit(models.AuditActionTokenRefresh)

	_, err := s.authService.RefreshTokens(s.ctx, "garbage")
	s.ErrorIs(err, ErrInvalidRefreshToken)
}

func (s *AuthServiceTestSuite) TestRefreshTokens_RevokedToken() {
	userID := uuid.New()
	revokedAt := time.Now()
	stored := &models.RefreshToken{ID: uuid.New(), UserID: userID, ExpiresAt: time.Now().Add(time.Hour), RevokedAt: &revokedAt}

	s.tokenService.EXPECT().ValidateRefreshToken("token").Return(&models.CustomClaims{UserID: userID.String()}, nil)
	s.refreshTokenRepo.EXPECT().GetByTokenHash(hashToken("token")).Return(stored, nil)
	s.expectAudit(models.AuditActionTokenRefresh)

	_, err := s.authService.RefreshTokens(s.ctx, "token")
	s.ErrorIs(err, ErrInvalidRefreshToken)
}

func (s *AuthServiceTestSuite) TestRefreshTokens_LostRotationRace() {
	user := &models.User{ID: uuid.New()}
	stored := &models.RefreshToken{ID: uuid.New(), UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}

	s.tokenService.EXPECT().ValidateRefreshToken("token").Return(&models.CustomClaims{UserID: user.ID.String()}, nil)
	s.refreshTokenRepo.EXPECT().GetByTokenHash(hashToken("token")).Return(stored, nil)
	s.userRepo.EXPECT().GetByID(user.ID).Return(user, nil)
	s.tokenService.EXPECT().GenerateAccessToken(user).Return("a", time.Now(), nil)
	s.tokenService.EXPECT().GenerateRefreshToken(user.ID).Return("r", time.Now(), nil)
	s.refreshTokenRepo.EXPECT().Rotate(stored.ID, gomock.Any()).Return(repositories.ErrRefreshTokenNotFound)
	s.expectAudit(models.AuditActionTokenRefresh)

	_, err := s.authService.RefreshTokens(s.ctx, "token")
	s.ErrorIs(err, ErrInvalidRefreshToken)
}

func (s *AuthServiceTestSuite) TestLogout_BlacklistsAndRevokes() {
	userID := uuid.New()
	claims := &models.CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: userID.String(),
	}

	s.tokenService.EXPECT().ValidateAccessToken("access").Return(claims, nil)
	s.blacklistedTokenRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(token *models.BlacklistedToken) error {
		s.Equal("jti-123", token.JTI)
		s.Equal(userID, token.UserID)
		s.WithinDuration(claims.ExpiresAt.Time, token.ExpiresAt, time.Second)
		return nil
	})
	s.refreshTokenRepo.EXPECT().RevokeAllForUser(userID).Return(nil)
	s.expectAudit(models.AuditActionLogout)

	s.NoError(s.authService.Logout(s.ctx, "access"))
}

func (s *AuthServiceTestSuite) TestLogout_InvalidTokenIsIgnored() {
	s.tokenService.EXPECT().ValidateAccessToken("expired").Return(nil, ErrExpiredToken)

	s.NoError(s.authService.Logout(s.ctx, "expired"))
}

func (s *AuthServiceTestSuite) TestLogout_BlacklistFailure() {
	userID := uuid.New()
	claims := &models.CustomClaims{RegisteredClaims: jwt.RegisteredClaims{ID: "jti"}, UserID: userID.String()}

	s.tokenService.EXPECT().ValidateAccessToken("access").Return(claims, nil)
	s.blacklistedTokenRepo.EXPECT().Create(gomock.Any()).Return(errors.New("db down"))

	s.Error(s.authService.Logout(s.ctx, "access"))
}
