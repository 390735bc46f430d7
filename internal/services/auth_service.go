package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountLocked       = errors.New("account is locked due to too many failed attempts")
	ErrUserAlreadyExists   = errors.New("user with this email already exists")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo             repositories.UserRepositoryInterface
	refreshTokenRepo     repositories.RefreshTokenRepositoryInterface
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface
	categoryService      CategoryServiceInterface
	passwordService      PasswordServiceInterface
	tokenService         TokenServiceInterface
	auditService         AuditServiceInterface
	metrics              MetricsRecorderInterface
	security             config.SecurityConfig
	logger               *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	refreshTokenRepo repositories.RefreshTokenRepositoryInterface,
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface,
	categoryService CategoryServiceInterface,
	passwordService PasswordServiceInterface,
	tokenService TokenServiceInterface,
	auditService AuditServiceInterface,
	metrics MetricsRecorderInterface,
	security config.SecurityConfig,
	logger *slog.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:             userRepo,
		refreshTokenRepo:     refreshTokenRepo,
		blacklistedTokenRepo: blacklistedTokenRepo,
		categoryService:      categoryService,
		passwordService:      passwordService,
		tokenService:         tokenService,
		auditService:         auditService,
		metrics:              metrics,
		security:             security,
		logger:               logger,
	}
}

// Register creates a new user and seeds the default categories
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	email := models.NormalizeEmail(req.Email)

	existingUser, err := s.userRepo.GetByEmail(email)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		s.auditService.Record(ctx, nil, models.AuditActionRegister, models.AuditResourceUser, "",
			models.JSONBMap{"email": email, "reason": "email_already_exists"})
		return nil, ErrUserAlreadyExists
	}

	if err := s.passwordService.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := s.passwordService.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hashedPassword,
		Currency:     req.Currency,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrEmailAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := s.categoryService.CreateDefaults(ctx, user.ID); err != nil {
		// Non-critical: the user can restore defaults later
		s.logger.WarnContext(ctx, "failed to create default categories",
			"error", err,
			"user_id", user.ID)
	}

	s.auditService.Record(ctx, &user.ID, models.AuditActionRegister, models.AuditResourceUser, user.ID.String(), nil)
	s.recordAuthEvent("register")

	return user, nil
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	email := models.NormalizeEmail(req.Email)

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.auditFailedLogin(ctx, nil, email, "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsLocked(s.security.LockoutDuration) {
		s.auditFailedLogin(ctx, &user.ID, email, "account_locked")
		return nil, ErrAccountLocked
	}
	if user.LockedAt != nil {
		// the lock has run out; start counting afresh
		user.Unlock()
	}

	if !s.passwordService.ComparePassword(req.Password, user.PasswordHash) {
		locked := user.IncrementFailedAttempts(s.maxFailedAttempts())
		if err := s.userRepo.UpdateFailedLoginAttempts(user); err != nil {
			// Security: Never reveal user existence via error messages
			s.logger.ErrorContext(ctx, "failed to update login attempts",
				"error", err,
				"user_id", user.ID)
		}

		if locked {
			s.auditService.Record(ctx, &user.ID, models.AuditActionAccountLocked, models.AuditResourceUser, user.ID.String(),
				models.JSONBMap{"failed_attempts": user.FailedLoginAttempts})
			s.recordAuthEvent("account_locked")
		}

		s.auditFailedLogin(ctx, &user.ID, email, "invalid_password")
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.userRepo.RecordLogin(user.ID, now); err != nil {
		// Non-critical: a stale counter shouldn't block login
		s.logger.WarnContext(ctx, "failed to record login",
			"error", err,
			"user_id", user.ID)
	}
	user.ResetFailedAttempts()
	user.LastLoginAt = &now

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	tokens.User = dto.NewUserProfileResponse(user)

	s.auditService.Record(ctx, &user.ID, models.AuditActionLogin, models.AuditResourceAuth, user.ID.String(), nil)
	s.recordAuthEvent("login")

	return tokens, nil
}

// RefreshTokens exchanges a valid refresh token for a new pair. The presented
// token is revoked in the same database transaction that stores its successor.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.tokenService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.auditFailedTokenRefresh(ctx, nil, "invalid_token")
		return nil, ErrInvalidRefreshToken
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	storedToken, err := s.refreshTokenRepo.GetByTokenHash(hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			s.auditFailedTokenRefresh(ctx, &userID, "token_not_found")
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if !storedToken.IsValid() || storedToken.UserID != userID {
		s.auditFailedTokenRefresh(ctx, &userID, "token_expired_or_revoked")
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	accessToken, expiresAt, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	nextRefresh, refreshExpiresAt, err := s.tokenService.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	next := models.NewRefreshToken(user.ID, hashToken(nextRefresh), refreshExpiresAt)
	if err := s.refreshTokenRepo.Rotate(storedToken.ID, next); err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			// lost a race with another refresh of the same token
			s.auditFailedTokenRefresh(ctx, &userID, "token_already_rotated")
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	s.auditService.Record(ctx, &user.ID, models.AuditActionTokenRefresh, models.AuditResourceAuth, user.ID.String(), nil)
	s.recordAuthEvent("token_refresh")

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: nextRefresh,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

// Logout blacklists the access token and revokes every refresh token of its owner.
// A token that no longer validates is already unusable, so it is ignored.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokenService.ValidateAccessToken(accessToken)
	if err != nil {
		s.logger.DebugContext(ctx, "logout with unusable token", "error", err)
		return nil
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil
	}

	if err := s.blacklistedTokenRepo.Create(models.NewBlacklistedToken(userID, claims)); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	if err := s.refreshTokenRepo.RevokeAllForUser(userID); err != nil {
		// Non-critical: the access token is already revoked
		s.logger.WarnContext(ctx, "failed to revoke refresh tokens",
			"error", err,
			"user_id", userID)
	}

	s.auditService.Record(ctx, &userID, models.AuditActionLogout, models.AuditResourceAuth, userID.String(), nil)
	s.recordAuthEvent("logout")

	return nil
}

func (s *AuthService) generateTokens(user *models.User) (*dto.TokenResponse, error) {
	accessToken, expiresAt, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, refreshExpiresAt, err := s.tokenService.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.refreshTokenRepo.Create(models.NewRefreshToken(user.ID, hashToken(refreshToken), refreshExpiresAt)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *AuthService) maxFailedAttempts() int {
	if s.security.MaxFailedAttempts <= 0 {
		return 5
	}
	return s.security.MaxFailedAttempts
}

func (s *AuthService) recordAuthEvent(eventType string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementCounter("authentication_event", map[string]string{"event_type": eventType})
}

func (s *AuthService) auditFailedLogin(ctx context.Context, userID *uuid.UUID, email, reason string) {
	s.auditService.Record(ctx, userID, models.AuditActionFailedLogin, models.AuditResourceAuth, "",
		models.JSONBMap{"email": email, "reason": reason})
	s.recordAuthEvent("failed_login")
}

func (s *AuthService) auditFailedTokenRefresh(ctx context.Context, userID *uuid.UUID, reason string) {
	s.auditService.Record(ctx, userID, models.AuditActionTokenRefresh, models.AuditResourceAuth, "",
		models.JSONBMap{"reason": reason, "success": false})
}

func hashToken(token string) string {
	hasher := sha256.New()
	hasher.Write([]byte(token))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}
