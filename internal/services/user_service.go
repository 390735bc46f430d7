package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrNoProfileChanges   = errors.New("no updates provided")
)

// UserService handles self-service profile operations
type UserService struct {
	userRepo         repositories.UserRepositoryInterface
	refreshTokenRepo repositories.RefreshTokenRepositoryInterface
	passwordService  PasswordServiceInterface
	auditService     AuditServiceInterface
	logger           *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepositoryInterface,
	refreshTokenRepo repositories.RefreshTokenRepositoryInterface,
	passwordService PasswordServiceInterface,
	auditService AuditServiceInterface,
	logger *slog.Logger,
) UserServiceInterface {
	return &UserService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		passwordService:  passwordService,
		auditService:     auditService,
		logger:           logger,
	}
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return user, nil
}

// UpdateProfile applies the non-nil fields of req. A new email must not belong to another user.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error) {
	if req == nil || req.IsEmpty() {
		return nil, ErrNoProfileChanges
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0, 3)
	emailChanged := false

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != user.Name {
			user.Name = name
			changed = append(changed, "name")
		}
	}

	if req.Email != nil {
		email := models.NormalizeEmail(*req.Email)
		if email != user.Email {
			existing, err := s.userRepo.GetByEmailExcluding(email, userID)
			if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
				return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
			}
			if existing != nil {
				return nil, ErrEmailAlreadyExists
			}
			user.Email = email
			emailChanged = true
			changed = append(changed, "email")
		}
	}

	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if !models.IsValidCurrency(currency) {
			return nil, models.ErrInvalidCurrency
		}
		if currency != user.Currency {
			user.Currency = currency
			changed = append(changed, "currency")
		}
	}

	if len(changed) == 0 {
		return user, nil
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, repositories.ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}

	s.auditService.Record(ctx, &user.ID, models.AuditActionProfileUpdated, models.AuditResourceUser, user.ID.String(),
		models.JSONBMap{"fields": changed})
	if emailChanged {
		s.auditService.Record(ctx, &user.ID, models.AuditActionEmailUpdated, models.AuditResourceUser, user.ID.String(),
			models.JSONBMap{"email": user.Email})
	}

	return user, nil
}

// ChangePassword replaces the password and signs out every other session.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, req *dto.ChangePasswordRequest) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if !s.passwordService.ComparePassword(req.CurrentPassword, user.PasswordHash) {
		return ErrCurrentPasswordWrong
	}

	if req.CurrentPassword == req.NewPassword {
		return ErrSamePassword
	}

	if err := s.passwordService.ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := s.passwordService.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(userID, hash); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.refreshTokenRepo.RevokeAllForUser(userID); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke refresh tokens after password change",
			"error", err,
			"user_id", userID)
	}

	s.auditService.Record(ctx, &userID, models.AuditActionPasswordUpdated, models.AuditResourceUser, userID.String(), nil)

	return nil
}

func (s *UserService) GetActivity(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error) {
	return s.auditService.GetUserActivity(ctx, userID, offset, limit)
}
