package services

import (
	"context"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"

	"github.com/google/uuid"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
}

// UserServiceInterface covers self-service profile operations
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req *dto.ChangePasswordRequest) error
	GetActivity(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
}

type TokenServiceInterface interface {
	GenerateAccessToken(user *models.User) (string, time.Time, error)
	GenerateRefreshToken(userID uuid.UUID) (string, time.Time, error)
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ValidateRefreshToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
}

type PasswordServiceInterface interface {
	ValidatePassword(password string) error
	HashPassword(password string) (string, error)
	ComparePassword(password, hash string) bool
}

// AuditServiceInterface defines the contract for audit logging operations
type AuditServiceInterface interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	// Record never fails the caller; storage errors are logged.
	Record(ctx context.Context, userID *uuid.UUID, action, resource, resourceID string, metadata models.JSONBMap)
	GetUserActivity(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

type CategoryServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, entryType string) ([]models.Category, error)
	Get(ctx context.Context, userID, categoryID uuid.UUID) (*models.Category, error)
	Create(ctx context.Context, userID uuid.UUID, req *dto.CreateCategoryRequest) (*models.Category, error)
	Update(ctx context.Context, userID, categoryID uuid.UUID, req *dto.UpdateCategoryRequest) (*models.Category, error)
	Delete(ctx context.Context, userID, categoryID uuid.UUID) error
	CreateDefaults(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
	RestoreDefaults(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
}

type TransactionServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, filters models.TransactionFilters) ([]models.Transaction, int64, error)
	Get(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error)
	Create(ctx context.Context, userID uuid.UUID, req *dto.CreateTransactionRequest) (*models.Transaction, error)
	Update(ctx context.Context, userID, transactionID uuid.UUID, req *dto.UpdateTransactionRequest) (*models.Transaction, error)
	Delete(ctx context.Context, userID, transactionID uuid.UUID) error
}

type StatsServiceInterface interface {
	GetBalance(ctx context.Context, userID uuid.UUID, filters models.TransactionFilters) (*models.Balance, error)
	GetMonthlyStats(ctx context.Context, userID uuid.UUID, filters models.TransactionFilters) ([]models.MonthlyStat, error)
	GetCategoryStats(ctx context.Context, userID uuid.UUID, filters models.TransactionFilters) ([]models.CategoryStat, error)
}

// DemoDataServiceInterface fills an account with plausible history for demos and local testing
type DemoDataServiceInterface interface {
	GenerateTransactions(ctx context.Context, userID uuid.UUID, count, days int) ([]models.Transaction, error)
	SeedDemoUser(ctx context.Context) (*models.User, error)
}

type CleanupServiceInterface interface {
	RunOnce(ctx context.Context) error
	Start(ctx context.Context) error
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}
