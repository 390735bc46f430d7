package repositories

import (
	"time"

	"fintrack/internal/models"

	"github.com/google/uuid"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByEmailExcluding(email string, excludeUserID uuid.UUID) (*models.User, error)
	Update(user *models.User) error
	UpdateFields(userID uuid.UUID, fields map[string]interface{}) error
	UpdatePasswordHash(userID uuid.UUID, passwordHash string) error
	UpdateFailedLoginAttempts(user *models.User) error
	RecordLogin(userID uuid.UUID, at time.Time) error
}

// CategoryRepositoryInterface defines the contract for category repository operations.
// Every lookup is scoped to the owning user.
type CategoryRepositoryInterface interface {
	Create(category *models.Category) error
	CreateBatch(categories []models.Category) error
	GetByIDForUser(id, userID uuid.UUID) (*models.Category, error)
	ListByUser(userID uuid.UUID, entryType string) ([]models.Category, error)
	Update(category *models.Category) error
	Delete(id, userID uuid.UUID) error
	CountTransactions(categoryID uuid.UUID) (int64, error)
	CountTransactionsByType(categoryID uuid.UUID, entryType string) (int64, error)
}

// TransactionRepositoryInterface defines the contract for transaction repository operations
type TransactionRepositoryInterface interface {
	Create(transaction *models.Transaction) error
	CreateBatch(transactions []models.Transaction) error
	GetByIDForUser(id, userID uuid.UUID) (*models.Transaction, error)
	GetWithFilters(userID uuid.UUID, filters models.TransactionFilters) ([]models.Transaction, int64, error)
	Update(transaction *models.Transaction) error
	Delete(id, userID uuid.UUID) error

	// Aggregates honour the date, category and type filters but ignore paging.
	GetBalance(userID uuid.UUID, filters models.TransactionFilters) (*models.Balance, error)
	GetMonthlyStats(userID uuid.UUID, filters models.TransactionFilters) ([]models.MonthlyStat, error)
	GetCategoryStats(userID uuid.UUID, filters models.TransactionFilters) ([]models.CategoryStat, error)
}

// AuditLogRepositoryInterface defines the contract for audit log repository operations
type AuditLogRepositoryInterface interface {
	Create(log *models.AuditLog) error
	GetByUserID(userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
	DeleteOlderThan(duration time.Duration) (int64, error)
}

type RefreshTokenRepositoryInterface interface {
	Create(token *models.RefreshToken) error
	GetByTokenHash(tokenHash string) (*models.RefreshToken, error)
	Rotate(oldTokenID uuid.UUID, next *models.RefreshToken) error
	RevokeAllForUser(userID uuid.UUID) error
	DeleteExpired() (int64, error)
	DeleteRevokedOlderThan(duration time.Duration) (int64, error)
}

// BlacklistedTokenRepositoryInterface defines the contract for blacklisted token repository operations
type BlacklistedTokenRepositoryInterface interface {
	Create(token *models.BlacklistedToken) error
	IsBlacklisted(jti string) (bool, error)
	DeleteExpired() (int64, error)
}
