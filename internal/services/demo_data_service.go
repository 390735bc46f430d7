package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/models"
	"fintrack/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultDemoCount = 50
	DefaultDemoDays  = 90
	MaxDemoCount     = 1000
	MaxDemoDays      = 730

	DemoUserEmail    = "demo@fintrack.local"
	DemoUserName     = "Demo User"
	DemoUserPassword = "Demo12345"
)

// DemoDataService fills an account with generated history
type DemoDataService struct {
	userRepo        repositories.UserRepositoryInterface
	categoryRepo    repositories.CategoryRepositoryInterface
	transactionRepo repositories.TransactionRepositoryInterface
	passwordService PasswordServiceInterface
	auditService    AuditServiceInterface
	metrics         MetricsRecorderInterface
	generator       *transactionGenerator
	logger          *slog.Logger
}

func NewDemoDataService(
	userRepo repositories.UserRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	transactionRepo repositories.TransactionRepositoryInterface,
	passwordService PasswordServiceInterface,
	auditService AuditServiceInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) DemoDataServiceInterface {
	return &DemoDataService{
		userRepo:        userRepo,
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
		passwordService: passwordService,
		auditService:    auditService,
		metrics:         metrics,
		generator:       newTransactionGenerator(),
		logger:          logger,
	}
}

// GenerateTransactions adds count random entries over the last days days, plus
// a monthly salary and rent when the user has those categories. Users without
// categories get the defaults first.
func (s *DemoDataService) GenerateTransactions(ctx context.Context, userID uuid.UUID, count, days int) ([]models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}
	count = clamp(count, DefaultDemoCount, MaxDemoCount)
	days = clamp(days, DefaultDemoDays, MaxDemoDays)

	categories, err := s.categoryRepo.ListByUser(userID, "")
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		categories = models.DefaultCategories(userID)
		if err := s.categoryRepo.CreateBatch(categories); err != nil {
			return nil, fmt.Errorf("failed to create default categories: %w", err)
		}
	}

	var income, expense []models.Category
	var salary, rent *models.Category
	for i := range categories {
		c := categories[i]
		switch {
		case c.Name == "Salary" && c.IsIncome():
			salary = &categories[i]
		case c.Name == "Rent" && !c.IsIncome():
			rent = &categories[i]
		case c.IsIncome():
			income = append(income, c)
		default:
			expense = append(expense, c)
		}
	}

	end := models.Today().Time
	start := end.AddDate(0, 0, -days)

	transactions := s.generator.Random(userID, income, expense, count, start, end)
	if salary != nil {
		transactions = append(transactions, s.generator.Recurring(userID, *salary, salaryDayOfMonth, start, end)...)
	}
	if rent != nil {
		transactions = append(transactions, s.generator.Recurring(userID, *rent, billDayOfMonth, start, end)...)
	}

	if err := s.transactionRepo.CreateBatch(transactions); err != nil {
		return nil, fmt.Errorf("failed to store demo transactions: %w", err)
	}

	net := decimal.Zero
	for i := range transactions {
		net = net.Add(transactions[i].SignedAmount())
		if s.metrics != nil {
			s.metrics.IncrementCounter("demo_transaction_generated", nil)
		}
	}
	s.auditService.Record(ctx, &userID, models.AuditActionDemoDataGenerated, models.AuditResourceTransaction, "",
		models.JSONBMap{"created": len(transactions), "days": days, "net": net.StringFixed(2)})

	s.logger.InfoContext(ctx, "demo transactions generated",
		"user_id", userID,
		"created", len(transactions),
		"days", days,
		"net", net.StringFixed(2))

	return transactions, nil
}

// SeedDemoUser creates the demo account once; later calls return the existing user untouched.
func (s *DemoDataService) SeedDemoUser(ctx context.Context) (*models.User, error) {
	existing, err := s.userRepo.GetByEmail(DemoUserEmail)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up demo user: %w", err)
	}

	hash, err := s.passwordService.HashPassword(DemoUserPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash demo password: %w", err)
	}

	user := &models.User{
		Name:         DemoUserName,
		Email:        DemoUserEmail,
		PasswordHash: hash,
		Currency:     models.DefaultCurrency,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create demo user: %w", err)
	}

	if _, err := s.GenerateTransactions(ctx, user.ID, 120, 180); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "demo user seeded", "email", DemoUserEmail)
	return user, nil
}

func clamp(value, fallback, maxValue int) int {
	if value <= 0 {
		return fallback
	}
	if value > maxValue {
		return maxValue
	}
	return value
}
