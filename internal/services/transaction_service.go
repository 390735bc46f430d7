package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/dto"
	"fintrack/internal/events"
	"fintrack/internal/models"
	"fintrack/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrCategoryTypeMismatch = models.ErrCategoryTypeMismatch
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidCategoryID    = errors.New("invalid category ID")
	ErrNoTransactionChanges = errors.New("no updates provided")
	ErrInvalidDateRange     = errors.New("start date must not be after end date")
)

// TransactionService keeps every transaction's type in step with its category.
type TransactionService struct {
	transactionRepo repositories.TransactionRepositoryInterface
	categoryRepo    repositories.CategoryRepositoryInterface
	auditService    AuditServiceInterface
	events          eventDispatcher
	metrics         MetricsRecorderInterface
	logger          *slog.Logger
}

func NewTransactionService(
	transactionRepo repositories.TransactionRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	auditService AuditServiceInterface,
	publisher events.Publisher,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) TransactionServiceInterface {
	return &TransactionService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		auditService:    auditService,
		events:          newEventDispatcher(publisher, metrics, logger),
		metrics:         metrics,
		logger:          logger,
	}
}

func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, filters models.TransactionFilters) ([]models.Transaction, int64, error) {
	if filters.HasInvertedRange() {
		return nil, 0, ErrInvalidDateRange
	}
	if filters.Type != "" && !models.IsValidEntryType(filters.Type) {
		return nil, 0, models.ErrInvalidEntryType
	}
	filters.Normalize()
	return s.transactionRepo.GetWithFilters(userID, filters)
}

func (s *TransactionService) Get(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.transactionRepo.GetByIDForUser(transactionID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// Create stores a new entry. The category must belong to the user; an omitted
// type is taken from the category and a given one must match it.
func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateTransactionRequest) (*models.Transaction, error) {
	categoryID, err := parseCategoryID(req.CategoryID)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount.String())
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	category, err := s.loadCategory(userID, categoryID)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:      userID,
		CategoryID:  category.ID,
		Type:        category.Type,
		Amount:      amount,
		Description: strings.TrimSpace(req.Description),
		Date:        date,
	}
	if req.Type != "" {
		transaction.Type = req.Type
	}
	if !transaction.MatchesCategory(category) {
		return nil, ErrCategoryTypeMismatch
	}

	if err := s.transactionRepo.Create(transaction); err != nil {
		return nil, err
	}
	transaction.Category = *category

	s.afterMutation(ctx, userID, transaction, "create", models.AuditActionTransactionCreated, events.TransactionCreated, true)
	return transaction, nil
}

// Update applies the non-nil fields of req and re-checks the type against the
// category. Moving to another category without naming a type adopts that
// category's type.
func (s *TransactionService) Update(ctx context.Context, userID, transactionID uuid.UUID, req *dto.UpdateTransactionRequest) (*models.Transaction, error) {
	if req == nil || (req.CategoryID == nil && req.Type == nil && req.Amount == nil && req.Description == nil && req.Date == nil) {
		return nil, ErrNoTransactionChanges
	}

	transaction, err := s.Get(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	category := &transaction.Category
	if req.CategoryID != nil {
		categoryID, err := parseCategoryID(*req.CategoryID)
		if err != nil {
			return nil, err
		}
		if categoryID != transaction.CategoryID {
			category, err = s.loadCategory(userID, categoryID)
			if err != nil {
				return nil, err
			}
			transaction.CategoryID = category.ID
			transaction.Type = category.Type
		}
	}

	if req.Type != nil {
		transaction.Type = *req.Type
	}
	if !transaction.MatchesCategory(category) {
		return nil, ErrCategoryTypeMismatch
	}

	if req.Amount != nil {
		amount, err := parseAmount(req.Amount.String())
		if err != nil {
			return nil, err
		}
		transaction.Amount = amount
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		transaction.Date = date
	}
	if req.Description != nil {
		transaction.Description = strings.TrimSpace(*req.Description)
	}

	if err := s.transactionRepo.Update(transaction); err != nil {
		return nil, err
	}
	transaction.Category = *category

	s.afterMutation(ctx, userID, transaction, "update", models.AuditActionTransactionUpdated, events.TransactionUpdated, true)
	return transaction, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, transactionID uuid.UUID) error {
	transaction, err := s.Get(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.transactionRepo.Delete(transaction.ID, userID); err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}

	s.afterMutation(ctx, userID, transaction, "delete", models.AuditActionTransactionDeleted, events.TransactionDeleted, false)
	return nil
}

func (s *TransactionService) loadCategory(userID, categoryID uuid.UUID) (*models.Category, error) {
	category, err := s.categoryRepo.GetByIDForUser(categoryID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *TransactionService) afterMutation(ctx context.Context, userID uuid.UUID, transaction *models.Transaction, operation, action, eventType string, withPayload bool) {
	s.auditService.Record(ctx, &userID, action, models.AuditResourceTransaction, transaction.ID.String(),
		models.JSONBMap{
			"category_id": transaction.CategoryID.String(),
			"type":        transaction.Type,
			"amount":      transaction.Amount.StringFixed(2),
			"date":        transaction.Date.String(),
		})

	if s.metrics != nil {
		s.metrics.IncrementCounter("transaction_mutation", map[string]string{"operation": operation, "type": transaction.Type})
		if operation == "create" {
			s.metrics.RecordGauge("transaction_amount", transaction.Amount.InexactFloat64(), map[string]string{"type": transaction.Type})
		}
	}

	var payload interface{}
	if withPayload {
		payload = dto.NewTransactionResponse(transaction)
	}
	s.events.dispatch(ctx, events.New(eventType, userID, transaction.ID, payload))
}

func parseCategoryID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidCategoryID
	}
	return id, nil
}

func parseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, err)
	}
	if err := models.ValidateAmount(amount); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, err)
	}
	return amount, nil
}

func parseDate(value string) (models.Date, error) {
	date, err := models.ParseDate(value)
	if err != nil {
		return models.Date{}, fmt.Errorf("%w: %s", ErrInvalidDate, err)
	}
	return date, nil
}
