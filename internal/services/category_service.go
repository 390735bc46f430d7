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
)

var (
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryInUse        = errors.New("category has transactions")
	ErrCategoryTypeLocked   = errors.New("category type cannot change while transactions of that type reference it")
	ErrNoCategoryChanges    = errors.New("no updates provided")
	ErrCategoryNameRequired = errors.New("category name is required")
)

// CategoryInUseError reports how many transactions block a delete.
type CategoryInUseError struct {
	Count int64
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("cannot delete category: %d transaction(s) still reference it", e.Count)
}

func (e *CategoryInUseError) Unwrap() error {
	return ErrCategoryInUse
}

// CategoryTypeLockedError reports how many transactions pin the current type.
type CategoryTypeLockedError struct {
	Count int64
}

func (e *CategoryTypeLockedError) Error() string {
	return fmt.Sprintf("cannot change category type: %d transaction(s) of the current type reference it", e.Count)
}

func (e *CategoryTypeLockedError) Unwrap() error {
	return ErrCategoryTypeLocked
}

type categoryService struct {
	repo         repositories.CategoryRepositoryInterface
	auditService AuditServiceInterface
	events       eventDispatcher
	metrics      MetricsRecorderInterface
	logger       *slog.Logger
}

// NewCategoryService creates a new CategoryServiceInterface instance
func NewCategoryService(
	repo repositories.CategoryRepositoryInterface,
	auditService AuditServiceInterface,
	publisher events.Publisher,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) CategoryServiceInterface {
	return &categoryService{
		repo:         repo,
		auditService: auditService,
		events:       newEventDispatcher(publisher, metrics, logger),
		metrics:      metrics,
		logger:       logger,
	}
}

func (s *categoryService) List(ctx context.Context, userID uuid.UUID, entryType string) ([]models.Category, error) {
	if entryType != "" && !models.IsValidEntryType(entryType) {
		return nil, models.ErrInvalidEntryType
	}
	return s.repo.ListByUser(userID, entryType)
}

func (s *categoryService) Get(ctx context.Context, userID, categoryID uuid.UUID) (*models.Category, error) {
	category, err := s.repo.GetByIDForUser(categoryID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrCategoryNameRequired
	}
	if !models.IsValidEntryType(req.Type) {
		return nil, models.ErrInvalidEntryType
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Type:   req.Type,
		Color:  req.Color,
	}
	if err := s.repo.Create(category); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, userID, category, "create", models.AuditActionCategoryCreated, events.CategoryCreated, category)
	return category, nil
}

// Update applies the non-nil fields of req. The type may only change while no
// transaction of the current type references the category.
func (s *categoryService) Update(ctx context.Context, userID, categoryID uuid.UUID, req *dto.UpdateCategoryRequest) (*models.Category, error) {
	if req == nil || (req.Name == nil && req.Type == nil && req.Color == nil) {
		return nil, ErrNoCategoryChanges
	}

	category, err := s.Get(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	if req.Type != nil && *req.Type != category.Type {
		if !models.IsValidEntryType(*req.Type) {
			return nil, models.ErrInvalidEntryType
		}
		count, err := s.repo.CountTransactionsByType(category.ID, category.Type)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, &CategoryTypeLockedError{Count: count}
		}
		category.Type = *req.Type
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrCategoryNameRequired
		}
		category.Name = name
	}
	if req.Color != nil {
		category.Color = *req.Color
	}

	if err := s.repo.Update(category); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, userID, category, "update", models.AuditActionCategoryUpdated, events.CategoryUpdated, category)
	return category, nil
}

// Delete refuses while any transaction references the category.
func (s *categoryService) Delete(ctx context.Context, userID, categoryID uuid.UUID) error {
	category, err := s.Get(ctx, userID, categoryID)
	if err != nil {
		return err
	}

	count, err := s.repo.CountTransactions(category.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &CategoryInUseError{Count: count}
	}

	if err := s.repo.Delete(category.ID, userID); err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	s.afterMutation(ctx, userID, category, "delete", models.AuditActionCategoryDeleted, events.CategoryDeleted, nil)
	return nil
}

// CreateDefaults gives a new user the starter categories.
func (s *categoryService) CreateDefaults(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	categories := models.DefaultCategories(userID)
	if err := s.repo.CreateBatch(categories); err != nil {
		return nil, fmt.Errorf("failed to create default categories: %w", err)
	}
	return categories, nil
}

// RestoreDefaults recreates the starter categories the user no longer has,
// matched by name and type, and returns only the ones it created.
func (s *categoryService) RestoreDefaults(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	existing, err := s.repo.ListByUser(userID, "")
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[defaultKey(c.Name, c.Type)] = true
	}

	missing := make([]models.Category, 0)
	for _, c := range models.DefaultCategories(userID) {
		if !have[defaultKey(c.Name, c.Type)] {
			missing = append(missing, c)
		}
	}

	if len(missing) == 0 {
		return missing, nil
	}
	if err := s.repo.CreateBatch(missing); err != nil {
		return nil, fmt.Errorf("failed to restore default categories: %w", err)
	}

	for i := range missing {
		s.afterMutation(ctx, userID, &missing[i], "create", models.AuditActionCategoryCreated, events.CategoryCreated, &missing[i])
	}
	return missing, nil
}

func (s *categoryService) afterMutation(ctx context.Context, userID uuid.UUID, category *models.Category, operation, action, eventType string, payload interface{}) {
	s.auditService.Record(ctx, &userID, action, models.AuditResourceCategory, category.ID.String(),
		models.JSONBMap{"name": category.Name, "type": category.Type})
	if s.metrics != nil {
		s.metrics.IncrementCounter("category_mutation", map[string]string{"operation": operation})
	}
	s.events.dispatch(ctx, events.New(eventType, userID, category.ID, payload))
}

func defaultKey(name, entryType string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + entryType
}
