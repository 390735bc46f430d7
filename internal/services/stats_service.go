package services

import (
	"context"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// StatsService serves the aggregate views; the summing happens in SQL.
type StatsService struct {
	transactionRepo repositories.TransactionRepositoryInterface
	metrics         MetricsRecorderInterface
}

func NewStatsService(transactionRepo repositories.TransactionRepositoryInterface, metrics MetricsRecorderInterface) StatsServiceInterface {
	return &StatsService{
		transactionRepo: transactionRepo,
		metrics:         metrics,
	}
}

func (s *StatsService) GetBalance(ctx context.Context, userID uuid.UUID, filters models.TransactionFilters) (*models.Balance, error) {
	if filters.HasInvertedRange() {
		return nil, ErrInvalidDateRange
	}
	defer s.observe("stats.balance", time.Now())

	return s.transactionRepo.GetBalance(userID, filters)
}

func (s *StatsService) GetMonthlyStats(ctx context.Context, userID uuid.UUID, filters models.TransactionFilters) ([]models.MonthlyStat, error) {
	if filters.HasInvertedRange() {
		return nil, ErrInvalidDateRange
	}
	defer s.observe("stats.monthly", time.Now())

	return s.transactionRepo.GetMonthlyStats(userID, filters)
}

// GetCategoryStats covers expenses unless filters name a type, and fills in
// each category's share of the total.
func (s *StatsService) GetCategoryStats(ctx context.Context, userID uuid.UUID, filters models.TransactionFilters) ([]models.CategoryStat, error) {
	if filters.HasInvertedRange() {
		return nil, ErrInvalidDateRange
	}
	if filters.Type == "" {
		filters.Type = models.EntryTypeExpense
	}
	if !models.IsValidEntryType(filters.Type) {
		return nil, models.ErrInvalidEntryType
	}
	defer s.observe("stats.categories", time.Now())

	stats, err := s.transactionRepo.GetCategoryStats(userID, filters)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, stat := range stats {
		total = total.Add(stat.Amount)
	}
	for i := range stats {
		stats[i].Percentage = Percentage(stats[i].Amount, total)
	}

	return stats, nil
}

// Percentage is part/total*100 rounded to two places, zero when total is zero.
func Percentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(total).Round(2)
}

func (s *StatsService) observe(name string, started time.Time) {
	if s.metrics != nil {
		s.metrics.RecordProcessingTime(name, time.Since(started))
	}
}
