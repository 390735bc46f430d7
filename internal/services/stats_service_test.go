package services

import (
	"context"
	"testing"

	"fintrack/internal/models"
	"fintrack/internal/repositories/repository_mocks"
	"fintrack/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatsServiceForTest(t *testing.T) (*repository_mocks.MockTransactionRepositoryInterface, StatsServiceInterface) {
	ctrl := gomock.NewController(t)
	repo := repository_mocks.NewMockTransactionRepositoryInterface(ctrl)
	metrics := service_mocks.NewMockMetricsRecorderInterface(ctrl)
	metrics.EXPECT().RecordProcessingTime(gomock.Any(), gomock.Any()).AnyTimes()
	return repo, NewStatsService(repo, metrics)
}

func TestStatsService_GetBalance(t *testing.T) {
	repo, service := newStatsServiceForTest(t)
	userID := uuid.New()
	want := &models.Balance{
		Income:  decimal.RequireFromString("100"),
		Expense: decimal.RequireFromString("40"),
		Balance: decimal.RequireFromString("60"),
	}
	repo.EXPECT().GetBalance(userID, gomock.Any()).Return(want, nil)

	got, err := service.GetBalance(context.Background(), userID, models.TransactionFilters{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStatsService_RejectsInvertedRange(t *testing.T) {
	_, service := newStatsServiceForTest(t)
	start := models.NewDate(2024, 2, 1)
	end := models.NewDate(2024, 1, 1)
	filters := models.TransactionFilters{StartDate: &start, EndDate: &end}

	_, err := service.GetBalance(context.Background(), uuid.New(), filters)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
	_, err = service.GetMonthlyStats(context.Background(), uuid.New(), filters)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
	_, err = service.GetCategoryStats(context.Background(), uuid.New(), filters)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestStatsService_GetCategoryStats_DefaultsToExpenseAndFillsPercentages(t *testing.T) {
	repo, service := newStatsServiceForTest(t)
	userID := uuid.New()

	repo.EXPECT().GetCategoryStats(userID, gomock.Any()).DoAndReturn(
		func(_ uuid.UUID, f models.TransactionFilters) ([]models.CategoryStat, error) {
			assert.Equal(t, models.EntryTypeExpense, f.Type)
			return []models.CategoryStat{
				{Name: "Rent", Amount: decimal.RequireFromString("200")},
				{Name: "Food", Amount: decimal.RequireFromString("100")},
			}, nil
		})

	stats, err := service.GetCategoryStats(context.Background(), userID, models.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "66.67", stats[0].Percentage.StringFixed(2))
	assert.Equal(t, "33.33", stats[1].Percentage.StringFixed(2))
}

func TestStatsService_GetCategoryStats_IncomeFilter(t *testing.T) {
	repo, service := newStatsServiceForTest(t)
	repo.EXPECT().GetCategoryStats(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ uuid.UUID, f models.TransactionFilters) ([]models.CategoryStat, error) {
			assert.Equal(t, models.EntryTypeIncome, f.Type)
			return []models.CategoryStat{}, nil
		})

	stats, err := service.GetCategoryStats(context.Background(), uuid.New(), models.TransactionFilters{Type: models.EntryTypeIncome})
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestPercentage(t *testing.T) {
	assert.True(t, Percentage(decimal.NewFromInt(5), decimal.Zero).IsZero())
	assert.Equal(t, "100.00", Percentage(decimal.NewFromInt(5), decimal.NewFromInt(5)).StringFixed(2))
	assert.Equal(t, "12.50", Percentage(decimal.NewFromInt(1), decimal.NewFromInt(8)).StringFixed(2))
}
